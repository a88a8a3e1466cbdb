package internal

import "testing"

type row struct {
	ID   uint64
	Name string
}

func newRowTable() *Table[row] {
	return NewTable(func(r row) uint64 { return r.ID })
}

func TestTableInsertAssignsIncreasingIDs(t *testing.T) {
	table := newRowTable()

	for want := uint64(1); want <= 3; want++ {
		r := table.Insert(func(id uint64) row { return row{ID: id, Name: "x"} })
		if r.ID != want {
			t.Errorf("Insert assigned id %d, want %d", r.ID, want)
		}
	}
	if table.Len() != 3 || table.NextID() != 4 {
		t.Errorf("Len=%d NextID=%d, want 3 and 4", table.Len(), table.NextID())
	}
}

func TestTableFilterAndFind(t *testing.T) {
	table := newRowTable()
	for _, name := range []string{"a", "b", "a", "c"} {
		table.Insert(func(id uint64) row { return row{ID: id, Name: name} })
	}

	got := table.Filter(func(r row) bool { return r.Name == "a" })
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("Filter returned %+v", got)
	}

	found, ok := table.Find(func(r row) bool { return r.Name == "a" })
	if !ok || found.ID != 1 {
		t.Errorf("Find returned %+v, %v, want the lowest id", found, ok)
	}

	if _, ok := table.Find(func(r row) bool { return r.Name == "z" }); ok {
		t.Errorf("Find must return false when nothing matches")
	}
}

func TestTablePutDelete(t *testing.T) {
	table := newRowTable()
	r := table.Insert(func(id uint64) row { return row{ID: id, Name: "old"} })

	r.Name = "new"
	table.Put(r)
	if got, _ := table.Get(r.ID); got.Name != "new" {
		t.Errorf("Put did not replace the row: %+v", got)
	}

	if !table.Delete(r.ID) {
		t.Errorf("Delete returned false for existing row")
	}
	if table.Delete(r.ID) {
		t.Errorf("Delete returned true for missing row")
	}
}

func TestTableDumpRestore(t *testing.T) {
	source := newRowTable()
	for i := 0; i < 5; i++ {
		source.Insert(func(id uint64) row { return row{ID: id} })
	}
	source.Delete(5)

	dump := source.Dump()

	target := newRowTable()
	target.Insert(func(id uint64) row { return row{ID: id, Name: "stale"} })
	target.Restore(dump)

	if target.Len() != 4 || target.NextID() != 6 {
		t.Errorf("Restore gave Len=%d NextID=%d, want 4 and 6", target.Len(), target.NextID())
	}
	if got, _ := target.Get(1); got.Name == "stale" {
		t.Errorf("Restore must replace existing rows")
	}

	// an empty dump still starts ids at one
	target.Restore(Dump[row]{})
	if target.NextID() != 1 {
		t.Errorf("NextID after empty restore = %d, want 1", target.NextID())
	}
}
