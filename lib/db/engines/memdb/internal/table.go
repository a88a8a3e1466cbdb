package internal

import (
	"slices"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Table Type (rows keyed by an auto-incrementing id)
// --------------------------------------------------------------------------

// Table is a single relation of the database. Rows are stored in a concurrent map
// so readers never block. Writers must be serialized by the caller.
type Table[T any] struct {
	rows   *xsync.MapOf[uint64, T]
	nextID atomic.Uint64
	idOf   func(T) uint64
}

// Dump is the serializable form of a table
type Dump[T any] struct {
	NextID uint64
	Rows   []T
}

// NewTable creates an empty table. idOf must return the id stored inside a row.
func NewTable[T any](idOf func(T) uint64) *Table[T] {
	t := &Table[T]{
		rows: xsync.NewMapOf[uint64, T](),
		idOf: idOf,
	}
	t.nextID.Store(1)
	return t
}

// Insert assigns the next id, lets build create the row for it and stores the row
func (t *Table[T]) Insert(build func(id uint64) T) T {
	id := t.nextID.Add(1) - 1
	row := build(id)
	t.rows.Store(id, row)
	return row
}

func (t *Table[T]) Get(id uint64) (T, bool) {
	return t.rows.Load(id)
}

// Put replaces an existing row. Rows are keyed by their own id.
func (t *Table[T]) Put(row T) {
	t.rows.Store(t.idOf(row), row)
}

func (t *Table[T]) Delete(id uint64) bool {
	_, ok := t.rows.LoadAndDelete(id)
	return ok
}

// Filter returns all rows matching fn ordered by id
func (t *Table[T]) Filter(fn func(T) bool) []T {
	result := make([]T, 0)
	t.rows.Range(func(_ uint64, row T) bool {
		if fn == nil || fn(row) {
			result = append(result, row)
		}
		return true
	})
	slices.SortFunc(result, func(a, b T) int {
		idA, idB := t.idOf(a), t.idOf(b)
		switch {
		case idA < idB:
			return -1
		case idA > idB:
			return 1
		default:
			return 0
		}
	})
	return result
}

// Find returns the row with the lowest id matching fn
func (t *Table[T]) Find(fn func(T) bool) (T, bool) {
	var (
		found   T
		foundID uint64
		ok      bool
	)
	t.rows.Range(func(id uint64, row T) bool {
		if fn(row) && (!ok || id < foundID) {
			found, foundID, ok = row, id, true
		}
		return true
	})
	return found, ok
}

func (t *Table[T]) Len() int {
	return t.rows.Size()
}

func (t *Table[T]) NextID() uint64 {
	return t.nextID.Load()
}

// Dump returns a copy of all rows. Rows are values, so the copy is independent
// as long as T holds no reference types.
func (t *Table[T]) Dump() Dump[T] {
	return Dump[T]{
		NextID: t.nextID.Load(),
		Rows:   t.Filter(nil),
	}
}

// Restore replaces the content of the table with the dump
func (t *Table[T]) Restore(d Dump[T]) {
	t.rows.Clear()
	for _, row := range d.Rows {
		t.rows.Store(t.idOf(row), row)
	}
	t.nextID.Store(max(d.NextID, 1))
}
