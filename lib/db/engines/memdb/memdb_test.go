package memdb

import (
	"testing"

	"github.com/ValentinKolb/dShop/lib/db"
	dbtesting "github.com/ValentinKolb/dShop/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunShopDBTests(t, "MemDB", func() db.ShopDB {
		return NewMemDB()
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunShopDBBenchmarks(b, "MemDB", func() db.ShopDB {
		return NewMemDB()
	})
}
