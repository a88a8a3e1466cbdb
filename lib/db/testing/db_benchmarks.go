package testing

import (
	"bytes"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/model"
)

// RunShopDBBenchmarks runs all benchmarks for a shop database implementation
func RunShopDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("CreateProduct", func(b *testing.B) {
		benchmarkCreateProduct(b, factory())
	})

	b.Run("GetProduct", func(b *testing.B) {
		benchmarkGetProduct(b, factory())
	})

	b.Run("SearchProducts", func(b *testing.B) {
		benchmarkSearchProducts(b, factory())
	})

	b.Run("AddToCart", func(b *testing.B) {
		benchmarkAddToCart(b, factory())
	})

	b.Run("Checkout", func(b *testing.B) {
		benchmarkCheckout(b, factory())
	})

	b.Run("SaveLoad", func(b *testing.B) {
		benchmarkSaveLoad(b, factory)
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// seedProducts fills the database with n products and returns the next write index
func seedProducts(database db.ShopDB, n int) uint64 {
	var idx uint64
	for i := 0; i < n; i++ {
		idx++
		database.CreateProduct(model.InsertProduct{
			Name:        fmt.Sprintf("Product %d", i),
			Description: fmt.Sprintf("Description of product number %d", i),
			Price:       model.FormatCents(int64(100 + i)),
			Category:    []string{"Electronics", "Kitchen", "Books", "Garden"}[i%4],
			Stock:       1_000_000,
		}, idx)
	}
	return idx + 1
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for CreateProduct operation
func benchmarkCreateProduct(b *testing.B, database db.ShopDB) {
	b.Cleanup(func() {
		database.Close()
	})

	var idx atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			database.CreateProduct(model.InsertProduct{
				Name:     "Benchmark Product",
				Price:    "9.99",
				Category: "Bench",
				Stock:    10,
			}, idx.Add(1))
		}
	})
}

// Benchmark for GetProduct operation
func benchmarkGetProduct(b *testing.B, database db.ShopDB) {
	b.Cleanup(func() {
		database.Close()
	})

	const products = 10_000
	seedProducts(database, products)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			if _, ok := database.GetProduct(uint64(r.Intn(products) + 1)); !ok {
				b.Error("seeded product not found")
			}
		}
	})
}

// Benchmark for SearchProducts operation
func benchmarkSearchProducts(b *testing.B, database db.ShopDB) {
	b.Cleanup(func() {
		database.Close()
	})

	seedProducts(database, 1_000)
	queries := []string{"electronics", "number 42", "KITCHEN", "does not exist"}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.SearchProducts(queries[counter%len(queries)])
			counter++
		}
	})
}

// Benchmark for AddToCart operation (each worker uses its own user)
func benchmarkAddToCart(b *testing.B, database db.ShopDB) {
	b.Cleanup(func() {
		database.Close()
	})

	const products = 100
	start := seedProducts(database, products)

	var idx, users atomic.Uint64
	idx.Store(start)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		user := users.Add(1)
		counter := 0
		for pb.Next() {
			_, err := database.AddToCart(model.InsertCartItem{
				UserID:    user,
				ProductID: uint64(counter%products + 1),
				Quantity:  1,
			}, idx.Add(1))
			if err != nil {
				b.Error(err)
			}
			counter++
		}
	})
}

// Benchmark for Checkout of a cart with three items
func benchmarkCheckout(b *testing.B, database db.ShopDB) {
	b.Cleanup(func() {
		database.Close()
	})

	idx := seedProducts(database, 10)
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for p := uint64(1); p <= 3; p++ {
			idx++
			if _, err := database.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p, Quantity: 1}, idx); err != nil {
				b.Fatal(err)
			}
		}
		idx++
		if _, err := database.Checkout(1, now, idx); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for Save and Load operations
func benchmarkSaveLoad(b *testing.B, factory DBFactory) {
	source := factory()
	target := factory()
	b.Cleanup(func() {
		source.Close()
		target.Close()
	})

	seedProducts(source, 10_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := source.Save(&buf); err != nil {
			b.Fatal(err)
		}
		if err := target.Load(&buf); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for a storefront like mix of reads (80%) and writes (20%)
func benchmarkMixedUsage(b *testing.B, database db.ShopDB) {
	b.Cleanup(func() {
		database.Close()
	})

	const products = 1_000
	var idx, users atomic.Uint64
	idx.Store(seedProducts(database, products))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		user := users.Add(1)
		for pb.Next() {
			switch op := r.Intn(10); {
			case op < 5:
				database.GetProduct(uint64(r.Intn(products) + 1))
			case op < 7:
				database.GetProducts()
			case op < 8:
				database.GetCartItems(user)
			default:
				database.AddToCart(model.InsertCartItem{
					UserID:    user,
					ProductID: uint64(r.Intn(products) + 1),
					Quantity:  1,
				}, idx.Add(1))
			}
		}
	})
}
