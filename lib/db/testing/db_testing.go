package testing

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/model"
)

// DBFactory is a function that creates a new instance of a ShopDB implementation
type DBFactory func() db.ShopDB

// RunShopDBTests runs a comprehensive test suite for a ShopDB implementation.
func RunShopDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Users", func(t *testing.T) {
			testUsers(t, factory())
		})

		t.Run("ProductCRUD", func(t *testing.T) {
			testProductCRUD(t, factory())
		})

		t.Run("Search", func(t *testing.T) {
			testSearch(t, factory())
		})

		t.Run("SeedProducts", func(t *testing.T) {
			testSeedProducts(t, factory())
		})

		t.Run("CartMerge", func(t *testing.T) {
			testCartMerge(t, factory())
		})

		t.Run("CartOperations", func(t *testing.T) {
			testCartOperations(t, factory())
		})

		t.Run("CartSkipsDeletedProducts", func(t *testing.T) {
			testCartSkipsDeletedProducts(t, factory())
		})

		t.Run("CreateOrder", func(t *testing.T) {
			testCreateOrder(t, factory())
		})

		t.Run("OrdersNewestFirst", func(t *testing.T) {
			testOrdersNewestFirst(t, factory())
		})

		t.Run("Checkout", func(t *testing.T) {
			testCheckout(t, factory())
		})

		t.Run("CheckoutEmptyCart", func(t *testing.T) {
			testCheckoutEmptyCart(t, factory())
		})

		t.Run("CheckoutTotalOutOfRange", func(t *testing.T) {
			testCheckoutTotalOutOfRange(t, factory())
		})

		t.Run("WriteIndex", func(t *testing.T) {
			testWriteIndex(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("Snapshot", func(t *testing.T) {
			testSnapshot(t, factory())
		})

		t.Run("ConcurrentAddToCart", func(t *testing.T) {
			testConcurrentAddToCart(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func headphones() model.InsertProduct {
	return model.InsertProduct{
		Name:        "Premium Wireless Headphones",
		Description: "High-quality audio with noise cancellation",
		Price:       "299.99",
		Category:    "Electronics",
		Stock:       25,
	}
}

func camera() model.InsertProduct {
	return model.InsertProduct{
		Name:        "Professional DSLR Camera",
		Description: "Capture stunning photos with professional quality",
		Price:       "899.99",
		Category:    "Electronics",
		Stock:       3,
	}
}

func mug() model.InsertProduct {
	return model.InsertProduct{
		Name:        "Coffee Mug",
		Description: "Ceramic, dishwasher safe",
		Price:       "12.50",
		Category:    "Kitchen",
		Stock:       100,
	}
}

func mustAddToCart(t testing.TB, database db.ShopDB, userID, productID uint64, quantity int64, idx uint64) model.CartItem {
	t.Helper()
	item, err := database.AddToCart(model.InsertCartItem{UserID: userID, ProductID: productID, Quantity: quantity}, idx)
	if err != nil {
		t.Fatalf("AddToCart(user=%d, product=%d) failed: %v", userID, productID, err)
	}
	return item
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testUsers(t *testing.T, database db.ShopDB) {
	defer database.Close()

	alice, err := database.CreateUser(model.InsertUser{Username: "alice", Password: "hash"}, 1)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if alice.ID != 1 {
		t.Errorf("Expected first user id 1, got %d", alice.ID)
	}
	if alice.Role != model.RoleUser {
		t.Errorf("Expected default role %q, got %q", model.RoleUser, alice.Role)
	}

	bob, err := database.CreateUser(model.InsertUser{Username: "bob", Role: model.RoleAdmin}, 2)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if bob.ID != 2 || bob.Role != model.RoleAdmin {
		t.Errorf("Unexpected second user: %+v", bob)
	}

	if _, err := database.CreateUser(model.InsertUser{Username: "alice"}, 3); !errors.Is(err, db.ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate username, got %v", err)
	}

	if got, ok := database.GetUser(alice.ID); !ok || got != alice {
		t.Errorf("GetUser(%d) = %+v, %v", alice.ID, got, ok)
	}
	if got, ok := database.GetUserByUsername("bob"); !ok || got.ID != bob.ID {
		t.Errorf("GetUserByUsername(bob) = %+v, %v", got, ok)
	}
	if _, ok := database.GetUserByUsername("Bob"); ok {
		t.Errorf("GetUserByUsername must match exactly")
	}
	if _, ok := database.GetUser(99); ok {
		t.Errorf("Expected GetUser(99) to return loaded=false")
	}
}

func testProductCRUD(t *testing.T, database db.ShopDB) {
	defer database.Close()

	p1 := database.CreateProduct(headphones(), 1)
	p2 := database.CreateProduct(camera(), 2)
	if p1.ID != 1 || p2.ID != 2 {
		t.Fatalf("Expected ids 1 and 2, got %d and %d", p1.ID, p2.ID)
	}

	products := database.GetProducts()
	if len(products) != 2 || products[0].ID != 1 || products[1].ID != 2 {
		t.Fatalf("GetProducts returned unexpected products: %+v", products)
	}

	price := "249.99"
	updated, ok := database.UpdateProduct(p1.ID, model.ProductPatch{Price: &price}, 3)
	if !ok {
		t.Fatalf("UpdateProduct returned loaded=false")
	}
	if updated.Price != price || updated.Name != p1.Name || updated.Stock != p1.Stock {
		t.Errorf("UpdateProduct merged incorrectly: %+v", updated)
	}
	if got, _ := database.GetProduct(p1.ID); got != updated {
		t.Errorf("GetProduct after update = %+v, want %+v", got, updated)
	}

	if _, ok := database.UpdateProduct(42, model.ProductPatch{Price: &price}, 4); ok {
		t.Errorf("UpdateProduct on a missing product must return loaded=false")
	}

	if !database.DeleteProduct(p2.ID, 5) {
		t.Errorf("DeleteProduct returned false for an existing product")
	}
	if database.DeleteProduct(p2.ID, 6) {
		t.Errorf("DeleteProduct returned true for an already deleted product")
	}
	if _, ok := database.GetProduct(p2.ID); ok {
		t.Errorf("Product still findable after delete")
	}

	// ids are never reused
	p3 := database.CreateProduct(mug(), 7)
	if p3.ID != 3 {
		t.Errorf("Expected id 3 after delete, got %d", p3.ID)
	}
}

func testSearch(t *testing.T, database db.ShopDB) {
	defer database.Close()

	database.CreateProduct(headphones(), 1)
	database.CreateProduct(camera(), 2)
	database.CreateProduct(mug(), 3)

	tests := []struct {
		query string
		want  []uint64
	}{
		{query: "", want: []uint64{1, 2, 3}},
		{query: "CAMERA", want: []uint64{2}},
		{query: "electronics", want: []uint64{1, 2}},
		{query: "noise", want: []uint64{1}},
		{query: "dishwasher", want: []uint64{3}},
		{query: "nothing like this", want: []uint64{}},
	}

	for _, tt := range tests {
		got := database.SearchProducts(tt.query)
		ids := make([]uint64, 0, len(got))
		for _, p := range got {
			ids = append(ids, p.ID)
		}
		if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
			t.Errorf("SearchProducts(%q) = %v, want %v", tt.query, ids, tt.want)
		}
	}
}

func testSeedProducts(t *testing.T, database db.ShopDB) {
	defer database.Close()

	created := database.SeedProducts([]model.InsertProduct{headphones(), camera(), mug()}, 1)
	if len(created) != 3 {
		t.Fatalf("Expected 3 seeded products, got %d", len(created))
	}
	for i, p := range created {
		if p.ID == 0 || (i > 0 && p.ID <= created[i-1].ID) {
			t.Errorf("Seeded products must have increasing ids, got %+v", created)
		}
	}
	if created[1].Name != camera().Name {
		t.Errorf("Seeded products must keep their order, got %+v", created)
	}

	// a second seed is a no-op
	if again := database.SeedProducts([]model.InsertProduct{mug()}, 2); len(again) != 0 {
		t.Errorf("Seeding a non-empty table must not create products, got %+v", again)
	}
	if products := database.GetProducts(); len(products) != 3 {
		t.Errorf("Expected 3 products after the second seed, got %d", len(products))
	}
	if idx := database.WriteIdx(); idx != 2 {
		t.Errorf("Expected write index 2, got %d", idx)
	}
}

func testCartMerge(t *testing.T, database db.ShopDB) {
	defer database.Close()

	p := database.CreateProduct(headphones(), 1)

	first := mustAddToCart(t, database, 1, p.ID, 1, 2)
	second := mustAddToCart(t, database, 1, p.ID, 2, 3)

	if first.ID != second.ID {
		t.Errorf("Expected the same cart item to be reused, got ids %d and %d", first.ID, second.ID)
	}
	if second.Quantity != 3 {
		t.Errorf("Expected merged quantity 3, got %d", second.Quantity)
	}

	// other users get their own item
	other := mustAddToCart(t, database, 2, p.ID, 1, 4)
	if other.ID == first.ID {
		t.Errorf("Cart items of different users must not be merged")
	}

	if _, err := database.AddToCart(model.InsertCartItem{UserID: 1, ProductID: 99, Quantity: 1}, 5); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing product, got %v", err)
	}
	if _, err := database.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: 0}, 6); !errors.Is(err, db.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero quantity, got %v", err)
	}
	if _, err := database.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: math.MaxInt64}, 7); !errors.Is(err, db.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for quantity above the limit, got %v", err)
	}

	// merging must not push the quantity above the limit
	full := mustAddToCart(t, database, 3, p.ID, model.MaxQuantity, 8)
	if _, err := database.AddToCart(model.InsertCartItem{UserID: 3, ProductID: p.ID, Quantity: 1}, 9); !errors.Is(err, db.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a merge above the limit, got %v", err)
	}
	if got, ok := database.GetCartItem(full.ID); !ok || got.Quantity != model.MaxQuantity {
		t.Errorf("Rejected merge must keep the quantity, got %+v (loaded=%v)", got, ok)
	}
}

func testCartOperations(t *testing.T, database db.ShopDB) {
	defer database.Close()

	p1 := database.CreateProduct(headphones(), 1)
	p2 := database.CreateProduct(mug(), 2)

	item1 := mustAddToCart(t, database, 1, p1.ID, 1, 3)
	item2 := mustAddToCart(t, database, 1, p2.ID, 4, 4)
	mustAddToCart(t, database, 2, p2.ID, 1, 5)

	cart := database.GetCartItems(1)
	if len(cart) != 2 {
		t.Fatalf("Expected 2 cart items, got %d", len(cart))
	}
	if cart[0].ID != item1.ID || cart[0].Product.ID != p1.ID || cart[1].Product.Name != p2.Name {
		t.Errorf("Cart items not joined correctly: %+v", cart)
	}

	updated, ok := database.UpdateCartItem(item2.ID, 7, 6)
	if !ok || updated.Quantity != 7 {
		t.Errorf("UpdateCartItem = %+v, %v", updated, ok)
	}
	if _, ok := database.UpdateCartItem(99, 1, 7); ok {
		t.Errorf("UpdateCartItem on missing item must return loaded=false")
	}

	if !database.RemoveFromCart(item1.ID, 8) {
		t.Errorf("RemoveFromCart returned false for existing item")
	}
	if database.RemoveFromCart(item1.ID, 9) {
		t.Errorf("RemoveFromCart returned true for removed item")
	}

	database.ClearCart(1, 10)
	if cart := database.GetCartItems(1); len(cart) != 0 {
		t.Errorf("Expected empty cart after ClearCart, got %+v", cart)
	}
	if cart := database.GetCartItems(2); len(cart) != 1 {
		t.Errorf("ClearCart must only clear the cart of the given user, got %+v", cart)
	}
}

func testCartSkipsDeletedProducts(t *testing.T, database db.ShopDB) {
	defer database.Close()

	p1 := database.CreateProduct(headphones(), 1)
	p2 := database.CreateProduct(mug(), 2)
	orphanID := mustAddToCart(t, database, 1, p1.ID, 1, 3).ID
	mustAddToCart(t, database, 1, p2.ID, 1, 4)

	database.DeleteProduct(p1.ID, 5)

	cart := database.GetCartItems(1)
	if len(cart) != 1 || cart[0].ProductID != p2.ID {
		t.Errorf("Expected only the item with an existing product, got %+v", cart)
	}

	// the row itself is still stored and can be looked up and removed by id
	orphan, ok := database.GetCartItem(orphanID)
	if !ok || orphan.UserID != 1 || orphan.ProductID != p1.ID {
		t.Errorf("GetCartItem(%d) = %+v (loaded=%v), want the item of user 1", orphanID, orphan, ok)
	}
	if !database.RemoveFromCart(orphanID, 6) {
		t.Errorf("RemoveFromCart must delete items whose product was deleted")
	}
	if _, ok := database.GetCartItem(orphanID); ok {
		t.Errorf("GetCartItem must not find a removed item")
	}
}

func testCreateOrder(t *testing.T, database db.ShopDB) {
	defer database.Close()

	p1 := database.CreateProduct(headphones(), 1) // stock 25
	p2 := database.CreateProduct(camera(), 2)     // stock 3

	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	order := database.CreateOrder(
		model.InsertOrder{UserID: 1, Total: "3299.95"},
		[]model.InsertOrderItem{
			{ProductID: p1.ID, Quantity: 2, Price: p1.Price},
			{ProductID: p2.ID, Quantity: 5, Price: p2.Price},
			{ProductID: 99, Quantity: 1, Price: "1.00"},
		},
		createdAt,
		3,
	)

	if order.ID != 1 || order.Status != model.OrderStatusPending || !order.CreatedAt.Equal(createdAt) {
		t.Errorf("Unexpected order: %+v", order.Order)
	}
	if len(order.Items) != 2 {
		t.Fatalf("Expected 2 returned items (missing product skipped), got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if item.OrderID != order.ID {
			t.Errorf("Item %d references order %d, want %d", item.ID, item.OrderID, order.ID)
		}
	}

	if got, _ := database.GetProduct(p1.ID); got.Stock != 23 {
		t.Errorf("Expected stock 23, got %d", got.Stock)
	}
	if got, _ := database.GetProduct(p2.ID); got.Stock != 0 {
		t.Errorf("Expected stock clamped at 0, got %d", got.Stock)
	}

	loaded, ok := database.GetOrder(order.ID)
	if !ok || len(loaded.Items) != 2 {
		t.Errorf("GetOrder = %+v, %v", loaded, ok)
	}

	updated, ok := database.UpdateOrderStatus(order.ID, model.OrderStatusCompleted, 4)
	if !ok || updated.Status != model.OrderStatusCompleted {
		t.Errorf("UpdateOrderStatus = %+v, %v", updated, ok)
	}
	if _, ok := database.UpdateOrderStatus(99, model.OrderStatusCompleted, 5); ok {
		t.Errorf("UpdateOrderStatus on missing order must return loaded=false")
	}
	if _, ok := database.GetOrder(99); ok {
		t.Errorf("GetOrder(99) must return loaded=false")
	}
}

func testOrdersNewestFirst(t *testing.T, database db.ShopDB) {
	defer database.Close()

	p := database.CreateProduct(mug(), 1)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []model.InsertOrderItem{{ProductID: p.ID, Quantity: 1, Price: p.Price}}

	database.CreateOrder(model.InsertOrder{UserID: 1, Total: "12.50"}, items, base.Add(time.Hour), 2)
	database.CreateOrder(model.InsertOrder{UserID: 1, Total: "12.50"}, items, base.Add(3*time.Hour), 3)
	database.CreateOrder(model.InsertOrder{UserID: 2, Total: "12.50"}, items, base.Add(4*time.Hour), 4)
	database.CreateOrder(model.InsertOrder{UserID: 1, Total: "12.50"}, items, base.Add(2*time.Hour), 5)

	orders := database.GetOrders(1)
	if len(orders) != 3 {
		t.Fatalf("Expected 3 orders for user 1, got %d", len(orders))
	}
	want := []uint64{2, 4, 1}
	for i, order := range orders {
		if order.ID != want[i] {
			t.Errorf("orders[%d].ID = %d, want %d", i, order.ID, want[i])
		}
		if len(order.Items) != 1 {
			t.Errorf("orders[%d] has %d items, want 1", i, len(order.Items))
		}
	}
}

func testCheckout(t *testing.T, database db.ShopDB) {
	defer database.Close()

	p1 := database.CreateProduct(headphones(), 1)
	p2 := database.CreateProduct(mug(), 2)
	mustAddToCart(t, database, 1, p1.ID, 2, 3)
	mustAddToCart(t, database, 1, p2.ID, 1, 4)
	mustAddToCart(t, database, 2, p2.ID, 5, 5)

	createdAt := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	order, err := database.Checkout(1, createdAt, 6)
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	// 2 * 299.99 + 12.50
	if order.Total != "612.48" {
		t.Errorf("Expected total 612.48, got %s", order.Total)
	}
	if order.Status != model.OrderStatusPending || order.UserID != 1 || !order.CreatedAt.Equal(createdAt) {
		t.Errorf("Unexpected order: %+v", order.Order)
	}
	if len(order.Items) != 2 || order.Items[0].Price != "299.99" || order.Items[1].Quantity != 1 {
		t.Errorf("Unexpected order items: %+v", order.Items)
	}

	if cart := database.GetCartItems(1); len(cart) != 0 {
		t.Errorf("Expected empty cart after checkout, got %+v", cart)
	}
	if cart := database.GetCartItems(2); len(cart) != 1 {
		t.Errorf("Checkout must not touch other carts, got %+v", cart)
	}
	if got, _ := database.GetProduct(p1.ID); got.Stock != 23 {
		t.Errorf("Expected headphones stock 23, got %d", got.Stock)
	}
	if got, _ := database.GetProduct(p2.ID); got.Stock != 99 {
		t.Errorf("Expected mug stock 99, got %d", got.Stock)
	}

	orders := database.GetOrders(1)
	if len(orders) != 1 || orders[0].ID != order.ID {
		t.Errorf("GetOrders after checkout = %+v", orders)
	}
}

func testCheckoutEmptyCart(t *testing.T, database db.ShopDB) {
	defer database.Close()

	if _, err := database.Checkout(1, time.Now(), 1); !errors.Is(err, db.ErrEmptyCart) {
		t.Errorf("Expected ErrEmptyCart, got %v", err)
	}

	// a cart that only references deleted products counts as empty
	p := database.CreateProduct(mug(), 2)
	mustAddToCart(t, database, 1, p.ID, 1, 3)
	database.DeleteProduct(p.ID, 4)

	if _, err := database.Checkout(1, time.Now(), 5); !errors.Is(err, db.ErrEmptyCart) {
		t.Errorf("Expected ErrEmptyCart for a cart without existing products, got %v", err)
	}
	if orders := database.GetOrders(1); len(orders) != 0 {
		t.Errorf("No order must be created for an empty cart, got %+v", orders)
	}
}

func testCheckoutTotalOutOfRange(t *testing.T, database db.ShopDB) {
	defer database.Close()

	expensive := headphones()
	expensive.Price = "92233720368547757.00"
	p := database.CreateProduct(expensive, 1)
	item := mustAddToCart(t, database, 1, p.ID, 2, 2)

	if _, err := database.Checkout(1, time.Now(), 3); !errors.Is(err, db.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a total out of range, got %v", err)
	}
	if orders := database.GetOrders(1); len(orders) != 0 {
		t.Errorf("No order must be created if the total is out of range, got %+v", orders)
	}
	if _, ok := database.GetCartItem(item.ID); !ok {
		t.Errorf("A failed checkout must keep the cart")
	}
	if got, _ := database.GetProduct(p.ID); got.Stock != expensive.Stock {
		t.Errorf("A failed checkout must keep the stock, got %d", got.Stock)
	}
}

func testWriteIndex(t *testing.T, database db.ShopDB) {
	defer database.Close()

	database.CreateProduct(mug(), 10)
	if idx := database.WriteIdx(); idx != 10 {
		t.Errorf("Expected write index 10, got %d", idx)
	}

	database.SetWriteIdx(5)
	if idx := database.WriteIdx(); idx != 10 {
		t.Errorf("Write index must never decrease, got %d", idx)
	}

	database.SetWriteIdx(20)
	if idx := database.WriteIdx(); idx != 20 {
		t.Errorf("Expected write index 20, got %d", idx)
	}

	info := database.GetInfo()
	if info.WriteIndex != 20 {
		t.Errorf("GetInfo().WriteIndex = %d, want 20", info.WriteIndex)
	}
	if stats := info.Tables["products"]; stats.Rows != 1 || stats.NextID != 2 {
		t.Errorf("Unexpected product table stats: %+v", stats)
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	source := factory()
	defer source.Close()

	if _, err := source.CreateUser(model.InsertUser{Username: "alice"}, 1); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	p1 := source.CreateProduct(headphones(), 2)
	p2 := source.CreateProduct(mug(), 3)
	source.DeleteProduct(p2.ID, 4)
	mustAddToCart(t, source, 1, p1.ID, 2, 5)
	order, err := source.Checkout(1, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), 6)
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	mustAddToCart(t, source, 1, p1.ID, 1, 7)

	var buf bytes.Buffer
	if err := source.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	target := factory()
	defer target.Close()
	target.CreateProduct(camera(), 1) // must be replaced by Load

	if err := target.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if target.WriteIdx() != source.WriteIdx() {
		t.Errorf("Write index not restored: got %d, want %d", target.WriteIdx(), source.WriteIdx())
	}
	if got := target.GetProducts(); len(got) != 1 || got[0].ID != p1.ID || got[0].Stock != 23 {
		t.Errorf("Products not restored: %+v", got)
	}
	if u, ok := target.GetUserByUsername("alice"); !ok || u.ID != 1 {
		t.Errorf("Users not restored: %+v, %v", u, ok)
	}
	if got, ok := target.GetOrder(order.ID); !ok || got.Total != order.Total || !got.CreatedAt.Equal(order.CreatedAt) {
		t.Errorf("Orders not restored: %+v, %v", got, ok)
	}
	if cart := target.GetCartItems(1); len(cart) != 1 || cart[0].Quantity != 1 {
		t.Errorf("Cart not restored: %+v", cart)
	}

	// id sequences continue after load (the deleted product id 2 is not reused)
	if p := target.CreateProduct(camera(), 8); p.ID != 3 {
		t.Errorf("Expected next product id 3 after load, got %d", p.ID)
	}

	if err := target.Load(bytes.NewReader([]byte("NOTADB!!"))); err == nil {
		t.Errorf("Load must fail for data with a wrong header")
	}
}

func testSnapshot(t *testing.T, database db.ShopDB) {
	defer database.Close()

	p := database.CreateProduct(mug(), 1)
	snap := database.Snapshot()
	defer snap.Close()

	database.CreateProduct(camera(), 2)
	stock := int64(1)
	database.UpdateProduct(p.ID, model.ProductPatch{Stock: &stock}, 3)

	if got := snap.GetProducts(); len(got) != 1 || got[0].Stock != 100 {
		t.Errorf("Snapshot must not see later writes: %+v", got)
	}
	if snap.WriteIdx() != 1 {
		t.Errorf("Snapshot write index = %d, want 1", snap.WriteIdx())
	}
}

func testConcurrentAddToCart(t *testing.T, database db.ShopDB) {
	defer database.Close()

	p := database.CreateProduct(mug(), 1)

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				idx := uint64(2 + w*perWorker + i)
				if _, err := database.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: 1}, idx); err != nil {
					t.Errorf("AddToCart failed: %v", err)
				}
				database.GetCartItems(1)
			}
		}(w)
	}
	wg.Wait()

	cart := database.GetCartItems(1)
	if len(cart) != 1 {
		t.Fatalf("Expected a single merged cart item, got %d", len(cart))
	}
	if cart[0].Quantity != workers*perWorker {
		t.Errorf("Expected quantity %d, got %d", workers*perWorker, cart[0].Quantity)
	}
}
