package testing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
)

// ShopFactory creates a fresh, empty shop for a single test
type ShopFactory func(t *testing.T) shop.IShop

// RunShopTests runs the shop.IShop contract tests against an implementation.
// The factory must return an empty shop, it is called once per sub test.
func RunShopTests(t *testing.T, name string, factory ShopFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Users", func(t *testing.T) {
			testUsers(t, factory(t))
		})
		t.Run("Products", func(t *testing.T) {
			testProducts(t, factory(t))
		})
		t.Run("SeedProducts", func(t *testing.T) {
			testSeedProducts(t, factory(t))
		})
		t.Run("Cart", func(t *testing.T) {
			testCart(t, factory(t))
		})
		t.Run("CartQuantityLimits", func(t *testing.T) {
			testCartQuantityLimits(t, factory(t))
		})
		t.Run("CartItemOfDeletedProduct", func(t *testing.T) {
			testCartItemOfDeletedProduct(t, factory(t))
		})
		t.Run("CheckoutTotalOutOfRange", func(t *testing.T) {
			testCheckoutTotalOutOfRange(t, factory(t))
		})
		t.Run("CheckoutAndOrders", func(t *testing.T) {
			testCheckoutAndOrders(t, factory(t))
		})
		t.Run("CreateOrder", func(t *testing.T) {
			testCreateOrder(t, factory(t))
		})
		t.Run("DBInfo", func(t *testing.T) {
			testDBInfo(t, factory(t))
		})
	})
}

func requireCode(t *testing.T, err error, code shop.RetCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, shop.CodeOf(err), "unexpected error: %v", err)
}

// SampleProduct returns a valid product insert in the Electronics category
func SampleProduct(name string, price string, stock int64) model.InsertProduct {
	return model.InsertProduct{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Category:    "Electronics",
		Stock:       stock,
	}
}

func testUsers(t *testing.T, s shop.IShop) {
	alice, err := s.CreateUser(model.InsertUser{Username: "alice", Password: "hash", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), alice.ID)
	assert.Equal(t, model.RoleAdmin, alice.Role)

	_, err = s.CreateUser(model.InsertUser{Username: "alice", Password: "other"})
	requireCode(t, err, shop.RetCConflict)

	got, err := s.GetUser(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	got, err = s.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.Password)

	_, err = s.GetUser(42)
	requireCode(t, err, shop.RetCNotFound)

	_, err = s.GetUserByUsername("nobody")
	requireCode(t, err, shop.RetCNotFound)
}

func testProducts(t *testing.T, s shop.IShop) {
	headphones, err := s.CreateProduct(SampleProduct("Wireless Headphones", "299.99", 25))
	require.NoError(t, err)
	_, err = s.CreateProduct(SampleProduct("DSLR Camera", "899.99", 3))
	require.NoError(t, err)

	products, err := s.GetProducts()
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, headphones, products[0])

	found, err := s.SearchProducts("camera")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "DSLR Camera", found[0].Name)

	stock := int64(0)
	updated, err := s.UpdateProduct(headphones.ID, model.ProductPatch{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.Stock)
	assert.Equal(t, headphones.Price, updated.Price)

	_, err = s.UpdateProduct(99, model.ProductPatch{Stock: &stock})
	requireCode(t, err, shop.RetCNotFound)

	_, err = s.GetProduct(99)
	requireCode(t, err, shop.RetCNotFound)

	deleted, err := s.DeleteProduct(headphones.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteProduct(headphones.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testCart(t *testing.T, s shop.IShop) {
	p, err := s.CreateProduct(SampleProduct("Watch", "249.99", 15))
	require.NoError(t, err)

	first, err := s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	merged, err := s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, int64(3), merged.Quantity)

	_, err = s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: 99, Quantity: 1})
	requireCode(t, err, shop.RetCNotFound)

	_, err = s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: 0})
	requireCode(t, err, shop.RetCInvalidInput)

	cart, err := s.GetCartItems(1)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, p, cart[0].Product)

	item, err := s.UpdateCartItem(first.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), item.Quantity)

	_, err = s.UpdateCartItem(99, 1)
	requireCode(t, err, shop.RetCNotFound)

	removed, err := s.RemoveFromCart(first.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.RemoveFromCart(first.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, s.ClearCart(1))

	cart, err = s.GetCartItems(1)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func testSeedProducts(t *testing.T, s shop.IShop) {
	catalog := []model.InsertProduct{
		SampleProduct("Laptop", "1299.99", 8),
		SampleProduct("Watch", "249.99", 15),
	}

	created, err := s.SeedProducts(catalog)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Laptop", created[0].Name)
	assert.Less(t, created[0].ID, created[1].ID)

	// seeding again (e.g. after a timed out attempt that was applied) creates nothing
	again, err := s.SeedProducts(catalog)
	require.NoError(t, err)
	assert.Empty(t, again)

	products, err := s.GetProducts()
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func testCartQuantityLimits(t *testing.T, s shop.IShop) {
	p, err := s.CreateProduct(SampleProduct("Watch", "249.99", 15))
	require.NoError(t, err)

	_, err = s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: math.MaxInt64})
	requireCode(t, err, shop.RetCInvalidInput)

	full, err := s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: model.MaxQuantity})
	require.NoError(t, err)

	_, err = s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: 1})
	requireCode(t, err, shop.RetCInvalidInput)

	item, err := s.GetCartItem(full.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(model.MaxQuantity), item.Quantity)

	_, err = s.UpdateCartItem(full.ID, 0)
	requireCode(t, err, shop.RetCInvalidInput)
	_, err = s.UpdateCartItem(full.ID, -3)
	requireCode(t, err, shop.RetCInvalidInput)
	_, err = s.UpdateCartItem(full.ID, math.MaxInt64)
	requireCode(t, err, shop.RetCInvalidInput)

	item, err = s.GetCartItem(full.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(model.MaxQuantity), item.Quantity)
}

func testCartItemOfDeletedProduct(t *testing.T, s shop.IShop) {
	p, err := s.CreateProduct(SampleProduct("Watch", "249.99", 15))
	require.NoError(t, err)
	item, err := s.AddToCart(model.InsertCartItem{UserID: 4, ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = s.DeleteProduct(p.ID)
	require.NoError(t, err)

	cart, err := s.GetCartItems(4)
	require.NoError(t, err)
	assert.Empty(t, cart)

	stored, err := s.GetCartItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, item, stored)

	removed, err := s.RemoveFromCart(item.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = s.GetCartItem(item.ID)
	requireCode(t, err, shop.RetCNotFound)
}

func testCheckoutTotalOutOfRange(t *testing.T, s shop.IShop) {
	p, err := s.CreateProduct(SampleProduct("Yacht", "92233720368547757.00", 5))
	require.NoError(t, err)
	_, err = s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = s.Checkout(1)
	requireCode(t, err, shop.RetCInvalidInput)

	orders, err := s.GetOrders(1)
	require.NoError(t, err)
	assert.Empty(t, orders)

	cart, err := s.GetCartItems(1)
	require.NoError(t, err)
	assert.Len(t, cart, 1)
}

func testCheckoutAndOrders(t *testing.T, s shop.IShop) {
	_, err := s.Checkout(1)
	requireCode(t, err, shop.RetCInvalidOperation)

	laptop, err := s.CreateProduct(SampleProduct("Laptop", "1299.99", 8))
	require.NoError(t, err)
	watch, err := s.CreateProduct(SampleProduct("Watch", "249.99", 15))
	require.NoError(t, err)

	_, err = s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: laptop.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: watch.ID, Quantity: 2})
	require.NoError(t, err)

	order, err := s.Checkout(1)
	require.NoError(t, err)
	assert.Equal(t, "1799.97", order.Total)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.False(t, order.CreatedAt.IsZero())
	assert.Len(t, order.Items, 2)

	cart, err := s.GetCartItems(1)
	require.NoError(t, err)
	assert.Empty(t, cart)

	stocked, err := s.GetProduct(watch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(13), stocked.Stock)

	orders, err := s.GetOrders(1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	loaded, err := s.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Total, loaded.Total)
	assert.True(t, order.CreatedAt.Equal(loaded.CreatedAt))

	_, err = s.GetOrder(99)
	requireCode(t, err, shop.RetCNotFound)

	status, err := s.UpdateOrderStatus(order.ID, model.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, status.Status)

	_, err = s.UpdateOrderStatus(order.ID, model.OrderStatus("shipped"))
	requireCode(t, err, shop.RetCInvalidInput)

	_, err = s.UpdateOrderStatus(99, model.OrderStatusCompleted)
	requireCode(t, err, shop.RetCNotFound)
}

func testCreateOrder(t *testing.T, s shop.IShop) {
	camera, err := s.CreateProduct(SampleProduct("Camera", "899.99", 3))
	require.NoError(t, err)

	order, err := s.CreateOrder(
		model.InsertOrder{UserID: 2, Total: "4499.95"},
		[]model.InsertOrderItem{
			{ProductID: camera.ID, Quantity: 5, Price: camera.Price},
			{ProductID: 77, Quantity: 1, Price: "1.00"},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, camera.ID, order.Items[0].ProductID)

	stocked, err := s.GetProduct(camera.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stocked.Stock)
}

func testDBInfo(t *testing.T, s shop.IShop) {
	_, err := s.CreateProduct(SampleProduct("Mug", "9.99", 1))
	require.NoError(t, err)

	info, err := s.GetDBInfo()
	require.NoError(t, err)
	assert.NotZero(t, info.WriteIndex)
	assert.Equal(t, 1, info.Tables["products"].Rows)
}
