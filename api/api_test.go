package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/db/engines/memdb"
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/ValentinKolb/dShop/lib/shop/lshop"
	shoptesting "github.com/ValentinKolb/dShop/lib/shop/testing"
)

// --------------------------------------------------------------------------
// Test helpers
// --------------------------------------------------------------------------

type testEnv struct {
	server *Server
	http   *httptest.Server
	shop   shop.IShop
}

func newTestEnv(t *testing.T, config Config) *testEnv {
	t.Helper()
	s := lshop.NewLocalShop(func() db.ShopDB { return memdb.NewMemDB() })
	srv := NewServer(config, s)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return &testEnv{server: srv, http: ts, shop: s}
}

// testClient is a browser like client with its own cookie jar
type testClient struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (e *testEnv) client(t *testing.T) *testClient {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, base: e.http.URL, client: &http.Client{Jar: jar}}
}

// do sends a request and decodes the JSON response into out (if not nil)
func (c *testClient) do(method, path string, body any, out any) int {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *testClient) register(username, password string) model.User {
	c.t.Helper()
	var user model.User
	status := c.do(http.MethodPost, "/api/register", credentials{Username: username, Password: password}, &user)
	require.Equal(c.t, http.StatusCreated, status)
	return user
}

// --------------------------------------------------------------------------
// Auth
// --------------------------------------------------------------------------

func TestRegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t, Config{})
	admin := env.client(t)
	user := env.client(t)

	// first user becomes admin, passwords are never returned
	first := admin.register("alice", "secret")
	assert.Equal(t, model.RoleAdmin, first.Role)
	assert.Empty(t, first.Password)

	second := user.register("bob", "hunter2")
	assert.Equal(t, model.RoleUser, second.Role)

	// the password is stored as bcrypt hash
	stored, err := env.shop.GetUserByUsername("bob")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Password, "$2"))

	// duplicate username
	var body errorBody
	assert.Equal(t, http.StatusConflict, user.do(http.MethodPost, "/api/register", credentials{Username: "bob", Password: "x"}, &body))
	assert.NotEmpty(t, body.Message)

	// missing fields
	assert.Equal(t, http.StatusBadRequest, user.do(http.MethodPost, "/api/register", credentials{Username: " "}, nil))

	var current model.User
	assert.Equal(t, http.StatusOK, user.do(http.MethodGet, "/api/user", nil, &current))
	assert.Equal(t, second.ID, current.ID)

	assert.Equal(t, http.StatusOK, user.do(http.MethodPost, "/api/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, user.do(http.MethodGet, "/api/user", nil, nil))

	// wrong password and unknown user look the same
	assert.Equal(t, http.StatusUnauthorized, user.do(http.MethodPost, "/api/login", credentials{Username: "bob", Password: "wrong"}, &body))
	assert.Equal(t, "invalid username or password", body.Message)
	assert.Equal(t, http.StatusUnauthorized, user.do(http.MethodPost, "/api/login", credentials{Username: "nobody", Password: "wrong"}, nil))

	assert.Equal(t, http.StatusOK, user.do(http.MethodPost, "/api/login", credentials{Username: "bob", Password: "hunter2"}, &current))
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, http.StatusOK, user.do(http.MethodGet, "/api/user", nil, nil))
}

func TestConfiguredAdminUsers(t *testing.T) {
	env := newTestEnv(t, Config{AdminUsers: []string{"carol"}})

	assert.Equal(t, model.RoleAdmin, env.client(t).register("alice", "pw").Role)
	assert.Equal(t, model.RoleUser, env.client(t).register("bob", "pw").Role)
	assert.Equal(t, model.RoleAdmin, env.client(t).register("carol", "pw").Role)
}

// --------------------------------------------------------------------------
// Products
// --------------------------------------------------------------------------

func TestProducts(t *testing.T) {
	env := newTestEnv(t, Config{})
	admin := env.client(t)
	admin.register("admin", "pw")
	user := env.client(t)
	user.register("user", "pw")
	anonymous := env.client(t)

	// empty list is [] and not null
	var raw json.RawMessage
	assert.Equal(t, http.StatusOK, anonymous.do(http.MethodGet, "/api/products", nil, &raw))
	assert.JSONEq(t, "[]", string(raw))

	insert := shoptesting.SampleProduct("Phone", "499.00", 5)
	assert.Equal(t, http.StatusUnauthorized, anonymous.do(http.MethodPost, "/api/products", insert, nil))
	assert.Equal(t, http.StatusForbidden, user.do(http.MethodPost, "/api/products", insert, nil))

	var phone model.Product
	require.Equal(t, http.StatusCreated, admin.do(http.MethodPost, "/api/products", insert, &phone))
	assert.Equal(t, "Phone", phone.Name)

	invalid := insert
	invalid.Price = "abc"
	var body errorBody
	assert.Equal(t, http.StatusBadRequest, admin.do(http.MethodPost, "/api/products", invalid, &body))
	assert.NotEmpty(t, body.Message)

	var got model.Product
	assert.Equal(t, http.StatusOK, anonymous.do(http.MethodGet, "/api/products/1", nil, &got))
	assert.Equal(t, phone, got)
	assert.Equal(t, http.StatusNotFound, anonymous.do(http.MethodGet, "/api/products/99", nil, nil))
	assert.Equal(t, http.StatusBadRequest, anonymous.do(http.MethodGet, "/api/products/abc", nil, nil))

	// search
	_, err := env.shop.CreateProduct(shoptesting.SampleProduct("Laptop", "999.00", 1))
	require.NoError(t, err)
	var products []model.Product
	assert.Equal(t, http.StatusOK, anonymous.do(http.MethodGet, "/api/products?search=lapt", nil, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Laptop", products[0].Name)

	// partial update
	var updated model.Product
	assert.Equal(t, http.StatusOK, admin.do(http.MethodPut, "/api/products/1", map[string]any{"stock": 0}, &updated))
	assert.Equal(t, int64(0), updated.Stock)
	assert.Equal(t, "Phone", updated.Name)
	assert.Equal(t, http.StatusBadRequest, admin.do(http.MethodPut, "/api/products/1", map[string]any{"stock": -1}, nil))
	assert.Equal(t, http.StatusNotFound, admin.do(http.MethodPut, "/api/products/99", map[string]any{"stock": 1}, nil))

	// delete
	assert.Equal(t, http.StatusNoContent, admin.do(http.MethodDelete, "/api/products/1", nil, nil))
	assert.Equal(t, http.StatusNotFound, admin.do(http.MethodDelete, "/api/products/1", nil, nil))
}

// --------------------------------------------------------------------------
// Cart and orders
// --------------------------------------------------------------------------

func TestCartAndCheckout(t *testing.T) {
	env := newTestEnv(t, Config{})
	admin := env.client(t)
	admin.register("admin", "pw")
	alice := env.client(t)
	alice.register("alice", "pw")
	bob := env.client(t)
	bob.register("bob", "pw")

	phone, err := env.shop.CreateProduct(shoptesting.SampleProduct("Phone", "10.00", 5))
	require.NoError(t, err)
	soldOut, err := env.shop.CreateProduct(shoptesting.SampleProduct("Sold Out", "1.00", 0))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, env.client(t).do(http.MethodGet, "/api/cart", nil, nil))

	// empty cart
	var raw json.RawMessage
	assert.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/cart", nil, &raw))
	assert.JSONEq(t, "[]", string(raw))
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/orders", nil, nil))

	// add with default quantity
	var item model.CartItem
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/cart", map[string]any{"productId": phone.ID}, &item))
	assert.Equal(t, int64(1), item.Quantity)

	assert.Equal(t, http.StatusConflict, alice.do(http.MethodPost, "/api/cart", map[string]any{"productId": soldOut.ID}, nil))
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodPost, "/api/cart", map[string]any{"productId": 99}, nil))
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/cart", map[string]any{"productId": phone.ID, "quantity": 0}, nil))
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/cart", map[string]any{"productId": phone.ID, "quantity": int64(math.MaxInt64)}, nil))
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/cart", map[string]any{"productId": phone.ID, "quantity": model.MaxQuantity + 1}, nil))

	// merging into the existing item must not exceed the limit
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/cart", map[string]any{"productId": phone.ID, "quantity": model.MaxQuantity}, nil))
	stored, err := env.shop.GetCartItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Quantity)

	// update quantity
	assert.Equal(t, http.StatusOK, alice.do(http.MethodPut, "/api/cart/1", map[string]any{"quantity": 2}, &item))
	assert.Equal(t, int64(2), item.Quantity)
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPut, "/api/cart/1", map[string]any{"quantity": 0}, nil))
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPut, "/api/cart/1", map[string]any{"quantity": int64(math.MaxInt64)}, nil))

	// bob can not touch the cart of alice
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodPut, "/api/cart/1", map[string]any{"quantity": 3}, nil))
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodDelete, "/api/cart/1", nil, nil))

	var cart []model.CartItemWithProduct
	assert.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/cart", nil, &cart))
	require.Len(t, cart, 1)
	assert.Equal(t, "Phone", cart[0].Product.Name)

	// checkout
	var order model.OrderWithItems
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/orders", nil, &order))
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, "20.00", order.Total)
	require.Len(t, order.Items, 1)

	assert.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/cart", nil, &raw))
	assert.JSONEq(t, "[]", string(raw))

	// orders are private, admins see all
	var orders []model.OrderWithItems
	assert.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/orders", nil, &orders))
	assert.Len(t, orders, 1)
	assert.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/api/orders", nil, &raw))
	assert.JSONEq(t, "[]", string(raw))
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, "/api/orders/1", nil, nil))
	assert.Equal(t, http.StatusOK, admin.do(http.MethodGet, "/api/orders/1", nil, nil))

	// status updates
	assert.Equal(t, http.StatusForbidden, alice.do(http.MethodPut, "/api/orders/1/status", updateOrderStatusRequest{Status: "completed"}, nil))
	assert.Equal(t, http.StatusBadRequest, admin.do(http.MethodPut, "/api/orders/1/status", updateOrderStatusRequest{Status: "lost"}, nil))
	var updated model.Order
	assert.Equal(t, http.StatusOK, admin.do(http.MethodPut, "/api/orders/1/status", updateOrderStatusRequest{Status: "completed"}, &updated))
	assert.Equal(t, model.OrderStatusCompleted, updated.Status)

	// remove and clear
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/cart", map[string]any{"productId": phone.ID}, &item))
	assert.Equal(t, http.StatusNoContent, alice.do(http.MethodDelete, "/api/cart/"+jsonNumber(item.ID), nil, nil))
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/cart", map[string]any{"productId": phone.ID}, &item))
	assert.Equal(t, http.StatusNoContent, alice.do(http.MethodDelete, "/api/cart", nil, nil))
	assert.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/cart", nil, &raw))
	assert.JSONEq(t, "[]", string(raw))
}

func TestCartItemOfDeletedProduct(t *testing.T) {
	env := newTestEnv(t, Config{})
	admin := env.client(t)
	admin.register("admin", "pw")
	alice := env.client(t)
	alice.register("alice", "pw")
	bob := env.client(t)
	bob.register("bob", "pw")

	lamp, err := env.shop.CreateProduct(shoptesting.SampleProduct("Lamp", "30.00", 4))
	require.NoError(t, err)

	var item model.CartItem
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/cart", map[string]any{"productId": lamp.ID, "quantity": 2}, &item))
	require.Equal(t, http.StatusNoContent, admin.do(http.MethodDelete, "/api/products/"+jsonNumber(lamp.ID), nil, nil))

	// the item is hidden from the cart, but still belongs to alice
	var raw json.RawMessage
	assert.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/api/cart", nil, &raw))
	assert.JSONEq(t, "[]", string(raw))
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/api/orders", nil, nil))

	path := "/api/cart/" + jsonNumber(item.ID)
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodDelete, path, nil, nil))
	assert.Equal(t, http.StatusOK, alice.do(http.MethodPut, path, map[string]any{"quantity": 3}, &item))
	assert.Equal(t, int64(3), item.Quantity)
	assert.Equal(t, http.StatusNoContent, alice.do(http.MethodDelete, path, nil, nil))
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodDelete, path, nil, nil))

	_, err = env.shop.GetCartItem(item.ID)
	assert.Equal(t, shop.RetCNotFound, shop.CodeOf(err))
}

func jsonNumber(id uint64) string {
	data, _ := json.Marshal(id)
	return string(data)
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

func TestHealthzAndMetrics(t *testing.T) {
	env := newTestEnv(t, Config{})
	c := env.client(t)
	c.register("alice", "pw")
	c.do(http.MethodGet, "/api/products", nil, nil)

	resp, err := http.Get(env.http.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(env.http.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	metrics := string(body)
	assert.Contains(t, metrics, `dshop_api_requests_total{route="GET /api/products",status="200"} 1`)
	assert.Contains(t, metrics, `dshop_api_requests_total{route="POST /api/register",status="201"} 1`)
	assert.Contains(t, metrics, "dshop_api_request_duration_seconds_bucket")
	assert.Contains(t, metrics, "dshop_api_sessions 1")
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, Config{})

	resp, err := http.Get(env.http.URL + "/api/products")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Len(t, resp.Header.Get(requestIDHeader), 36)

	req, _ := http.NewRequest(http.MethodGet, env.http.URL+"/api/products", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "fixed-id", resp.Header.Get(requestIDHeader))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{shop.NotFound("product", 1), http.StatusNotFound},
		{shop.NewError(shop.RetCConflict, "taken"), http.StatusConflict},
		{shop.NewError(shop.RetCInvalidInput, "bad"), http.StatusBadRequest},
		{shop.NewError(shop.RetCInvalidOperation, "empty cart"), http.StatusBadRequest},
		{shop.NewError(shop.RetCInternalError, "boom"), http.StatusInternalServerError},
		{errUnauthorized, http.StatusUnauthorized},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := statusOf(tt.err)
		assert.Equal(t, tt.status, status, "error: %v", tt.err)
	}

	// internal errors are not exposed
	_, msg := statusOf(shop.NewError(shop.RetCInternalError, "secret detail"))
	assert.Equal(t, "internal server error", msg)
}
