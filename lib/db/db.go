package db

import (
	"errors"
	"io"
	"time"

	"github.com/ValentinKolb/dShop/lib/model"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMemDB Implementation = "memdb"
)

// TableStats holds the number of rows per table and the next id that will be assigned
type TableStats struct {
	Rows   int    `json:"rows"`
	NextID uint64 `json:"next_id"`
}

type DatabaseInfo struct {
	DbType     Implementation        `json:"db_type"`
	WriteIndex uint64                `json:"write_index"`
	Tables     map[string]TableStats `json:"tables"`
	Metadata   interface{}           `json:"metadata"`
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write collides with existing state (e.g. a taken username)
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is returned for writes with values the engine refuses to store
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyCart is returned by Checkout if the user has nothing in the cart
	ErrEmptyCart = errors.New("cart is empty")
)

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// ShopDB defines an interface for the storefront database implementations.
// It holds the users, products, cart items, orders and order items tables
// and provides the relational bookkeeping between them.
//
// All write operations take a writeIndex parameter which is used as a logical
// timestamp. The database keeps track of the highest index it has seen.
// Ids are assigned by the database and are strictly increasing per table.
type ShopDB interface {

	// --------------------------------------------------------------------------
	// Users
	// --------------------------------------------------------------------------

	// CreateUser inserts a new user. It returns ErrConflict if the username is taken.
	CreateUser(user model.InsertUser, writeIndex uint64) (model.User, error)

	// GetUser returns the user with the given id.
	GetUser(id uint64) (user model.User, loaded bool)

	// GetUserByUsername returns the user with exactly the given username.
	GetUserByUsername(username string) (user model.User, loaded bool)

	// --------------------------------------------------------------------------
	// Products
	// --------------------------------------------------------------------------

	// GetProducts returns all products ordered by id.
	GetProducts() []model.Product

	// GetProduct returns the product with the given id.
	GetProduct(id uint64) (product model.Product, loaded bool)

	// CreateProduct inserts a new product.
	CreateProduct(product model.InsertProduct, writeIndex uint64) model.Product

	// SeedProducts inserts all products in one write, but only if the products table is empty.
	// It returns the created products, nothing is created if the table has rows.
	SeedProducts(products []model.InsertProduct, writeIndex uint64) []model.Product

	// UpdateProduct merges the patch into an existing product.
	// The boolean return value is false if the product does not exist.
	UpdateProduct(id uint64, patch model.ProductPatch, writeIndex uint64) (product model.Product, loaded bool)

	// DeleteProduct removes a product and returns whether it existed.
	// Cart and order items referencing the product are kept.
	DeleteProduct(id uint64, writeIndex uint64) (deleted bool)

	// SearchProducts returns all products whose name, description or category
	// contains the query (case-insensitive), ordered by id.
	SearchProducts(query string) []model.Product

	// --------------------------------------------------------------------------
	// Cart
	// --------------------------------------------------------------------------

	// GetCartItems returns the cart of a user joined with the products.
	// Items whose product no longer exists are skipped.
	GetCartItems(userID uint64) []model.CartItemWithProduct

	// GetCartItem returns the stored cart item with the given id, even if its product was deleted.
	GetCartItem(id uint64) (item model.CartItem, loaded bool)

	// AddToCart adds a product to the cart of a user. If the product is already in the
	// cart, the quantities are added up. Returns ErrNotFound if the product does not exist
	// and ErrInvalidInput if the quantity (or the merged quantity) is not within
	// 1 and model.MaxQuantity.
	AddToCart(item model.InsertCartItem, writeIndex uint64) (model.CartItem, error)

	// UpdateCartItem sets the quantity of a cart item.
	UpdateCartItem(id uint64, quantity int64, writeIndex uint64) (item model.CartItem, loaded bool)

	// RemoveFromCart deletes a cart item and returns whether it existed.
	RemoveFromCart(id uint64, writeIndex uint64) (deleted bool)

	// ClearCart deletes all cart items of a user.
	ClearCart(userID uint64, writeIndex uint64)

	// --------------------------------------------------------------------------
	// Orders
	// --------------------------------------------------------------------------

	// GetOrders returns the orders of a user, newest first.
	GetOrders(userID uint64) []model.OrderWithItems

	// GetOrder returns the order with the given id including its items.
	GetOrder(id uint64) (order model.OrderWithItems, loaded bool)

	// CreateOrder stores an order with its items and decrements the stock of the
	// ordered products (never below zero). Items for products that do not exist are
	// stored but not part of the returned order.
	CreateOrder(order model.InsertOrder, items []model.InsertOrderItem, createdAt time.Time, writeIndex uint64) model.OrderWithItems

	// UpdateOrderStatus sets the status of an order.
	UpdateOrderStatus(id uint64, status model.OrderStatus, writeIndex uint64) (order model.Order, loaded bool)

	// Checkout turns the cart of a user into a pending order priced at the current
	// product prices and clears the cart. Returns ErrEmptyCart if there is nothing to order.
	Checkout(userID uint64, createdAt time.Time, writeIndex uint64) (model.OrderWithItems, error)

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Save persists the current state of the database to the provided io.Writer.
	Save(w io.Writer) (err error)

	// Load restores the database state data provided by an io.Reader.
	Load(r io.Reader) (err error)

	// Snapshot returns an independent deep copy of the database.
	Snapshot() ShopDB

	// --------------------------------------------------------------------------
	// Info and Write Index Operations
	// --------------------------------------------------------------------------

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// SetWriteIdx sets the current index of the database only if the provided index is greater than the current index.
	SetWriteIdx(index uint64)

	// WriteIdx returns the current index of the database.
	WriteIdx() (index uint64)

	// Close closes the database.
	Close() (err error)
}
