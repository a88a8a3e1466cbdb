package shop

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/model"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the shop.
// This is used to abstract the creation of the db from the shop implementation.
type DBFactory func() db.ShopDB

// IShop is the interface of the storefront backend.
// All operations return the requested data along with a *Error (nil on success).
// Lookups of ids that do not exist fail with RetCNotFound.
type IShop interface {
	// GetUser returns the user with the given id.
	GetUser(id uint64) (user model.User, err error)
	// GetUserByUsername returns the user with exactly the given username.
	GetUserByUsername(username string) (user model.User, err error)
	// CreateUser creates a new user. The password must already be hashed.
	// A taken username results in RetCConflict.
	CreateUser(user model.InsertUser) (created model.User, err error)

	// GetProducts returns all products ordered by id.
	GetProducts() (products []model.Product, err error)
	// GetProduct returns the product with the given id.
	GetProduct(id uint64) (product model.Product, err error)
	// CreateProduct creates a new product.
	CreateProduct(product model.InsertProduct) (created model.Product, err error)
	// SeedProducts creates all products in a single write if the shop has no products yet.
	// It returns the created products (empty if the shop already had products).
	SeedProducts(products []model.InsertProduct) (created []model.Product, err error)
	// UpdateProduct merges the set fields of the patch into a product.
	UpdateProduct(id uint64, patch model.ProductPatch) (updated model.Product, err error)
	// DeleteProduct deletes a product. The boolean is false if there was nothing to delete.
	DeleteProduct(id uint64) (deleted bool, err error)
	// SearchProducts searches name, description and category (case-insensitive).
	SearchProducts(query string) (products []model.Product, err error)

	// GetCartItems returns the cart of a user joined with the products.
	GetCartItems(userID uint64) (items []model.CartItemWithProduct, err error)
	// GetCartItem returns a single cart item, also if its product was deleted.
	GetCartItem(id uint64) (cartItem model.CartItem, err error)
	// AddToCart adds a product to a cart, merging the quantity with an existing item.
	// Quantities outside of 1 and model.MaxQuantity result in RetCInvalidInput.
	AddToCart(item model.InsertCartItem) (cartItem model.CartItem, err error)
	// UpdateCartItem sets the quantity of a cart item.
	// Quantities outside of 1 and model.MaxQuantity result in RetCInvalidInput.
	UpdateCartItem(id uint64, quantity int64) (cartItem model.CartItem, err error)
	// RemoveFromCart deletes a cart item. The boolean is false if there was nothing to delete.
	RemoveFromCart(id uint64) (deleted bool, err error)
	// ClearCart removes all items from the cart of a user.
	ClearCart(userID uint64) (err error)

	// GetOrders returns the orders of a user, newest first.
	GetOrders(userID uint64) (orders []model.OrderWithItems, err error)
	// GetOrder returns an order with its items.
	GetOrder(id uint64) (order model.OrderWithItems, err error)
	// CreateOrder stores an order with its items and decrements the stock of the ordered products.
	CreateOrder(order model.InsertOrder, items []model.InsertOrderItem) (created model.OrderWithItems, err error)
	// UpdateOrderStatus sets the status of an order.
	UpdateOrderStatus(id uint64, status model.OrderStatus) (order model.Order, err error)
	// Checkout turns the cart of a user into a pending order and clears the cart.
	// An empty cart results in RetCInvalidOperation.
	Checkout(userID uint64) (order model.OrderWithItems, err error)

	// GetDBInfo returns metadata about the database underlying the shop.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ShopError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new ShopError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// FromDBError translates the sentinel errors of the db package into a *Error.
// nil stays nil.
func FromDBError(err error) error {
	if err == nil {
		return nil
	}
	var shopErr *Error
	if errors.As(err, &shopErr) {
		return shopErr
	}

	switch {
	case errors.Is(err, db.ErrNotFound):
		return NewError(RetCNotFound, err.Error())
	case errors.Is(err, db.ErrConflict):
		return NewError(RetCConflict, err.Error())
	case errors.Is(err, db.ErrInvalidInput):
		return NewError(RetCInvalidInput, err.Error())
	case errors.Is(err, db.ErrEmptyCart):
		return NewError(RetCInvalidOperation, err.Error())
	default:
		return NewError(RetCInternalError, err.Error())
	}
}

// NotFound creates a RetCNotFound error for a missing row
func NotFound(kind string, id uint64) *Error {
	return NewError(RetCNotFound, fmt.Sprintf("%s %d not found", kind, id))
}

// CodeOf returns the RetCode of err. Errors that are not a *Error count as RetCInternalError.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var shopErr *Error
	if errors.As(err, &shopErr) {
		return shopErr.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the shop.
	RetCInvalidOperation                    // 3: Invalid operation (e.g. checkout of an empty cart).
	RetCNotFound                            // 4: The referenced row does not exist.
	RetCConflict                            // 5: The write collides with existing state.
	RetCInvalidInput                        // 6: The input was rejected.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCNotFound:
		return "NotFound"
	case RetCConflict:
		return "Conflict"
	case RetCInvalidInput:
		return "InvalidInput"
	default:
		return "Unknown"
	}
}
