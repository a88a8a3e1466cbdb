package lshop

import (
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
)

type shopImpl struct {
	db    db.ShopDB
	index atomic.Uint64
	now   func() time.Time
}

// NewLocalShop creates a new local shop instance.
// This shop implementation is not distributed and only works on a single node.
func NewLocalShop(factory shop.DBFactory) shop.IShop {
	return newLocalShop(factory, time.Now)
}

func newLocalShop(factory shop.DBFactory, now func() time.Time) *shopImpl {
	return &shopImpl{
		db:  factory(),
		now: now,
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *shopImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see shop/interface.go)
// --------------------------------------------------------------------------

func (s *shopImpl) GetUser(id uint64) (model.User, error) {
	user, ok := s.db.GetUser(id)
	if !ok {
		return model.User{}, shop.NotFound("user", id)
	}
	return user, nil
}

func (s *shopImpl) GetUserByUsername(username string) (model.User, error) {
	user, ok := s.db.GetUserByUsername(username)
	if !ok {
		return model.User{}, shop.NewError(shop.RetCNotFound, "user "+username+" not found")
	}
	return user, nil
}

func (s *shopImpl) CreateUser(user model.InsertUser) (model.User, error) {
	created, err := s.db.CreateUser(user, s.incAndGetIndex())
	return created, shop.FromDBError(err)
}

func (s *shopImpl) GetProducts() ([]model.Product, error) {
	return s.db.GetProducts(), nil
}

func (s *shopImpl) GetProduct(id uint64) (model.Product, error) {
	product, ok := s.db.GetProduct(id)
	if !ok {
		return model.Product{}, shop.NotFound("product", id)
	}
	return product, nil
}

func (s *shopImpl) CreateProduct(product model.InsertProduct) (model.Product, error) {
	return s.db.CreateProduct(product, s.incAndGetIndex()), nil
}

func (s *shopImpl) SeedProducts(products []model.InsertProduct) ([]model.Product, error) {
	return s.db.SeedProducts(products, s.incAndGetIndex()), nil
}

func (s *shopImpl) UpdateProduct(id uint64, patch model.ProductPatch) (model.Product, error) {
	product, ok := s.db.UpdateProduct(id, patch, s.incAndGetIndex())
	if !ok {
		return model.Product{}, shop.NotFound("product", id)
	}
	return product, nil
}

func (s *shopImpl) DeleteProduct(id uint64) (bool, error) {
	return s.db.DeleteProduct(id, s.incAndGetIndex()), nil
}

func (s *shopImpl) SearchProducts(query string) ([]model.Product, error) {
	return s.db.SearchProducts(query), nil
}

func (s *shopImpl) GetCartItems(userID uint64) ([]model.CartItemWithProduct, error) {
	return s.db.GetCartItems(userID), nil
}

func (s *shopImpl) GetCartItem(id uint64) (model.CartItem, error) {
	item, ok := s.db.GetCartItem(id)
	if !ok {
		return model.CartItem{}, shop.NotFound("cart item", id)
	}
	return item, nil
}

func (s *shopImpl) AddToCart(item model.InsertCartItem) (model.CartItem, error) {
	cartItem, err := s.db.AddToCart(item, s.incAndGetIndex())
	return cartItem, shop.FromDBError(err)
}

func (s *shopImpl) UpdateCartItem(id uint64, quantity int64) (model.CartItem, error) {
	if err := model.ValidateQuantity(quantity); err != nil {
		return model.CartItem{}, shop.NewError(shop.RetCInvalidInput, err.Error())
	}
	item, ok := s.db.UpdateCartItem(id, quantity, s.incAndGetIndex())
	if !ok {
		return model.CartItem{}, shop.NotFound("cart item", id)
	}
	return item, nil
}

func (s *shopImpl) RemoveFromCart(id uint64) (bool, error) {
	return s.db.RemoveFromCart(id, s.incAndGetIndex()), nil
}

func (s *shopImpl) ClearCart(userID uint64) error {
	s.db.ClearCart(userID, s.incAndGetIndex())
	return nil
}

func (s *shopImpl) GetOrders(userID uint64) ([]model.OrderWithItems, error) {
	return s.db.GetOrders(userID), nil
}

func (s *shopImpl) GetOrder(id uint64) (model.OrderWithItems, error) {
	order, ok := s.db.GetOrder(id)
	if !ok {
		return model.OrderWithItems{}, shop.NotFound("order", id)
	}
	return order, nil
}

func (s *shopImpl) CreateOrder(order model.InsertOrder, items []model.InsertOrderItem) (model.OrderWithItems, error) {
	return s.db.CreateOrder(order, items, s.now(), s.incAndGetIndex()), nil
}

func (s *shopImpl) UpdateOrderStatus(id uint64, status model.OrderStatus) (model.Order, error) {
	if _, err := model.ParseOrderStatus(string(status)); err != nil {
		return model.Order{}, shop.NewError(shop.RetCInvalidInput, err.Error())
	}
	order, ok := s.db.UpdateOrderStatus(id, status, s.incAndGetIndex())
	if !ok {
		return model.Order{}, shop.NotFound("order", id)
	}
	return order, nil
}

func (s *shopImpl) Checkout(userID uint64) (model.OrderWithItems, error) {
	order, err := s.db.Checkout(userID, s.now(), s.incAndGetIndex())
	return order, shop.FromDBError(err)
}

func (s *shopImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}
