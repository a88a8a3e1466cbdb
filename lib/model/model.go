package model

import (
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Users
// --------------------------------------------------------------------------

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered customer or administrator.
// Password holds the password hash and is never written to API responses.
type User struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

// Public returns a copy of the user without the password hash
func (u User) Public() User {
	u.Password = ""
	return u
}

type InsertUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// --------------------------------------------------------------------------
// Products
// --------------------------------------------------------------------------

type Product struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Stock       int64  `json:"stock"`
	ImageURL    string `json:"imageUrl"`
}

type InsertProduct struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Price       string `json:"price" yaml:"price"`
	Category    string `json:"category" yaml:"category"`
	Stock       int64  `json:"stock" yaml:"stock"`
	ImageURL    string `json:"imageUrl" yaml:"imageUrl"`
}

// ProductPatch is a partial product update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *string `json:"price,omitempty"`
	Category    *string `json:"category,omitempty"`
	Stock       *int64  `json:"stock,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

// IsEmpty reports whether the patch would not change anything
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.Stock == nil && p.ImageURL == nil
}

// Apply returns a copy of the product with all set fields of the patch merged in
func (p ProductPatch) Apply(product Product) Product {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.ImageURL != nil {
		product.ImageURL = *p.ImageURL
	}
	return product
}

// --------------------------------------------------------------------------
// Cart
// --------------------------------------------------------------------------

type CartItem struct {
	ID        uint64 `json:"id"`
	UserID    uint64 `json:"userId"`
	ProductID uint64 `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type InsertCartItem struct {
	UserID    uint64 `json:"userId"`
	ProductID uint64 `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type CartItemWithProduct struct {
	CartItem
	Product Product `json:"product"`
}

// --------------------------------------------------------------------------
// Orders
// --------------------------------------------------------------------------

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus validates a status string
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch status := OrderStatus(s); status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("invalid order status %q (expected one of: pending, processing, completed, cancelled)", s)
	}
}

type Order struct {
	ID        uint64      `json:"id"`
	UserID    uint64      `json:"userId"`
	Total     string      `json:"total"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

type InsertOrder struct {
	UserID uint64      `json:"userId"`
	Total  string      `json:"total"`
	Status OrderStatus `json:"status"`
}

type OrderItem struct {
	ID        uint64 `json:"id"`
	OrderID   uint64 `json:"orderId"`
	ProductID uint64 `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Price     string `json:"price"`
}

type InsertOrderItem struct {
	ProductID uint64 `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Price     string `json:"price"`
}

type OrderItemWithProduct struct {
	OrderItem
	Product Product `json:"product"`
}

type OrderWithItems struct {
	Order
	Items []OrderItemWithProduct `json:"items"`
}
