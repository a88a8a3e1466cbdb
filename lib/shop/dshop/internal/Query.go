package internal

import "github.com/ValentinKolb/dShop/lib/model"

// QueryType defines the possible queries for the state machine.
type QueryType uint8

const (
	QueryTGetUser           QueryType = iota // Retrieve a user by ID.
	QueryTGetUserByUsername                  // Retrieve a user by Text.
	QueryTGetProducts                        // Retrieve all products.
	QueryTGetProduct                         // Retrieve a product by ID.
	QueryTSearchProducts                     // Search products for Text.
	QueryTGetCartItems                       // Retrieve the cart of ID.
	QueryTGetOrders                          // Retrieve the orders of ID.
	QueryTGetOrder                           // Retrieve an order by ID.
	QueryTGetDBInfo                          // Retrieve metadata about the database underlying the machine.
	QueryTGetCartItem                        // Retrieve a cart item by ID.
)

func (q QueryType) String() string {
	switch q {
	case QueryTGetUser:
		return "GetUser"
	case QueryTGetUserByUsername:
		return "GetUserByUsername"
	case QueryTGetProducts:
		return "GetProducts"
	case QueryTGetProduct:
		return "GetProduct"
	case QueryTSearchProducts:
		return "SearchProducts"
	case QueryTGetCartItems:
		return "GetCartItems"
	case QueryTGetOrders:
		return "GetOrders"
	case QueryTGetOrder:
		return "GetOrder"
	case QueryTGetDBInfo:
		return "GetDBInfo"
	case QueryTGetCartItem:
		return "GetCartItem"
	default:
		return "Unknown"
	}
}

// Query defines the structure for lookup requests (read-only) sent via SyncRead or StaleRead
type Query struct {
	Type QueryType // The type of Query to perform.
	ID   uint64    // The id for the Query (zero for some queries).
	Text string    // Username or search term (empty for most queries).
}

// Found is the result of a lookup by id which might not match any row.
// All other query results are slices or predefined structs (db.DatabaseInfo).
type Found[T any] struct {
	Ok    bool
	Value T
}

// OrderPayload is the payload of a CommandTCreateOrder
type OrderPayload struct {
	Order model.InsertOrder       `json:"order"`
	Items []model.InsertOrderItem `json:"items"`
}
