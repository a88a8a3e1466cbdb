package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	ID       uint64 `json:"id,omitempty"`       // Used for: product, cart item, order and user lookups and writes
	UserID   uint64 `json:"userId,omitempty"`   // Used for: cart and order operations of a user
	Quantity int64  `json:"quantity,omitempty"` // Used for: AddToCart, UpdateCartItem
	Text     string `json:"text,omitempty"`     // Used for: username, search query, order status
	Value    []byte `json:"value,omitempty"`    // JSON encoded arguments (request) or result (response)

	// Response only fields
	Ok   bool   `json:"ok,omitempty"`   // Used for: DeleteProduct, RemoveFromCart responses
	Err  string `json:"err,omitempty"`  // Empty if no error, otherwise contains the error message
	Code uint64 `json:"code,omitempty"` // shop.RetCode of the error

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Reserved for adapters of MsgTCustom, the shop adapter rejects those
}

// ShopError restores the *shop.Error carried by a response. It returns nil if the message holds no error.
func (m *Message) ShopError() error {
	if m.Err == "" {
		return nil
	}
	code := shop.RetCode(m.Code)
	if code == shop.RetCSuccess {
		code = shop.RetCInternalError
	}
	return shop.NewError(code, m.Err)
}

// CreateOrderArgs are the JSON encoded arguments of a CreateOrder request
type CreateOrderArgs struct {
	Order model.InsertOrder       `json:"order"`
	Items []model.InsertOrderItem `json:"items"`
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewRequest creates a new request of the given type.
// Typed arguments are encoded as JSON into the Value field, pass nil if there are none.
func NewRequest(msgType MessageType, args any) (*Message, error) {
	msg := &Message{MsgType: msgType}
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s arguments: %w", msgType, err)
		}
		msg.Value = data
	}
	return msg, nil
}

// NewIDRequest creates a new request that addresses a single row
func NewIDRequest(msgType MessageType, id uint64) *Message {
	return &Message{MsgType: msgType, ID: id}
}

// NewUserRequest creates a new request that addresses the cart or the orders of a user
func NewUserRequest(msgType MessageType, userID uint64) *Message {
	return &Message{MsgType: msgType, UserID: userID}
}

// NewTextRequest creates a new request with a text argument (username, search query)
func NewTextRequest(msgType MessageType, text string) *Message {
	return &Message{MsgType: msgType, Text: text}
}

// NewAddToCartRequest creates a new AddToCart request
func NewAddToCartRequest(userID, productID uint64, quantity int64) *Message {
	return &Message{
		MsgType:  MsgTAddToCart,
		ID:       productID,
		UserID:   userID,
		Quantity: quantity,
	}
}

// NewUpdateCartItemRequest creates a new UpdateCartItem request
func NewUpdateCartItemRequest(id uint64, quantity int64) *Message {
	return &Message{
		MsgType:  MsgTUpdateCartItem,
		ID:       id,
		Quantity: quantity,
	}
}

// NewUpdateOrderStatusRequest creates a new UpdateOrderStatus request
func NewUpdateOrderStatusRequest(id uint64, status string) *Message {
	return &Message{
		MsgType: MsgTUpdateOrderStatus,
		ID:      id,
		Text:    status,
	}
}

// NewResponse creates a response of the given type. The result is encoded as JSON
// into the Value field. If err is set, the result is dropped and the error message and
// its shop.RetCode are returned instead.
func NewResponse(msgType MessageType, result any, err error) *Message {
	msg := &Message{MsgType: msgType}
	if err != nil {
		setError(msg, err)
		return msg
	}
	if result != nil {
		data, encErr := json.Marshal(result)
		if encErr != nil {
			setError(msg, shop.NewError(shop.RetCInternalError, fmt.Sprintf("failed to encode %s result: %v", msgType, encErr)))
			return msg
		}
		msg.Value = data
	}
	return msg
}

// NewOkResponse creates a response carrying only a boolean (DeleteProduct, RemoveFromCart)
func NewOkResponse(msgType MessageType, ok bool, err error) *Message {
	msg := &Message{MsgType: msgType, Ok: ok}
	if err != nil {
		setError(msg, err)
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
		Code:    uint64(shop.RetCInternalError),
	}
}

func setError(msg *Message, err error) {
	var shopErr *shop.Error
	if errors.As(err, &shopErr) {
		msg.Err = shopErr.Msg
		msg.Code = uint64(shopErr.Code)
		return
	}
	msg.Err = err.Error()
	msg.Code = uint64(shop.RetCInternalError)
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:           "success",
	MsgTError:             "error",
	MsgTGetUser:           "getUser",
	MsgTGetUserByUsername: "getUserByUsername",
	MsgTCreateUser:        "createUser",
	MsgTGetProducts:       "getProducts",
	MsgTGetProduct:        "getProduct",
	MsgTCreateProduct:     "createProduct",
	MsgTUpdateProduct:     "updateProduct",
	MsgTDeleteProduct:     "deleteProduct",
	MsgTSearchProducts:    "searchProducts",
	MsgTSeedProducts:      "seedProducts",
	MsgTGetCartItems:      "getCartItems",
	MsgTGetCartItem:       "getCartItem",
	MsgTAddToCart:         "addToCart",
	MsgTUpdateCartItem:    "updateCartItem",
	MsgTRemoveFromCart:    "removeFromCart",
	MsgTClearCart:         "clearCart",
	MsgTGetOrders:         "getOrders",
	MsgTGetOrder:          "getOrder",
	MsgTCreateOrder:       "createOrder",
	MsgTUpdateOrderStatus: "updateOrderStatus",
	MsgTCheckout:          "checkout",
	MsgTGetDBInfo:         "getDBInfo",
	MsgTCustom:            "custom",
}

var messageTypesByName = func() map[string]MessageType {
	m := make(map[string]MessageType, len(messageTypeNames))
	for t, name := range messageTypeNames {
		m[name] = t
	}
	return m
}()

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	msgType, ok := messageTypesByName[s]
	if !ok {
		return fmt.Errorf("unknown message type: %s", s)
	}
	*t = msgType
	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Users

	MsgTGetUser           // Get a user by id
	MsgTGetUserByUsername // Get a user by username
	MsgTCreateUser        // Create a user

	// Products

	MsgTGetProducts    // List all products
	MsgTGetProduct     // Get a product by id
	MsgTCreateProduct  // Create a product
	MsgTUpdateProduct  // Merge a patch into a product
	MsgTDeleteProduct  // Delete a product
	MsgTSearchProducts // Search products
	MsgTSeedProducts   // Create the catalog if the shop has no products

	// Cart

	MsgTGetCartItems   // List the cart of a user
	MsgTGetCartItem    // Get a single cart item by id
	MsgTAddToCart      // Add a product to a cart
	MsgTUpdateCartItem // Set the quantity of a cart item
	MsgTRemoveFromCart // Delete a cart item
	MsgTClearCart      // Delete all cart items of a user

	// Orders

	MsgTGetOrders         // List the orders of a user
	MsgTGetOrder          // Get an order by id
	MsgTCreateOrder       // Create an order
	MsgTUpdateOrderStatus // Set the status of an order
	MsgTCheckout          // Turn a cart into an order

	// Info

	MsgTGetDBInfo // Get metadata about the database

	// Custom operations

	MsgTCustom // Custom operation type
)
