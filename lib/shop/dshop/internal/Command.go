package internal

import (
	"encoding/binary"
	"fmt"
)

// CommandType defines the possible operations for the state machine.
type CommandType uint8

const (
	CommandTCreateUser        CommandType = iota // Insert a user (payload: model.InsertUser).
	CommandTCreateProduct                        // Insert a product (payload: model.InsertProduct).
	CommandTUpdateProduct                        // Merge a patch into product ID (payload: model.ProductPatch).
	CommandTDeleteProduct                        // Delete product ID.
	CommandTAddToCart                            // Add Quantity of product ID to the cart of UserID.
	CommandTUpdateCartItem                       // Set the quantity of cart item ID.
	CommandTRemoveFromCart                       // Delete cart item ID.
	CommandTClearCart                            // Delete all cart items of UserID.
	CommandTCreateOrder                          // Insert an order (payload: OrderPayload).
	CommandTUpdateOrderStatus                    // Set the status of order ID to Text.
	CommandTCheckout                             // Turn the cart of UserID into an order.
	CommandTSeedProducts                         // Insert all products if there are none (payload: []model.InsertProduct).
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTCreateUser:
		return "CreateUser"
	case CommandTCreateProduct:
		return "CreateProduct"
	case CommandTUpdateProduct:
		return "UpdateProduct"
	case CommandTDeleteProduct:
		return "DeleteProduct"
	case CommandTAddToCart:
		return "AddToCart"
	case CommandTUpdateCartItem:
		return "UpdateCartItem"
	case CommandTRemoveFromCart:
		return "RemoveFromCart"
	case CommandTClearCart:
		return "ClearCart"
	case CommandTCreateOrder:
		return "CreateOrder"
	case CommandTUpdateOrderStatus:
		return "UpdateOrderStatus"
	case CommandTCheckout:
		return "Checkout"
	case CommandTSeedProducts:
		return "SeedProducts"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// Command represents a command to be executed by the state machine (a single entry in the raft log).
// CreatedAt is chosen by the proposer (unix nanoseconds), so every replica stores the same timestamp.
type Command struct {
	Type      CommandType
	ID        uint64
	UserID    uint64
	Quantity  int64
	CreatedAt int64
	Text      string
	Payload   []byte
}

// headerSize is the size of the fixed part of a serialized command:
// Type + ID + UserID + Quantity + CreatedAt + TextLen
const headerSize = 1 + 8 + 8 + 8 + 8 + 4

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	return headerSize + len(command.Text) + len(command.Payload)
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for operation type,
// 8 bytes for the id,
// 8 bytes for the user id,
// 8 bytes for the quantity,
// 8 bytes for the creation time,
// 4 bytes for text length (big endian),
// N bytes for text data,
// N bytes for payload data (optional)
func (command *Command) Serialize() []byte {
	result := make([]byte, command.SizeBytes())

	result[0] = byte(command.Type)
	binary.BigEndian.PutUint64(result[1:9], command.ID)
	binary.BigEndian.PutUint64(result[9:17], command.UserID)
	binary.BigEndian.PutUint64(result[17:25], uint64(command.Quantity))
	binary.BigEndian.PutUint64(result[25:33], uint64(command.CreatedAt))
	binary.BigEndian.PutUint32(result[33:37], uint32(len(command.Text)))

	copy(result[headerSize:], command.Text)
	copy(result[headerSize+len(command.Text):], command.Payload)

	return result
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for command")
	}

	command.Type = CommandType(data[0])
	command.ID = binary.BigEndian.Uint64(data[1:9])
	command.UserID = binary.BigEndian.Uint64(data[9:17])
	command.Quantity = int64(binary.BigEndian.Uint64(data[17:25]))
	command.CreatedAt = int64(binary.BigEndian.Uint64(data[25:33]))
	textLen := int(binary.BigEndian.Uint32(data[33:37]))

	if len(data) < headerSize+textLen {
		return fmt.Errorf("data too short for text of length %d", textLen)
	}
	command.Text = string(data[headerSize : headerSize+textLen])

	if rest := data[headerSize+textLen:]; len(rest) > 0 {
		// Reuse existing buffer if possible to reduce allocations
		if cap(command.Payload) < len(rest) {
			command.Payload = make([]byte, len(rest))
		} else {
			command.Payload = command.Payload[:len(rest)]
		}
		copy(command.Payload, rest)
	} else {
		command.Payload = nil
	}

	return nil
}
