package internal

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// TestSizeBytes tests the SizeBytes method
func TestSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		expected int
	}{
		{
			name: "Command with text and payload",
			command: Command{
				Type:    CommandTUpdateOrderStatus,
				ID:      7,
				Text:    "completed",
				Payload: []byte(`{"a":1}`),
			},
			expected: headerSize + 9 + 7,
		},
		{
			name: "Command without text and payload",
			command: Command{
				Type:   CommandTClearCart,
				UserID: 3,
			},
			expected: headerSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := tt.command.SizeBytes()
			if size != tt.expected {
				t.Errorf("SizeBytes() = %v, want %v", size, tt.expected)
			}
		})
	}
}

// TestSerializeDeserialize tests both Serialize and Deserialize methods
func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{
			name: "Add to cart",
			command: Command{
				Type:     CommandTAddToCart,
				ID:       12,
				UserID:   4,
				Quantity: 3,
			},
		},
		{
			name: "Checkout with timestamp",
			command: Command{
				Type:      CommandTCheckout,
				UserID:    1,
				CreatedAt: 1717228800123456789,
			},
		},
		{
			name: "Status update with text",
			command: Command{
				Type: CommandTUpdateOrderStatus,
				ID:   99,
				Text: "cancelled",
			},
		},
		{
			name: "Create product with payload",
			command: Command{
				Type:    CommandTCreateProduct,
				Payload: []byte(`{"name":"Mug","price":"9.99"}`),
			},
		},
		{
			name: "Negative quantity survives",
			command: Command{
				Type:     CommandTUpdateCartItem,
				ID:       1,
				Quantity: -2,
				Text:     "ü",
				Payload:  []byte{0, 1, 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.command.Serialize()
			if len(data) != tt.command.SizeBytes() {
				t.Errorf("Serialize() returned %d bytes, want %d", len(data), tt.command.SizeBytes())
			}

			var got Command
			if err := got.Deserialize(data); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}

			if got.Type != tt.command.Type || got.ID != tt.command.ID || got.UserID != tt.command.UserID ||
				got.Quantity != tt.command.Quantity || got.CreatedAt != tt.command.CreatedAt || got.Text != tt.command.Text {
				t.Errorf("Deserialize() = %+v, want %+v", got, tt.command)
			}
			if !bytes.Equal(got.Payload, tt.command.Payload) {
				t.Errorf("Payload = %v, want %v", got.Payload, tt.command.Payload)
			}
		})
	}
}

// TestDeserializeErrors tests error cases for Deserialize
func TestDeserializeErrors(t *testing.T) {
	if err := new(Command).Deserialize(make([]byte, headerSize-1)); err == nil {
		t.Errorf("expected error for data shorter than the header")
	}

	// text length points past the end of the data
	data := make([]byte, headerSize+2)
	binary.BigEndian.PutUint32(data[33:37], 10)
	if err := new(Command).Deserialize(data); err == nil {
		t.Errorf("expected error for truncated text")
	}
}

// TestDeserializeReusesPayload checks that a command can be reused for several entries
func TestDeserializeReusesPayload(t *testing.T) {
	first := Command{Type: CommandTCreateProduct, Payload: []byte("0123456789")}
	second := Command{Type: CommandTDeleteProduct, ID: 1}

	var cmd Command
	if err := cmd.Deserialize(first.Serialize()); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Deserialize(second.Serialize()); err != nil {
		t.Fatal(err)
	}
	if cmd.Payload != nil {
		t.Errorf("payload of the previous command must be dropped, got %q", cmd.Payload)
	}
	if cmd.Type.String() != "DeleteProduct" {
		t.Errorf("Type.String() = %q, want DeleteProduct", cmd.Type.String())
	}
}
