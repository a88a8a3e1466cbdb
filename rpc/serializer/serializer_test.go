package serializer

import (
	"testing"

	"github.com/ValentinKolb/dShop/rpc/common"
	"github.com/google/go-cmp/cmp"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Product lookup
		{
			MsgType: common.MsgTGetProduct,
			ID:      42,
		},

		// Create request with json arguments
		{
			MsgType: common.MsgTCreateProduct,
			Value:   []byte(`{"name":"Laptop","price":"1299.99","stock":8}`),
		},

		// Add to cart
		{
			MsgType:  common.MsgTAddToCart,
			ID:       3,
			UserID:   7,
			Quantity: 2,
		},

		// Search
		{
			MsgType: common.MsgTSearchProducts,
			Text:    "wireless",
		},

		// Delete response
		{
			MsgType: common.MsgTDeleteProduct,
			Ok:      true,
		},

		// Error response
		{
			MsgType: common.MsgTCheckout,
			Err:     "cart of user 7 is empty",
			Code:    3,
		},

		// Message with all fields filled
		{
			MsgType:  common.MsgTCustom,
			ID:       1,
			UserID:   2,
			Quantity: -5,
			Text:     "text",
			Value:    []byte("value"),
			Ok:       true,
			Err:      "error",
			Code:     6,
			Meta:     []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if diff := cmp.Diff(msg, result); diff != "" {
					t.Errorf("Message %d doesn't match after round trip (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTCustom; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Empty value slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTCreateUser,
				Value:   []byte{},
			},
		},
		{
			name: "Empty meta slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTCustom,
				Meta:    []byte{},
			},
		},
		{
			name: "Ok without any other field",
			msg: common.Message{
				MsgType: common.MsgTRemoveFromCart,
				Ok:      true,
			},
		},
		{
			name: "Negative quantity",
			msg: common.Message{
				MsgType:  common.MsgTUpdateCartItem,
				ID:       9,
				Quantity: -1,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			// Reuse a dirty message to make sure all fields are reset
			result := common.Message{ID: 99, Text: "stale", Value: []byte("stale"), Ok: true, Code: 1}
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			// nil and empty slices must survive the round trip as they are
			if diff := cmp.Diff(tc.msg, result); diff != "" {
				t.Errorf("Mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestBinarySerializerSize checks that absent fields take no space
func TestBinarySerializerSize(t *testing.T) {
	serializer := NewBinarySerializer()

	data, err := serializer.Serialize(common.Message{MsgType: common.MsgTGetProducts})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	if len(data) != headerSize {
		t.Errorf("expected %d bytes, got %d", headerSize, len(data))
	}

	data, err = serializer.Serialize(*common.NewAddToCartRequest(1, 2, 3))
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	if len(data) != headerSize+3*8 {
		t.Errorf("expected %d bytes, got %d", headerSize+3*8, len(data))
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1, 0}, // Message type and one flag byte
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Missing id",
			data:        []byte{1, 0, 1, 0, 0, 0}, // Claims an id but only 3 bytes follow
			expectError: true,
		},
		{
			name:        "Invalid length for text",
			data:        []byte{1, 0, 8, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims text length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid length for value",
			data:        []byte{1, 0, 16, 0, 0, 0, 10}, // Claims value length 10 but no bytes provided
			expectError: true,
		},
		{
			name:        "Ok flag only",
			data:        []byte{1, 0, 32},
			expectError: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}
