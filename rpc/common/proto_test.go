package common

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
)

func TestNewRequestEncodesArguments(t *testing.T) {
	msg, err := NewRequest(MsgTCreateUser, model.InsertUser{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	if msg.MsgType != MsgTCreateUser {
		t.Errorf("expected type %s, got %s", MsgTCreateUser, msg.MsgType)
	}

	var args model.InsertUser
	if err := json.Unmarshal(msg.Value, &args); err != nil {
		t.Fatalf("failed to decode arguments: %v", err)
	}
	if args.Username != "alice" {
		t.Errorf("expected username alice, got %q", args.Username)
	}

	empty, err := NewRequest(MsgTGetProducts, nil)
	if err != nil {
		t.Fatalf("NewRequest without arguments failed: %v", err)
	}
	if empty.Value != nil {
		t.Errorf("expected no value, got %q", empty.Value)
	}
}

func TestResponseCarriesShopError(t *testing.T) {
	resp := NewResponse(MsgTGetProduct, nil, shop.NotFound("product", 7))
	if resp.Code != uint64(shop.RetCNotFound) {
		t.Errorf("expected code %d, got %d", shop.RetCNotFound, resp.Code)
	}

	err := resp.ShopError()
	if shop.CodeOf(err) != shop.RetCNotFound {
		t.Errorf("expected not found, got %v", err)
	}
	var shopErr *shop.Error
	if !errors.As(err, &shopErr) || shopErr.Msg != "product 7 not found" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResponseWithPlainError(t *testing.T) {
	resp := NewOkResponse(MsgTDeleteProduct, false, errors.New("boom"))
	if shop.CodeOf(resp.ShopError()) != shop.RetCInternalError {
		t.Errorf("plain errors must become internal errors, got %v", resp.ShopError())
	}

	// a message without code but with an error is treated as internal error
	msg := &Message{MsgType: MsgTError, Err: "broken"}
	if shop.CodeOf(msg.ShopError()) != shop.RetCInternalError {
		t.Errorf("expected internal error, got %v", msg.ShopError())
	}

	if (&Message{MsgType: MsgTSuccess}).ShopError() != nil {
		t.Errorf("expected no error for a successful message")
	}
}

func TestNewResponseEncodesResult(t *testing.T) {
	product := model.Product{ID: 3, Name: "Laptop", Price: "1299.99", Stock: 8}
	resp := NewResponse(MsgTGetProduct, product, nil)
	if resp.Err != "" {
		t.Fatalf("unexpected error: %s", resp.Err)
	}

	var decoded model.Product
	if err := json.Unmarshal(resp.Value, &decoded); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if decoded != product {
		t.Errorf("expected %+v, got %+v", product, decoded)
	}
}

func TestMessageTypeJSON(t *testing.T) {
	for msgType := range messageTypeNames {
		data, err := json.Marshal(msgType)
		if err != nil {
			t.Fatalf("failed to marshal %s: %v", msgType, err)
		}
		var decoded MessageType
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("failed to unmarshal %s: %v", data, err)
		}
		if decoded != msgType {
			t.Errorf("expected %s, got %s", msgType, decoded)
		}
	}

	var decoded MessageType
	if err := json.Unmarshal([]byte(`"dropTables"`), &decoded); err == nil {
		t.Errorf("expected error for unknown message type")
	}
	if MessageType(200).String() != "unknown" {
		t.Errorf("expected unknown for an undefined type")
	}
}
