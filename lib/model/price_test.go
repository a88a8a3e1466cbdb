package model

import (
	"math"
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "299.99", want: 29999},
		{in: "5", want: 500},
		{in: "0.5", want: 50},
		{in: "1299.90", want: 129990},
		{in: " 12.34 ", want: 1234},
		{in: "", wantErr: true},
		{in: "-1.00", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1.", wantErr: true},
		{in: ".5", wantErr: true},
		{in: "1,50", wantErr: true},
		{in: "92233720368547757.99", want: 9223372036854775799},
		{in: "92233720368547758", wantErr: true},
		{in: "99999999999999999", wantErr: true},
		{in: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParsePrice(%q) expected error, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	tests := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		500:    "5.00",
		29999:  "299.99",
		129999: "1299.99",
		-250:   "-2.50",
	}
	for in, want := range tests {
		if got := FormatCents(in); got != want {
			t.Errorf("FormatCents(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		quantity int64
		want     int64
		wantErr  bool
	}{
		{name: "two items", price: "299.99", quantity: 2, want: 59998},
		{name: "zero quantity", price: "5.00", quantity: 0, want: 0},
		{name: "invalid price", price: "garbage", quantity: 2, wantErr: true},
		{name: "negative quantity", price: "5.00", quantity: -1, wantErr: true},
		{name: "overflow", price: "92233720368547757.00", quantity: 2, wantErr: true},
		{name: "max quantity", price: "1.00", quantity: MaxQuantity, want: int64(MaxQuantity) * 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LineTotal(tt.price, tt.quantity)
			if tt.wantErr {
				if err == nil {
					t.Errorf("LineTotal(%q, %d) expected error, got %d", tt.price, tt.quantity, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("LineTotal(%q, %d) unexpected error: %v", tt.price, tt.quantity, err)
			}
			if got != tt.want {
				t.Errorf("LineTotal(%q, %d) = %d, want %d", tt.price, tt.quantity, got, tt.want)
			}
		})
	}
}

func TestAddCents(t *testing.T) {
	if got, err := AddCents(150, 250); err != nil || got != 400 {
		t.Errorf("AddCents(150, 250) = %d, %v, want 400", got, err)
	}
	if _, err := AddCents(math.MaxInt64, 1); err == nil {
		t.Error("AddCents overflow expected error")
	}
}

func TestValidateQuantity(t *testing.T) {
	for _, q := range []int64{1, 42, MaxQuantity} {
		if err := ValidateQuantity(q); err != nil {
			t.Errorf("ValidateQuantity(%d) unexpected error: %v", q, err)
		}
	}
	for _, q := range []int64{0, -1, MaxQuantity + 1, math.MaxInt64} {
		if err := ValidateQuantity(q); err == nil {
			t.Errorf("ValidateQuantity(%d) expected error", q)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "completed", "cancelled"} {
		if _, err := ParseOrderStatus(s); err != nil {
			t.Errorf("ParseOrderStatus(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Error("ParseOrderStatus(shipped) expected error")
	}
}

func TestProductPatchApply(t *testing.T) {
	name := "New Name"
	stock := int64(0)
	p := Product{ID: 1, Name: "Old", Price: "1.00", Stock: 5}

	patched := ProductPatch{Name: &name, Stock: &stock}.Apply(p)
	if patched.Name != name || patched.Stock != 0 || patched.Price != "1.00" || patched.ID != 1 {
		t.Errorf("unexpected patched product: %+v", patched)
	}
	if p.Name != "Old" {
		t.Errorf("Apply must not modify the original product")
	}
	if !(ProductPatch{}).IsEmpty() {
		t.Errorf("empty patch should report IsEmpty")
	}
}
