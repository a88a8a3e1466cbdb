package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxPriceUnits is the largest whole amount that still fits into int64 cents
const maxPriceUnits = (math.MaxInt64 - 99) / 100

// ParsePrice converts a decimal price string ("299.99", "5", "0.5") into integer cents.
// At most two fraction digits are accepted and negative values are rejected.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("price must not be empty")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid price %q", s)
		}
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > maxPriceUnits {
		return 0, fmt.Errorf("price %q is out of range", s)
	}

	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}

	return units*100 + cents, nil
}

// FormatCents renders cents as a decimal string with two fraction digits
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// LineTotal returns price*quantity in cents.
// It fails for invalid prices, negative quantities and results that do not fit into int64.
func LineTotal(price string, quantity int64) (int64, error) {
	cents, err := ParsePrice(price)
	if err != nil {
		return 0, err
	}
	if quantity < 0 {
		return 0, fmt.Errorf("quantity must not be negative, got %d", quantity)
	}
	if quantity > 0 && cents > math.MaxInt64/quantity {
		return 0, fmt.Errorf("total of %d x %s is out of range", quantity, price)
	}
	return cents * quantity, nil
}

// AddCents returns a+b for non-negative amounts and fails if the sum does not fit into int64
func AddCents(a, b int64) (int64, error) {
	if b > math.MaxInt64-a {
		return 0, fmt.Errorf("total is out of range")
	}
	return a + b, nil
}
