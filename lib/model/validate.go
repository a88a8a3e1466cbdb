package model

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// MaxQuantity is the largest quantity a single cart item can hold
const MaxQuantity = math.MaxInt32

// ValidateQuantity checks the quantity of a cart item
func ValidateQuantity(quantity int64) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	if quantity > MaxQuantity {
		return fmt.Errorf("quantity must be at most %d", MaxQuantity)
	}
	return nil
}

// Validate checks a new product the same way the storefront form does
func (p InsertProduct) Validate() error {
	if err := requireText("name", p.Name); err != nil {
		return err
	}
	if err := requireText("description", p.Description); err != nil {
		return err
	}
	if _, err := ParsePrice(p.Price); err != nil {
		return err
	}
	if err := requireText("category", p.Category); err != nil {
		return err
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	return validateImageURL(p.ImageURL)
}

// Validate checks all fields that are set in the patch
func (p ProductPatch) Validate() error {
	if p.Name != nil {
		if err := requireText("name", *p.Name); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := requireText("description", *p.Description); err != nil {
			return err
		}
	}
	if p.Price != nil {
		if _, err := ParsePrice(*p.Price); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := requireText("category", *p.Category); err != nil {
			return err
		}
	}
	if p.Stock != nil && *p.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	if p.ImageURL != nil {
		return validateImageURL(*p.ImageURL)
	}
	return nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// validateImageURL accepts an empty string or an absolute http(s) url
func validateImageURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("imageUrl must be an absolute http(s) url")
	}
	return nil
}
