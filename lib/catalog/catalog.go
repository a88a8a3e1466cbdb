package catalog

import (
	"fmt"
	"os"

	"github.com/lni/dragonboat/v4/logger"
	"gopkg.in/yaml.v3"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
)

var log = logger.GetLogger("catalog")

// File is the layout of a catalog yaml file
//
//	products:
//	  - name: Premium Wireless Headphones
//	    description: High-quality audio with noise cancellation
//	    price: "299.99"
//	    category: Electronics
//	    stock: 25
//	    imageUrl: https://...
type File struct {
	Products []model.InsertProduct `yaml:"products"`
}

// Default returns the sample products a fresh shop starts with
func Default() []model.InsertProduct {
	return []model.InsertProduct{
		{
			Name:        "Premium Wireless Headphones",
			Description: "High-quality audio with noise cancellation",
			Price:       "299.99",
			Category:    "Electronics",
			Stock:       25,
			ImageURL:    "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=300",
		},
		{
			Name:        "Professional DSLR Camera",
			Description: "Capture stunning photos with professional quality",
			Price:       "899.99",
			Category:    "Electronics",
			Stock:       3,
			ImageURL:    "https://images.unsplash.com/photo-1606983340126-99ab4feaa64a?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=300",
		},
		{
			Name:        "Smart Fitness Watch",
			Description: "Track your health and fitness goals",
			Price:       "249.99",
			Category:    "Electronics",
			Stock:       15,
			ImageURL:    "https://images.unsplash.com/photo-1434493789847-2f02dc6ca35d?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=300",
		},
		{
			Name:        "Ultrabook Laptop",
			Description: "Powerful performance in a sleek design",
			Price:       "1299.99",
			Category:    "Electronics",
			Stock:       8,
			ImageURL:    "https://images.unsplash.com/photo-1496181133206-80ce9b88a853?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=300",
		},
	}
}

// Parse decodes a catalog from yaml and validates every product
func Parse(data []byte) ([]model.InsertProduct, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for i, p := range file.Products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid product #%d (%q): %w", i+1, p.Name, err)
		}
	}
	return file.Products, nil
}

// LoadFile reads a catalog yaml file
func LoadFile(path string) ([]model.InsertProduct, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Load returns the catalog from path, or the default catalog if path is empty
func Load(path string) ([]model.InsertProduct, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Seed creates the products in the shop unless the shop already has products.
// The whole catalog is created in a single write, so a seed is never applied partially.
// It returns the number of created products.
func Seed(s shop.IShop, products []model.InsertProduct) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	created, err := s.SeedProducts(products)
	if err != nil {
		return 0, fmt.Errorf("failed to seed %d products: %w", len(products), err)
	}
	if len(created) == 0 {
		log.Infof("shop already has products, skipping seed")
		return 0, nil
	}
	log.Infof("seeded %d products", len(created))
	return len(created), nil
}
