package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/db/engines/memdb"
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop/lshop"
)

const sampleYAML = `
products:
  - name: Coffee Mug
    description: Ceramic, dishwasher safe
    price: "12.50"
    category: Kitchen
    stock: 40
  - name: Tea Pot
    description: Holds one liter
    price: "29"
    category: Kitchen
    stock: 0
    imageUrl: https://example.com/teapot.png
`

func TestDefaultCatalogIsValid(t *testing.T) {
	products := Default()
	require.Len(t, products, 4)
	for _, p := range products {
		assert.NoError(t, p.Validate(), p.Name)
		assert.Equal(t, "Electronics", p.Category)
	}
}

func TestParse(t *testing.T) {
	products, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	want := []model.InsertProduct{
		{Name: "Coffee Mug", Description: "Ceramic, dishwasher safe", Price: "12.50", Category: "Kitchen", Stock: 40},
		{Name: "Tea Pot", Description: "Holds one liter", Price: "29", Category: "Kitchen", Stock: 0, ImageURL: "https://example.com/teapot.png"},
	}
	if diff := cmp.Diff(want, products); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsInvalidProducts(t *testing.T) {
	_, err := Parse([]byte("products:\n  - name: Broken\n    price: \"abc\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("products: [not: valid: yaml"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	products, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), products)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	products, err = Load(path)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	s := lshop.NewLocalShop(func() db.ShopDB { return memdb.NewMemDB() })

	n, err := Seed(s, Default())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// seeding twice does not duplicate the catalog
	n, err = Seed(s, Default())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	products, err := s.GetProducts()
	require.NoError(t, err)
	require.Len(t, products, 4)
	assert.Equal(t, uint64(1), products[0].ID)
	assert.Equal(t, "Premium Wireless Headphones", products[0].Name)
	assert.Equal(t, int64(3), products[1].Stock)
}
