package lshop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/db/engines/memdb"
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
	shoptesting "github.com/ValentinKolb/dShop/lib/shop/testing"
)

func factory() db.ShopDB {
	return memdb.NewMemDB()
}

func TestLocalShop(t *testing.T) {
	shoptesting.RunShopTests(t, "LocalShop", func(t *testing.T) shop.IShop {
		return NewLocalShop(factory)
	})
}

func TestCheckoutUsesClock(t *testing.T) {
	fixed := time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)
	s := newLocalShop(factory, func() time.Time { return fixed })

	p, err := s.CreateProduct(model.InsertProduct{Name: "Mug", Description: "d", Price: "9.99", Category: "Kitchen", Stock: 2})
	require.NoError(t, err)
	_, err = s.AddToCart(model.InsertCartItem{UserID: 1, ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	order, err := s.Checkout(1)
	require.NoError(t, err)
	assert.True(t, order.CreatedAt.Equal(fixed))
}

func TestWriteIndexAdvancesPerWrite(t *testing.T) {
	s := newLocalShop(factory, time.Now)

	for i := 0; i < 3; i++ {
		_, err := s.CreateProduct(model.InsertProduct{Name: "p", Description: "d", Price: "1.00", Category: "c"})
		require.NoError(t, err)
	}
	_, _ = s.GetProducts()

	info, err := s.GetDBInfo()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), info.WriteIndex)
}
