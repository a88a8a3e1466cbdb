package dshop

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	sm "github.com/lni/dragonboat/v4/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/db/engines/memdb"
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/ValentinKolb/dShop/lib/shop/dshop/internal"
)

func newTestMachine() sm.IConcurrentStateMachine {
	return CreateStateMachineFactory(func() db.ShopDB { return memdb.NewMemDB() })(100, 1)
}

// apply feeds the commands into the machine as one batch starting at raft index 1
func apply(t *testing.T, fsm sm.IConcurrentStateMachine, cmds ...internal.Command) []sm.Result {
	t.Helper()
	entries := make([]sm.Entry, len(cmds))
	for i := range cmds {
		entries[i] = sm.Entry{Index: uint64(i + 1), Cmd: cmds[i].Serialize()}
	}
	out, err := fsm.Update(entries)
	require.NoError(t, err)

	results := make([]sm.Result, len(out))
	for i, e := range out {
		results[i] = e.Result
	}
	return results
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestStateMachineUpdate(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	createdAt := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

	results := apply(t, fsm,
		internal.Command{Type: internal.CommandTCreateProduct, Payload: mustJSON(t, model.InsertProduct{
			Name: "Watch", Description: "d", Price: "249.99", Category: "Electronics", Stock: 15,
		})},
		internal.Command{Type: internal.CommandTAddToCart, ID: 1, UserID: 7, Quantity: 2},
		internal.Command{Type: internal.CommandTCheckout, UserID: 7, CreatedAt: createdAt.UnixNano()},
		internal.Command{Type: internal.CommandTCheckout, UserID: 7, CreatedAt: createdAt.UnixNano()},
		internal.Command{Type: internal.CommandTUpdateOrderStatus, ID: 1, Text: "shipped"},
		internal.Command{Type: internal.CommandTDeleteProduct, ID: 42},
		internal.Command{Type: internal.CommandType(200)},
	)

	require.Len(t, results, 7)
	for i, want := range []shop.RetCode{
		shop.RetCSuccess,
		shop.RetCSuccess,
		shop.RetCSuccess,
		shop.RetCInvalidOperation, // empty cart after the first checkout
		shop.RetCInvalidInput,
		shop.RetCSuccess,
		shop.RetCInvalidOperation,
	} {
		assert.Equal(t, uint64(want), results[i].Value, "result %d: %s", i, results[i].Data)
	}

	var order model.OrderWithItems
	require.NoError(t, json.Unmarshal(results[2].Data, &order))
	assert.Equal(t, "499.98", order.Total)
	assert.True(t, order.CreatedAt.Equal(createdAt))

	var deleted bool
	require.NoError(t, json.Unmarshal(results[5].Data, &deleted))
	assert.False(t, deleted)

	info, err := fsm.Lookup(internal.Query{Type: internal.QueryTGetDBInfo})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), info.(db.DatabaseInfo).WriteIndex)
}

func TestStateMachineRejectsBrokenEntries(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	entries, err := fsm.Update([]sm.Entry{
		{Index: 1, Cmd: nil},
		{Index: 2, Cmd: []byte{1, 2, 3}},
		{Index: 3, Cmd: (&internal.Command{Type: internal.CommandTCreateProduct, Payload: []byte("{not json")}).Serialize()},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(shop.RetCInvalidOperation), entries[0].Result.Value)
	assert.Equal(t, uint64(shop.RetCInternalError), entries[1].Result.Value)
	assert.Equal(t, uint64(shop.RetCInvalidInput), entries[2].Result.Value)
}

func TestStateMachineLookup(t *testing.T) {
	fsm := newTestMachine()
	defer fsm.Close()

	apply(t, fsm,
		internal.Command{Type: internal.CommandTCreateUser, Payload: mustJSON(t, model.InsertUser{Username: "alice", Password: "x"})},
		internal.Command{Type: internal.CommandTCreateProduct, Payload: mustJSON(t, model.InsertProduct{
			Name: "Laptop", Description: "d", Price: "1299.99", Category: "Electronics", Stock: 8,
		})},
	)

	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTGetUserByUsername, Text: "alice"})
	require.NoError(t, err)
	user := res.(internal.Found[model.User])
	assert.True(t, user.Ok)
	assert.Equal(t, uint64(1), user.Value.ID)

	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTGetProduct, ID: 9})
	require.NoError(t, err)
	assert.False(t, res.(internal.Found[model.Product]).Ok)

	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTSearchProducts, Text: "LAPTOP"})
	require.NoError(t, err)
	assert.Len(t, res.([]model.Product), 1)

	_, err = fsm.Lookup("not a query")
	assert.Equal(t, shop.RetCInternalError, shop.CodeOf(err))

	_, err = fsm.Lookup(internal.Query{Type: internal.QueryType(99)})
	assert.Equal(t, shop.RetCInvalidOperation, shop.CodeOf(err))
}

func TestStateMachineSnapshot(t *testing.T) {
	source := newTestMachine()
	defer source.Close()

	apply(t, source,
		internal.Command{Type: internal.CommandTCreateProduct, Payload: mustJSON(t, model.InsertProduct{
			Name: "Mug", Description: "d", Price: "9.99", Category: "Kitchen", Stock: 4,
		})},
	)

	ctx, err := source.PrepareSnapshot()
	require.NoError(t, err)

	// writes after PrepareSnapshot are not part of the snapshot
	_, err = source.Update([]sm.Entry{{Index: 2, Cmd: (&internal.Command{Type: internal.CommandTDeleteProduct, ID: 1}).Serialize()}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, source.SaveSnapshot(ctx, &buf, nil, nil))

	target := newTestMachine()
	defer target.Close()
	require.NoError(t, target.RecoverFromSnapshot(&buf, nil, nil))

	res, err := target.Lookup(internal.Query{Type: internal.QueryTGetProducts})
	require.NoError(t, err)
	products := res.([]model.Product)
	require.Len(t, products, 1)
	assert.Equal(t, "Mug", products[0].Name)

	assert.Error(t, source.SaveSnapshot("bogus", &buf, nil, nil))
}
