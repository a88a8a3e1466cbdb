package dshop

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	sm "github.com/lni/dragonboat/v4/statemachine"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/ValentinKolb/dShop/lib/shop/dshop/internal"
)

// --------------------------------------------------------------------------
// State Machine Implementation
// --------------------------------------------------------------------------

// ShopStateMachine is a state machine implementation for Dragonboat RAFT
type ShopStateMachine struct {
	replicaID uint64
	shardID   uint64
	database  db.ShopDB // the actual dataStorage
}

// CreateStateMachineFactory returns a function that can be used by dragonboat to create a new state machine for a node host.
// The factory pattern is used to enable the caller to pass an interchangeable dbFactory
func CreateStateMachineFactory(dbFactory shop.DBFactory) func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
	return func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
		return &ShopStateMachine{
			replicaID: replicaID,
			shardID:   shardID,
			database:  dbFactory(),
		}
	}
}

// Lookup handles read-only queries by mapping each Query operation to the corresponding ShopDB method.
func (fsm *ShopStateMachine) Lookup(itf interface{}) (interface{}, error) {

	// try to parse Query into Query struct
	q, ok := itf.(internal.Query)
	if !ok {
		return nil, shop.NewError(shop.RetCInternalError, fmt.Sprintf("invalid Query type: %T", itf))
	}

	switch q.Type {
	case internal.QueryTGetUser:
		user, ok := fsm.database.GetUser(q.ID)
		return internal.Found[model.User]{Ok: ok, Value: user}, nil
	case internal.QueryTGetUserByUsername:
		user, ok := fsm.database.GetUserByUsername(q.Text)
		return internal.Found[model.User]{Ok: ok, Value: user}, nil
	case internal.QueryTGetProducts:
		return fsm.database.GetProducts(), nil
	case internal.QueryTGetProduct:
		product, ok := fsm.database.GetProduct(q.ID)
		return internal.Found[model.Product]{Ok: ok, Value: product}, nil
	case internal.QueryTSearchProducts:
		return fsm.database.SearchProducts(q.Text), nil
	case internal.QueryTGetCartItems:
		return fsm.database.GetCartItems(q.ID), nil
	case internal.QueryTGetCartItem:
		item, ok := fsm.database.GetCartItem(q.ID)
		return internal.Found[model.CartItem]{Ok: ok, Value: item}, nil
	case internal.QueryTGetOrders:
		return fsm.database.GetOrders(q.ID), nil
	case internal.QueryTGetOrder:
		order, ok := fsm.database.GetOrder(q.ID)
		return internal.Found[model.OrderWithItems]{Ok: ok, Value: order}, nil
	case internal.QueryTGetDBInfo:
		return fsm.database.GetInfo(), nil
	default:
		return nil, shop.NewError(shop.RetCInvalidOperation, fmt.Sprintf("unknown Query operation: %d", q.Type))
	}
}

// Update handles write commands on the ShopDB instance.
// All write operations are serialized into []byte and are accessible via the entries struct.
// The result of each entry carries the RetCode in Value and the JSON encoded return value
// (or the error message) in Data.
func (fsm *ShopStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {

	// Nothing to do
	if len(entries) == 0 {
		return entries, nil
	}

	// Stats
	start := time.Now()

	cmd := internal.Command{}
	for idx, e := range entries {
		if len(e.Cmd) == 0 {
			entries[idx].Result = errorResult(shop.NewError(shop.RetCInvalidOperation, "empty command ignored"))
			continue
		}

		if err := cmd.Deserialize(e.Cmd); err != nil {
			entries[idx].Result = errorResult(shop.NewError(shop.RetCInternalError, fmt.Sprintf("failed to deserialize command: %v", err)))
			continue
		}

		entries[idx].Result = fsm.apply(&cmd, e.Index)
	}

	// Log if the update took long
	if elapsed := time.Since(start); elapsed > time.Millisecond {
		log.Infof("State machine took long to update. Batch updated %d entries, took %.2fms", len(entries), float64(elapsed)/float64(time.Millisecond))
	}
	return entries, nil
}

// apply executes a single command with the raft log index as write index
func (fsm *ShopStateMachine) apply(cmd *internal.Command, index uint64) sm.Result {
	switch cmd.Type {
	case internal.CommandTCreateUser:
		var user model.InsertUser
		if err := decodePayload(cmd, &user); err != nil {
			return errorResult(err)
		}
		created, err := fsm.database.CreateUser(user, index)
		if err != nil {
			return errorResult(shop.FromDBError(err))
		}
		return okResult(created)

	case internal.CommandTCreateProduct:
		var product model.InsertProduct
		if err := decodePayload(cmd, &product); err != nil {
			return errorResult(err)
		}
		return okResult(fsm.database.CreateProduct(product, index))

	case internal.CommandTSeedProducts:
		var products []model.InsertProduct
		if err := decodePayload(cmd, &products); err != nil {
			return errorResult(err)
		}
		return okResult(fsm.database.SeedProducts(products, index))

	case internal.CommandTUpdateProduct:
		var patch model.ProductPatch
		if err := decodePayload(cmd, &patch); err != nil {
			return errorResult(err)
		}
		product, ok := fsm.database.UpdateProduct(cmd.ID, patch, index)
		if !ok {
			return errorResult(shop.NotFound("product", cmd.ID))
		}
		return okResult(product)

	case internal.CommandTDeleteProduct:
		return okResult(fsm.database.DeleteProduct(cmd.ID, index))

	case internal.CommandTAddToCart:
		item, err := fsm.database.AddToCart(model.InsertCartItem{
			UserID:    cmd.UserID,
			ProductID: cmd.ID,
			Quantity:  cmd.Quantity,
		}, index)
		if err != nil {
			return errorResult(shop.FromDBError(err))
		}
		return okResult(item)

	case internal.CommandTUpdateCartItem:
		if err := model.ValidateQuantity(cmd.Quantity); err != nil {
			fsm.database.SetWriteIdx(index)
			return errorResult(shop.NewError(shop.RetCInvalidInput, err.Error()))
		}
		item, ok := fsm.database.UpdateCartItem(cmd.ID, cmd.Quantity, index)
		if !ok {
			return errorResult(shop.NotFound("cart item", cmd.ID))
		}
		return okResult(item)

	case internal.CommandTRemoveFromCart:
		return okResult(fsm.database.RemoveFromCart(cmd.ID, index))

	case internal.CommandTClearCart:
		fsm.database.ClearCart(cmd.UserID, index)
		return okResult(true)

	case internal.CommandTCreateOrder:
		var payload internal.OrderPayload
		if err := decodePayload(cmd, &payload); err != nil {
			return errorResult(err)
		}
		return okResult(fsm.database.CreateOrder(payload.Order, payload.Items, time.Unix(0, cmd.CreatedAt).UTC(), index))

	case internal.CommandTUpdateOrderStatus:
		status, err := model.ParseOrderStatus(cmd.Text)
		if err != nil {
			return errorResult(shop.NewError(shop.RetCInvalidInput, err.Error()))
		}
		order, ok := fsm.database.UpdateOrderStatus(cmd.ID, status, index)
		if !ok {
			return errorResult(shop.NotFound("order", cmd.ID))
		}
		return okResult(order)

	case internal.CommandTCheckout:
		order, err := fsm.database.Checkout(cmd.UserID, time.Unix(0, cmd.CreatedAt).UTC(), index)
		if err != nil {
			return errorResult(shop.FromDBError(err))
		}
		return okResult(order)

	default:
		// keep the logical clock in sync even for commands we do not understand
		fsm.database.SetWriteIdx(index)
		return errorResult(shop.NewError(shop.RetCInvalidOperation, fmt.Sprintf("unknown Command operation: %s", cmd.Type)))
	}
}

// PrepareSnapshot captures a deep copy of the database.
// Dragonboat calls it while no Update is running, SaveSnapshot can then run concurrently to updates.
func (fsm *ShopStateMachine) PrepareSnapshot() (interface{}, error) {
	return fsm.database.Snapshot(), nil
}

// SaveSnapshot saves the copy created by PrepareSnapshot to the writer
func (fsm *ShopStateMachine) SaveSnapshot(ctx interface{}, writer io.Writer, _ sm.ISnapshotFileCollection, _ <-chan struct{}) error {
	snapshot, ok := ctx.(db.ShopDB)
	if !ok {
		return fmt.Errorf("invalid snapshot context: %T", ctx)
	}
	defer snapshot.Close()
	return snapshot.Save(writer)
}

// RecoverFromSnapshot replaces the database content with the snapshot
func (fsm *ShopStateMachine) RecoverFromSnapshot(r io.Reader, _ []sm.SnapshotFile, _ <-chan struct{}) error {
	return fsm.database.Load(r)
}

// Close performs any necessary cleanup.
func (fsm *ShopStateMachine) Close() error {
	return fsm.database.Close()
}

// --------------------------------------------------------------------------
// Result helpers
// --------------------------------------------------------------------------

func decodePayload(cmd *internal.Command, v any) error {
	if err := json.Unmarshal(cmd.Payload, v); err != nil {
		return shop.NewError(shop.RetCInvalidInput, fmt.Sprintf("invalid %s payload: %v", cmd.Type, err))
	}
	return nil
}

func okResult(v any) sm.Result {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(shop.NewError(shop.RetCInternalError, fmt.Sprintf("failed to encode result: %v", err)))
	}
	return sm.Result{Value: uint64(shop.RetCSuccess), Data: data}
}

func errorResult(err error) sm.Result {
	return sm.Result{Value: uint64(shop.CodeOf(err)), Data: []byte(shopErrorMsg(err))}
}

// shopErrorMsg returns the plain message of a *shop.Error, so it is not prefixed twice on the client side
func shopErrorMsg(err error) string {
	if shopErr, ok := err.(*shop.Error); ok {
		return shopErr.Msg
	}
	return err.Error()
}
