package dshop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/ValentinKolb/dShop/lib/shop/dshop/internal"
)

var (
	retries = 5
	log     = logger.GetLogger("shop")
)

// shopImpl is the concrete implementation of the distributed shop.
// It encapsulates a Dragonboat NodeHost which is used to communicate with the state machine.
type shopImpl struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	cs      *client.Session
	timeout time.Duration
	now     func() time.Time
}

// NewDistributedShop creates a new distributed shop instance which uses raft consensus to ensure strict linearizability
// across multiple nodes.
func NewDistributedShop(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) shop.IShop {
	return &shopImpl{
		nh:      nh,
		shardID: shardID,
		cs:      nh.GetNoOPSession(shardID),
		timeout: timeout,
		now:     time.Now,
	}
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// write sends a Command via SyncPropose and decodes the JSON result into R.
// It returns a *shop.Error if an error occurs.
func write[R any](s *shopImpl, cmd internal.Command) (R, error) {
	var zero R
	data := cmd.Serialize()

	for i := 0; i < retries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		res, err := s.nh.SyncPropose(ctx, s.cs, data)
		cancel()

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncPropose: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(s.timeout / 10)
			continue
		}

		if err != nil {
			return zero, shop.NewError(shop.RetCInternalError, err.Error())
		}
		if res.Value != uint64(shop.RetCSuccess) {
			return zero, shop.NewError(shop.RetCode(res.Value), string(res.Data))
		}

		var result R
		if err := json.Unmarshal(res.Data, &result); err != nil {
			return zero, shop.NewError(shop.RetCInternalError, fmt.Sprintf("failed to decode %s result: %v", cmd.Type, err))
		}
		return result, nil
	}
	return zero, shop.NewError(shop.RetCInternalError, "timeout")
}

// read is a generic helper function that queries the state machine
// and attempts to convert the response into the expected type R.
//
// This function uses the SyncRead function (dragonboat) by default to Query the state machine.
// If linearizability is not required, the stale parameter can be set to true to use the faster StaleRead function.
//
// If the read operation fails due to a system busy error, the function retries up to 5 times.
func read[R any](s *shopImpl, q internal.Query, stale bool) (R, error) {
	var zero R
	for i := 0; i < retries; i++ {

		var res interface{}
		var err error

		// Query the state machine, use StaleRead if stale is set otherwise use SyncRead (default)
		if stale {
			res, err = s.nh.StaleRead(s.shardID, q)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			res, err = s.nh.SyncRead(ctx, s.shardID, q)
			cancel()
		}

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncRead: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(s.timeout / 10)
			continue
		}

		if err != nil {
			var shopErr *shop.Error
			if errors.As(err, &shopErr) {
				return zero, shopErr
			}
			return zero, shop.NewError(shop.RetCInternalError, err.Error())
		}

		// The state machine is expected to return the response in the expected type R.
		casted, ok := res.(R)
		if !ok {
			return zero, shop.NewError(shop.RetCInternalError,
				fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
		}
		return casted, nil
	}
	return zero, shop.NewError(shop.RetCInternalError, "timeout")
}

// readFound reads a row by id and turns a miss into a RetCNotFound error
func readFound[T any](s *shopImpl, q internal.Query, kind string) (T, error) {
	res, err := read[internal.Found[T]](s, q, false)
	if err != nil {
		return res.Value, err
	}
	if !res.Ok {
		var zero T
		if q.Type == internal.QueryTGetUserByUsername {
			return zero, shop.NewError(shop.RetCNotFound, fmt.Sprintf("%s %s not found", kind, q.Text))
		}
		return zero, shop.NotFound(kind, q.ID)
	}
	return res.Value, nil
}

func payload(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, shop.NewError(shop.RetCInvalidInput, err.Error())
	}
	return data, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docs see shop/interface.go)
// --------------------------------------------------------------------------

func (s *shopImpl) GetUser(id uint64) (model.User, error) {
	return readFound[model.User](s, internal.Query{Type: internal.QueryTGetUser, ID: id}, "user")
}

func (s *shopImpl) GetUserByUsername(username string) (model.User, error) {
	return readFound[model.User](s, internal.Query{Type: internal.QueryTGetUserByUsername, Text: username}, "user")
}

func (s *shopImpl) CreateUser(user model.InsertUser) (model.User, error) {
	data, err := payload(user)
	if err != nil {
		return model.User{}, err
	}
	return write[model.User](s, internal.Command{Type: internal.CommandTCreateUser, Payload: data})
}

func (s *shopImpl) GetProducts() ([]model.Product, error) {
	return read[[]model.Product](s, internal.Query{Type: internal.QueryTGetProducts}, false)
}

func (s *shopImpl) GetProduct(id uint64) (model.Product, error) {
	return readFound[model.Product](s, internal.Query{Type: internal.QueryTGetProduct, ID: id}, "product")
}

func (s *shopImpl) CreateProduct(product model.InsertProduct) (model.Product, error) {
	data, err := payload(product)
	if err != nil {
		return model.Product{}, err
	}
	return write[model.Product](s, internal.Command{Type: internal.CommandTCreateProduct, Payload: data})
}

func (s *shopImpl) SeedProducts(products []model.InsertProduct) ([]model.Product, error) {
	data, err := payload(products)
	if err != nil {
		return nil, err
	}
	return write[[]model.Product](s, internal.Command{Type: internal.CommandTSeedProducts, Payload: data})
}

func (s *shopImpl) UpdateProduct(id uint64, patch model.ProductPatch) (model.Product, error) {
	data, err := payload(patch)
	if err != nil {
		return model.Product{}, err
	}
	return write[model.Product](s, internal.Command{Type: internal.CommandTUpdateProduct, ID: id, Payload: data})
}

func (s *shopImpl) DeleteProduct(id uint64) (bool, error) {
	return write[bool](s, internal.Command{Type: internal.CommandTDeleteProduct, ID: id})
}

func (s *shopImpl) SearchProducts(query string) ([]model.Product, error) {
	return read[[]model.Product](s, internal.Query{Type: internal.QueryTSearchProducts, Text: query}, false)
}

func (s *shopImpl) GetCartItems(userID uint64) ([]model.CartItemWithProduct, error) {
	return read[[]model.CartItemWithProduct](s, internal.Query{Type: internal.QueryTGetCartItems, ID: userID}, false)
}

func (s *shopImpl) GetCartItem(id uint64) (model.CartItem, error) {
	return readFound[model.CartItem](s, internal.Query{Type: internal.QueryTGetCartItem, ID: id}, "cart item")
}

func (s *shopImpl) AddToCart(item model.InsertCartItem) (model.CartItem, error) {
	return write[model.CartItem](s, internal.Command{
		Type:     internal.CommandTAddToCart,
		ID:       item.ProductID,
		UserID:   item.UserID,
		Quantity: item.Quantity,
	})
}

func (s *shopImpl) UpdateCartItem(id uint64, quantity int64) (model.CartItem, error) {
	// reject invalid values before they end up in the raft log
	if err := model.ValidateQuantity(quantity); err != nil {
		return model.CartItem{}, shop.NewError(shop.RetCInvalidInput, err.Error())
	}
	return write[model.CartItem](s, internal.Command{Type: internal.CommandTUpdateCartItem, ID: id, Quantity: quantity})
}

func (s *shopImpl) RemoveFromCart(id uint64) (bool, error) {
	return write[bool](s, internal.Command{Type: internal.CommandTRemoveFromCart, ID: id})
}

func (s *shopImpl) ClearCart(userID uint64) error {
	_, err := write[bool](s, internal.Command{Type: internal.CommandTClearCart, UserID: userID})
	return err
}

func (s *shopImpl) GetOrders(userID uint64) ([]model.OrderWithItems, error) {
	return read[[]model.OrderWithItems](s, internal.Query{Type: internal.QueryTGetOrders, ID: userID}, false)
}

func (s *shopImpl) GetOrder(id uint64) (model.OrderWithItems, error) {
	return readFound[model.OrderWithItems](s, internal.Query{Type: internal.QueryTGetOrder, ID: id}, "order")
}

func (s *shopImpl) CreateOrder(order model.InsertOrder, items []model.InsertOrderItem) (model.OrderWithItems, error) {
	data, err := payload(internal.OrderPayload{Order: order, Items: items})
	if err != nil {
		return model.OrderWithItems{}, err
	}
	return write[model.OrderWithItems](s, internal.Command{
		Type:      internal.CommandTCreateOrder,
		CreatedAt: s.now().UnixNano(),
		Payload:   data,
	})
}

func (s *shopImpl) UpdateOrderStatus(id uint64, status model.OrderStatus) (model.Order, error) {
	// reject invalid values before they end up in the raft log
	if _, err := model.ParseOrderStatus(string(status)); err != nil {
		return model.Order{}, shop.NewError(shop.RetCInvalidInput, err.Error())
	}
	return write[model.Order](s, internal.Command{Type: internal.CommandTUpdateOrderStatus, ID: id, Text: string(status)})
}

func (s *shopImpl) Checkout(userID uint64) (model.OrderWithItems, error) {
	return write[model.OrderWithItems](s, internal.Command{
		Type:      internal.CommandTCheckout,
		UserID:    userID,
		CreatedAt: s.now().UnixNano(),
	})
}

func (s *shopImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return read[db.DatabaseInfo](
		s,
		internal.Query{
			Type: internal.QueryTGetDBInfo,
		},
		true, // Note: allow for stale reads
	)
}
