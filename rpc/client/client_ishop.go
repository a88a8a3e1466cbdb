package client

import (
	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/ValentinKolb/dShop/rpc/common"
	"github.com/ValentinKolb/dShop/rpc/serializer"
	"github.com/ValentinKolb/dShop/rpc/transport"
)

// NewRPCShop creates a new RPC shop
// The function takes a shard ID, a client config, a transport and a serializer as parameters
// It returns a shop.IShop and an error
func NewRPCShop(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (shop.IShop, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC shop
	s := rpcShop{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC shop
	return &s, nil
}

type rpcShop struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see shop.IShop)
// --------------------------------------------------------------------------

func (i *rpcShop) GetUser(id uint64) (model.User, error) {
	return invoke[model.User](&i.rpcClientAdapter, common.NewIDRequest(common.MsgTGetUser, id))
}

func (i *rpcShop) GetUserByUsername(username string) (model.User, error) {
	return invoke[model.User](&i.rpcClientAdapter, common.NewTextRequest(common.MsgTGetUserByUsername, username))
}

func (i *rpcShop) CreateUser(user model.InsertUser) (model.User, error) {
	req, err := common.NewRequest(common.MsgTCreateUser, user)
	if err != nil {
		return model.User{}, err
	}
	return invoke[model.User](&i.rpcClientAdapter, req)
}

func (i *rpcShop) GetProducts() ([]model.Product, error) {
	return invoke[[]model.Product](&i.rpcClientAdapter, &common.Message{MsgType: common.MsgTGetProducts})
}

func (i *rpcShop) GetProduct(id uint64) (model.Product, error) {
	return invoke[model.Product](&i.rpcClientAdapter, common.NewIDRequest(common.MsgTGetProduct, id))
}

func (i *rpcShop) CreateProduct(product model.InsertProduct) (model.Product, error) {
	req, err := common.NewRequest(common.MsgTCreateProduct, product)
	if err != nil {
		return model.Product{}, err
	}
	return invoke[model.Product](&i.rpcClientAdapter, req)
}

func (i *rpcShop) SeedProducts(products []model.InsertProduct) ([]model.Product, error) {
	req, err := common.NewRequest(common.MsgTSeedProducts, products)
	if err != nil {
		return nil, err
	}
	return invoke[[]model.Product](&i.rpcClientAdapter, req)
}

func (i *rpcShop) UpdateProduct(id uint64, patch model.ProductPatch) (model.Product, error) {
	req, err := common.NewRequest(common.MsgTUpdateProduct, patch)
	if err != nil {
		return model.Product{}, err
	}
	req.ID = id
	return invoke[model.Product](&i.rpcClientAdapter, req)
}

func (i *rpcShop) DeleteProduct(id uint64) (bool, error) {
	return invokeOk(&i.rpcClientAdapter, common.NewIDRequest(common.MsgTDeleteProduct, id))
}

func (i *rpcShop) SearchProducts(query string) ([]model.Product, error) {
	return invoke[[]model.Product](&i.rpcClientAdapter, common.NewTextRequest(common.MsgTSearchProducts, query))
}

func (i *rpcShop) GetCartItems(userID uint64) ([]model.CartItemWithProduct, error) {
	return invoke[[]model.CartItemWithProduct](&i.rpcClientAdapter, common.NewUserRequest(common.MsgTGetCartItems, userID))
}

func (i *rpcShop) GetCartItem(id uint64) (model.CartItem, error) {
	return invoke[model.CartItem](&i.rpcClientAdapter, common.NewIDRequest(common.MsgTGetCartItem, id))
}

func (i *rpcShop) AddToCart(item model.InsertCartItem) (model.CartItem, error) {
	req := common.NewAddToCartRequest(item.UserID, item.ProductID, item.Quantity)
	return invoke[model.CartItem](&i.rpcClientAdapter, req)
}

func (i *rpcShop) UpdateCartItem(id uint64, quantity int64) (model.CartItem, error) {
	return invoke[model.CartItem](&i.rpcClientAdapter, common.NewUpdateCartItemRequest(id, quantity))
}

func (i *rpcShop) RemoveFromCart(id uint64) (bool, error) {
	return invokeOk(&i.rpcClientAdapter, common.NewIDRequest(common.MsgTRemoveFromCart, id))
}

func (i *rpcShop) ClearCart(userID uint64) error {
	_, err := invokeRPCRequest(i.shardId, common.NewUserRequest(common.MsgTClearCart, userID), i.transport, i.serializer)
	return err
}

func (i *rpcShop) GetOrders(userID uint64) ([]model.OrderWithItems, error) {
	return invoke[[]model.OrderWithItems](&i.rpcClientAdapter, common.NewUserRequest(common.MsgTGetOrders, userID))
}

func (i *rpcShop) GetOrder(id uint64) (model.OrderWithItems, error) {
	return invoke[model.OrderWithItems](&i.rpcClientAdapter, common.NewIDRequest(common.MsgTGetOrder, id))
}

func (i *rpcShop) CreateOrder(order model.InsertOrder, items []model.InsertOrderItem) (model.OrderWithItems, error) {
	req, err := common.NewRequest(common.MsgTCreateOrder, common.CreateOrderArgs{Order: order, Items: items})
	if err != nil {
		return model.OrderWithItems{}, err
	}
	return invoke[model.OrderWithItems](&i.rpcClientAdapter, req)
}

func (i *rpcShop) UpdateOrderStatus(id uint64, status model.OrderStatus) (model.Order, error) {
	return invoke[model.Order](&i.rpcClientAdapter, common.NewUpdateOrderStatusRequest(id, string(status)))
}

func (i *rpcShop) Checkout(userID uint64) (model.OrderWithItems, error) {
	return invoke[model.OrderWithItems](&i.rpcClientAdapter, common.NewUserRequest(common.MsgTCheckout, userID))
}

func (i *rpcShop) GetDBInfo() (db.DatabaseInfo, error) {
	return invoke[db.DatabaseInfo](&i.rpcClientAdapter, &common.Message{MsgType: common.MsgTGetDBInfo})
}
