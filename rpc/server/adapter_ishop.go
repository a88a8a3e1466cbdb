package server

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/ValentinKolb/dShop/rpc/common"
)

func NewIShopServerAdapter() IRPCServerAdapter {
	return &iShopServerAdapterImpl{}
}

type iShopServerAdapterImpl struct{}

func (adapter *iShopServerAdapterImpl) Handle(req *common.Message, s shop.IShop) *common.Message {
	// Check for nil shop
	if s == nil {
		return common.NewErrorResponse("handler: shop is nil")
	}

	t := req.MsgType

	// Handle different message types
	switch t {

	// Users

	case common.MsgTGetUser:
		user, err := s.GetUser(req.ID)
		return common.NewResponse(t, user, err)
	case common.MsgTGetUserByUsername:
		user, err := s.GetUserByUsername(req.Text)
		return common.NewResponse(t, user, err)
	case common.MsgTCreateUser:
		var args model.InsertUser
		if err := decodeArgs(req, &args); err != nil {
			return common.NewResponse(t, nil, err)
		}
		user, err := s.CreateUser(args)
		return common.NewResponse(t, user, err)

	// Products

	case common.MsgTGetProducts:
		products, err := s.GetProducts()
		return common.NewResponse(t, products, err)
	case common.MsgTGetProduct:
		product, err := s.GetProduct(req.ID)
		return common.NewResponse(t, product, err)
	case common.MsgTCreateProduct:
		var args model.InsertProduct
		if err := decodeArgs(req, &args); err != nil {
			return common.NewResponse(t, nil, err)
		}
		product, err := s.CreateProduct(args)
		return common.NewResponse(t, product, err)
	case common.MsgTSeedProducts:
		var products []model.InsertProduct
		if err := decodeArgs(req, &products); err != nil {
			return common.NewResponse(t, nil, err)
		}
		created, err := s.SeedProducts(products)
		return common.NewResponse(t, created, err)
	case common.MsgTUpdateProduct:
		var patch model.ProductPatch
		if err := decodeArgs(req, &patch); err != nil {
			return common.NewResponse(t, nil, err)
		}
		product, err := s.UpdateProduct(req.ID, patch)
		return common.NewResponse(t, product, err)
	case common.MsgTDeleteProduct:
		ok, err := s.DeleteProduct(req.ID)
		return common.NewOkResponse(t, ok, err)
	case common.MsgTSearchProducts:
		products, err := s.SearchProducts(req.Text)
		return common.NewResponse(t, products, err)

	// Cart

	case common.MsgTGetCartItems:
		items, err := s.GetCartItems(req.UserID)
		return common.NewResponse(t, items, err)
	case common.MsgTGetCartItem:
		item, err := s.GetCartItem(req.ID)
		return common.NewResponse(t, item, err)
	case common.MsgTAddToCart:
		item, err := s.AddToCart(model.InsertCartItem{UserID: req.UserID, ProductID: req.ID, Quantity: req.Quantity})
		return common.NewResponse(t, item, err)
	case common.MsgTUpdateCartItem:
		item, err := s.UpdateCartItem(req.ID, req.Quantity)
		return common.NewResponse(t, item, err)
	case common.MsgTRemoveFromCart:
		ok, err := s.RemoveFromCart(req.ID)
		return common.NewOkResponse(t, ok, err)
	case common.MsgTClearCart:
		err := s.ClearCart(req.UserID)
		return common.NewResponse(t, nil, err)

	// Orders

	case common.MsgTGetOrders:
		orders, err := s.GetOrders(req.UserID)
		return common.NewResponse(t, orders, err)
	case common.MsgTGetOrder:
		order, err := s.GetOrder(req.ID)
		return common.NewResponse(t, order, err)
	case common.MsgTCreateOrder:
		var args common.CreateOrderArgs
		if err := decodeArgs(req, &args); err != nil {
			return common.NewResponse(t, nil, err)
		}
		order, err := s.CreateOrder(args.Order, args.Items)
		return common.NewResponse(t, order, err)
	case common.MsgTUpdateOrderStatus:
		order, err := s.UpdateOrderStatus(req.ID, model.OrderStatus(req.Text))
		return common.NewResponse(t, order, err)
	case common.MsgTCheckout:
		order, err := s.Checkout(req.UserID)
		return common.NewResponse(t, order, err)

	// Info

	case common.MsgTGetDBInfo:
		info, err := s.GetDBInfo()
		return common.NewResponse(t, info, err)

	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC IShopAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}

// decodeArgs decodes the JSON arguments of a request
func decodeArgs(req *common.Message, v any) error {
	if len(req.Value) == 0 {
		return shop.NewError(shop.RetCInvalidInput, fmt.Sprintf("missing arguments for %s", req.MsgType))
	}
	if err := json.Unmarshal(req.Value, v); err != nil {
		return shop.NewError(shop.RetCInvalidInput, fmt.Sprintf("invalid arguments for %s: %v", req.MsgType, err))
	}
	return nil
}
