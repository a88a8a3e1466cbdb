package api

import (
	"net/http"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
)

type addToCartRequest struct {
	ProductID uint64 `json:"productId"`
	Quantity  *int64 `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request, user model.User) error {
	items, err := s.shop.GetCartItems(user.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
	return nil
}

// addToCart adds a product to the cart of the user. Products without stock can not be added.
func (s *Server) addToCart(w http.ResponseWriter, r *http.Request, user model.User) error {
	var req addToCartRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	quantity := int64(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if err := model.ValidateQuantity(quantity); err != nil {
		return badRequest(err.Error())
	}

	product, err := s.shop.GetProduct(req.ProductID)
	if err != nil {
		return err
	}
	if product.Stock <= 0 {
		return conflict("product " + product.Name + " is out of stock")
	}

	item, err := s.shop.AddToCart(model.InsertCartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  quantity,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, item)
	return nil
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request, user model.User) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req updateCartItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	if err := model.ValidateQuantity(req.Quantity); err != nil {
		return badRequest(err.Error())
	}
	if err := s.checkCartItemOwner(id, user); err != nil {
		return err
	}

	item, err := s.shop.UpdateCartItem(id, req.Quantity)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, item)
	return nil
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request, user model.User) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.checkCartItemOwner(id, user); err != nil {
		return err
	}

	deleted, err := s.shop.RemoveFromCart(id)
	if err != nil {
		return err
	}
	if !deleted {
		return shop.NotFound("cart item", id)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) clearCart(w http.ResponseWriter, _ *http.Request, user model.User) error {
	if err := s.shop.ClearCart(user.ID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// checkCartItemOwner fails with not found unless the item belongs to the user.
// Items whose product was deleted still belong to their owner.
func (s *Server) checkCartItemOwner(id uint64, user model.User) error {
	item, err := s.shop.GetCartItem(id)
	if err != nil {
		return err
	}
	if item.UserID != user.ID {
		return shop.NotFound("cart item", id)
	}
	return nil
}
