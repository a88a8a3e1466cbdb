package api

import (
	"net/http"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
)

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) listOrders(w http.ResponseWriter, _ *http.Request, user model.User) error {
	orders, err := s.shop.GetOrders(user.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, orEmpty(orders))
	return nil
}

// getOrder returns an order of the user. Admins can read every order.
func (s *Server) getOrder(w http.ResponseWriter, r *http.Request, user model.User) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	order, err := s.shop.GetOrder(id)
	if err != nil {
		return err
	}
	if order.UserID != user.ID && user.Role != model.RoleAdmin {
		return shop.NotFound("order", id)
	}
	order.Items = orEmpty(order.Items)
	writeJSON(w, http.StatusOK, order)
	return nil
}

// checkout turns the cart of the user into an order
func (s *Server) checkout(w http.ResponseWriter, _ *http.Request, user model.User) error {
	order, err := s.shop.Checkout(user.ID)
	if err != nil {
		return err
	}
	Logger.Infof("user %d placed order %d (total %s)", user.ID, order.ID, order.Total)
	writeJSON(w, http.StatusCreated, order)
	return nil
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request, _ model.User) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req updateOrderStatusRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	status, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		return badRequest(err.Error())
	}

	order, err := s.shop.UpdateOrderStatus(id, status)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, order)
	return nil
}
