package api

import (
	"net/http"
	"strings"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
)

// listProducts lists all products or, with ?search=, the matching ones
func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) error {
	var (
		products []model.Product
		err      error
	)
	if query := strings.TrimSpace(r.URL.Query().Get("search")); query != "" {
		products, err = s.shop.SearchProducts(query)
	} else {
		products, err = s.shop.GetProducts()
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, orEmpty(products))
	return nil
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	product, err := s.shop.GetProduct(id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, product)
	return nil
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request, _ model.User) error {
	var insert model.InsertProduct
	if err := decodeBody(w, r, &insert); err != nil {
		return err
	}
	if err := insert.Validate(); err != nil {
		return shop.NewError(shop.RetCInvalidInput, err.Error())
	}

	product, err := s.shop.CreateProduct(insert)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, product)
	return nil
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request, _ model.User) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var patch model.ProductPatch
	if err := decodeBody(w, r, &patch); err != nil {
		return err
	}
	if err := patch.Validate(); err != nil {
		return shop.NewError(shop.RetCInvalidInput, err.Error())
	}

	product, err := s.shop.UpdateProduct(id, patch)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, product)
	return nil
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request, _ model.User) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	deleted, err := s.shop.DeleteProduct(id)
	if err != nil {
		return err
	}
	if !deleted {
		return shop.NotFound("product", id)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
