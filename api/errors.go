package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ValentinKolb/dShop/lib/shop"
)

// httpError is an error with a fixed status code (authentication, authorization, bad requests)
type httpError struct {
	Status  int
	Message string
}

func (e *httpError) Error() string {
	return e.Message
}

var (
	errUnauthorized = &httpError{Status: http.StatusUnauthorized, Message: "not logged in"}
	errForbidden    = &httpError{Status: http.StatusForbidden, Message: "admin role required"}
)

func badRequest(msg string) error {
	return &httpError{Status: http.StatusBadRequest, Message: msg}
}

func conflict(msg string) error {
	return &httpError{Status: http.StatusConflict, Message: msg}
}

// errorBody is the JSON body of every error response
type errorBody struct {
	Message string `json:"message"`
}

// statusOf maps an error to its HTTP status code and the message shown to the client
func statusOf(err error) (int, string) {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.Status, httpErr.Message
	}

	var shopErr *shop.Error
	if !errors.As(err, &shopErr) {
		return http.StatusInternalServerError, "internal server error"
	}

	switch shopErr.Code {
	case shop.RetCNotFound:
		return http.StatusNotFound, shopErr.Msg
	case shop.RetCConflict:
		return http.StatusConflict, shopErr.Msg
	case shop.RetCInvalidInput, shop.RetCInvalidOperation:
		return http.StatusBadRequest, shopErr.Msg
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Errorf("failed to write response: %v", err)
	}
}

// writeError writes err as {"message": ...}. Internal errors are logged and not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusOf(err)
	if status == http.StatusInternalServerError {
		Logger.Errorf("%s %s (request %s) failed: %v", r.Method, r.URL.Path, requestID(r), err)
	}
	writeJSON(w, status, errorBody{Message: msg})
}

// orEmpty turns a nil slice into an empty one, so lists are written as [] instead of null
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
