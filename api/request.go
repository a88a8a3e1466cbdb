package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

const maxBodySize = 1 << 20

// decodeBody decodes the JSON body of a request into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// pathID parses the {id} path value of a request
func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest(fmt.Sprintf("invalid id %q", r.PathValue("id")))
	}
	return id, nil
}
