// Package handlers implements the HTTP endpoints of the API. Handlers stay
// thin: decode the request, call the auth service, map errors to the shared
// response envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/saasify/saasify-api/internal/respond"
)

// maxBodyBytes caps request bodies; every payload in this API is small.
const maxBodyBytes = 1 << 20

var errBadBody = errors.New("malformed request body")

// decodeJSON decodes a JSON request body into dst. An empty body decodes to
// the zero value so handlers can report field-specific validation messages.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errBadBody
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errBadBody
	}
	return nil
}

func serverError(w http.ResponseWriter) {
	respond.Message(w, http.StatusInternalServerError, "Server error")
}
