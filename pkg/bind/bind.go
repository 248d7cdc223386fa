// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kwanzatukule/marketplace/pkg/validate"
)

// DefaultMaxBodyBytes caps request bodies when the caller passes no limit.
const DefaultMaxBodyBytes int64 = 4 << 20

// ErrEmptyBody is returned when the request carries no JSON document.
var ErrEmptyBody = errors.New("request body is empty")

// JSON decodes r.Body into dest, capped at maxBytes, and validates it.
// Returns (errs, nil) for validation failures and (nil, err) for a body that
// is malformed, empty or too large.
func JSON(w http.ResponseWriter, r *http.Request, dest any, maxBytes int64) (validate.Errors, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, ErrEmptyBody
		default:
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	return validate.Struct(dest), nil
}
