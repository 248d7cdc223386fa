// Package response writes the JSON bodies the API returns. Bodies are flat:
// errors and acknowledgements are {"message": ...}, resources are the
// resource itself.
package response

import (
	"encoding/json"
	"net/http"
)

// Body is the acknowledgement / error shape.
type Body struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Body{Message: msg})
}

// Error is Message under the name middleware reaches for.
func Error(w http.ResponseWriter, status int, msg string) {
	Message(w, status, msg)
}

// ValidationError sends a 400 with field-level messages.
func ValidationError(w http.ResponseWriter, msg string, errs map[string]string) {
	JSON(w, http.StatusBadRequest, Body{Message: msg, Errors: errs})
}

func Unauthorized(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "Unauthorized"
	}
	Message(w, http.StatusUnauthorized, msg)
}

func Forbidden(w http.ResponseWriter) {
	Message(w, http.StatusForbidden, "Forbidden")
}

func NotFound(w http.ResponseWriter) {
	Message(w, http.StatusNotFound, "Not found")
}
