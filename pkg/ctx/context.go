// Package ctx gives handlers a single request context with helpers for
// params, binding, identity and responses:
//
//	func (oc *OrderController) Show(c *ctx.Context) {
//	    id, ok := c.ParamUint("id")
//	    ...
//	    c.JSON(http.StatusOK, view)
//	}
//
//	r.Get("/orders/{id}", "orders.show", ctx.Wrap(oc.Show))
package ctx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/kwanzatukule/marketplace/pkg/auth"
	"github.com/kwanzatukule/marketplace/pkg/bind"
	"github.com/kwanzatukule/marketplace/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W, c.R, c.status = w, r, 0
	return c
}

func release(c *Context) {
	c.W, c.R = nil, nil
	pool.Put(c)
}

// ─── Body limit ───────────────────────────────────────────────────────────────

type limitKey struct{}

// BodyLimit makes BindJSON cap request bodies at n bytes.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), limitKey{}, n)))
		})
	}
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// ParamUint parses a positive integer path parameter.
func (c *Context) ParamUint(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func (c *Context) Query(key string) string { return c.R.URL.Query().Get(key) }

func (c *Context) Header(key string) string { return c.R.Header.Get(key) }

// Context returns the request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Claims returns the identity verified by the auth middleware.
func (c *Context) Claims() (*auth.Claims, bool) {
	return auth.ClaimsFromContext(c.R.Context())
}

// UserID returns the authenticated user id, or 0.
func (c *Context) UserID() uint {
	if cl, ok := c.Claims(); ok {
		return cl.UserID
	}
	return 0
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes and validates the body into dest. On failure it writes a
// 400 and returns false:
//
//	{"message": "Missing required fields", "errors": {"email": "..."}}
//
// The message is "Missing required fields" when any required field is absent
// and "Invalid input" otherwise.
func (c *Context) BindJSON(dest any) bool {
	limit, _ := c.R.Context().Value(limitKey{}).(int64)

	errs, err := bind.JSON(c.W, c.R, dest, limit)
	if err != nil {
		if errors.Is(err, bind.ErrEmptyBody) {
			c.Error(http.StatusBadRequest, "Missing required fields")
		} else {
			c.Error(http.StatusBadRequest, err.Error())
		}
		return false
	}
	if len(errs) > 0 {
		msg := "Invalid input"
		if errs.Has("required") {
			msg = "Missing required fields"
		}
		c.status = http.StatusBadRequest
		response.ValidationError(c.W, msg, errs.Map())
		return false
	}
	return true
}

// ─── Responses ────────────────────────────────────────────────────────────────

// JSON writes v with code.
func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// Message writes {"message": msg} with code.
func (c *Context) Message(code int, msg string) {
	c.status = code
	response.Message(c.W, code, msg)
}

// Error is Message for failures.
func (c *Context) Error(code int, msg string) { c.Message(code, msg) }

// NotFound writes a 404 with msg.
func (c *Context) NotFound(msg string) { c.Message(http.StatusNotFound, msg) }

// WrittenStatus returns the status written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
