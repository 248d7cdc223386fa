package ctx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwanzatukule/marketplace/pkg/auth"
	appctx "github.com/kwanzatukule/marketplace/pkg/ctx"
)

type registerInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
}

func serve(h appctx.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	appctx.Wrap(h)(rec, req)
	return rec
}

func TestJSONAndMessage(t *testing.T) {
	rec := serve(func(c *appctx.Context) {
		c.Message(http.StatusCreated, "Produce added successfully")
		assert.Equal(t, http.StatusCreated, c.WrittenStatus())
	}, http.MethodPost, "")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Produce added successfully"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestBindJSONValid(t *testing.T) {
	var got registerInput
	rec := serve(func(c *appctx.Context) {
		require.True(t, c.BindJSON(&got))
		c.Message(http.StatusOK, "ok")
	}, http.MethodPost, `{"username":"jane","email":"jane@example.com"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jane", got.Username)
}

func TestBindJSONMissingFields(t *testing.T) {
	rec := serve(func(c *appctx.Context) {
		var in registerInput
		assert.False(t, c.BindJSON(&in))
	}, http.MethodPost, `{"username":"jane"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing required fields","errors":{"email":"The email field is required."}}`, rec.Body.String())
}

func TestBindJSONInvalidValue(t *testing.T) {
	rec := serve(func(c *appctx.Context) {
		var in registerInput
		assert.False(t, c.BindJSON(&in))
	}, http.MethodPost, `{"username":"jane","email":"nope"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"Invalid input"`)
}

func TestBindJSONEmptyAndMalformed(t *testing.T) {
	rec := serve(func(c *appctx.Context) {
		var in registerInput
		assert.False(t, c.BindJSON(&in))
	}, http.MethodPost, "")
	assert.JSONEq(t, `{"message":"Missing required fields"}`, rec.Body.String())

	rec = serve(func(c *appctx.Context) {
		var in registerInput
		assert.False(t, c.BindJSON(&in))
	}, http.MethodPost, `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	h := appctx.BodyLimit(16)(appctx.Wrap(func(c *appctx.Context) {
		var in registerInput
		assert.False(t, c.BindJSON(&in))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"a-very-long-name","email":"x@y.z"}`)))
	assert.Contains(t, rec.Body.String(), "too large")
}

func TestParamUint(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders/{id}", appctx.Wrap(func(c *appctx.Context) {
		id, ok := c.ParamUint("id")
		if !ok {
			c.NotFound("Order not found")
			return
		}
		c.JSON(http.StatusOK, map[string]uint{"order_id": id})
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/12", nil))
	assert.JSONEq(t, `{"order_id":12}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserIDFromClaims(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{UserID: 5, Role: "consumer"}))

	var uid uint
	appctx.Wrap(func(c *appctx.Context) { uid = c.UserID() })(rec, req)
	assert.Equal(t, uint(5), uid)
}
