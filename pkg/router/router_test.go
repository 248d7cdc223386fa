package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwanzatukule/marketplace/pkg/router"
)

func tag(v string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", v)
			next.ServeHTTP(w, r)
		})
	}
}

func noop(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestGroupMiddlewareOrder(t *testing.T) {
	r := router.New()
	api := r.Group("/api", tag("group"))
	api.Get("/orders/{id}", "orders.show", noop, tag("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/7", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"group", "route"}, rec.Header().Values("X-Chain"))
}

func TestNamedRouteURL(t *testing.T) {
	r := router.New()
	r.Get("/orders/{id}", "orders.show", noop)

	url, err := r.URL("orders.show", map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "/orders/42", url)

	_, err = r.URL("orders.show", nil)
	assert.Error(t, err)

	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutesListing(t *testing.T) {
	r := router.New()
	r.Post("/orders", "orders.store", noop)
	r.Get("/", "home", noop)
	r.Group("produce").Get("", "produce.index", noop)
	r.Handle(http.MethodGet, "/metrics", "", http.HandlerFunc(noop))

	assert.Equal(t, []router.Route{
		{Method: http.MethodGet, Path: "/", Name: "home"},
		{Method: http.MethodGet, Path: "/metrics"},
		{Method: http.MethodPost, Path: "/orders", Name: "orders.store"},
		{Method: http.MethodGet, Path: "/produce", Name: "produce.index"},
	}, r.Routes())
}
