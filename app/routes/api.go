// Package routes declares the marketplace's HTTP surface.
package routes

import (
	"net/http"

	"github.com/kwanzatukule/marketplace/app/controllers"
	"github.com/kwanzatukule/marketplace/app/models"
	"github.com/kwanzatukule/marketplace/pkg/ctx"
	"github.com/kwanzatukule/marketplace/pkg/metrics"
	"github.com/kwanzatukule/marketplace/pkg/middleware"
	"github.com/kwanzatukule/marketplace/pkg/rbac"
	"github.com/kwanzatukule/marketplace/pkg/response"
	"github.com/kwanzatukule/marketplace/pkg/router"
)

// Handlers is everything the route table points at. GraphQL and Stock are
// optional.
type Handlers struct {
	Home     *controllers.HomeController
	Auth     *controllers.AuthController
	Produce  *controllers.ProduceController
	Orders   *controllers.OrderController
	GraphQL  http.HandlerFunc
	Stock    http.Handler
	Verifier middleware.TokenVerifier
}

func RegisterAPI(r *router.Router, h Handlers) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Message(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/", "home", ctx.Wrap(h.Home.Index))
	r.Post("/register", "auth.register", ctx.Wrap(h.Auth.Register))
	r.Post("/login", "auth.login", ctx.Wrap(h.Auth.Login))

	protected := r.Group("", middleware.Auth(h.Verifier))
	protected.Post("/produce", "produce.store", ctx.Wrap(h.Produce.Store), rbac.HasRole(models.RoleFarmer, models.RoleStaff))
	protected.Get("/produce", "produce.index", ctx.Wrap(h.Produce.Index))
	protected.Post("/orders", "orders.store", ctx.Wrap(h.Orders.Store))
	protected.Get("/orders/{id}", "orders.show", ctx.Wrap(h.Orders.Show))
	if h.GraphQL != nil {
		protected.Post("/graphql", "graphql", h.GraphQL)
		protected.Get("/graphql", "graphql.get", h.GraphQL)
	}

	if h.Stock != nil {
		r.Handle(http.MethodGet, "/ws/stock", "stock.feed", h.Stock)
	}
	r.Handle(http.MethodGet, "/metrics", "metrics", metrics.Handler())
}
