package app

import (
	"net/http"
	"time"

	"github.com/kwanzatukule/marketplace/app/controllers"
	appgraphql "github.com/kwanzatukule/marketplace/app/graphql"
	"github.com/kwanzatukule/marketplace/app/routes"
	"github.com/kwanzatukule/marketplace/pkg/ctx"
	gql "github.com/kwanzatukule/marketplace/pkg/graphql"
	"github.com/kwanzatukule/marketplace/pkg/metrics"
	"github.com/kwanzatukule/marketplace/pkg/middleware"
	"github.com/kwanzatukule/marketplace/pkg/reqid"
	"github.com/kwanzatukule/marketplace/pkg/router"
)

// kernel is the HTTP side of the application: the router with its global
// middleware and the rate limiter it owns.
type kernel struct {
	router  *router.Router
	limiter *middleware.RateLimiter
}

func (k *kernel) close() { k.limiter.Close() }

// Handler returns the HTTP handler with the global middleware applied.
func (a *Application) Handler() http.Handler {
	return a.kernel.router.Handler()
}

// Router returns the application's router.
func (a *Application) Router() *router.Router {
	return a.kernel.router
}

func (a *Application) buildKernel() (*kernel, error) {
	schema, err := appgraphql.NewSchema(appgraphql.Readers{Produce: a.Produce, Orders: a.Orders})
	if err != nil {
		return nil, err
	}

	k := &kernel{
		router:  router.New(),
		limiter: middleware.NewRateLimiter(a.Config.RateLimitPerMinute(), time.Minute),
	}
	r := k.router

	// Global middleware, outermost first:
	//  1. metrics     - total latency including everything below
	//  2. recovery    - panics become 500s
	//  3. request id  - before anything logs
	//  4. logger      - request-scoped logger tagged with request_id
	//  5. CORS
	//  6. rate limit  - reject abusers early
	//  7. body limit  - caps what BindJSON will read
	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger(a.Log),
		middleware.CORS(middleware.DefaultCORSOptions(a.Config.CORSOrigins()...)),
		k.limiter.Middleware,
		ctx.BodyLimit(a.Config.MaxBodyBytes()),
	)

	routes.RegisterAPI(r, routes.Handlers{
		Home:     controllers.NewHomeController(),
		Auth:     controllers.NewAuthController(a.Auth),
		Produce:  controllers.NewProduceController(a.Produce),
		Orders:   controllers.NewOrderController(a.Orders),
		GraphQL:  gql.Handler(schema),
		Stock:    a.Hub,
		Verifier: a.Tokens,
	})
	return k, nil
}

// RouteTable lists the API routes without booting any dependency.
func RouteTable() []router.Route {
	r := router.New()
	routes.RegisterAPI(r, routes.Handlers{
		GraphQL: http.NotFound,
		Stock:   http.NotFoundHandler(),
	})
	return r.Routes()
}
