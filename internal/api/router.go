package api

import (
	"context"
	"net/http"
	"time"

	"warehouse-be/internal/auth"
	"warehouse-be/internal/inventory"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/metrics"
	"warehouse-be/internal/middleware"
	"warehouse-be/internal/order"
	"warehouse-be/internal/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 15 * time.Second

// Pinger reports database reachability for the readiness check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer is built from. Limiter is
// optional.
type Deps struct {
	AppName  string
	Auth     auth.Service
	Orders   order.Service
	Products inventory.Service
	DB       Pinger
	Metrics  *metrics.Registry
	Limiter  *middleware.RateLimiter
}

func NewRouter(d Deps) http.Handler {
	if d.Metrics == nil {
		d.Metrics = metrics.NewRegistry()
	}

	r := chi.NewRouter()
	r.Use(
		logger.RequestIDMiddleware,
		logger.LoggingMiddleware,
		middleware.Recoverer,
		metrics.Middleware(d.Metrics, routePattern),
		chimw.Timeout(requestTimeout),
		middleware.Authenticate(d.Auth),
	)
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, r, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, r, "method not allowed", http.StatusMethodNotAllowed)
	})

	ops := &opsHandler{appName: d.AppName, db: d.DB}
	r.Get("/ops/live", ops.live)
	r.Get("/ops/ready", ops.ready)

	r.With(middleware.RequireRole(utils.RoleAdmin)).
		Method(http.MethodGet, "/metrics", metrics.Handler(d.Metrics))

	ah := &authHandler{svc: d.Auth}
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", ah.register)
		r.Post("/login", ah.login)
		r.Post("/refresh", ah.refresh)
		r.Post("/logout", ah.logout)
		r.With(middleware.RequireRole()).Get("/me", ah.me)
	})

	oh := &orderHandler{svc: d.Orders}
	r.Route("/orders", func(r chi.Router) {
		r.Use(middleware.RequireRole(utils.RoleOperator, utils.RoleAdmin))
		r.Post("/", oh.create)
		r.Get("/{id}", oh.get)
		r.Get("/{id}/events", oh.events)
		r.Post("/{id}/reserve", oh.action(d.Orders.Reserve))
		r.Post("/{id}/retry-reserve", oh.action(d.Orders.RetryReserve))
		r.Post("/{id}/start-pick", oh.action(d.Orders.StartPick))
		r.Post("/{id}/confirm-pick", oh.action(d.Orders.ConfirmPick))
		r.Post("/{id}/ship", oh.action(d.Orders.Ship))
		r.Post("/{id}/cancel", oh.action(d.Orders.Cancel))
	})

	ph := &productHandler{svc: d.Products}
	r.Route("/products", func(r chi.Router) {
		r.Use(middleware.RequireRole(utils.RoleOperator, utils.RoleAdmin))
		r.Get("/", ph.list)
		r.Get("/{id}", ph.get)
		r.With(middleware.RequireRole(utils.RoleAdmin)).Post("/", ph.create)
		r.With(middleware.RequireRole(utils.RoleAdmin)).Post("/{id}/stock", ph.adjustStock)
	})

	return r
}

// routePattern labels metrics by the matched chi pattern so ids do not
// explode cardinality.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return "unmatched"
}
