package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesaviva/mesaviva-backend/api/controllers"
	"github.com/mesaviva/mesaviva-backend/api/middleware"
	"github.com/mesaviva/mesaviva-backend/internal/cart"
	checkoutsvc "github.com/mesaviva/mesaviva-backend/internal/checkout"
	"github.com/mesaviva/mesaviva-backend/internal/menu"
	"github.com/mesaviva/mesaviva-backend/internal/orders"
	"github.com/mesaviva/mesaviva-backend/internal/pricing"
	"github.com/mesaviva/mesaviva-backend/internal/tracking"
	"github.com/mesaviva/mesaviva-backend/internal/ws"
	"github.com/mesaviva/mesaviva-backend/pkg/config"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
	"github.com/mesaviva/mesaviva-backend/pkg/redis"
)

// sessionTokens issues and verifies the anonymous session tokens.
type sessionTokens interface {
	Issue(sessionID uuid.UUID) (string, error)
	Verify(token string) (uuid.UUID, error)
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    *redis.Client
	Sessions sessionTokens

	Pingers map[string]controllers.Pinger

	Menu     menu.Service
	Carts    *cart.SessionStore
	Pricing  *pricing.Engine
	Checkout checkoutsvc.Service
	Orders   orders.Service
	Tracking *tracking.Manager
	Hub      *ws.Hub
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", controllers.SessionCreate(deps.Sessions, logg))

		r.Get("/menu/current", controllers.MenuCurrent(deps.Menu, logg))
		r.Get("/menu/{weekID}", controllers.MenuWeek(deps.Menu, logg))

		// everything below is scoped to a session token
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(deps.Sessions, cfg.Session.HeaderName, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Carts, deps.Pricing, logg))
				r.Delete("/", controllers.CartClear(deps.Carts, deps.Pricing, logg))
				r.Post("/items", controllers.CartAddItem(deps.Carts, deps.Menu, deps.Pricing, logg))
				r.Put("/items", controllers.CartSetQuantity(deps.Carts, deps.Pricing, logg))
				r.Delete("/items", controllers.CartRemoveItem(deps.Carts, deps.Pricing, logg))
				r.Patch("/details", controllers.CartSetDetails(deps.Carts, deps.Pricing, logg))
			})

			r.Get("/checkout/quote", controllers.CheckoutQuote(deps.Checkout, logg))
			r.Get("/checkout/preview", controllers.CheckoutPreview(deps.Checkout, logg))
			r.Post("/checkout", controllers.CheckoutConfirm(deps.Checkout, logg))

			r.Route("/orders/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.OrderFetch(deps.Orders, logg))
				r.Get("/summary", controllers.OrderSummary(deps.Orders, logg))
				r.Post("/cancel", controllers.OrderCancel(deps.Orders, logg))
				r.Get("/tracking", controllers.TrackingState(deps.Orders, deps.Tracking, logg))
				r.Get("/tracking/ws", controllers.TrackingSubscribe(deps.Orders, deps.Tracking, deps.Hub, logg))
			})
		})
	})

	// operator surface; fronted by the deployment's own access controls
	r.Route("/admin/v1/orders", func(r chi.Router) {
		r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
		r.Route("/{orderID}", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderFetch(deps.Orders, logg))
			r.Post("/status", controllers.AdminOrderStatus(deps.Orders, logg))
			r.Post("/position", controllers.CourierPosition(deps.Tracking, logg))
		})
	})

	return r
}
