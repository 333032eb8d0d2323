package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/storefront/internal/api"
	"github.com/kiwari-pos/storefront/internal/config"
	"github.com/kiwari-pos/storefront/internal/handler"
	mw "github.com/kiwari-pos/storefront/internal/middleware"
	"github.com/kiwari-pos/storefront/internal/orders"
	"github.com/kiwari-pos/storefront/internal/session"
	"github.com/kiwari-pos/storefront/internal/ws"
	"go.uber.org/zap"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	API      *api.Client
	Sessions session.Provider
	Hub      *ws.Hub
	Log      *zap.Logger
	// Now is the clock used for token expiry; nil means time.Now.
	Now func() time.Time
}

// New creates a Chi router with all storefront routes wired up.
// Every request carries a browser session; operator routes also require a
// bearer token.
func New(cfg *config.Config, d Deps) chi.Router {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(d.Log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Session(cfg.SecureCookies))

		// Notification stream of the caller's session
		r.Get("/ws/notifications", func(w http.ResponseWriter, r *http.Request) {
			sid, _ := mw.SessionFromContext(r.Context())
			ws.ServeWS(d.Hub, sid, w, r)
		})

		cartHandler := handler.NewCartHandler(d.API, d.Sessions, d.Hub, d.Log)
		checkoutHandler := handler.NewCheckoutHandler(d.API, d.API, d.Sessions, d.Hub, d.Log)
		r.Route("/restaurants/{rid}", func(r chi.Router) {
			cartHandler.RegisterRoutes(r)

			// Checkout needs the shopper's token
			r.Group(func(r chi.Router) {
				r.Use(mw.Bearer(now))
				checkoutHandler.RegisterRoutes(r)
			})
		})

		searchHandler := handler.NewSearchHandler(d.API, d.Hub, d.Log, handler.DefaultSessionCapacity)
		r.Route("/search", searchHandler.RegisterRoutes)

		// Operator routes
		r.Group(func(r chi.Router) {
			r.Use(mw.Bearer(now))

			restaurantHandler := handler.NewRestaurantHandler(d.API, d.Hub, d.Log)
			orderHandler := handler.NewOrderHandler(d.API, d.Hub, d.Log, handler.DefaultSessionCapacity,
				orders.WithRefreshOnSuccess(cfg.RefreshOrdersOnUpdate))
			r.Route("/my/restaurant", func(r chi.Router) {
				restaurantHandler.RegisterRoutes(r)
				r.Route("/orders", orderHandler.RegisterRoutes)
			})
		})
	})

	d.Log.Info("router initialized")
	return r
}
