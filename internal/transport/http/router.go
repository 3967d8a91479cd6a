package http

import (
	"net/http"

	"github.com/go-band-notify/internal/config"
	"github.com/go-band-notify/internal/transport/http/handler"
	appmiddleware "github.com/go-band-notify/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Router is the application handler plus the background resources it owns.
type Router struct {
	http.Handler
	limiter *appmiddleware.RateLimiter
}

// Close stops the rate limiter's cleanup loop.
func (r *Router) Close() { r.limiter.Stop() }

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) *Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.Verifier != nil {
		authMw = appmiddleware.Auth(deps.Verifier)
	} else {
		authMw = func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":"authentication not configured"}`, http.StatusUnauthorized)
			})
		}
	}

	// 5 requests/second, burst of 10, per client IP.
	tokenRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	deviceH := handler.NewDeviceHandler(deps.Devices)
	notifH := handler.NewNotificationHandler(deps.Notifications)
	prefH := handler.NewPreferenceHandler(deps.Preferences)
	eventH := handler.NewEventHandler(deps.Publisher)
	deliveryH := handler.NewDeliveryHandler(deps.Cycles, cfg.SchedulerToken)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no bearer auth) ───────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Post("/delivery/cycles", deliveryH.RunCycle)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.With(tokenRL.Limit).Post("/devices/tokens", deviceH.Register)
			r.Get("/devices/tokens", deviceH.List)
			r.Delete("/devices/tokens/{token}", deviceH.Unregister)

			r.Get("/notifications", notifH.List)
			r.Put("/notifications/{id}/read", notifH.MarkAsRead)

			r.Get("/preferences", prefH.Get)
			r.Put("/preferences", prefH.Update)

			r.Post("/bands/{bandID}/events", eventH.Publish)
		})
	})

	return &Router{Handler: r, limiter: tokenRL}
}
