package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/college-event-tickets/internal/auth"
	"github.com/robertarktes/college-event-tickets/internal/observability"
	"github.com/robertarktes/college-event-tickets/internal/rateLimit"
)

// SetupRouter wires the middleware stack and the route table. rl may be
// nil when redis is not configured.
func SetupRouter(h *Handlers, logger observability.Logger, tokens *auth.TokenManager, rl *rateLimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(MetricsMiddleware)
	r.Use(TracingMiddleware)
	if rl != nil {
		r.Use(RateLimitMiddleware(rl))
	}

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)
	r.Get("/api/events", h.ListEvents)
	r.Get("/api/events/{id}", h.GetEvent)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(tokens))

		r.Post("/api/events", h.SubmitEvent)
		r.Post("/api/tickets", h.PurchaseTicket)
		r.Get("/api/tickets/my", h.MyTickets)

		r.Group(func(r chi.Router) {
			r.Use(AdminOnly)

			r.Put("/api/events/{id}", h.UpdateEvent)
			r.Delete("/api/events/{id}", h.DeleteEvent)
			r.Get("/api/pending-events", h.ListPendingEvents)
			r.Put("/api/pending-events/{id}", h.DecidePendingEvent)
			r.Get("/api/tickets/event/{id}", h.EventTickets)
		})
	})

	return r
}
