package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/CragLog/internal/middleware"
)

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Auth    *AuthHandler
	Catalog *CatalogHandler
	Stats   *StatsHandler
}

// RouterOptions configures the middleware chain.
type RouterOptions struct {
	// Tokens validates bearer tokens of the protected routes.
	Tokens middleware.TokenValidator
	// RateLimit is the number of requests per minute allowed per client
	// IP. Zero disables rate limiting.
	RateLimit int
}

// NewRouter constructs and returns an HTTP handler that serves the
// climbing log API.
//
// Middleware chain (applied in order):
//  1. RequestID
//  2. WithRequestLogging(logger)
//  3. LimitByIP when opts.RateLimit is set
//  4. AllowContentType("application/json") on /api
//  5. BearerAuth on everything but registration and login
//
// Prometheus metrics are served at GET /metrics.
func NewRouter(h Handlers, opts RouterOptions, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	if opts.RateLimit > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Only allow request bodies with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))

		// Public endpoints
		r.Post("/users", h.Auth.Register)
		r.Post("/users/login", h.Auth.Login)

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(opts.Tokens))

			r.Put("/users/password", h.Auth.UpdatePassword)

			r.Post("/areas", h.Catalog.CreateArea)
			r.Get("/areas", h.Catalog.ListAreas)

			r.Post("/routes", h.Catalog.CreateRoute)
			r.Get("/routes", h.Catalog.ListRoutes)
			r.Get("/routes/{id}", h.Catalog.GetRoute)
			r.Put("/routes/{id}/bookmark", h.Catalog.SetBookmark)
			r.Delete("/routes/{id}", h.Catalog.DeleteRoute)

			r.Post("/ascents", h.Catalog.CreateAscent)
			r.Get("/ascents", h.Catalog.ListAscents)
			r.Get("/ascents/prefill-date", h.Catalog.PrefillDate)
			r.Delete("/ascents/{id}", h.Catalog.DeleteAscent)

			r.Route("/stats", func(r chi.Router) {
				r.Get("/weekly", h.Stats.Weekly)
				r.Get("/grades", h.Stats.Grades)
				r.Get("/grades/range", h.Stats.GradeRange)
				r.Get("/ondra", h.Stats.Ondra)
				r.Get("/best/{tickType}", h.Stats.Best)
				r.Get("/areas/{id}/max-sent-grade", h.Stats.AreaMaxSentGrade)
			})
		})
	})

	return r
}
