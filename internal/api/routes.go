package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/summit-insights/internal/auth"
)

// RouteOptions carry the settings SetupRoutes needs beyond the handlers.
type RouteOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// SetupRoutes configures all API routes. A nil gate leaves the dashboard open, which is
// only meant for tests and local tooling.
func SetupRoutes(h *Handlers, gate *auth.Gate, health *HealthChecker, opts RouteOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware. RealIP runs before anything that reads RemoteAddr (login rate limiting).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	// CORS - allow credentials for the session cookie, so origins must be explicit
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (no auth required)
	if health != nil {
		r.Get("/health", health.HandleHealth)
		r.Get("/health/ready", health.HandleReadiness)
	}

	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		if gate != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", gate.HandleLogin)
				r.Post("/logout", gate.HandleLogout)
				r.Get("/session", gate.HandleSession)
			})
		}

		r.Group(func(r chi.Router) {
			if gate != nil {
				r.Use(gate.RequireAuth)
			}
			r.Get("/dashboard", h.GetDashboard)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondSafeError(w, req, http.StatusNotFound, nil, "Not found")
	})

	return r
}
