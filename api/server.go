/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend; the allowed
                 origin list comes from configuration

ROUTE GROUPS:
  /                     Health
  /token                Legacy form-encoded credential exchange
  /upload-forecast      Forecast ingestion (bearer)
  /view-data            Latest warehouse rows (bearer)
  /api/register         Account creation
  /api/login            JSON login, JWT issuance
  /api/me               Current user (bearer)
  /api/bigquery/*       Catalog listing and NL->SQL ask (bearer)

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Bearer authentication
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Health
	r.Get("/", h.Health)

	// Legacy token scheme (form-encoded, hard-coded credential pair)
	r.Post("/token", h.Token)

	// Ingestion and read-back
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Post("/upload-forecast", h.UploadForecast)
		r.Get("/view-data", h.ViewData)
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Get("/me", h.Me)

			r.Route("/bigquery", func(r chi.Router) {
				r.Get("/objects", h.ListObjects)
				r.Post("/ask", h.AskQuestion)
			})
		})
	})

	return r
}
