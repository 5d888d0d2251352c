/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/lots/*           Inventory management
  /api/consumptions/*   Consumption ledger
  /api/recipes/*        Recipe management and execution
  /api/usages           Bean-usage audit trail
  /api/stats/*          Dashboard and calendar read models

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Lot routes
		r.Route("/lots", func(r chi.Router) {
			r.Get("/", h.ListLots)
			r.Post("/", h.CreateLot)
			r.Get("/{id}", h.GetLot)
			r.Put("/{id}", h.UpdateLot)
			r.Delete("/{id}", h.DeleteLot)
		})

		// Consumption routes
		r.Route("/consumptions", func(r chi.Router) {
			r.Get("/", h.ListConsumptions)
			r.Post("/", h.LogConsumption)
			r.Delete("/{id}", h.DeleteConsumption)
		})

		// Recipe routes
		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", h.ListRecipes)
			r.Post("/", h.CreateRecipe)
			r.Get("/{id}", h.GetRecipe)
			r.Put("/{id}", h.UpdateRecipe)
			r.Delete("/{id}", h.DeleteRecipe)
			r.Post("/{id}/execute", h.ExecuteRecipe)
		})

		// Usage routes
		r.Get("/usages", h.ListUsages)

		// Stats routes
		r.Route("/stats", func(r chi.Router) {
			r.Get("/summary", h.GetSummary)
			r.Get("/calendar", h.GetCalendar)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
