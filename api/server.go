/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the browser frontend

ROUTE GROUPS:
  /api/inventory/*      Stock levels and stock movements
  /api/stock-counts     Physical counts
  /api/activities/*     Activity log and undo
  /api/discrepancies    Count mismatches
  /api/categories/*     Category registry
  /api/properties/*     Property (location) registry
  /api/dashboard        Headline numbers
  /api/reports/*        Financial report
  /api/scenarios/*      Demo farms
  /metrics              Prometheus scrape endpoint
  /healthz              Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cli/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AllowedOrigins for CORS. Empty disables cross-origin access.
	AllowedOrigins []string

	// Gatherer backs /metrics. Nil leaves /metrics unmounted.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.GetInventory)
			r.Get("/{category}", h.GetCategoryInventory)
			r.Post("/add", h.AddAnimals)
			r.Post("/buy", h.BuyAnimals)
			r.Post("/birth", h.RecordBirth)
			r.Post("/sell", h.SellAnimals)
			r.Post("/death", h.RecordDeath)
			r.Post("/move", h.MoveAnimals)
		})

		r.Route("/stock-counts", func(r chi.Router) {
			r.Get("/", h.ListStockCounts)
			r.Post("/", h.RecordStockCount)
		})

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", h.ListActivities)
			r.Get("/{id}", h.GetActivity)
			r.Post("/{id}/undo", h.UndoActivity)
		})

		r.Get("/discrepancies", h.ListDiscrepancies)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Delete("/{name}", h.DeleteCategory)
		})

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Post("/", h.CreateProperty)
			r.Delete("/{name}", h.DeleteProperty)
		})

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/reports/financial", h.GetFinancialSummary)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
