/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address for rate limiting and logs
  3. Logger:     slog request line with the request id
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Metrics:    Prometheus count and duration by route
  6. CORS:       Cross-origin requests for office front-ends
  7. RateLimit:  Per-IP limit on /api (httprate)

ROUTE GROUPS:
  /api/bills/*, /api/deductions, /api/delays, ...   Calculators
  /api/receipts/*                                    Bulk receipts
  /api/dashboard, /api/schedules                     Read-only
  /healthz, /metrics                                 Operations

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/pwdtools/calc-engine/observability"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	CORSOrigins []string

	// RateLimit is requests per minute per client IP; 0 disables it.
	RateLimit int
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(h.Metrics.Middleware)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Persistence-Error", "X-Batch-Rendered", "X-Batch-Invalid"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", h.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}

		r.Route("/bills", func(r chi.Router) {
			r.Post("/note", h.BillNote)
			r.Post("/professional", h.ProfessionalBill)
		})
		r.Post("/deductions", h.Deductions)
		r.Post("/delays", h.Delay)
		r.Post("/emd-refunds", h.EMDRefund)
		r.Post("/security-refunds", h.SecurityRefund)
		r.Post("/stamp-duty", h.StampDuty)
		r.Post("/bill-deviations", h.BillDeviation)
		r.Post("/financial-progress", h.FinancialProgress)

		r.Route("/receipts", func(r chi.Router) {
			r.Post("/columns", h.ReceiptColumns)
			r.Post("/batch", h.ReceiptBatch)
		})

		r.Get("/dashboard", h.Dashboard)
		r.Get("/schedules", h.Schedules)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", nil)
	})
	return r
}
