/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the console frontend

ROUTE GROUPS:
  /api/clients/{id}              Client record load/save
  /api/clients/{id}/payments/*   Ledger operations
  /api/clients/{id}/invoices/*   Invoice lifecycle

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
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

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients/{id}", func(r chi.Router) {
			r.Get("/", h.GetClient)
			r.Put("/", h.SaveClient)
			r.Get("/audit", h.GetAudit)
			r.Post("/payments/balance", h.BalancePayment)
			r.Post("/payments/{index}/refund", h.RefundPayment)
			r.Post("/reminders/clear", h.ClearReminders)

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", h.ListInvoices)
				r.Post("/", h.CreateInvoice)
				r.Delete("/{invoiceID}", h.DeleteInvoice)
				r.Post("/{invoiceID}/restore", h.RestoreInvoice)
				r.Get("/{invoiceID}/pdf", h.InvoicePDF)
			})
		})
	})

	return r
}
