/*
server.go - HTTP router setup

PURPOSE:
  Wires the chi router: middleware stack, CORS for the browser frontend,
  and route registration for auth, customer, and admin endpoints.

SEE ALSO:
  - handlers.go:   endpoint implementations
  - middleware.go: session middleware
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries deployment-specific router options.
type RouterConfig struct {
	// AllowedOrigins lists frontend origins permitted to send credentialed
	// requests. Defaults to the local dev frontend.
	AllowedOrigins []string
}

// NewRouter builds the HTTP router with all routes registered.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
			r.Post("/admin-login", h.AdminLogin)
			r.Post("/logout", h.Logout)
			r.With(h.RequireAuth).Get("/check", h.CheckAuth)
		})

		r.Route("/customers", func(r chi.Router) {
			// Customer self-service login carries no employee session.
			r.Post("/login", h.CustomerLogin)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireAuth)
				r.Get("/", h.ListCustomers)
				r.Get("/recent", h.ListRecent)
				r.Get("/paid", h.ListTopPaid)
				r.Get("/search", h.SearchCustomer)
				r.Get("/details/{customerID}", h.CustomerDetails)
				r.Post("/add", h.AddDeposit)
				r.Put("/pay/{customerID}", h.SettlePayment)
				r.Get("/loan-status/{customerID}", h.LoanStatus)
				r.Put("/provide-loan/{customerID}", h.ProvideLoan)
				r.Put("/update-loan-status/{customerID}", h.UpdateLoanAmount)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireAuth, h.RequireAdmin)
			r.Get("/customers", h.AdminListCustomers)
			r.Put("/customers/{customerID}", h.AdminUpdateCustomer)
		})
	})

	return r
}
