package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"medstock/m/domain"
	"medstock/m/internal/auth"
	"medstock/m/internal/checkout"
	"medstock/m/internal/inventory"
	"medstock/m/internal/sales"
)

type ctxKey string

const (
	ctxUsername ctxKey = "username"
	ctxRole     ctxKey = "role"
)

// Authenticator is the credential lookup consulted at login.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (domain.Role, error)
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	inventory    *inventory.Ledger
	sales        *sales.Ledger
	checkout     *checkout.Coordinator
	auth         Authenticator
	tokens       *auth.Tokens
	expiryWindow time.Duration

	// writeMu admits one mutating request at a time.
	writeMu sync.Mutex
}

// Deps lists what New needs.
type Deps struct {
	Inventory    *inventory.Ledger
	Sales        *sales.Ledger
	Checkout     *checkout.Coordinator
	Auth         Authenticator
	Tokens       *auth.Tokens
	ExpiryWindow time.Duration
}

// New constructs a Handler.
func New(d Deps) *Handler {
	window := d.ExpiryWindow
	if window <= 0 {
		window = inventory.DefaultExpiryWindow
	}
	return &Handler{
		inventory:    d.Inventory,
		sales:        d.Sales,
		checkout:     d.Checkout,
		auth:         d.Auth,
		tokens:       d.Tokens,
		expiryWindow: window,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Post("/auth/login", h.login)

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.listInventory)
			r.Post("/", h.addItem)
			r.Get("/expiry-alert", h.expiryAlerts)
			r.Get("/{id}", h.getItem)
			r.Put("/{id}", h.editItem)
			r.Delete("/{id}", h.deleteItem)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Get("/", h.listSales)
			r.Post("/", h.createSale)
		})

		pr.Get("/reports/sales", h.salesReport)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := h.tokens.Parse(strings.TrimSpace(header[len("Bearer "):]))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUsername, claims.Username)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, allowed ...domain.Role) bool {
	current, ok := r.Context().Value(ctxRole).(domain.Role)
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing role")
		return false
	}
	for _, allowedRole := range allowed {
		if current == allowedRole {
			return true
		}
	}
	respondError(w, http.StatusForbidden, "insufficient permissions")
	return false
}
