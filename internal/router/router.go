package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/caffeine-club/biller/internal/billing"
	"github.com/caffeine-club/biller/internal/catalog"
	"github.com/caffeine-club/biller/internal/config"
	"github.com/caffeine-club/biller/internal/enum"
	"github.com/caffeine-club/biller/internal/handler"
	"github.com/caffeine-club/biller/internal/ledger"
	mw "github.com/caffeine-club/biller/internal/middleware"
	"github.com/caffeine-club/biller/internal/onlineorder"
	"github.com/caffeine-club/biller/internal/session"
	"github.com/caffeine-club/biller/internal/store"
	"github.com/caffeine-club/biller/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Till routes require authentication; reporting routes are role-gated.
func New(
	cfg *config.Config,
	db *store.Postgres,
	tables *session.Store,
	cat *catalog.Catalog,
	engine *billing.Engine,
	ldg *ledger.Service,
	orders *onlineorder.Service,
	hub *ws.Hub,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(db, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/tables", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Till routes, open to every authenticated operator
		handler.NewMenuHandler(cat).RegisterRoutes(r)
		handler.NewTablesHandler(tables, cat).RegisterRoutes(r)
		handler.NewBillingHandler(engine).RegisterRoutes(r)
		handler.NewOnlineOrdersHandler(orders, cat).RegisterRoutes(r)

		// Reporting and register routes, manager and admin only
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleManager))
			handler.NewBillsHandler(ldg).RegisterRoutes(r)
			handler.NewReportsHandler(ldg).RegisterRoutes(r)
			handler.NewRegistersHandler(ldg).RegisterRoutes(r)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
