package handlers

import (
	"context"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/middleware"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig wires handlers and middleware into the API router.
type RouterConfig struct {
	Auth        *AuthHandler
	Trips       *TripHandler
	Trucks      *TruckHandler
	Users       *UserHandler
	Reports     *ReportHandler
	Authn       *middleware.AuthMiddleware
	Store       Pinger
	CORSOrigins []string
	// LoginRateLimit is the number of login attempts allowed per client IP
	// per minute. Zero disables the limit.
	LoginRateLimit int
	// TrustedProxies may set the client IP through forwarding headers.
	TrustedProxies []netip.Prefix
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	perm := middleware.RequirePermission

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health(cfg.Store))

		loginLimit := func(next http.Handler) http.Handler { return next }
		if cfg.LoginRateLimit > 0 {
			loginLimit = middleware.NewRateLimitMiddleware(cfg.TrustedProxies...).RateLimit(cfg.LoginRateLimit, time.Minute)
		}
		r.With(loginLimit).Post("/auth/login", cfg.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Authn.Authenticate)

			r.Route("/auth", func(r chi.Router) {
				r.Get("/profile", cfg.Auth.GetProfile)
				r.Post("/change-password", cfg.Auth.ChangePassword)
			})

			r.Route("/trips", func(r chi.Router) {
				r.With(perm(authz.ModuleTransportation, authz.ViewTrips)).Get("/", cfg.Trips.List)
				r.With(perm(authz.ModuleTransportation, authz.CreateTrips)).Post("/", cfg.Trips.Create)
				r.With(perm(authz.ModuleTransportation, authz.ViewTrips)).Post("/calculate-profit", cfg.Trips.CalculateProfit)
				r.With(perm(authz.ModuleTransportation, authz.ViewTrips)).Get("/stats", cfg.Reports.TripStats)
				r.With(perm(authz.ModuleTransportation, authz.ViewTrips)).Get("/recent", cfg.Reports.RecentTrips)
				r.With(perm(authz.ModuleTransportation, authz.ViewTrips)).Get("/{id}", cfg.Trips.Get)
				r.With(perm(authz.ModuleTransportation, authz.EditTrips)).Put("/{id}", cfg.Trips.Update)
				r.With(perm(authz.ModuleTransportation, authz.DeleteTrips)).Delete("/{id}", cfg.Trips.Delete)
			})

			r.Route("/trucks", func(r chi.Router) {
				r.With(perm(authz.ModuleInventory, authz.ViewInventory)).Get("/", cfg.Trucks.List)
				r.With(perm(authz.ModuleInventory, authz.AddTrucks)).Post("/", cfg.Trucks.Create)
				r.With(perm(authz.ModuleInventory, authz.ViewInventory)).Get("/available", cfg.Trucks.Available)
				r.With(perm(authz.ModuleInventory, authz.ViewInventory)).Post("/calculate-profit", cfg.Trucks.CalculateProfit)
				r.With(perm(authz.ModuleInventory, authz.ViewInventory)).Get("/stats", cfg.Reports.TruckStats)
				r.With(perm(authz.ModuleInventory, authz.ViewInventory)).Get("/fleet-status", cfg.Reports.FleetStatus)
				r.With(perm(authz.ModuleInventory, authz.ViewInventory)).Get("/{id}", cfg.Trucks.Get)
				r.With(perm(authz.ModuleInventory, authz.EditTrucks)).Put("/{id}", cfg.Trucks.Update)
				r.With(perm(authz.ModuleInventory, authz.EditTrucks)).Put("/{id}/status", cfg.Trucks.UpdateStatus)
				r.With(perm(authz.ModuleInventory, authz.DeleteTrucks)).Delete("/{id}", cfg.Trucks.Delete)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.With(perm(authz.ModuleReports, authz.ViewReports)).Get("/overview", cfg.Reports.Dashboard)
				r.With(perm(authz.ModuleTransportation, authz.ViewTrips)).Get("/recent-trips", cfg.Reports.RecentTrips)
				r.With(perm(authz.ModuleInventory, authz.ViewInventory)).Get("/fleet-status", cfg.Reports.FleetStatus)
			})

			r.Route("/reports", func(r chi.Router) {
				r.With(perm(authz.ModuleReports, authz.ViewReports)).Get("/overview", cfg.Reports.Overview)
				r.With(perm(authz.ModuleReports, authz.ViewReports)).Get("/transport", cfg.Reports.Transport)
				r.With(perm(authz.ModuleReports, authz.ViewReports)).Get("/inventory", cfg.Reports.Inventory)
				r.With(perm(authz.ModuleReports, authz.ExportReports)).Get("/export", cfg.Reports.Export)
			})

			r.Route("/users", func(r chi.Router) {
				r.With(perm(authz.ModuleUserManagement, authz.ViewUsers)).Get("/", cfg.Users.List)
				r.With(perm(authz.ModuleUserManagement, authz.CreateUsers)).Post("/", cfg.Users.Create)
				r.With(perm(authz.ModuleUserManagement, authz.ViewUsers)).Get("/{id}", cfg.Users.Get)
				r.With(perm(authz.ModuleUserManagement, authz.EditUsers)).Put("/{id}", cfg.Users.Update)
				r.With(middleware.RequireAdmin).Put("/{id}/reset-password", cfg.Users.ResetPassword)
				r.With(perm(authz.ModuleUserManagement, authz.EditUsers)).Put("/{id}/toggle-status", cfg.Users.ToggleStatus)
				r.With(perm(authz.ModuleUserManagement, authz.DeleteUsers)).Delete("/{id}", cfg.Users.Delete)
			})
		})
	})

	return r
}

func health(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "database": "up"}
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				log.WithError(err).Warn("Health check: database unreachable")
				status["status"] = "degraded"
				status["database"] = "down"
				writeJSON(w, http.StatusServiceUnavailable, status)
				return
			}
		}
		writeJSON(w, http.StatusOK, status)
	}
}
