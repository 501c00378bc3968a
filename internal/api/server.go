// Package api exposes the query and zone-management HTTP surface over the
// state maintained by the ingestion pipeline.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/skywatch/skywatch/internal/storage"
)

// Config holds the request-handling knobs of the API server.
type Config struct {
	OnlineWindow   time.Duration // lastSeenAt recency for /drones/online
	NearbyRadiusKm float64       // search radius for /drones/nearby
	RateLimit      float64       // requests per second across all clients, 0 disables
	RateBurst      int
	CORSOrigins    []string
}

// Server routes API requests to the store.
type Server struct {
	router *chi.Mux
	store  storage.Store
	auth   *Auth
	config Config
	logger *slog.Logger
}

// NewServer assembles the router with all routes and middleware.
func NewServer(store storage.Store, auth *Auth, config Config, logger *slog.Logger) *Server {
	s := Server{
		router: chi.NewRouter(),
		store:  store,
		auth:   auth,
		config: config,
		logger: logger,
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	if config.RateLimit > 0 {
		s.router.Use(rateLimiter(rate.Limit(config.RateLimit), config.RateBurst))
	}
	if len(config.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: config.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Get("/drones", s.handleListDrones)
		r.Get("/drones/online", s.handleOnlineDrones)
		r.Get("/drones/nearby", s.handleNearbyDrones)
		r.Get("/drones/dangerous", s.handleDangerousDrones)
		r.Get("/drones/{serial}/track", s.handleTrack)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireAuth)
			r.Get("/drones/{serial}/osd", s.handleOSD)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(RoleAdmin))
				r.Post("/drones/{serial}/mark-safe", s.handleMarkSafe)
				r.Get("/zones", s.handleListZones)
				r.Post("/zones", s.handleCreateZone)
				r.Patch("/zones/{id}", s.handleUpdateZone)
				r.Delete("/zones/{id}", s.handleDeleteZone)
			})
		})
	})

	return &s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// rateLimiter applies a process-wide request budget. Individual clients are
// not distinguished; the limit protects the store, not fairness.
func rateLimiter(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
