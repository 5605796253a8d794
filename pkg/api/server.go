// Package api NornDB REST API
//
// Read-side HTTP surface over an embedded NornDB database: record fetches,
// index queries, index verification, health, and Prometheus metrics.
package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/norndb/norn/pkg/database"
)

// NewRouter builds the HTTP router with all routes configured
func NewRouter(db *database.Database, config ServerConfig, metrics *Metrics) chi.Router {
	server := NewServer(db, metrics)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API key authentication middleware for protected routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(requireAPIKey(config.APIKey)))

		// Health check
		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		// Tables
		r.Get("/tables", metrics.InstrumentHandler("GET", "/api/v1/tables", server.handleListTables))
		r.Get("/tables/{table}/records/{key}", metrics.InstrumentHandler("GET", "/api/v1/tables/{table}/records/{key}", server.handleGetRecord))
		r.Post("/tables/{table}/query", metrics.InstrumentHandler("POST", "/api/v1/tables/{table}/query", server.handleQuery))
		r.Get("/tables/{table}/verify", metrics.InstrumentHandler("GET", "/api/v1/tables/{table}/verify", server.handleVerify))
	})

	return r
}

// StartServer starts the HTTP server with all routes configured
func StartServer(db *database.Database, config ServerConfig) error {
	metrics := NewMetrics()
	r := NewRouter(db, config, metrics)

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	log.Printf("norn api listening on %s", addr)
	return http.ListenAndServe(addr, r)
}
