// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/codr1/sethouse/internal/api"
	"github.com/codr1/sethouse/internal/api/quotes"
	"github.com/codr1/sethouse/internal/api/rentables"
	"github.com/codr1/sethouse/internal/catalog"
	"github.com/codr1/sethouse/internal/config"
	quotesvc "github.com/codr1/sethouse/internal/quotes"
	"github.com/codr1/sethouse/internal/ratelimit"
)

const quotesPath = "/api/v1/quotes"

func newServer(cfg *config.Config, cache *catalog.Cache, limiter *ratelimit.Limiter) *http.Server {
	router := http.NewServeMux()

	quotes.InitHandlers(quotesvc.NewService(cache))
	rentables.InitHandlers(cache)

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithRateLimit(limiter, cfg.RateLimit.TrustProxy, quotesPath),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	// Register routes
	registerRoutes(router, cache)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cache *catalog.Cache) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if cache.LoadedAt().IsZero() {
			http.Error(w, "catalog not loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Catalog routes
	mux.HandleFunc("/api/v1/spaces", rentables.HandleSpaces)
	mux.HandleFunc("/api/v1/packages", rentables.HandlePackages)

	// Quote routes
	mux.HandleFunc(quotesPath, quotes.HandleQuote)
}
