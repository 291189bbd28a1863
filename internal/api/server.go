package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/flickarr/internal/api/handlers"
	"github.com/amaumene/flickarr/internal/api/middleware"
	"github.com/amaumene/flickarr/internal/config"
	"github.com/amaumene/flickarr/internal/controllers"
	"github.com/amaumene/flickarr/internal/favorites"
	"github.com/amaumene/flickarr/internal/services/tmdb"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	tmdbClient  *tmdb.Client
	popularCtrl *controllers.PopularController
	searchCtrl  *controllers.SearchController
	store       *favorites.Store
	logger      *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, tmdbClient *tmdb.Client, popularCtrl *controllers.PopularController, searchCtrl *controllers.SearchController, store *favorites.Store, logger *logrus.Logger) *Server {
	s := &Server{
		tmdbClient:  tmdbClient,
		popularCtrl: popularCtrl,
		searchCtrl:  searchCtrl,
		store:       store,
		logger:      logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Health check
	healthHandler := handlers.NewHealthHandler(s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	// Catalog endpoints
	popularHandler := handlers.NewPopularHandler(s.popularCtrl, s.logger)
	mux.HandleFunc("/api/popular", popularHandler.ServeHTTP)

	searchHandler := handlers.NewSearchHandler(s.tmdbClient, s.logger)
	mux.HandleFunc("/api/search", searchHandler.ServeHTTP)

	liveSearchHandler := handlers.NewLiveSearchHandler(s.searchCtrl, s.logger)
	mux.HandleFunc("/api/search/live", liveSearchHandler.ServeHTTP)

	// Favorites endpoints
	favoritesHandler := handlers.NewFavoritesHandler(s.store, s.logger)
	mux.HandleFunc("/api/favorites", favoritesHandler.List)
	mux.HandleFunc("/api/favorites/toggle", favoritesHandler.Toggle)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("addr", s.server.Addr).Info("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
