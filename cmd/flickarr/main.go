package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amaumene/flickarr/internal/api"
	"github.com/amaumene/flickarr/internal/config"
	"github.com/amaumene/flickarr/internal/controllers"
	"github.com/amaumene/flickarr/internal/favorites"
	"github.com/amaumene/flickarr/internal/models"
	"github.com/amaumene/flickarr/internal/scheduler"
	"github.com/amaumene/flickarr/internal/services/tmdb"
	"github.com/amaumene/flickarr/internal/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting Flickarr")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.FavoritesFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize favorites store (loads asynchronously)
	store := favorites.NewStore(db, logger)
	defer store.Close()

	sub := store.Subscribe(func(event favorites.Event) {
		switch event.Kind {
		case favorites.EventReady:
			logger.WithField("count", len(event.Favorites)).Info("Favorites ready")
		case favorites.EventChanged:
			logger.WithField("count", len(event.Favorites)).Debug("Favorites changed")
		}
	})
	defer sub.Cancel()

	// 5. Initialize TMDB client
	tmdbClient := tmdb.NewClient(cfg, logger)
	logger.Info("TMDB client initialized")

	// 6. Initialize controllers
	popularCtrl := controllers.NewPopularController(
		tmdbClient,
		durationMinutes(cfg.PopularCacheTTLMins),
		cfg.PopularRefreshPages,
		logger,
	)

	searchCtrl := controllers.NewSearchController(
		tmdbClient,
		time.Duration(cfg.SearchDebounceMs)*time.Millisecond,
		func(state controllers.SearchState) {
			logger.WithFields(logrus.Fields{
				"query":   state.Query,
				"loading": state.Loading,
				"results": len(state.Results),
			}).Debug("Search state changed")
		},
		logger,
	)
	defer searchCtrl.Close()
	logger.Info("Controllers initialized")

	// 7. Initialize scheduler
	sched := scheduler.NewScheduler(popularCtrl, cfg.PopularCacheTTLMins, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(cfg, tmdbClient, popularCtrl, searchCtrl, store, logger)

	// Start server in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Flickarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	// Make sure queued favorites writes reach disk before the database closes
	store.Flush()

	logger.Info("Flickarr stopped")
	return nil
}

func durationMinutes(mins int) time.Duration {
	return time.Duration(mins) * time.Minute
}
