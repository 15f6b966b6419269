package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	movieDelivery "github.com/martinmanurung/cinereview/internal/domain/movies/delivery"
	movieRepository "github.com/martinmanurung/cinereview/internal/domain/movies/repository"
	movieUsecase "github.com/martinmanurung/cinereview/internal/domain/movies/usecase"
	watchlistDelivery "github.com/martinmanurung/cinereview/internal/domain/watchlist/delivery"
	watchlistRepository "github.com/martinmanurung/cinereview/internal/domain/watchlist/repository"
	watchlistUsecase "github.com/martinmanurung/cinereview/internal/domain/watchlist/usecase"
	"github.com/martinmanurung/cinereview/internal/platform/backend"
	"github.com/martinmanurung/cinereview/internal/platform/config"
	"github.com/martinmanurung/cinereview/internal/platform/session"
	"github.com/martinmanurung/cinereview/internal/platform/view"
	customValidator "github.com/martinmanurung/cinereview/pkg/validator"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	// Setup zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	zlog.Info().Msg("Starting CineReview web client...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Invalid log level %q: %v", cfg.Log.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	// One client for every backend call; no timeout, no retries
	client := backend.New(cfg.API.BaseURL, nil)
	zlog.Info().Str("base_url", client.BaseURL()).Msg("Backend client initialized")

	renderer, err := view.New()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer

	// Register validator
	validator := customValidator.New()
	e.Validator = validator
	e.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second

	// Initialize repositories
	movieRepo := movieRepository.NewMovieRepository(client)
	watchlistRepo := watchlistRepository.NewWatchlistRepository(client)

	// Initialize use cases
	movieUsecaseInstance := movieUsecase.NewMovieUsecase(movieRepo, watchlistRepo, validator)

	// Mounted pages
	detailPages := session.New[*movieUsecase.DetailPage]("detail", cfg.Page.TTL)
	watchlistPages := session.New[*watchlistUsecase.WatchlistPage]("watchlist", cfg.Page.TTL)
	defer detailPages.Close()
	defer watchlistPages.Close()

	sweeper, err := session.NewSweeper(cfg.Page.SweepInterval, detailPages, watchlistPages)
	if err != nil {
		log.Fatalf("Failed to start page sweeper: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize handlers
	movieHandler := movieDelivery.NewMovieHandler(movieUsecaseInstance, detailPages)
	watchlistHandler := watchlistDelivery.NewWatchlistHandler(watchlistRepo, watchlistPages)

	// Setup routes
	setupRoutes(e, movieHandler, watchlistHandler)

	// Start server in goroutine
	go func() {
		port := cfg.Server.Port
		if port == "" {
			port = "3000"
		}

		zlog.Info().Str("port", port).Msg("Starting HTTP server")
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error().Err(err).Msg("Server stopped")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zlog.Info().Msg("Shutting down server...")

	// Gracefully shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		zlog.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	zlog.Info().Msg("Server exited successfully")
}
