package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/api"
	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/browser"
	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/config"
	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/proxy"
	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/scraper"
)

func main() {
	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Service-level proxy pool; the rotator cursor lives in Redis when an
	// address is configured so multiple instances share one rotation.
	endpoints := proxy.ParseEndpoints(cfg.Proxy.Endpoints, cfg.Proxy.Username, cfg.Proxy.Password)
	var rotator proxy.Rotator = proxy.NewRoundRobin(endpoints)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		rotator = proxy.NewRedisRotator(redisClient, cfg.Redis.RotatorKey, endpoints)
	}

	// Browser launcher: one isolated surface per run.
	launcherOpts := browser.DefaultOptions()
	launcherOpts.Headless = cfg.Scraper.Headless
	launcher := browser.NewLauncher(launcherOpts)

	service := scraper.NewService(launcher, rotator, logger,
		scraper.WithDefaults(cfg.Scraper.DefaultMaxPages, cfg.Scraper.BatchWorkers))
	handlers := api.NewHandlers(service, logger)

	// Setup Chi router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Get("/", handlers.Home)
	r.Get("/health", handlers.Health)
	r.Post("/scrape-reviews", handlers.ScrapeReviews)
	r.Get("/scrape-reviews", handlers.ScrapeReviewsGet)
	r.Post("/scrape-reviews/batch", handlers.ScrapeBatch)

	// A multi-page scrape with jittered delays takes minutes, so the write
	// timeout has to be generous.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
