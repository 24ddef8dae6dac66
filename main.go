package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"valuescan/config"
	"valuescan/observability"
	"valuescan/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		observability.Info("no .env file found, using environment variables")
	}

	production := os.Getenv("APP_ENV") == "production"
	observability.InitLogger(production)
	observability.InitMetrics()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	provider := services.NewYahooService(
		cfg.Provider.BaseURL,
		time.Duration(cfg.Provider.TimeoutSeconds)*time.Second,
	)
	cache := services.NewMarketDataCache(cfg.Cache.TTL)

	app := NewApp(cfg, provider, cache)
	handler := NewAPIHandler(app, cfg)
	router := NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	}

	// Periodically sweep expired cache entries
	sweeper := time.NewTicker(cfg.Cache.TTL)
	defer sweeper.Stop()
	go func() {
		for range sweeper.C {
			if removed := cache.CleanExpired(); removed > 0 {
				observability.Debug("cleaned expired cache entries", "removed", removed)
			}
		}
	}()

	go func() {
		observability.Info("server starting",
			"port", cfg.HTTP.Port,
			"cache_ttl", cfg.Cache.TTL.String(),
			"horizon_days", cfg.Forecast.HorizonDays)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server failed", "error", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		observability.Error("graceful shutdown failed", "error", err)
	}
}
