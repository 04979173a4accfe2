/*
Package main is the entry point for the Flockr server.

It loads configuration, initializes the global logger, wires the user directory,
the channel store and the live feed hub, serves HTTP, and shuts everything down
gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"flockr/internal/app/chat"
	"flockr/internal/app/feed"
	"flockr/internal/app/user"
	"flockr/internal/configs"
	"flockr/internal/handler"
	"flockr/internal/pkg/limiter"
	"flockr/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("session_ttl", cfg.SessionTTL).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	directory := user.NewDirectory(bcrypt.DefaultCost)

	// The hub needs the store for membership checks and the store publishes to the hub.
	hub := feed.NewHub(nil, directory)
	store := chat.NewStore(directory, chat.WithPublisher(hub))
	hub.SetMembers(store)

	authLimiter := limiter.NewIPRateLimiter(rate.Limit(cfg.AuthRate), cfg.AuthBurst)

	router := handler.Router(&handler.AppDeps{
		Store:       store,
		Directory:   directory,
		Hub:         hub,
		Config:      cfg,
		AuthLimiter: authLimiter,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Flockr Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Pending deferred deliveries are lost; nothing outlives the process.
	store.Close()
	hub.Shutdown()
	authLimiter.Stop()

	logx.Info("Server gracefully stopped.")
}
