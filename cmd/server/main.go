/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the forecast portal server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from FORECAST_* environment variables
  2. Initialize the SQLite users store
  3. Open the DuckDB warehouse and ensure the destination table
  4. Create the Gemini generator (optional; the ask endpoint answers
     with a configuration notice when absent)
  5. Create the API handler, configure the router
  6. Start the server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store and warehouse connections
  4. Exit

ENVIRONMENT:
  See config/config.go for the full key list. FORECAST_JWT_SECRET is
  required; everything else has a default.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - config/config.go: Environment keys
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/forecast-portal/api"
	"github.com/warp/forecast-portal/auth"
	"github.com/warp/forecast-portal/config"
	"github.com/warp/forecast-portal/nlsql"
	"github.com/warp/forecast-portal/store/sqlite"
	"github.com/warp/forecast-portal/warehouse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	// Users store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize users database: %v", err)
	}
	defer store.Close()

	// Warehouse
	wh, err := warehouse.Open(ctx, cfg.WarehousePath, cfg.Dataset, cfg.ForecastTable)
	if err != nil {
		log.Fatalf("Failed to open warehouse: %v", err)
	}
	defer wh.Close()

	// Generative model (optional)
	var generator nlsql.Generator
	if cfg.GeminiEnabled() {
		gem, err := nlsql.NewGemini(ctx, nlsql.GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			Project:  cfg.GeminiProject,
			Location: cfg.GeminiLocation,
			Model:    cfg.GeminiModel,
		})
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		generator = gem
	} else {
		log.Printf("Warning: no Gemini backend configured; /api/bigquery/ask will answer with a notice")
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	handler := &api.Handler{
		Store:         store,
		Warehouse:     wh,
		Asker:         nlsql.NewService(generator, wh),
		Tokens:        tokens,
		AdminUser:     cfg.AdminUser,
		AdminPassword: cfg.AdminPassword,
		StaticToken:   cfg.StaticToken,
	}

	router := api.NewRouter(handler, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
