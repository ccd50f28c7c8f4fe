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

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"

	"github.com/fleetops/fleetops/internal/config"
	"github.com/fleetops/fleetops/internal/database"
	"github.com/fleetops/fleetops/internal/handlers"
	"github.com/fleetops/fleetops/internal/jobs"
	"github.com/fleetops/fleetops/internal/middleware"
	"github.com/fleetops/fleetops/internal/notify"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting FleetOps alert engine...")

	if cfg.AdminPassword == "" {
		log.Fatalf("ADMIN_PASSWORD is not set")
	}

	passwordHash, err := middleware.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	jwtAuthMiddleware := middleware.NewJWTAuthMiddleware(&middleware.JWTAuthConfig{
		Enabled:           true,
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: passwordHash,
		JWTSecret:         cfg.JWTSecret,
		JWTExpiryHours:    cfg.JWTExpiryHours,
		SkipPaths: []string{
			"/health",
			"/auth/login",
			"/ws/alerts",
		},
	})
	log.Printf("JWT authentication enabled for user: %s", cfg.AdminUsername)

	db, err := database.Connect(cfg.DatabaseURL, logger.Warn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Printf("Database connection established")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	if err := database.InitializeDefaults(db); err != nil {
		log.Fatalf("Failed to initialize database defaults: %v", err)
	}

	// Escalation policies: built-in defaults, optionally overridden by file
	policies := config.DefaultPolicies()
	if cfg.PolicyFile != "" {
		policies, err = config.LoadPolicies(cfg.PolicyFile)
		if err != nil {
			log.Fatalf("Failed to load escalation policies from %s: %v", cfg.PolicyFile, err)
		}
		log.Printf("Escalation policies loaded from %s", cfg.PolicyFile)
	}

	// Live alert feed for dashboard clients
	hub := notify.NewHub()
	go hub.Run()

	// Notification dispatcher with the standard channel set
	dispatcher := notify.NewDispatcher(db)
	dispatcher.DefaultChannels(hub)
	log.Printf("Notification dispatcher initialized")

	// Periodic domain checkers
	monitor := jobs.NewMonitor()
	jobs.RegisterDefaultChecks(monitor, jobs.Deps{
		DB:        db,
		Policies:  policies,
		Notifier:  dispatcher,
		Retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
	})
	monitor.Start()

	// HTTP surface
	httpHandler := handlers.NewHTTPHandler()
	alertHandler := handlers.NewAlertHandler(db, hub)
	authHandler := handlers.NewAuthHandler(jwtAuthMiddleware)

	mux := http.NewServeMux()
	httpHandler.SetupRoutes(mux)
	alertHandler.SetupRoutes(mux)
	authHandler.SetupRoutes(mux)

	corsMiddleware := middleware.NewCORSMiddleware() // Allow all origins
	handler := middleware.RequestIDMiddleware(corsMiddleware.Wrap(jwtAuthMiddleware.Wrap(mux)))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: handler,
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Println("FleetOps is running! Press Ctrl+C to exit.")
	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)
	log.Printf("API base URL: http://localhost:%d/api", cfg.HTTPPort)
	log.Printf("Alert feed: ws://localhost:%d/ws/alerts", cfg.HTTPPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal, cleaning up...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	monitor.Stop()
	hub.Stop()

	if err := database.Close(db); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Shutdown complete")
}
