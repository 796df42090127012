package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/matchvault/backend/internal/api"
	"github.com/matchvault/backend/internal/config"
	"github.com/matchvault/backend/internal/database"
	"github.com/matchvault/backend/internal/escrow"
	"github.com/matchvault/backend/internal/events"
	"github.com/matchvault/backend/internal/migrations"
	"github.com/matchvault/backend/internal/payment"
	"github.com/matchvault/backend/internal/redis"
	"github.com/matchvault/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Escrow engine with lifecycle event publishing
	mgr := escrow.NewManager(db, events.NewPublisher(rdb))

	// Initialize payment verifier client (if configured)
	if cfg.PaymentVerifierBaseURL != "" && cfg.PaymentVerifierUsername != "" && cfg.PaymentVerifierPassword != "" {
		verifierClient := payment.NewClient(cfg, rdb)
		if verifierClient != nil {
			payment.SetDefault(verifierClient)
			log.Printf("[PAYMENT] verifier client initialized (base=%s)", cfg.PaymentVerifierBaseURL)
		}
	} else {
		log.Printf("[PAYMENT] verifier not configured - off-chain deposits rely on webhook callbacks only")
	}

	// Poll pending off-chain payments for verification
	go payment.StartStatusChecker(context.Background(), db, mgr, cfg, cfg.PaymentCheckIntervalMin)

	// Forward escrow lifecycle events to connected game servers
	ws.StartEventSubscriber(context.Background(), rdb)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	api.SetupRoutes(router, db, mgr, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting MatchVault escrow server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
