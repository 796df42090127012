package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/matchvault/backend/internal/config"
	"github.com/matchvault/backend/internal/database"
	"github.com/matchvault/backend/internal/signer"
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

	// Seed the game-server authority signer
	address := os.Getenv("SEED_SIGNER_ADDRESS")
	if address == "" {
		address = cfg.AuthorityAddress
	}
	if address == "" {
		log.Fatalf("SEED_SIGNER_ADDRESS or AUTHORITY_ADDRESS must be set")
	}

	secret := os.Getenv("SEED_SIGNER_SECRET")
	if secret == "" {
		secret = "change-me-in-production"
		log.Printf("WARNING: Using default signer secret. Set SEED_SIGNER_SECRET env var in production!")
	}

	role := os.Getenv("SEED_SIGNER_ROLE")
	if role == "" {
		role = signer.RoleAuthority
	}

	displayName := os.Getenv("SEED_SIGNER_NAME")
	if displayName == "" {
		displayName = "Game Server"
	}

	if err := signer.Create(db, address, displayName, role, secret); err != nil {
		log.Fatalf("Failed to create signer: %v", err)
	}

	log.Printf("✓ Signer created/updated successfully")
	log.Printf("  Address: %s", address)
	log.Printf("  Role: %s", role)
	log.Println("\nRequest a token at /api/v1/auth/token with the address and secret.")
}
