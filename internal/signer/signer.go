package signer

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/matchvault/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Signer roles
const (
	RoleAuthority   = "authority"
	RoleParticipant = "participant"
)

// Get retrieves a signer by wallet address
func Get(db *sqlx.DB, address string) (*models.Signer, error) {
	var s models.Signer
	err := db.Get(&s, `SELECT address, display_name, role, secret_hash, created_at, updated_at FROM signers WHERE address=$1`, address)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// VerifySecret checks if the provided secret matches the stored hash
func VerifySecret(hashedSecret, plainSecret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(plainSecret))
	return err == nil
}

// Create creates or updates a signer (used for seeding/testing)
func Create(db *sqlx.DB, address, displayName, role, plainSecret string) error {
	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(plainSecret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash secret: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO signers (address, display_name, role, secret_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (address) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			role = EXCLUDED.role,
			secret_hash = EXCLUDED.secret_hash,
			updated_at = NOW()
	`, address, displayName, role, string(hashedSecret))

	return err
}

// Validate checks an address + secret combination and returns the signer
func Validate(db *sqlx.DB, address, secret string) (*models.Signer, error) {
	s, err := Get(db, address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("signer not found")
		}
		log.Printf("[SIGNER] Database error: %v", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifySecret(s.SecretHash, secret) {
		log.Printf("[SIGNER] Secret verification failed for address: %s", address)
		return nil, fmt.Errorf("invalid secret")
	}

	return s, nil
}
