package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/matchvault/backend/internal/config"
	"github.com/matchvault/backend/internal/escrow"
	"github.com/matchvault/backend/internal/payment"
)

// VerifierWebhookPayload is the payment verifier's callback body.
type VerifierWebhookPayload struct {
	PaymentRef string `json:"payment_ref"`
	MatchKey   string `json:"match_key"`
	Depositor  string `json:"depositor"`
	Status     string `json:"status"` // "verified", "failed", "pending"
	Message    string `json:"message"`
}

// PaymentVerifierWebhook handles callbacks from the off-chain payment
// verifier. A "verified" callback makes the authority confirm the
// depositor's flag on the escrow; the engine itself never re-verifies.
func PaymentVerifierWebhook(db *sqlx.DB, mgr *escrow.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var webhook VerifierWebhookPayload
		if err := c.BindJSON(&webhook); err != nil {
			log.Printf("[WEBHOOK] invalid payload: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		if webhook.PaymentRef == "" || webhook.MatchKey == "" || webhook.Depositor == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_ref, match_key and depositor required"})
			return
		}

		log.Printf("[WEBHOOK] verifier callback: ref=%s match=%s depositor=%s status=%s",
			webhook.PaymentRef, webhook.MatchKey, webhook.Depositor, webhook.Status)

		// Log webhook for audit trail
		payloadJSON, _ := json.Marshal(webhook)
		db.Exec(`INSERT INTO payment_callbacks (payment_ref, match_key, depositor, status, payload, processed, created_at)
			VALUES ($1, $2, $3, $4, $5, FALSE, NOW())`,
			webhook.PaymentRef, webhook.MatchKey, webhook.Depositor, webhook.Status, payloadJSON)

		// Idempotency check against the tracked payment
		var existingStatus string
		err := db.Get(&existingStatus, `SELECT status FROM offchain_payments WHERE payment_ref=$1`, webhook.PaymentRef)
		if err == nil && (existingStatus == "VERIFIED" || existingStatus == "FAILED") {
			log.Printf("[WEBHOOK] payment already processed: ref=%s status=%s", webhook.PaymentRef, existingStatus)
			db.Exec(`UPDATE payment_callbacks SET processed=TRUE WHERE payment_ref=$1`, webhook.PaymentRef)
			c.JSON(http.StatusOK, gin.H{"message": "already processed"})
			return
		}
		if err != nil {
			// First time we hear about this payment; track it
			db.Exec(`INSERT INTO offchain_payments (payment_ref, match_key, depositor, amount, status, created_at)
				VALUES ($1, $2, $3, 0, 'PENDING', NOW()) ON CONFLICT (payment_ref) DO NOTHING`,
				webhook.PaymentRef, webhook.MatchKey, webhook.Depositor)
		}

		switch webhook.Status {
		case "verified":
			if err := payment.ConfirmVerifiedPayment(c.Request.Context(), db, mgr, cfg, webhook.PaymentRef, webhook.MatchKey, webhook.Depositor); err != nil {
				log.Printf("[WEBHOOK] confirm failed ref=%s: %v", webhook.PaymentRef, err)
				respondEscrowError(c, err)
				return
			}
		case "failed":
			db.Exec(`UPDATE offchain_payments SET status='FAILED' WHERE payment_ref=$1 AND status='PENDING'`, webhook.PaymentRef)
			log.Printf("[WEBHOOK] payment failed ref=%s: %s", webhook.PaymentRef, webhook.Message)
		case "pending":
			log.Printf("[WEBHOOK] payment still pending ref=%s", webhook.PaymentRef)
		default:
			log.Printf("[WEBHOOK] unknown payment status %q ref=%s", webhook.Status, webhook.PaymentRef)
		}

		db.Exec(`UPDATE payment_callbacks SET processed=TRUE WHERE payment_ref=$1`, webhook.PaymentRef)
		c.JSON(http.StatusOK, gin.H{"message": "webhook processed"})
	}
}
