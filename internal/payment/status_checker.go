package payment

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/matchvault/backend/internal/config"
	"github.com/matchvault/backend/internal/escrow"
	"github.com/matchvault/backend/internal/models"
)

// StartStatusChecker polls PENDING off-chain payments against the
// verifier on an interval. When one comes back verified, it marks the
// payment VERIFIED and has the authority confirm the deposit flag on
// the escrow. Run it as a goroutine; it stops when ctx is cancelled.
func StartStatusChecker(ctx context.Context, db *sqlx.DB, mgr *escrow.Manager, cfg *config.Config, intervalMinutes int) {
	if intervalMinutes <= 0 {
		intervalMinutes = 2
	}
	ticker := time.NewTicker(time.Duration(intervalMinutes) * time.Minute)
	defer ticker.Stop()

	log.Printf("[PAYMENT] status checker started (every %dm)", intervalMinutes)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[PAYMENT] status checker stopped")
			return
		case <-ticker.C:
			checkPendingPayments(ctx, db, mgr, cfg)
		}
	}
}

func checkPendingPayments(ctx context.Context, db *sqlx.DB, mgr *escrow.Manager, cfg *config.Config) {
	if Default == nil {
		return
	}

	var pending []models.OffchainPayment
	err := db.SelectContext(ctx, &pending, `SELECT id, payment_ref, match_key, depositor, amount, status, created_at, verified_at
		FROM offchain_payments WHERE status='PENDING' ORDER BY created_at LIMIT 50`)
	if err != nil {
		log.Printf("[PAYMENT] failed to load pending payments: %v", err)
		return
	}

	for _, p := range pending {
		verified, err := Default.VerifyPayment(ctx, p.PaymentRef)
		if err != nil {
			log.Printf("[PAYMENT] verify failed ref=%s: %v", p.PaymentRef, err)
			continue
		}
		if !verified {
			continue
		}

		if err := ConfirmVerifiedPayment(ctx, db, mgr, cfg, p.PaymentRef, p.MatchKey, p.Depositor); err != nil {
			log.Printf("[PAYMENT] confirm failed ref=%s: %v", p.PaymentRef, err)
		}
	}
}

// ConfirmVerifiedPayment marks an off-chain payment VERIFIED and sets
// the depositor's flag on the escrow via the authority. Confirming the
// same payment twice is harmless: the second flag update fails with
// AlreadyDeposited and the payment row stays VERIFIED.
func ConfirmVerifiedPayment(ctx context.Context, db *sqlx.DB, mgr *escrow.Manager, cfg *config.Config, paymentRef, matchKey, depositor string) error {
	key, err := escrow.ParseMatchKey(matchKey)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `UPDATE offchain_payments SET status='VERIFIED', verified_at=NOW()
		WHERE payment_ref=$1 AND status='PENDING'`, paymentRef); err != nil {
		return err
	}

	if _, err := mgr.ConfirmDeposit(ctx, key, cfg.AuthorityAddress, depositor); err != nil {
		return err
	}

	log.Printf("[PAYMENT] off-chain payment confirmed ref=%s match=%s depositor=%s", paymentRef, matchKey, depositor)
	return nil
}
