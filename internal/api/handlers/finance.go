package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/matchvault/backend/internal/models"
)

// ListEscrowTransfers returns the custody journal rows for one match:
// deposits in, payout and fee out, and any residual sweep. Useful for
// reconciling flag state against actual custody movements when the
// off-band confirmation path was used.
func ListEscrowTransfers(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := matchKeyParam(c)
		if !ok {
			return
		}

		var transfers []models.CustodyTransfer
		err := db.Select(&transfers, `
			SELECT id, debit_account_id, credit_account_id, asset, amount, reference_type, reference_id, description, created_at
			FROM custody_transfers
			WHERE reference_id = $1
			ORDER BY created_at, id
		`, key.String())
		if err != nil {
			respondEscrowError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"match_key": key.String(), "transfers": transfers})
	}
}
