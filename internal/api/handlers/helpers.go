package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matchvault/backend/internal/escrow"
)

// callerKey is the gin context key holding the authenticated signer address.
const callerKey = "caller_address"

// caller returns the authenticated signer address set by the auth middleware.
func caller(c *gin.Context) string {
	v, _ := c.Get(callerKey)
	addr, _ := v.(string)
	return addr
}

// matchKeyParam parses the :match_key path parameter.
func matchKeyParam(c *gin.Context) (escrow.MatchKey, bool) {
	key, err := escrow.ParseMatchKey(c.Param("match_key"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return key, false
	}
	return key, true
}

// respondEscrowError maps an engine error kind onto an HTTP status.
// Every failed operation aborted atomically, so the body only needs to
// name the kind.
func respondEscrowError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, escrow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, escrow.ErrDuplicateMatch),
		errors.Is(err, escrow.ErrAlreadySettled),
		errors.Is(err, escrow.ErrAlreadyDeposited),
		errors.Is(err, escrow.ErrNotFunded):
		status = http.StatusConflict
	case errors.Is(err, escrow.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, escrow.ErrInvalidWinner),
		errors.Is(err, escrow.ErrInvalidForfeiter),
		errors.Is(err, escrow.ErrMissingAccount):
		status = http.StatusBadRequest
	case errors.Is(err, escrow.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	}

	if status == http.StatusInternalServerError {
		log.Printf("[API] internal error: %v", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
