package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matchvault/backend/internal/config"
	"github.com/matchvault/backend/internal/escrow"
)

// CreateEscrow handles Initialize: the game server opens a new escrow
// for a match. The caller becomes the record's authority.
func CreateEscrow(mgr *escrow.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			MatchKey  string `json:"match_key"`
			Host      string `json:"host"`
			Opponent  string `json:"opponent"`
			WagerUnit uint64 `json:"wager_unit"`
			Asset     string `json:"asset"`
			Treasury  string `json:"treasury"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		if req.Host == "" || req.Opponent == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "host and opponent required"})
			return
		}

		key, err := escrow.ParseMatchKey(req.MatchKey)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		treasury := req.Treasury
		if treasury == "" {
			treasury = cfg.TreasuryAddress
		}
		if treasury == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "treasury required"})
			return
		}

		e, err := mgr.Initialize(c.Request.Context(), caller(c), escrow.InitializeParams{
			MatchKey:  key,
			Host:      req.Host,
			Opponent:  req.Opponent,
			WagerUnit: req.WagerUnit,
			Asset:     req.Asset,
			Treasury:  treasury,
		})
		if err != nil {
			respondEscrowError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"escrow": e, "address": e.Address})
	}
}

// GetEscrow returns the record for a match key. Anyone holding the key
// can locate the record; no separate index exists.
func GetEscrow(mgr *escrow.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := matchKeyParam(c)
		if !ok {
			return
		}

		e, err := mgr.Get(c.Request.Context(), key)
		if err != nil {
			respondEscrowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"escrow": e})
	}
}

// DepositWager handles Deposit: the authenticated participant moves
// their wager into custody. Token sub-account fields are required only
// for non-native assets.
func DepositWager(mgr *escrow.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := matchKeyParam(c)
		if !ok {
			return
		}

		var req escrow.TokenAccounts
		if c.Request.ContentLength > 0 {
			if err := c.BindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
				return
			}
		}

		e, err := mgr.Deposit(c.Request.Context(), key, caller(c), req)
		if err != nil {
			respondEscrowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"escrow": e})
	}
}

// ConfirmDeposit handles the authority-only flag update for a deposit
// verified out of band. No funds move.
func ConfirmDeposit(mgr *escrow.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := matchKeyParam(c)
		if !ok {
			return
		}

		var req struct {
			Depositor string `json:"depositor"`
		}
		if err := c.BindJSON(&req); err != nil || req.Depositor == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "depositor required"})
			return
		}

		e, err := mgr.ConfirmDeposit(c.Request.Context(), key, caller(c), req.Depositor)
		if err != nil {
			respondEscrowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"escrow": e})
	}
}

// SettleEscrow handles Settle: the authority names the winner and the
// pot is split between winner and treasury.
func SettleEscrow(mgr *escrow.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := matchKeyParam(c)
		if !ok {
			return
		}

		var req struct {
			Winner string `json:"winner"`
			escrow.TokenAccounts
		}
		if err := c.BindJSON(&req); err != nil || req.Winner == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "winner required"})
			return
		}

		dist, err := mgr.Settle(c.Request.Context(), key, caller(c), req.Winner, req.TokenAccounts)
		if err != nil {
			respondEscrowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"settled": true, "winner": req.Winner, "distribution": dist})
	}
}

// ForfeitEscrow handles Forfeit: the authority names the forfeiter and
// the other participant wins by default.
func ForfeitEscrow(mgr *escrow.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := matchKeyParam(c)
		if !ok {
			return
		}

		var req struct {
			Forfeiter string `json:"forfeiter"`
			escrow.TokenAccounts
		}
		if err := c.BindJSON(&req); err != nil || req.Forfeiter == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "forfeiter required"})
			return
		}

		dist, err := mgr.Forfeit(c.Request.Context(), key, caller(c), req.Forfeiter, req.TokenAccounts)
		if err != nil {
			respondEscrowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"settled": true, "forfeiter": req.Forfeiter, "distribution": dist})
	}
}
