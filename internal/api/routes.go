package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/matchvault/backend/internal/api/handlers"
	"github.com/matchvault/backend/internal/config"
	"github.com/matchvault/backend/internal/escrow"
	"github.com/matchvault/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, mgr *escrow.Manager, cfg *config.Config) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Signer token issuance
		v1.POST("/auth/token", handlers.IssueToken(db, cfg))

		// Payment verifier callback (external facilitator, unauthenticated)
		v1.POST("/payments/callback", handlers.PaymentVerifierWebhook(db, mgr, cfg))

		// Escrow operations, all behind signer auth
		esc := v1.Group("/escrow", handlers.AuthRequired(cfg))
		{
			esc.POST("", handlers.CreateEscrow(mgr, cfg))
			esc.GET("/:match_key", handlers.GetEscrow(mgr))
			esc.POST("/:match_key/deposit", handlers.DepositWager(mgr))
			esc.POST("/:match_key/confirm-deposit", handlers.ConfirmDeposit(mgr))
			esc.POST("/:match_key/settle", handlers.SettleEscrow(mgr))
			esc.POST("/:match_key/forfeit", handlers.ForfeitEscrow(mgr))
			esc.GET("/:match_key/transfers", handlers.ListEscrowTransfers(db))
		}

		// Lifecycle event stream for the game server
		v1.GET("/events/ws", handlers.AuthRequired(cfg), func(c *gin.Context) {
			ws.Serve(c.Writer, c.Request, c.GetString("caller_address"))
		})
	}
}
