package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/matchvault/backend/internal/config"
	"github.com/matchvault/backend/internal/signer"
)

// signerClaims are the JWT claims issued to an authenticated signer.
// The subject is the signer's wallet address; every escrow operation
// treats it as "who signed this call".
type signerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken exchanges a signer's address + secret for a bearer JWT.
func IssueToken(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Address string `json:"address"`
			Secret  string `json:"secret"`
		}
		if err := c.BindJSON(&req); err != nil || req.Address == "" || req.Secret == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "address and secret required"})
			return
		}

		s, err := signer.Validate(db, req.Address, req.Secret)
		if err != nil {
			log.Printf("[AUTH] token request rejected for %s: %v", req.Address, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		expiry := time.Now().Add(time.Duration(cfg.TokenTTLMinutes) * time.Minute)
		claims := signerClaims{
			Role: s.Role,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   s.Address,
				ExpiresAt: jwt.NewNumericDate(expiry),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
			},
		}

		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Printf("[AUTH] failed to sign token for %s: %v", s.Address, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"address":    s.Address,
			"role":       s.Role,
			"expires_at": expiry.Unix(),
		})
	}
}

// AuthRequired validates the bearer JWT and stores the caller address
// on the request context. It authenticates identity only; whether that
// identity may perform an operation is the engine's decision.
func AuthRequired(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}

		var claims signerClaims
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(callerKey, claims.Subject)
		c.Next()
	}
}
