package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/matchvault/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// Client talks to the off-chain payment verifier (the facilitator that
// confirms a participant's out-of-band payment). The engine trusts its
// answers: a verified payment leads straight to ConfirmDeposit.
type Client struct {
	baseURL    string
	tokenURL   string
	username   string
	password   string
	rdb        *redis.Client
	httpClient *http.Client
	cacheKey   string
}

// Default is the package-level default client
var Default *Client

// NewClient creates a new payment-verifier client
func NewClient(cfg *config.Config, rdb *redis.Client) *Client {
	if cfg == nil || cfg.PaymentVerifierBaseURL == "" || cfg.PaymentVerifierUsername == "" || cfg.PaymentVerifierPassword == "" {
		log.Printf("[PAYMENT] verifier not fully configured - skipping initialization")
		return nil
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.PaymentVerifierBaseURL, "/"),
		tokenURL:   cfg.PaymentVerifierTokenURL,
		username:   cfg.PaymentVerifierUsername,
		password:   cfg.PaymentVerifierPassword,
		rdb:        rdb,
		httpClient: &http.Client{Timeout: time.Duration(cfg.PaymentVerifierTimeout) * time.Second},
		cacheKey:   "payment_verifier_token:",
	}
}

// SetDefault sets the package-level default client
func SetDefault(c *Client) {
	Default = c
}

// getAccessToken fetches or retrieves cached OAuth2 token
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	cacheKey := c.cacheKey + c.username
	if c.rdb != nil {
		if token, err := c.rdb.Get(ctx, cacheKey).Result(); err == nil {
			return token, nil
		}
	}

	log.Printf("[PAYMENT] fetching new verifier access token")
	payload := "grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+c.tokenURL, bytes.NewBufferString(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", errors.New("no access_token in response")
	}

	// Cache with 90% of expiry time
	if c.rdb != nil && tokenResp.ExpiresIn > 0 {
		cacheDuration := time.Duration(float64(tokenResp.ExpiresIn)*0.9) * time.Second
		c.rdb.Set(ctx, cacheKey, tokenResp.AccessToken, cacheDuration)
	}

	return tokenResp.AccessToken, nil
}

// VerifyPayment asks the verifier whether the referenced payment has
// been confirmed. Returns true only on an explicit "verified" answer.
func (c *Client) VerifyPayment(ctx context.Context, paymentRef string) (bool, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/payments/"+paymentRef, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("verify request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var verifyResp struct {
		PaymentRef string `json:"payment_ref"`
		Status     string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
		return false, fmt.Errorf("failed to decode verify response: %w", err)
	}

	log.Printf("[PAYMENT] verifier answered ref=%s status=%s", paymentRef, verifyResp.Status)
	return verifyResp.Status == "verified", nil
}
