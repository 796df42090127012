package escrow

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// addressPrefix is mixed into every derived escrow address.
const addressPrefix = "escrow"

// MatchKey is the SHA-256 hash committing to the external match/lobby
// identifier. It uniquely identifies one escrow for its lifetime.
type MatchKey [32]byte

// HashMatchID hashes an external match/lobby identifier into a MatchKey.
func HashMatchID(matchID string) MatchKey {
	return sha256.Sum256([]byte(matchID))
}

// ParseMatchKey decodes a 64-char hex string into a MatchKey.
func ParseMatchKey(s string) (MatchKey, error) {
	var key MatchKey
	raw, err := hex.DecodeString(s)
	if err != nil {
		return key, fmt.Errorf("invalid match key: %w", err)
	}
	if len(raw) != len(key) {
		return key, fmt.Errorf("invalid match key: want %d bytes, got %d", len(key), len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

func (k MatchKey) String() string {
	return hex.EncodeToString(k[:])
}

// DeriveAddress computes the deterministic address of the escrow (and
// its custody account) from the match key and a single discriminating
// seed byte. Anyone holding the key and seed can reproduce it; the
// engine uses that re-derivation as the authorization to debit custody.
func DeriveAddress(key MatchKey, seed byte) string {
	h := sha256.New()
	h.Write([]byte(addressPrefix))
	h.Write(key[:])
	h.Write([]byte{seed})
	return hex.EncodeToString(h.Sum(nil))
}

// NewDerivationSeed draws a random seed byte for a fresh escrow.
func NewDerivationSeed() (byte, error) {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("failed to draw derivation seed: %w", err)
	}
	return b[0], nil
}
