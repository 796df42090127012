package escrow

import "math/bits"

// FeeBps is the treasury fee applied at finalization, in basis points.
// 1000 bps = 10% of the pot. Fixed for every escrow; not stored per record.
const FeeBps = 1000

// Distribution is the finalization split of the pooled stake. Fee and
// Payout always sum to TotalPot; both finalization paths (settle and
// forfeit) must produce identical numbers for the same pot.
type Distribution struct {
	TotalPot uint64 `json:"total_pot"`
	Fee      uint64 `json:"fee"`
	Payout   uint64 `json:"payout"`
}

// ComputeDistribution derives the pot split for one escrow:
// pot = wager*2, fee = floor(pot * FeeBps / 10000), payout = pot - fee.
// The fee multiply runs through a 128-bit intermediate so it cannot
// overflow. Doubling the wager can; that surfaces as ErrInsufficientFunds,
// matching how the rest of the settlement arithmetic reports failure.
func ComputeDistribution(wagerUnit uint64) (Distribution, error) {
	if wagerUnit > ^uint64(0)/2 {
		return Distribution{}, ErrInsufficientFunds
	}
	pot := wagerUnit * 2

	hi, lo := bits.Mul64(pot, FeeBps)
	// hi < FeeBps, so the divide cannot trap
	fee, _ := bits.Div64(hi, lo, 10_000)

	return Distribution{
		TotalPot: pot,
		Fee:      fee,
		Payout:   pot - fee,
	}, nil
}
