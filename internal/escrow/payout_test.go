package escrow

import (
	"errors"
	"math"
	"testing"
)

func TestDistributionExample(t *testing.T) {
	// 1 SOL-sized wager: 2.0 pot, 10% fee, 90% payout
	dist, err := ComputeDistribution(1_000_000_000)
	if err != nil {
		t.Fatalf("ComputeDistribution failed: %v", err)
	}

	if dist.TotalPot != 2_000_000_000 {
		t.Errorf("total pot = %d, want 2000000000", dist.TotalPot)
	}
	if dist.Fee != 200_000_000 {
		t.Errorf("fee = %d, want 200000000", dist.Fee)
	}
	if dist.Payout != 1_800_000_000 {
		t.Errorf("payout = %d, want 1800000000", dist.Payout)
	}
}

func TestDistributionConservesPot(t *testing.T) {
	wagers := []uint64{0, 1, 2, 3, 9, 10, 999, 1_000, 123_456_789, 1_000_000_000, math.MaxUint64 / 2}
	for _, w := range wagers {
		dist, err := ComputeDistribution(w)
		if err != nil {
			t.Fatalf("wager %d: ComputeDistribution failed: %v", w, err)
		}
		if dist.TotalPot != 2*w {
			t.Errorf("wager %d: pot = %d, want %d", w, dist.TotalPot, 2*w)
		}
		if dist.Fee+dist.Payout != dist.TotalPot {
			t.Errorf("wager %d: fee %d + payout %d != pot %d", w, dist.Fee, dist.Payout, dist.TotalPot)
		}
		if dist.Fee != dist.TotalPot/10 {
			t.Errorf("wager %d: fee = %d, want floor(pot/10) = %d", w, dist.Fee, dist.TotalPot/10)
		}
	}
}

func TestDistributionOverflowIsInsufficientFunds(t *testing.T) {
	// Doubling the wager would overflow uint64; reported the same way
	// as a custody shortfall.
	_, err := ComputeDistribution(math.MaxUint64/2 + 1)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("overflowing wager: got %v, want ErrInsufficientFunds", err)
	}

	_, err = ComputeDistribution(math.MaxUint64)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("max wager: got %v, want ErrInsufficientFunds", err)
	}
}

func TestDistributionRoundsFeeDown(t *testing.T) {
	// pot = 2*3 = 6, fee = floor(6*1000/10000) = 0, payout = 6
	dist, err := ComputeDistribution(3)
	if err != nil {
		t.Fatalf("ComputeDistribution failed: %v", err)
	}
	if dist.Fee != 0 {
		t.Errorf("fee = %d, want 0 (floor rounding)", dist.Fee)
	}
	if dist.Payout != 6 {
		t.Errorf("payout = %d, want 6", dist.Payout)
	}

	// pot = 2*7 = 14, fee = floor(14*0.1) = 1, payout = 13
	dist, err = ComputeDistribution(7)
	if err != nil {
		t.Fatalf("ComputeDistribution failed: %v", err)
	}
	if dist.Fee != 1 {
		t.Errorf("fee = %d, want 1", dist.Fee)
	}
	if dist.Payout != 13 {
		t.Errorf("payout = %d, want 13", dist.Payout)
	}
}
