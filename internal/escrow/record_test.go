package escrow

import (
	"errors"
	"testing"

	"github.com/matchvault/backend/internal/models"
)

const (
	hostAddr      = "wallet_host"
	opponentAddr  = "wallet_opponent"
	authorityAddr = "wallet_authority"
	treasuryAddr  = "wallet_treasury"
	strangerAddr  = "wallet_stranger"
)

// Fresh unfunded native-asset escrow between host and opponent.
func newTestEscrow() *models.Escrow {
	return &models.Escrow{
		MatchKey:  HashMatchID("lobby-123").String(),
		Host:      hostAddr,
		Opponent:  opponentAddr,
		WagerUnit: 1_000_000,
		Asset:     models.AssetNative,
		Treasury:  treasuryAddr,
		Authority: authorityAddr,
	}
}

func fundedTestEscrow() *models.Escrow {
	e := newTestEscrow()
	e.HostDeposited = true
	e.OpponentDeposited = true
	return e
}

func TestValidateDeposit(t *testing.T) {
	e := newTestEscrow()

	if err := ValidateDeposit(e, hostAddr); err != nil {
		t.Errorf("host first deposit: got %v, want nil", err)
	}
	if err := ValidateDeposit(e, opponentAddr); err != nil {
		t.Errorf("opponent first deposit: got %v, want nil", err)
	}
	if err := ValidateDeposit(e, strangerAddr); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("stranger deposit: got %v, want ErrNotAuthorized", err)
	}
}

func TestValidateDepositTwiceFails(t *testing.T) {
	e := newTestEscrow()
	e.HostDeposited = true

	if err := ValidateDeposit(e, hostAddr); !errors.Is(err, ErrAlreadyDeposited) {
		t.Errorf("host second deposit: got %v, want ErrAlreadyDeposited", err)
	}
	// Opponent is unaffected by the host's flag
	if err := ValidateDeposit(e, opponentAddr); err != nil {
		t.Errorf("opponent deposit after host: got %v, want nil", err)
	}
}

func TestValidateDepositOnSettledEscrow(t *testing.T) {
	e := fundedTestEscrow()
	e.Settled = true

	if err := ValidateDeposit(e, hostAddr); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("deposit on settled escrow: got %v, want ErrAlreadySettled", err)
	}
}

func TestValidateConfirmDeposit(t *testing.T) {
	e := newTestEscrow()

	if err := ValidateConfirmDeposit(e, authorityAddr, opponentAddr); err != nil {
		t.Errorf("authority confirm: got %v, want nil", err)
	}
	// Only the authority may confirm, not the depositor themselves
	if err := ValidateConfirmDeposit(e, opponentAddr, opponentAddr); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("self-confirm: got %v, want ErrNotAuthorized", err)
	}
	// Unknown depositor is an authorization failure, not a distinct kind
	if err := ValidateConfirmDeposit(e, authorityAddr, strangerAddr); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("confirm for stranger: got %v, want ErrNotAuthorized", err)
	}
}

func TestValidateConfirmDepositIdempotenceRejected(t *testing.T) {
	e := newTestEscrow()
	e.OpponentDeposited = true

	if err := ValidateConfirmDeposit(e, authorityAddr, opponentAddr); !errors.Is(err, ErrAlreadyDeposited) {
		t.Errorf("second confirm: got %v, want ErrAlreadyDeposited", err)
	}
}

func TestValidateSettle(t *testing.T) {
	e := fundedTestEscrow()

	if err := ValidateSettle(e, authorityAddr, hostAddr); err != nil {
		t.Errorf("settle host as winner: got %v, want nil", err)
	}
	if err := ValidateSettle(e, authorityAddr, opponentAddr); err != nil {
		t.Errorf("settle opponent as winner: got %v, want nil", err)
	}
	if err := ValidateSettle(e, hostAddr, hostAddr); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("settle by non-authority: got %v, want ErrNotAuthorized", err)
	}
	if err := ValidateSettle(e, authorityAddr, strangerAddr); !errors.Is(err, ErrInvalidWinner) {
		t.Errorf("settle with stranger winner: got %v, want ErrInvalidWinner", err)
	}
}

func TestValidateSettleBeforeFunded(t *testing.T) {
	e := newTestEscrow()
	if err := ValidateSettle(e, authorityAddr, hostAddr); !errors.Is(err, ErrNotFunded) {
		t.Errorf("settle unfunded: got %v, want ErrNotFunded", err)
	}

	e.HostDeposited = true
	if err := ValidateSettle(e, authorityAddr, hostAddr); !errors.Is(err, ErrNotFunded) {
		t.Errorf("settle half-funded: got %v, want ErrNotFunded", err)
	}
}

func TestValidateSettleAfterSettled(t *testing.T) {
	e := fundedTestEscrow()
	e.Settled = true

	// AlreadySettled wins regardless of other argument validity
	if err := ValidateSettle(e, authorityAddr, hostAddr); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("settle settled escrow: got %v, want ErrAlreadySettled", err)
	}
	if err := ValidateSettle(e, authorityAddr, strangerAddr); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("settle settled escrow with bad winner: got %v, want ErrAlreadySettled", err)
	}
}

func TestValidateForfeitDerivesWinner(t *testing.T) {
	e := fundedTestEscrow()

	winner, err := ValidateForfeit(e, authorityAddr, hostAddr)
	if err != nil {
		t.Fatalf("forfeit by host: %v", err)
	}
	if winner != opponentAddr {
		t.Errorf("host forfeits: winner = %s, want %s", winner, opponentAddr)
	}

	winner, err = ValidateForfeit(e, authorityAddr, opponentAddr)
	if err != nil {
		t.Fatalf("forfeit by opponent: %v", err)
	}
	if winner != hostAddr {
		t.Errorf("opponent forfeits: winner = %s, want %s", winner, hostAddr)
	}
}

func TestValidateForfeitErrors(t *testing.T) {
	e := fundedTestEscrow()

	if _, err := ValidateForfeit(e, strangerAddr, hostAddr); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("forfeit by non-authority: got %v, want ErrNotAuthorized", err)
	}
	if _, err := ValidateForfeit(e, authorityAddr, strangerAddr); !errors.Is(err, ErrInvalidForfeiter) {
		t.Errorf("stranger forfeiter: got %v, want ErrInvalidForfeiter", err)
	}

	unfunded := newTestEscrow()
	if _, err := ValidateForfeit(unfunded, authorityAddr, hostAddr); !errors.Is(err, ErrNotFunded) {
		t.Errorf("forfeit unfunded: got %v, want ErrNotFunded", err)
	}

	settled := fundedTestEscrow()
	settled.Settled = true
	if _, err := ValidateForfeit(settled, authorityAddr, strangerAddr); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("forfeit settled escrow with bad forfeiter: got %v, want ErrAlreadySettled", err)
	}
}

func TestRequireTokenAccounts(t *testing.T) {
	if err := RequireTokenAccounts("ta_depositor", "ta_escrow"); err != nil {
		t.Errorf("all accounts supplied: got %v, want nil", err)
	}
	if err := RequireTokenAccounts("ta_winner", "", "ta_escrow"); !errors.Is(err, ErrMissingAccount) {
		t.Errorf("missing treasury account: got %v, want ErrMissingAccount", err)
	}
	if err := RequireTokenAccounts(""); !errors.Is(err, ErrMissingAccount) {
		t.Errorf("missing single account: got %v, want ErrMissingAccount", err)
	}
}
