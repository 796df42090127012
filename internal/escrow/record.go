package escrow

import "github.com/matchvault/backend/internal/models"

// TokenAccounts carries the token sub-account addresses an operation
// needs when the escrow's asset is not the native coin. Each operation
// only reads the fields it requires; native-asset escrows ignore the
// whole struct.
type TokenAccounts struct {
	Depositor string `json:"depositor_token_account,omitempty"`
	Winner    string `json:"winner_token_account,omitempty"`
	Treasury  string `json:"treasury_token_account,omitempty"`
	Escrow    string `json:"escrow_token_account,omitempty"`
}

// ValidateDeposit checks whether depositor may fund the escrow.
// The depositor must be a participant, the record unsettled, and the
// depositor's flag still clear.
func ValidateDeposit(e *models.Escrow, depositor string) error {
	isHost := depositor == e.Host
	isOpponent := depositor == e.Opponent

	if !isHost && !isOpponent {
		return ErrNotAuthorized
	}
	if e.Settled {
		return ErrAlreadySettled
	}
	if isHost && e.HostDeposited {
		return ErrAlreadyDeposited
	}
	if isOpponent && e.OpponentDeposited {
		return ErrAlreadyDeposited
	}
	return nil
}

// ValidateConfirmDeposit checks the authority-only flag update for a
// deposit verified out of band. Same participant and flag rules as
// ValidateDeposit, plus the caller must be the record's authority.
// An unknown depositor is an authorization failure, not a distinct kind.
func ValidateConfirmDeposit(e *models.Escrow, caller, depositor string) error {
	if caller != e.Authority {
		return ErrNotAuthorized
	}
	if depositor != e.Host && depositor != e.Opponent {
		return ErrNotAuthorized
	}
	if e.Settled {
		return ErrAlreadySettled
	}
	if depositor == e.Host && e.HostDeposited {
		return ErrAlreadyDeposited
	}
	if depositor == e.Opponent && e.OpponentDeposited {
		return ErrAlreadyDeposited
	}
	return nil
}

// ValidateSettle checks the preconditions for the authority naming a
// winner. Settlement of an already-settled escrow fails with
// ErrAlreadySettled no matter what else is wrong with the arguments.
func ValidateSettle(e *models.Escrow, caller, winner string) error {
	if caller != e.Authority {
		return ErrNotAuthorized
	}
	if e.Settled {
		return ErrAlreadySettled
	}
	if winner != e.Host && winner != e.Opponent {
		return ErrInvalidWinner
	}
	if !e.Funded() {
		return ErrNotFunded
	}
	return nil
}

// ValidateForfeit checks the preconditions for a forfeiture and returns
// the derived winner: whichever participant did not forfeit.
func ValidateForfeit(e *models.Escrow, caller, forfeiter string) (winner string, err error) {
	if caller != e.Authority {
		return "", ErrNotAuthorized
	}
	if e.Settled {
		return "", ErrAlreadySettled
	}
	if forfeiter != e.Host && forfeiter != e.Opponent {
		return "", ErrInvalidForfeiter
	}
	if !e.Funded() {
		return "", ErrNotFunded
	}
	if forfeiter == e.Host {
		return e.Opponent, nil
	}
	return e.Host, nil
}

// RequireTokenAccounts fails with ErrMissingAccount unless every listed
// token sub-account address was supplied. Called only on the token
// branch, before any fund movement is attempted.
func RequireTokenAccounts(addrs ...string) error {
	for _, a := range addrs {
		if a == "" {
			return ErrMissingAccount
		}
	}
	return nil
}
