package escrow

import "errors"

// Error kinds surfaced by every escrow operation. A failed operation
// aborts its whole transaction; no record state survives a failure.
var (
	// ErrAlreadyDeposited - the player's deposit flag is already set
	ErrAlreadyDeposited = errors.New("player has already deposited")
	// ErrNotAuthorized - caller is not permitted to perform this operation
	ErrNotAuthorized = errors.New("caller is not the authority")
	// ErrNotFunded - both players haven't deposited yet
	ErrNotFunded = errors.New("both players haven't deposited yet")
	// ErrAlreadySettled - escrow is finalized; no further operations
	ErrAlreadySettled = errors.New("escrow already settled")
	// ErrInvalidWinner - winner is neither host nor opponent
	ErrInvalidWinner = errors.New("winner is neither host nor opponent")
	// ErrInvalidForfeiter - forfeiter is neither host nor opponent
	ErrInvalidForfeiter = errors.New("forfeiter is neither host nor opponent")
	// ErrInsufficientFunds - custody can't cover the pot, or the pot
	// computation itself overflowed (the two are deliberately conflated)
	ErrInsufficientFunds = errors.New("escrow doesn't have enough funds")
	// ErrMissingAccount - a token sub-account required for a non-native
	// asset was not supplied or doesn't match
	ErrMissingAccount = errors.New("required token account is missing")
	// ErrDuplicateMatch - an escrow already exists for this match key
	ErrDuplicateMatch = errors.New("escrow already exists for match key")
	// ErrNotFound - no escrow at this match key
	ErrNotFound = errors.New("escrow not found")
)
