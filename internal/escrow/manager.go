package escrow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/matchvault/backend/internal/custody"
	"github.com/matchvault/backend/internal/events"
	"github.com/matchvault/backend/internal/models"
)

const escrowColumns = `id, match_key, address, host, opponent, wager_unit, asset, treasury, authority,
	host_deposited, opponent_deposited, settled, derivation_seed, created_at, settled_at`

// Manager runs the five escrow operations. Each one executes inside a
// single database transaction: every state change and fund movement in
// an operation commits together or not at all. The escrow row is locked
// FOR UPDATE for the duration, which serializes concurrent submissions
// against the same record.
type Manager struct {
	db  *sqlx.DB
	pub *events.Publisher
}

// NewManager creates an escrow manager on the given database. pub may
// be nil, in which case lifecycle events are dropped.
func NewManager(db *sqlx.DB, pub *events.Publisher) *Manager {
	return &Manager{db: db, pub: pub}
}

// InitializeParams carries the immutable fields of a new escrow.
type InitializeParams struct {
	MatchKey  MatchKey
	Host      string
	Opponent  string
	WagerUnit uint64
	Asset     string
	Treasury  string
}

// Initialize creates the escrow record at the address derived from the
// match key and allocates the custody account that will hold deposits.
// caller becomes the record's authority. Fails with ErrDuplicateMatch
// if an escrow already exists for this match key.
//
// Neither host == opponent nor wager_unit == 0 is rejected here; the
// game server is trusted to send sensible matches.
func (m *Manager) Initialize(ctx context.Context, caller string, p InitializeParams) (*models.Escrow, error) {
	seed, err := NewDerivationSeed()
	if err != nil {
		return nil, err
	}
	address := DeriveAddress(p.MatchKey, seed)

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var e models.Escrow
	err = tx.Get(&e, `INSERT INTO escrows
		(match_key, address, host, opponent, wager_unit, asset, treasury, authority, derivation_seed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING `+escrowColumns,
		p.MatchKey.String(), address, p.Host, p.Opponent, p.WagerUnit, p.Asset, p.Treasury, caller, int16(seed))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateMatch
		}
		return nil, err
	}

	// Allocate the custody account for the pooled wagers
	if _, err := custody.GetOrCreateAccount(tx, address, p.Asset, custody.AccountEscrow); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[ESCROW] initialized match=%s address=%s wager=%d asset=%q", e.MatchKey, e.Address, e.WagerUnit, e.Asset)
	m.publish(ctx, events.Event{Type: events.TypeEscrowInitialized, MatchKey: e.MatchKey, Address: e.Address, Actor: caller})
	return &e, nil
}

// Get fetches the escrow for a match key without locking it.
func (m *Manager) Get(ctx context.Context, key MatchKey) (*models.Escrow, error) {
	var e models.Escrow
	err := m.db.GetContext(ctx, &e, `SELECT `+escrowColumns+` FROM escrows WHERE match_key=$1`, key.String())
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Deposit moves exactly wager_unit from the depositor into custody and
// sets their deposit flag. The transfer and the flag update are one
// transaction: if the transfer fails, no flag is set.
func (m *Manager) Deposit(ctx context.Context, key MatchKey, depositor string, tok TokenAccounts) (*models.Escrow, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	e, err := getEscrowForUpdate(tx, key)
	if err != nil {
		return nil, err
	}
	if err := ValidateDeposit(e, depositor); err != nil {
		return nil, err
	}

	custodyAcct, err := custody.GetAccount(tx, e.Address, e.Asset)
	if err != nil {
		return nil, err
	}

	ref := key.String()
	if e.IsNative() {
		from, err := custody.GetOrCreateAccount(tx, depositor, models.AssetNative, custody.AccountParticipant)
		if err != nil {
			return nil, err
		}
		if err := custody.Transfer(tx, from.ID, custodyAcct.ID, models.AssetNative, e.WagerUnit, "DEPOSIT", ref, "wager deposit"); err != nil {
			return nil, mapCustodyErr(err)
		}
	} else {
		if err := RequireTokenAccounts(tok.Depositor, tok.Escrow); err != nil {
			return nil, err
		}
		if tok.Escrow != e.Address {
			return nil, ErrMissingAccount
		}
		from, err := tokenAccountOwnedBy(tx, tok.Depositor, e.Asset, depositor)
		if err != nil {
			return nil, err
		}
		if err := custody.Transfer(tx, from.ID, custodyAcct.ID, e.Asset, e.WagerUnit, "DEPOSIT", ref, "wager deposit"); err != nil {
			return nil, mapCustodyErr(err)
		}
	}

	if err := setDepositFlag(tx, e, depositor); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[ESCROW] deposit match=%s depositor=%s amount=%d", e.MatchKey, depositor, e.WagerUnit)
	m.publish(ctx, events.Event{Type: events.TypeDepositReceived, MatchKey: e.MatchKey, Address: e.Address, Actor: depositor})
	return e, nil
}

// ConfirmDeposit sets a participant's deposit flag without moving any
// funds. caller must be the record's authority; it does so only after
// the payment verifier has confirmed an out-of-band payment. While
// this path is used, the custody balance no longer matches the sum of
// flagged deposits — the authority reconciles that externally, and
// Settle/Forfeit do not re-check it beyond the pot sufficiency check.
func (m *Manager) ConfirmDeposit(ctx context.Context, key MatchKey, caller, depositor string) (*models.Escrow, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	e, err := getEscrowForUpdate(tx, key)
	if err != nil {
		return nil, err
	}
	if err := ValidateConfirmDeposit(e, caller, depositor); err != nil {
		return nil, err
	}

	if err := setDepositFlag(tx, e, depositor); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[ESCROW] deposit confirmed off-band match=%s depositor=%s", e.MatchKey, depositor)
	m.publish(ctx, events.Event{Type: events.TypeDepositConfirmed, MatchKey: e.MatchKey, Address: e.Address, Actor: depositor})
	return e, nil
}

// Settle names a winner, pays out the pot minus the treasury fee, and
// finalizes the escrow. caller must be the record's authority.
func (m *Manager) Settle(ctx context.Context, key MatchKey, caller, winner string, tok TokenAccounts) (*Distribution, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	e, err := getEscrowForUpdate(tx, key)
	if err != nil {
		return nil, err
	}
	if err := ValidateSettle(e, caller, winner); err != nil {
		return nil, err
	}

	dist, err := m.finalize(tx, e, winner, tok, "SETTLE")
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[ESCROW] settled match=%s winner=%s payout=%d fee=%d", e.MatchKey, winner, dist.Payout, dist.Fee)
	m.publish(ctx, events.Event{Type: events.TypeEscrowSettled, MatchKey: e.MatchKey, Address: e.Address,
		Actor: caller, Winner: winner, Payout: dist.Payout, Fee: dist.Fee})
	return dist, nil
}

// Forfeit finalizes the escrow against a named forfeiter: the other
// participant wins, with the identical distribution math as Settle.
func (m *Manager) Forfeit(ctx context.Context, key MatchKey, caller, forfeiter string, tok TokenAccounts) (*Distribution, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	e, err := getEscrowForUpdate(tx, key)
	if err != nil {
		return nil, err
	}
	winner, err := ValidateForfeit(e, caller, forfeiter)
	if err != nil {
		return nil, err
	}

	dist, err := m.finalize(tx, e, winner, tok, "FORFEIT")
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[ESCROW] forfeited match=%s forfeiter=%s winner=%s payout=%d fee=%d", e.MatchKey, forfeiter, winner, dist.Payout, dist.Fee)
	m.publish(ctx, events.Event{Type: events.TypeEscrowForfeited, MatchKey: e.MatchKey, Address: e.Address,
		Actor: caller, Winner: winner, Payout: dist.Payout, Fee: dist.Fee})
	return dist, nil
}

// finalize distributes the pot and marks the record settled. Both
// finalization paths go through here so they produce identical numbers
// for the same pot. Any residual custody balance is swept back to the
// authority when the record closes.
func (m *Manager) finalize(tx *sqlx.Tx, e *models.Escrow, winner string, tok TokenAccounts, op string) (*Distribution, error) {
	dist, err := ComputeDistribution(e.WagerUnit)
	if err != nil {
		return nil, err
	}

	key, err := ParseMatchKey(e.MatchKey)
	if err != nil {
		return nil, fmt.Errorf("stored match key is corrupt: %w", err)
	}
	// Re-derive the custody address from key and seed. This is the
	// engine's authorization to debit custody.
	derived := DeriveAddress(key, byte(e.DerivationSeed))

	custodyAcct, err := custody.GetAccount(tx, e.Address, e.Asset)
	if err != nil {
		return nil, mapCustodyErr(err)
	}
	if custodyAcct.Balance < dist.TotalPot {
		return nil, ErrInsufficientFunds
	}

	ref := e.MatchKey
	var winnerID, treasuryID int
	if e.IsNative() {
		winnerAcct, err := custody.GetOrCreateAccount(tx, winner, models.AssetNative, custody.AccountParticipant)
		if err != nil {
			return nil, err
		}
		treasuryAcct, err := custody.GetOrCreateAccount(tx, e.Treasury, models.AssetNative, custody.AccountTreasury)
		if err != nil {
			return nil, err
		}
		winnerID, treasuryID = winnerAcct.ID, treasuryAcct.ID
	} else {
		if err := RequireTokenAccounts(tok.Winner, tok.Treasury, tok.Escrow); err != nil {
			return nil, err
		}
		if tok.Escrow != e.Address {
			return nil, ErrMissingAccount
		}
		winnerTA, err := custody.GetAccount(tx, tok.Winner, e.Asset)
		if err != nil {
			return nil, mapCustodyErr(err)
		}
		if !winnerTA.OwnerAddress.Valid || winnerTA.OwnerAddress.String != winner {
			return nil, ErrInvalidWinner
		}
		treasuryTA, err := custody.GetAccount(tx, tok.Treasury, e.Asset)
		if err != nil {
			return nil, mapCustodyErr(err)
		}
		if !treasuryTA.OwnerAddress.Valid || treasuryTA.OwnerAddress.String != e.Treasury {
			return nil, ErrNotAuthorized
		}
		winnerID, treasuryID = winnerTA.ID, treasuryTA.ID
	}

	if err := custody.TransferFromCustody(tx, derived, custodyAcct, winnerID, e.Asset, dist.Payout, op, ref, "winner payout"); err != nil {
		return nil, mapCustodyErr(err)
	}
	if err := custody.TransferFromCustody(tx, derived, custodyAcct, treasuryID, e.Asset, dist.Fee, op, ref, "treasury fee"); err != nil {
		return nil, mapCustodyErr(err)
	}

	// Sweep whatever is left in custody back to the authority; the
	// record is closing and its account must not strand funds.
	residual, err := custody.Balance(tx, e.Address, e.Asset)
	if err != nil {
		return nil, err
	}
	if residual > 0 {
		authorityAcct, err := custody.GetOrCreateAccount(tx, e.Authority, e.Asset, custody.AccountAuthority)
		if err != nil {
			return nil, err
		}
		if err := custody.TransferFromCustody(tx, derived, custodyAcct, authorityAcct.ID, e.Asset, residual, op, ref, "residual sweep on close"); err != nil {
			return nil, mapCustodyErr(err)
		}
	}

	res, err := tx.Exec(`UPDATE escrows SET settled=TRUE, settled_at=NOW() WHERE id=$1 AND settled=FALSE`, e.ID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return nil, ErrAlreadySettled
	}
	e.Settled = true

	return &dist, nil
}

func getEscrowForUpdate(tx *sqlx.Tx, key MatchKey) (*models.Escrow, error) {
	var e models.Escrow
	err := tx.Get(&e, `SELECT `+escrowColumns+` FROM escrows WHERE match_key=$1 FOR UPDATE`, key.String())
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func setDepositFlag(tx *sqlx.Tx, e *models.Escrow, depositor string) error {
	column := "host_deposited"
	if depositor == e.Opponent {
		column = "opponent_deposited"
	}
	if _, err := tx.Exec(`UPDATE escrows SET `+column+`=TRUE WHERE id=$1`, e.ID); err != nil {
		return err
	}
	if depositor == e.Opponent {
		e.OpponentDeposited = true
	} else {
		e.HostDeposited = true
	}
	return nil
}

// tokenAccountOwnedBy resolves a supplied token sub-account and checks
// it belongs to the expected wallet and carries the expected asset. A
// missing or mismatched account surfaces as ErrMissingAccount.
func tokenAccountOwnedBy(tx *sqlx.Tx, address, asset, owner string) (*models.CustodyAccount, error) {
	a, err := custody.GetAccount(tx, address, asset)
	if err != nil {
		if errors.Is(err, custody.ErrAccountNotFound) {
			return nil, ErrMissingAccount
		}
		return nil, err
	}
	if !a.OwnerAddress.Valid || a.OwnerAddress.String != owner {
		return nil, ErrMissingAccount
	}
	return a, nil
}

// mapCustodyErr folds ledger-level failures into the escrow error
// surface callers match on.
func mapCustodyErr(err error) error {
	switch {
	case errors.Is(err, custody.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, custody.ErrAccountNotFound):
		return ErrMissingAccount
	default:
		return err
	}
}

func (m *Manager) publish(ctx context.Context, ev events.Event) {
	if m.pub != nil {
		m.pub.Publish(ctx, ev)
	}
}
