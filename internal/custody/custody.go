package custody

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/matchvault/backend/internal/models"
)

// account types constants
const (
	AccountParticipant = "participant"
	AccountEscrow      = "escrow_custody"
	AccountTreasury    = "treasury"
	AccountAuthority   = "authority"
)

var (
	// ErrInsufficientFunds - debit account can't cover the amount
	ErrInsufficientFunds = errors.New("insufficient funds in account")
	// ErrAccountNotFound - no ledger account at the given address/asset
	ErrAccountNotFound = errors.New("custody account not found")
	// ErrNotCustodyAuthority - the presented derived address doesn't
	// re-derive to the custody account being debited
	ErrNotCustodyAuthority = errors.New("derived address does not authorize this custody account")
)

// GetOrCreateAccount returns the ledger account at (address, asset),
// creating an empty one of the given type if missing.
func GetOrCreateAccount(tx *sqlx.Tx, address, asset, accountType string) (*models.CustodyAccount, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx is nil")
	}

	var a models.CustodyAccount
	err := tx.Get(&a, `SELECT id, address, owner_address, asset, account_type, balance, created_at, updated_at
		FROM custody_accounts WHERE address=$1 AND asset=$2`, address, asset)
	if err == nil {
		return &a, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	if _, err := tx.Exec(`INSERT INTO custody_accounts (address, asset, account_type, balance, created_at, updated_at)
		VALUES ($1, $2, $3, 0, NOW(), NOW())`, address, asset, accountType); err != nil {
		return nil, err
	}
	if err := tx.Get(&a, `SELECT id, address, owner_address, asset, account_type, balance, created_at, updated_at
		FROM custody_accounts WHERE address=$1 AND asset=$2`, address, asset); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateTokenAccount creates a token sub-account at its own address,
// owned by the given wallet. Fails if the address is already taken.
func CreateTokenAccount(tx *sqlx.Tx, address, owner, asset, accountType string) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	_, err := tx.Exec(`INSERT INTO custody_accounts (address, owner_address, asset, account_type, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW(), NOW())`, address, owner, asset, accountType)
	return err
}

// GetAccount fetches the ledger account at (address, asset) without
// creating it. Returns ErrAccountNotFound when absent.
func GetAccount(tx *sqlx.Tx, address, asset string) (*models.CustodyAccount, error) {
	var a models.CustodyAccount
	err := tx.Get(&a, `SELECT id, address, owner_address, asset, account_type, balance, created_at, updated_at
		FROM custody_accounts WHERE address=$1 AND asset=$2`, address, asset)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Balance returns the current balance at (address, asset). Zero when
// the account doesn't exist yet.
func Balance(tx *sqlx.Tx, address, asset string) (uint64, error) {
	a, err := GetAccount(tx, address, asset)
	if err == ErrAccountNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// Transfer performs a single debit/credit between two ledger accounts
// within an existing tx. It locks both rows FOR UPDATE, checks the
// debit balance, updates both balances and inserts a custody_transfers
// journal row.
func Transfer(tx *sqlx.Tx, debitAccountID, creditAccountID int, asset string, amount uint64, referenceType, referenceID, description string) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if debitAccountID == creditAccountID {
		return fmt.Errorf("transfer debit and credit accounts are the same")
	}

	// Lock both accounts
	var accounts []models.CustodyAccount
	query := `SELECT id, address, owner_address, asset, account_type, balance, created_at, updated_at
		FROM custody_accounts WHERE id IN ($1,$2) FOR UPDATE`
	if err := tx.Select(&accounts, query, debitAccountID, creditAccountID); err != nil {
		return err
	}

	var debitAcc *models.CustodyAccount
	var creditAcc *models.CustodyAccount
	for i := range accounts {
		if accounts[i].ID == debitAccountID {
			debitAcc = &accounts[i]
		}
		if accounts[i].ID == creditAccountID {
			creditAcc = &accounts[i]
		}
	}
	if debitAcc == nil || creditAcc == nil {
		return ErrAccountNotFound
	}
	if debitAcc.Asset != asset || creditAcc.Asset != asset {
		return fmt.Errorf("transfer asset mismatch: want %q", asset)
	}

	if debitAcc.Balance < amount {
		return fmt.Errorf("%w: account %d", ErrInsufficientFunds, debitAccountID)
	}
	newCreditBalance, err := addUint64Checked(creditAcc.Balance, amount)
	if err != nil {
		return fmt.Errorf("credit account %d: %w", creditAccountID, err)
	}
	newDebitBalance := debitAcc.Balance - amount

	if _, err := tx.Exec(`UPDATE custody_accounts SET balance=$1, updated_at=NOW() WHERE id=$2`, newDebitBalance, debitAcc.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE custody_accounts SET balance=$1, updated_at=NOW() WHERE id=$2`, newCreditBalance, creditAcc.ID); err != nil {
		return err
	}

	if _, err := tx.Exec(`INSERT INTO custody_transfers (debit_account_id, credit_account_id, asset, amount, reference_type, reference_id, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`, debitAccountID, creditAccountID, asset, amount, referenceType, referenceID, description); err != nil {
		return err
	}

	log.Printf("[CUSTODY] Transfer completed: debit_acc=%d credit_acc=%d asset=%q amount=%d ref_type=%s ref_id=%s desc=%s",
		debitAccountID, creditAccountID, asset, amount, referenceType, referenceID, description)

	return nil
}

// TransferFromCustody debits an escrow custody account. Only the engine
// may do this, and only while holding the record: the caller must
// present the address re-derived from the record's match key and seed,
// which has to match the custody account's own address.
func TransferFromCustody(tx *sqlx.Tx, derivedAddress string, from *models.CustodyAccount, creditAccountID int, asset string, amount uint64, referenceType, referenceID, description string) error {
	if from == nil {
		return ErrAccountNotFound
	}
	if from.AccountType != AccountEscrow || from.Address != derivedAddress {
		return ErrNotCustodyAuthority
	}
	return Transfer(tx, from.ID, creditAccountID, asset, amount, referenceType, referenceID, description)
}

func addUint64Checked(a, b uint64) (uint64, error) {
	if a > ^uint64(0)-b {
		return 0, fmt.Errorf("balance overflows uint64")
	}
	return a + b, nil
}
