package models

import (
	"database/sql"
	"time"
)

// AssetNative is the sentinel asset tag for the platform's native coin.
// Any other tag names a fungible token (e.g. "USDC").
const AssetNative = ""

// Escrow is the persisted state for one match. It is owned by the
// custody account at Address, which also holds the pooled wagers.
type Escrow struct {
	ID                int          `db:"id" json:"id"`
	MatchKey          string       `db:"match_key" json:"match_key"`
	Address           string       `db:"address" json:"address"`
	Host              string       `db:"host" json:"host"`
	Opponent          string       `db:"opponent" json:"opponent"`
	WagerUnit         uint64       `db:"wager_unit" json:"wager_unit"`
	Asset             string       `db:"asset" json:"asset"`
	Treasury          string       `db:"treasury" json:"treasury"`
	Authority         string       `db:"authority" json:"authority"`
	HostDeposited     bool         `db:"host_deposited" json:"host_deposited"`
	OpponentDeposited bool         `db:"opponent_deposited" json:"opponent_deposited"`
	Settled           bool         `db:"settled" json:"settled"`
	DerivationSeed    int16        `db:"derivation_seed" json:"derivation_seed"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	SettledAt         sql.NullTime `db:"settled_at" json:"settled_at,omitempty"`
}

// IsNative reports whether this escrow wagers the native coin rather
// than a fungible token.
func (e *Escrow) IsNative() bool {
	return e.Asset == AssetNative
}

// Funded reports whether both participants have deposited.
func (e *Escrow) Funded() bool {
	return e.HostDeposited && e.OpponentDeposited
}

// CustodyAccount is one row of the service-held custody ledger.
// Native balances live on accounts whose address is the wallet itself;
// token balances live on sub-accounts with their own address and an
// owner_address pointing back at the wallet.
type CustodyAccount struct {
	ID           int            `db:"id" json:"id"`
	Address      string         `db:"address" json:"address"`
	OwnerAddress sql.NullString `db:"owner_address" json:"owner_address,omitempty"`
	Asset        string         `db:"asset" json:"asset"`
	AccountType  string         `db:"account_type" json:"account_type"`
	Balance      uint64         `db:"balance" json:"balance"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// CustodyTransfer is one journal row of the custody ledger. Every
// balance change is a debit/credit pair recorded here.
type CustodyTransfer struct {
	ID              int       `db:"id" json:"id"`
	DebitAccountID  int       `db:"debit_account_id" json:"debit_account_id"`
	CreditAccountID int       `db:"credit_account_id" json:"credit_account_id"`
	Asset           string    `db:"asset" json:"asset"`
	Amount          uint64    `db:"amount" json:"amount"`
	ReferenceType   string    `db:"reference_type" json:"reference_type"`
	ReferenceID     string    `db:"reference_id" json:"reference_id,omitempty"`
	Description     string    `db:"description" json:"description,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Signer is an API caller allowed to act on escrows: the game server
// (role "authority") or a player wallet (role "participant").
type Signer struct {
	Address     string    `db:"address" json:"address"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Role        string    `db:"role" json:"role"`
	SecretHash  string    `db:"secret_hash" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// PaymentCallback is an audit row for a payment-verifier webhook call.
type PaymentCallback struct {
	ID         int       `db:"id" json:"id"`
	PaymentRef string    `db:"payment_ref" json:"payment_ref"`
	MatchKey   string    `db:"match_key" json:"match_key"`
	Depositor  string    `db:"depositor" json:"depositor"`
	Status     string    `db:"status" json:"status"`
	Payload    []byte    `db:"payload" json:"payload,omitempty"`
	Processed  bool      `db:"processed" json:"processed"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// OffchainPayment tracks a participant's out-of-band payment awaiting
// verification. Once the verifier confirms it, the authority flags the
// deposit on the escrow without moving custodied funds.
type OffchainPayment struct {
	ID         int          `db:"id" json:"id"`
	PaymentRef string       `db:"payment_ref" json:"payment_ref"`
	MatchKey   string       `db:"match_key" json:"match_key"`
	Depositor  string       `db:"depositor" json:"depositor"`
	Amount     uint64       `db:"amount" json:"amount"`
	Status     string       `db:"status" json:"status"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	VerifiedAt sql.NullTime `db:"verified_at" json:"verified_at,omitempty"`
}
