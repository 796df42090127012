package custody

import (
	"errors"
	"testing"

	"github.com/matchvault/backend/internal/models"
)

func TestTransferFromCustodyRequiresDerivedAddress(t *testing.T) {
	acct := &models.CustodyAccount{
		ID:          1,
		Address:     "derived_addr",
		AccountType: AccountEscrow,
		Balance:     100,
	}

	// Wrong capability: the presented address doesn't re-derive to the
	// custody account. Rejected before any ledger access.
	err := TransferFromCustody(nil, "some_other_addr", acct, 2, "", 50, "SETTLE", "ref", "payout")
	if !errors.Is(err, ErrNotCustodyAuthority) {
		t.Errorf("mismatched derived address: got %v, want ErrNotCustodyAuthority", err)
	}
}

func TestTransferFromCustodyRejectsNonCustodyAccount(t *testing.T) {
	acct := &models.CustodyAccount{
		ID:          1,
		Address:     "wallet_host",
		AccountType: AccountParticipant,
		Balance:     100,
	}

	// A participant account can never be debited through the custody path,
	// even if the address matches.
	err := TransferFromCustody(nil, "wallet_host", acct, 2, "", 50, "SETTLE", "ref", "payout")
	if !errors.Is(err, ErrNotCustodyAuthority) {
		t.Errorf("non-custody account: got %v, want ErrNotCustodyAuthority", err)
	}

	err = TransferFromCustody(nil, "wallet_host", nil, 2, "", 50, "SETTLE", "ref", "payout")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("nil account: got %v, want ErrAccountNotFound", err)
	}
}

func TestAddUint64Checked(t *testing.T) {
	if v, err := addUint64Checked(1, 2); err != nil || v != 3 {
		t.Errorf("1+2: got (%d, %v), want (3, nil)", v, err)
	}
	if v, err := addUint64Checked(^uint64(0)-1, 1); err != nil || v != ^uint64(0) {
		t.Errorf("max-1+1: got (%d, %v), want (max, nil)", v, err)
	}
	if _, err := addUint64Checked(^uint64(0), 1); err == nil {
		t.Error("max+1 did not overflow")
	}
}
