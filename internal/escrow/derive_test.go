package escrow

import "testing"

func TestDeriveAddressDeterministic(t *testing.T) {
	key := HashMatchID("lobby-abc")

	a1 := DeriveAddress(key, 42)
	a2 := DeriveAddress(key, 42)
	if a1 != a2 {
		t.Errorf("same key and seed derived different addresses: %s vs %s", a1, a2)
	}
	if len(a1) != 64 {
		t.Errorf("derived address length = %d, want 64 hex chars", len(a1))
	}
}

func TestDeriveAddressVariesByKeyAndSeed(t *testing.T) {
	key := HashMatchID("lobby-abc")
	other := HashMatchID("lobby-xyz")

	if DeriveAddress(key, 1) == DeriveAddress(key, 2) {
		t.Error("different seeds derived the same address")
	}
	if DeriveAddress(key, 1) == DeriveAddress(other, 1) {
		t.Error("different match keys derived the same address")
	}
}

func TestMatchKeyRoundTrip(t *testing.T) {
	key := HashMatchID("lobby-roundtrip")

	parsed, err := ParseMatchKey(key.String())
	if err != nil {
		t.Fatalf("ParseMatchKey failed on own output: %v", err)
	}
	if parsed != key {
		t.Errorf("round trip mismatch: %s vs %s", parsed, key)
	}
}

func TestParseMatchKeyRejectsBadInput(t *testing.T) {
	cases := []string{
		"",
		"zz",
		"abcd",                 // too short
		"not hex at all......", // invalid chars
	}
	for _, in := range cases {
		if _, err := ParseMatchKey(in); err == nil {
			t.Errorf("ParseMatchKey(%q) accepted invalid input", in)
		}
	}
}

func TestHashMatchIDCommits(t *testing.T) {
	if HashMatchID("a") == HashMatchID("b") {
		t.Error("different match ids hashed to the same key")
	}
	if HashMatchID("a") != HashMatchID("a") {
		t.Error("same match id hashed to different keys")
	}
}
