package neoledger

import "testing"

func TestNewRejectsInvalidWIF(t *testing.T) {
	_, err := New(nil, Config{TreasuryWIF: "not-a-wif"})
	if err == nil {
		t.Fatal("New() error = nil, want error for invalid WIF")
	}
}
