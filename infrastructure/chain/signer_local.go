package chain

import (
	"context"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// LocalWalletSigner implements WalletSigner using a locally held private
// key. It is the signer the treasury account uses in development and in
// single-node deployments; a custodial HSM-backed signer would implement
// the same interface without touching ledger adapter call sites.
type LocalWalletSigner struct {
	account *wallet.Account
}

// NewLocalWalletSignerFromPrivateKeyHex constructs a local signer from a hex-encoded private key.
func NewLocalWalletSignerFromPrivateKeyHex(privateKeyHex string) (*LocalWalletSigner, error) {
	account, err := AccountFromPrivateKey(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	return &LocalWalletSigner{account: account}, nil
}

// NewLocalWalletSignerFromWIF constructs a local signer from a WIF-encoded private key.
func NewLocalWalletSignerFromWIF(wif string) (*LocalWalletSigner, error) {
	account, err := AccountFromWIF(wif)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	return &LocalWalletSigner{account: account}, nil
}

func (s *LocalWalletSigner) ScriptHash() util.Uint160 {
	if s == nil || s.account == nil {
		return util.Uint160{}
	}
	return s.account.ScriptHash()
}

func (s *LocalWalletSigner) GetVerificationScript() []byte {
	if s == nil || s.account == nil {
		return nil
	}
	return s.account.GetVerificationScript()
}

func (s *LocalWalletSigner) SignTx(net netmode.Magic, tx *transaction.Transaction) error {
	if s == nil || s.account == nil {
		return fmt.Errorf("local signer account not configured")
	}
	return s.account.SignTx(net, tx)
}

// Sign signs an arbitrary payload with the account's private key. Used for
// mint/burn vouchers that a catalog contract verifies independently of the
// transaction witness.
func (s *LocalWalletSigner) Sign(_ context.Context, data []byte) ([]byte, error) {
	if s == nil || s.account == nil {
		return nil, fmt.Errorf("local signer account not configured")
	}
	priv := s.account.PrivateKey()
	if priv == nil {
		return nil, fmt.Errorf("local signer account has no private key loaded")
	}
	return priv.Sign(data), nil
}
