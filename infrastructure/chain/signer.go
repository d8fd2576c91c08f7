package chain

import (
	"context"

	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// TxSigner abstracts Neo N3 transaction signing.
//
// It is intentionally compatible with `neo-go/pkg/wallet.Account` so the
// ledger adapter can swap a local development key for a remotely held
// custodial signer without changing call sites.
type TxSigner interface {
	ScriptHash() util.Uint160
	GetVerificationScript() []byte
	SignTx(net netmode.Magic, tx *transaction.Transaction) error
}

// MessageSigner abstracts signing arbitrary byte payloads, used when a
// contract verifies a signature over an off-chain message rather than a
// full transaction (e.g. an item-mint voucher countersigned by the
// custodial treasury account).
type MessageSigner interface {
	Sign(ctx context.Context, data []byte) ([]byte, error)
}

// WalletSigner is the combined signer the Asset Ledger Adapter depends on:
// it both submits chain transactions and produces contract-verifiable
// message signatures.
type WalletSigner interface {
	TxSigner
	MessageSigner
}
