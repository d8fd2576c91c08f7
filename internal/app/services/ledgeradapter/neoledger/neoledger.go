// Package neoledger implements the Asset Ledger Adapter (C5) against a Neo
// N3 item/currency contract using the chain RPC client built for this
// service. It is the "real" adapter; internal/app/services/ledgeradapter/
// memoryledger provides an in-memory stand-in for tests and local
// development.
package neoledger

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"

	"github.com/nexusrealms/worldcore/infrastructure/chain"
	"github.com/nexusrealms/worldcore/internal/app/core/service"
	"github.com/nexusrealms/worldcore/internal/app/domain/ledger"
	"github.com/nexusrealms/worldcore/internal/apperrors"
)

// rpcRetryPolicy covers transport-level flakiness talking to the Neo N3
// node (dropped connections, timeouts reaching the RPC endpoint) — it never
// retries a call that came back with an on-chain VM fault, since that is a
// permanent failure no resend will fix.
var rpcRetryPolicy = service.RetryPolicy{
	Attempts:       3,
	InitialBackoff: 250 * time.Millisecond,
	MaxBackoff:     2 * time.Second,
	Multiplier:     2,
}

// Config describes the deployed contract and treasury signing key this
// adapter invokes against.
type Config struct {
	ItemContractHash     string
	CurrencyContractHash string
	TreasuryWIF          string
}

// Adapter satisfies ledger.Adapter against a live Neo N3 RPC endpoint.
type Adapter struct {
	client   *chain.Client
	itemHash string
	currHash string
	treasury chain.WalletSigner
}

// New constructs an adapter bound to client, with the treasury signer
// decoded from cfg.TreasuryWIF used to sign every mint/burn transaction. A
// custodial signer can be substituted by constructing an Adapter directly
// with any other chain.WalletSigner implementation.
func New(client *chain.Client, cfg Config) (*Adapter, error) {
	signer, err := chain.NewLocalWalletSignerFromWIF(cfg.TreasuryWIF)
	if err != nil {
		return nil, fmt.Errorf("neoledger: decode treasury WIF: %w", err)
	}
	return &Adapter{
		client:   client,
		itemHash: cfg.ItemContractHash,
		currHash: cfg.CurrencyContractHash,
		treasury: signer,
	}, nil
}

func (a *Adapter) invoke(ctx context.Context, operation, contractHash, method string, params []chain.ContractParam) (ledger.TxHandle, error) {
	var result *chain.TxResult
	err := service.Retry(ctx, rpcRetryPolicy, func() error {
		r, callErr := a.client.InvokeFunctionWithSignerAndWait(
			ctx, contractHash, method, params, a.treasury, transaction.CalledByEntry, true,
		)
		if callErr != nil {
			return callErr
		}
		result = r
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", apperrors.LedgerTransientError(operation, ctx.Err())
		}
		return "", apperrors.LedgerTransientError(operation, err)
	}
	if result.VMState != "HALT" {
		return "", apperrors.LedgerPermanentError(operation, fmt.Errorf("vm state %s", result.VMState))
	}
	return ledger.TxHandle(result.TxHash), nil
}

// MintItem mints qty of tokenId to wallet.
func (a *Adapter) MintItem(ctx context.Context, walletAddress, tokenID string, qty uint64) (ledger.TxHandle, error) {
	params := []chain.ContractParam{
		chain.NewHash160Param(walletAddress),
		chain.NewStringParam(tokenID),
		chain.NewIntegerParam(new(big.Int).SetUint64(qty)),
	}
	return a.invoke(ctx, "mintItem", a.itemHash, "mintItem", params)
}

// BurnItem burns qty of tokenId from wallet.
func (a *Adapter) BurnItem(ctx context.Context, walletAddress, tokenID string, qty uint64) (ledger.TxHandle, error) {
	params := []chain.ContractParam{
		chain.NewHash160Param(walletAddress),
		chain.NewStringParam(tokenID),
		chain.NewIntegerParam(new(big.Int).SetUint64(qty)),
	}
	return a.invoke(ctx, "burnItem", a.itemHash, "burnItem", params)
}

// GetItemBalance reads wallet's balance of tokenId via a read-only
// invocation (no transaction, no signature, no wait).
func (a *Adapter) GetItemBalance(ctx context.Context, walletAddress, tokenID string) (uint64, error) {
	params := []chain.ContractParam{
		chain.NewHash160Param(walletAddress),
		chain.NewStringParam(tokenID),
	}
	var result *chain.InvokeResult
	err := service.Retry(ctx, rpcRetryPolicy, func() error {
		r, callErr := a.client.InvokeFunction(ctx, a.itemHash, "balanceOf", params)
		if callErr != nil {
			return callErr
		}
		result = r
		return nil
	})
	if err != nil {
		return 0, apperrors.LedgerTransientError("getItemBalance", err)
	}
	if result.State != "HALT" || len(result.Stack) == 0 {
		return 0, apperrors.LedgerPermanentError("getItemBalance", fmt.Errorf("unexpected vm state %s", result.State))
	}
	qty, err := chain.ParseInteger(result.Stack[0])
	if err != nil {
		return 0, apperrors.InternalError("parse balanceOf result", err)
	}
	return qty.Uint64(), nil
}

// MintCurrency mints amount of the base currency to wallet.
func (a *Adapter) MintCurrency(ctx context.Context, walletAddress string, amount uint64) (ledger.TxHandle, error) {
	params := []chain.ContractParam{
		chain.NewHash160Param(walletAddress),
		chain.NewIntegerParam(new(big.Int).SetUint64(amount)),
	}
	return a.invoke(ctx, "mintCurrency", a.currHash, "mintCurrency", params)
}

var _ ledger.Adapter = (*Adapter)(nil)
