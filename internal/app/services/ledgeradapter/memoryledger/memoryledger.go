// Package memoryledger is an in-memory ledger.Adapter used in tests and
// local development in place of neoledger's live chain calls.
package memoryledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/nexusrealms/worldcore/internal/app/domain/ledger"
	"github.com/nexusrealms/worldcore/internal/apperrors"
)

type balanceKey struct {
	wallet  string
	tokenID string
}

// Adapter holds item balances and currency totals per wallet in memory,
// with optional fault injection for exercising compensation paths.
type Adapter struct {
	mu        sync.Mutex
	items     map[balanceKey]uint64
	currency  map[string]uint64
	nextTx    uint64
	FailNext  bool // when true, the next mutating call fails transiently and resets
}

// New constructs an empty in-memory adapter.
func New() *Adapter {
	return &Adapter{
		items:    make(map[balanceKey]uint64),
		currency: make(map[string]uint64),
	}
}

func (a *Adapter) nextHandle() ledger.TxHandle {
	a.nextTx++
	return ledger.TxHandle(fmt.Sprintf("mem-tx-%d", a.nextTx))
}

func (a *Adapter) maybeFail(operation string) error {
	if a.FailNext {
		a.FailNext = false
		return apperrors.LedgerTransientError(operation, fmt.Errorf("injected failure"))
	}
	return nil
}

// MintItem increases wallet's balance of tokenId by qty.
func (a *Adapter) MintItem(ctx context.Context, wallet, tokenID string, qty uint64) (ledger.TxHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.maybeFail("mintItem"); err != nil {
		return "", err
	}
	key := balanceKey{wallet, tokenID}
	a.items[key] += qty
	return a.nextHandle(), nil
}

// BurnItem decreases wallet's balance of tokenId by qty, failing with a
// precondition error if the wallet does not hold enough.
func (a *Adapter) BurnItem(ctx context.Context, wallet, tokenID string, qty uint64) (ledger.TxHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.maybeFail("burnItem"); err != nil {
		return "", err
	}
	key := balanceKey{wallet, tokenID}
	if a.items[key] < qty {
		return "", apperrors.PreconditionError("insufficient item balance").
			WithDetails("wallet", wallet).WithDetails("tokenId", tokenID)
	}
	a.items[key] -= qty
	return a.nextHandle(), nil
}

// GetItemBalance returns wallet's current quantity of tokenId.
func (a *Adapter) GetItemBalance(ctx context.Context, wallet, tokenID string) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.items[balanceKey{wallet, tokenID}], nil
}

// MintCurrency increases wallet's currency balance by amount.
func (a *Adapter) MintCurrency(ctx context.Context, wallet string, amount uint64) (ledger.TxHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.maybeFail("mintCurrency"); err != nil {
		return "", err
	}
	a.currency[wallet] += amount
	return a.nextHandle(), nil
}

// CurrencyBalance is a test helper exposing a wallet's current currency
// total without going through the Adapter interface.
func (a *Adapter) CurrencyBalance(wallet string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currency[wallet]
}

var _ ledger.Adapter = (*Adapter)(nil)
