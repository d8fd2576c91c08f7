package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
)

// =============================================================================
// Contract Invocation
// =============================================================================

// InvokeFunction invokes a contract function read-only (no transaction, no
// signature). Used by the Asset Ledger Adapter's balanceOf reads.
func (c *Client) InvokeFunction(ctx context.Context, scriptHash, method string, params []ContractParam) (*InvokeResult, error) {
	args := []interface{}{scriptHash, method, params}
	result, err := c.Call(ctx, "invokefunction", args)
	if err != nil {
		return nil, err
	}

	var invokeResult InvokeResult
	if err := json.Unmarshal(result, &invokeResult); err != nil {
		return nil, err
	}
	return &invokeResult, nil
}

// WaitForApplicationLog polls for a transaction's application log until it
// is available or ctx is done. A not-yet-known transaction is treated as
// transient and retried until the context deadline expires.
func (c *Client) WaitForApplicationLog(ctx context.Context, txHash string, pollInterval time.Duration) (*ApplicationLog, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			log, err := c.GetApplicationLog(ctx, txHash)
			if err != nil {
				if isNotFoundError(err) {
					continue
				}
				return nil, err
			}
			return log, nil
		}
	}
}

// DefaultTxWaitTimeout is the default timeout for waiting for a mint/burn
// transaction to confirm.
const DefaultTxWaitTimeout = 2 * time.Minute

// DefaultPollInterval is the default application-log poll interval.
const DefaultPollInterval = 2 * time.Second

// InvokeFunctionWithSignerAndWait simulates, builds, signs, and broadcasts a
// state-changing contract call (mintItem/burnItem/mintCurrency), optionally
// waiting for on-chain confirmation.
//
//   - signer: the treasury signer that owns the invoked contract's minter role
//   - signerScopes: witness scope for the signer (transaction.CalledByEntry
//     for the mint/burn contracts this adapter targets)
//   - wait: if true, blocks until the transaction confirms
func (c *Client) InvokeFunctionWithSignerAndWait(
	ctx context.Context,
	contractHash, method string,
	params []ContractParam,
	signer TxSigner,
	signerScopes transaction.WitnessScope,
	wait bool,
) (*TxResult, error) {
	invokeResult, err := c.InvokeFunctionWithSigners(ctx, contractHash, method, params, signer.ScriptHash())
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", method, err)
	}

	if invokeResult.State != "HALT" {
		return nil, fmt.Errorf("%s simulation failed: %s", method, invokeResult.Exception)
	}

	txBuilder := NewTxBuilder(c, c.networkID)
	tx, err := txBuilder.BuildAndSignTx(ctx, invokeResult, signer, signerScopes)
	if err != nil {
		return nil, fmt.Errorf("build transaction for %s: %w", method, err)
	}

	txHash, err := txBuilder.BroadcastTx(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("broadcast %s: %w", method, err)
	}

	result := &TxResult{
		TxHash:  "0x" + txHash.StringLE(),
		VMState: invokeResult.State,
	}

	if !wait {
		return result, nil
	}

	wctx, cancel := context.WithTimeout(ctx, DefaultTxWaitTimeout)
	defer cancel()

	appLog, err := c.WaitForApplicationLog(wctx, result.TxHash, DefaultPollInterval)
	if err != nil {
		return result, fmt.Errorf("wait for %s execution: %w", method, err)
	}

	result.AppLog = appLog
	if len(appLog.Executions) > 0 {
		result.VMState = appLog.Executions[0].VMState
	}

	return result, nil
}

// InvokeFunctionWithSigners simulates a contract invocation with a signer
// attached, used to get an accurate gas estimate before building the real
// transaction.
func (c *Client) InvokeFunctionWithSigners(ctx context.Context, scriptHash, method string, params []ContractParam, signerHash interface{}) (*InvokeResult, error) {
	var signers []Signer
	switch v := signerHash.(type) {
	case string:
		signers = []Signer{{Account: v, Scopes: ScopeCalledByEntry}}
	default:
		signers = []Signer{{Account: fmt.Sprintf("0x%s", v), Scopes: ScopeCalledByEntry}}
	}

	args := []interface{}{scriptHash, method, params, signers}
	result, err := c.Call(ctx, "invokefunction", args)
	if err != nil {
		return nil, err
	}

	var invokeResult InvokeResult
	if err := json.Unmarshal(result, &invokeResult); err != nil {
		return nil, err
	}
	return &invokeResult, nil
}
