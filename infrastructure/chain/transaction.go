package chain

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// =============================================================================
// Transaction Builder
// =============================================================================

// TxBuilder builds and signs Neo N3 transactions for mint/burn invocations.
type TxBuilder struct {
	client   *Client
	netMagic netmode.Magic
	extraFee int64  // additional network fee buffer, in GAS fractions
	blockBuf uint32 // ValidUntilBlock buffer, in blocks ahead of current height
}

// NewTxBuilder creates a transaction builder for the given network.
func NewTxBuilder(client *Client, networkID uint32) *TxBuilder {
	var magic netmode.Magic
	switch networkID {
	case 860833102:
		magic = netmode.MainNet
	case 894710606:
		magic = netmode.TestNet
	default:
		magic = netmode.Magic(networkID)
	}

	return &TxBuilder{
		client:   client,
		netMagic: magic,
		extraFee: 100000, // 0.001 GAS extra buffer
		blockBuf: 100,    // valid for ~100 blocks (~25 minutes)
	}
}

// BuildAndSignTx builds a transaction from an invoke simulation and signs it
// with signer.
func (b *TxBuilder) BuildAndSignTx(
	ctx context.Context,
	invokeResult *InvokeResult,
	signer TxSigner,
	signerScopes transaction.WitnessScope,
) (*transaction.Transaction, error) {
	script, err := base64.StdEncoding.DecodeString(invokeResult.Script)
	if err != nil {
		script, err = hex.DecodeString(invokeResult.Script)
		if err != nil {
			return nil, fmt.Errorf("decode script: %w", err)
		}
	}

	systemFee, err := parseGasValue(invokeResult.GasConsumed)
	if err != nil {
		return nil, fmt.Errorf("parse system fee: %w", err)
	}

	blockCount, err := b.client.GetBlockCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get block count: %w", err)
	}
	maxValidUntilBlock := uint64(^uint32(0) - b.blockBuf)
	if blockCount > maxValidUntilBlock {
		return nil, fmt.Errorf("block height %d overflows uint32", blockCount)
	}
	validUntilBlock := uint32(blockCount) + b.blockBuf // #nosec G115 -- range checked above

	tx := transaction.New(script, systemFee)
	tx.ValidUntilBlock = validUntilBlock
	tx.Nonce = rand.Uint32()

	tx.Signers = []transaction.Signer{
		{
			Account: signer.ScriptHash(),
			Scopes:  signerScopes,
		},
	}

	tx.Scripts = []transaction.Witness{
		{
			VerificationScript: signer.GetVerificationScript(),
		},
	}

	networkFee := b.calculateNetworkFee(ctx, tx)
	tx.NetworkFee = networkFee + b.extraFee

	if err := signer.SignTx(b.netMagic, tx); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	return tx, nil
}

// calculateNetworkFee asks the node for the network fee via
// calculatenetworkfee, falling back to a local estimate if the node call
// fails.
func (b *TxBuilder) calculateNetworkFee(ctx context.Context, tx *transaction.Transaction) int64 {
	txBytes := tx.Bytes()
	txBase64 := base64.StdEncoding.EncodeToString(txBytes)

	result, err := b.client.Call(ctx, "calculatenetworkfee", []interface{}{txBase64})
	if err != nil {
		return b.estimateNetworkFee(tx)
	}

	var feeResult struct {
		NetworkFee string `json:"networkfee"`
	}
	if unmarshalErr := json.Unmarshal(result, &feeResult); unmarshalErr != nil {
		return b.estimateNetworkFee(tx)
	}

	fee, err := strconv.ParseInt(feeResult.NetworkFee, 10, 64)
	if err != nil {
		return b.estimateNetworkFee(tx)
	}

	return fee
}

// estimateNetworkFee is a conservative fallback fee estimate based on
// transaction size.
func (b *TxBuilder) estimateNetworkFee(tx *transaction.Transaction) int64 {
	baseSize := len(tx.Bytes())
	return int64(baseSize)*1000 + 1000000 // 0.01 GAS base + size cost
}

// parseGasValue parses a GAS value string (decimal or integer fractions)
// into integer fractions (1 GAS = 10^8 fractions).
func parseGasValue(gasStr string) (int64, error) {
	if f, err := strconv.ParseFloat(gasStr, 64); err == nil {
		return int64(f * 100000000), nil
	}
	return strconv.ParseInt(gasStr, 10, 64)
}

// =============================================================================
// Account Creation Helpers
// =============================================================================

// AccountFromPrivateKey creates a neo-go wallet account from a private key
// hex string, used by LocalWalletSigner.
func AccountFromPrivateKey(privateKeyHex string) (*wallet.Account, error) {
	keyBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}

	privateKey, err := keys.NewPrivateKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("create private key: %w", err)
	}

	return wallet.NewAccountFromPrivateKey(privateKey), nil
}

// AccountFromWIF creates a neo-go wallet account from a WIF string, used by
// LocalWalletSigner.
func AccountFromWIF(wif string) (*wallet.Account, error) {
	return wallet.NewAccountFromWIF(wif)
}

// =============================================================================
// Transaction Broadcast
// =============================================================================

// BroadcastTx broadcasts a signed transaction and returns its hash.
func (b *TxBuilder) BroadcastTx(ctx context.Context, tx *transaction.Transaction) (util.Uint256, error) {
	txBytes := tx.Bytes()
	txBase64 := base64.StdEncoding.EncodeToString(txBytes)

	result, err := b.client.Call(ctx, "sendrawtransaction", []interface{}{txBase64})
	if err != nil {
		return util.Uint256{}, fmt.Errorf("broadcast transaction: %w", err)
	}

	var response struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(result, &response); err != nil {
		var success bool
		if json.Unmarshal(result, &success) == nil && success {
			return tx.Hash(), nil
		}
		return util.Uint256{}, fmt.Errorf("parse broadcast response: %w", err)
	}

	if response.Hash == "" {
		return tx.Hash(), nil
	}

	return util.Uint256DecodeStringLE(response.Hash[2:]) // strip 0x prefix
}
