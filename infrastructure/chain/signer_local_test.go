package chain

import (
	"context"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

func TestNewLocalWalletSignerFromPrivateKeyHex(t *testing.T) {
	validKey := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

	tests := []struct {
		name    string
		keyHex  string
		wantErr bool
	}{
		{
			name:    "valid private key",
			keyHex:  validKey,
			wantErr: false,
		},
		{
			name:    "invalid hex",
			keyHex:  "not-hex",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, err := NewLocalWalletSignerFromPrivateKeyHex(tt.keyHex)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLocalWalletSignerFromPrivateKeyHex() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && signer == nil {
				t.Error("NewLocalWalletSignerFromPrivateKeyHex() returned nil signer without error")
			}
		})
	}
}

func TestLocalWalletSignerScriptHash(t *testing.T) {
	validKey := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	signer, err := NewLocalWalletSignerFromPrivateKeyHex(validKey)
	if err != nil {
		t.Fatalf("NewLocalWalletSignerFromPrivateKeyHex() error = %v", err)
	}

	scriptHash := signer.ScriptHash()
	if scriptHash.Equals(util.Uint160{}) {
		t.Error("ScriptHash() returned zero value")
	}
}

func TestLocalWalletSignerScriptHashNil(t *testing.T) {
	var signer *LocalWalletSigner
	scriptHash := signer.ScriptHash()
	if !scriptHash.Equals(util.Uint160{}) {
		t.Error("ScriptHash() on nil should return zero Uint160")
	}
}

func TestLocalWalletSignerGetVerificationScript(t *testing.T) {
	validKey := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	signer, err := NewLocalWalletSignerFromPrivateKeyHex(validKey)
	if err != nil {
		t.Fatalf("NewLocalWalletSignerFromPrivateKeyHex() error = %v", err)
	}

	script := signer.GetVerificationScript()
	if len(script) == 0 {
		t.Error("GetVerificationScript() returned empty script")
	}
}

func TestLocalWalletSignerGetVerificationScriptNil(t *testing.T) {
	var signer *LocalWalletSigner
	script := signer.GetVerificationScript()
	if script != nil {
		t.Error("GetVerificationScript() on nil should return nil")
	}
}

func TestLocalWalletSignerSign(t *testing.T) {
	validKey := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	signer, err := NewLocalWalletSignerFromPrivateKeyHex(validKey)
	if err != nil {
		t.Fatalf("NewLocalWalletSignerFromPrivateKeyHex() error = %v", err)
	}

	data := []byte("test message to sign")
	signature, err := signer.Sign(context.Background(), data)
	if err != nil {
		t.Errorf("Sign() error = %v", err)
	}

	// Neo N3 signature should be 64 bytes
	if len(signature) != 64 {
		t.Errorf("Sign() signature length = %d, want 64", len(signature))
	}
}

func TestLocalWalletSignerSignNil(t *testing.T) {
	var signer *LocalWalletSigner
	_, err := signer.Sign(context.Background(), []byte("test"))
	if err == nil {
		t.Error("Sign() on nil signer should return error")
	}
}

func TestLocalWalletSignerSignTxNil(t *testing.T) {
	var signer *LocalWalletSigner
	err := signer.SignTx(0, nil)
	if err == nil {
		t.Error("SignTx() on nil signer should return error")
	}
}
