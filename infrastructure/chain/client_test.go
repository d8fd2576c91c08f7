package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newResponse(payload []byte) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(payload)),
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{RPCURL: "http://localhost:10332"},
			wantErr: false,
		},
		{
			name:    "missing URL",
			cfg:     Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClientCall(t *testing.T) {
	client, err := NewClient(Config{RPCURL: "http://example"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	client.httpClient.Transport = roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		var req RPCRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		resp := RPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
		}

		switch req.Method {
		case "getblockcount":
			resp.Result = json.RawMessage(`12345`)
		case "invokefunction":
			resp.Result = json.RawMessage(`{"state":"HALT","gasconsumed":"0.1","stack":[{"type":"Integer","value":"100"}]}`)
		default:
			resp.Error = &RPCError{Code: -1, Message: "unknown method"}
		}

		payload, _ := json.Marshal(resp)
		return newResponse(payload), nil
	})

	ctx := context.Background()

	result, err := client.Call(ctx, "getblockcount", nil)
	if err != nil {
		t.Errorf("Call(getblockcount) error = %v", err)
	}

	var count int
	json.Unmarshal(result, &count)
	if count != 12345 {
		t.Errorf("Expected block count 12345, got %d", count)
	}
}

func TestGetBlockCount(t *testing.T) {
	client, _ := NewClient(Config{RPCURL: "http://example"})
	client.httpClient.Transport = roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		resp := RPCResponse{JSONRPC: "2.0", ID: 1, Result: json.RawMessage(`12345`)}
		payload, _ := json.Marshal(resp)
		return newResponse(payload), nil
	})
	ctx := context.Background()

	count, err := client.GetBlockCount(ctx)
	if err != nil {
		t.Errorf("GetBlockCount() error = %v", err)
	}
	if count != 12345 {
		t.Errorf("Expected 12345, got %d", count)
	}
}

func TestInvokeFunction(t *testing.T) {
	client, _ := NewClient(Config{RPCURL: "http://example"})
	client.httpClient.Transport = roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		resp := RPCResponse{
			JSONRPC: "2.0",
			ID:      1,
			Result: json.RawMessage(`{
				"script": "test",
				"state": "HALT",
				"gasconsumed": "0.1234",
				"stack": [{"type": "Integer", "value": "42"}]
			}`),
		}
		payload, _ := json.Marshal(resp)
		return newResponse(payload), nil
	})
	ctx := context.Background()

	result, err := client.InvokeFunction(ctx, "0x1234", "balanceOf", nil)
	if err != nil {
		t.Errorf("InvokeFunction() error = %v", err)
	}
	if result.State != "HALT" {
		t.Errorf("Expected HALT state, got %s", result.State)
	}
	if len(result.Stack) != 1 {
		t.Errorf("Expected 1 stack item, got %d", len(result.Stack))
	}
}

func TestContractParams(t *testing.T) {
	strParam := NewStringParam("sword-01")
	if strParam.Type != "String" || strParam.Value != "sword-01" {
		t.Errorf("NewStringParam failed")
	}

	intParam := NewIntegerParam(big.NewInt(42))
	if intParam.Type != "Integer" || intParam.Value != "42" {
		t.Errorf("NewIntegerParam failed")
	}

	hashParam := NewHash160Param("0x1234567890abcdef1234567890abcdef12345678")
	if hashParam.Type != "Hash160" {
		t.Errorf("NewHash160Param failed")
	}
}

func TestRPCError(t *testing.T) {
	err := &RPCError{
		Code:    -100,
		Message: "test error",
	}

	expected := "RPC error -100: test error"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestParseInteger(t *testing.T) {
	item := StackItem{
		Type:  "Integer",
		Value: json.RawMessage(`"12345"`),
	}

	result, err := ParseInteger(item)
	if err != nil {
		t.Errorf("ParseInteger() error = %v", err)
	}
	if result.Cmp(big.NewInt(12345)) != 0 {
		t.Errorf("Expected 12345, got %s", result.String())
	}
}

func TestWaitForApplicationLogTimeout(t *testing.T) {
	client, _ := NewClient(Config{RPCURL: "http://example"})
	client.httpClient.Transport = roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		var req RPCRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		resp := RPCResponse{JSONRPC: "2.0", ID: req.ID}
		if req.Method == "getapplicationlog" {
			resp.Error = &RPCError{Code: -100, Message: "Unknown transaction"}
		} else {
			resp.Result = json.RawMessage(`{"hash":"0xabc"}`)
		}

		payload, _ := json.Marshal(resp)
		return newResponse(payload), nil
	})

	wctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()
	_, err := client.WaitForApplicationLog(wctx, "0xabc", time.Millisecond*10)
	if err == nil || !strings.Contains(err.Error(), "deadline exceeded") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestClientNetworkID(t *testing.T) {
	client, err := NewClient(Config{
		RPCURL:    "http://localhost:10332",
		NetworkID: 860833102,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if got := client.NetworkID(); got != 860833102 {
		t.Errorf("NetworkID() = %d, want %d", got, 860833102)
	}

	var nilClient *Client
	if got := nilClient.NetworkID(); got != 0 {
		t.Errorf("nil.NetworkID() = %d, want 0", got)
	}
}

func TestGetApplicationLog(t *testing.T) {
	client, _ := NewClient(Config{RPCURL: "http://example"})
	client.httpClient.Transport = roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		resp := RPCResponse{
			JSONRPC: "2.0",
			ID:      1,
			Result: json.RawMessage(`{
				"txid": "0xabc123",
				"executions": [{"vmstate": "HALT"}]
			}`),
		}
		payload, _ := json.Marshal(resp)
		return newResponse(payload), nil
	})

	log, err := client.GetApplicationLog(context.Background(), "0xabc123")
	if err != nil {
		t.Fatalf("GetApplicationLog() error = %v", err)
	}
	if log == nil {
		t.Error("GetApplicationLog() returned nil")
	}
}

func TestClientCallHTTPError(t *testing.T) {
	client, _ := NewClient(Config{RPCURL: "http://example"})
	client.httpClient.Transport = roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("internal error")),
		}, nil
	})

	_, err := client.Call(context.Background(), "getblockcount", nil)
	if err == nil {
		t.Error("expected error for HTTP error response")
	}
}

func TestClientCallRPCError(t *testing.T) {
	client, _ := NewClient(Config{RPCURL: "http://example"})
	client.httpClient.Transport = roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		resp := RPCResponse{
			JSONRPC: "2.0",
			ID:      1,
			Error:   &RPCError{Code: -100, Message: "Unknown transaction"},
		}
		payload, _ := json.Marshal(resp)
		return newResponse(payload), nil
	})

	_, err := client.Call(context.Background(), "getapplicationlog", []interface{}{"invalid"})
	if err == nil {
		t.Error("expected error for RPC error response")
	}
}

func TestNewClientWithCustomHTTPClient(t *testing.T) {
	customClient := &http.Client{Timeout: 60 * time.Second}
	client, err := NewClient(Config{
		RPCURL:     "http://localhost:10332",
		HTTPClient: customClient,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client == nil {
		t.Error("NewClient() returned nil")
	}
}

func TestNewClientWithTimeout(t *testing.T) {
	client, err := NewClient(Config{
		RPCURL:  "http://localhost:10332",
		Timeout: 120 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client == nil {
		t.Error("NewClient() returned nil")
	}
}
