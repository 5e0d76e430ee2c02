package ethrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newRPCServer(t *testing.T, result string) (*httptest.Server, *[]string) {
	t.Helper()
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params []any           `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode rpc request: %v", err)
			return
		}
		methods = append(methods, req.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &methods
}

func TestTransactionCountUsesNonce(t *testing.T) {
	srv, methods := newRPCServer(t, "0x2a")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(client.Close)

	count, err := client.TransactionCount(ctx, "0x1111111111111111111111111111111111111111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42, got %d", count)
	}
	if len(*methods) != 1 || (*methods)[0] != "eth_getTransactionCount" {
		t.Fatalf("unexpected rpc calls: %v", *methods)
	}
}

func TestTransactionCountRejectsNonHex(t *testing.T) {
	srv, methods := newRPCServer(t, "0x1")

	client, err := Dial(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(client.Close)

	if _, err := client.TransactionCount(context.Background(), "0xzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"); err == nil {
		t.Fatalf("expected error for non-hex address")
	}
	if len(*methods) != 0 {
		t.Fatalf("no rpc call expected, got %v", *methods)
	}
}

func TestDialRequiresURL(t *testing.T) {
	if _, err := Dial(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestClosedClient(t *testing.T) {
	srv, _ := newRPCServer(t, "0x1")
	client, err := Dial(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	client.Close()
	if _, err := client.TransactionCount(context.Background(), "0x1111111111111111111111111111111111111111"); err == nil {
		t.Fatalf("expected error after close")
	}
}
