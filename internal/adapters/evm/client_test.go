package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDialProbesChainID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID any `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode rpc request: %+v", err)
			return
		}
		idJSON, _ := json.Marshal(req.ID)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"0xa"}`, idJSON)
	}))
	defer srv.Close()

	client, chainID, err := Dial(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer client.Close()

	if chainID.Int64() != 10 {
		t.Fatalf("unexpected chain id: %s", chainID)
	}
}

func TestDialUnreachableEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if _, _, err := Dial(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected probe failure for closed endpoint")
	}
}
