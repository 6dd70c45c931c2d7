package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTempProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("%+v", err)
	}
	return path
}

func TestLoadProfileOK(t *testing.T) {
	t.Parallel()

	path := writeTempProfile(t, `
version: "2026-08"
chain:
  name: optimism
  rpc_url: https://mainnet.optimism.io
contract:
  address: "0x777172385ac1d2e4ac61a9a98b0686cb4701b3a7"
  symbol: UQ
`)

	loaded, err := NewLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if loaded.Profile.Chain.Name != "optimism" {
		t.Fatalf("unexpected chain name: %s", loaded.Profile.Chain.Name)
	}
	if loaded.Profile.Contract.Symbol != "UQ" {
		t.Fatalf("unexpected symbol: %s", loaded.Profile.Contract.Symbol)
	}
	if len(loaded.SHA256) != 64 {
		t.Fatalf("unexpected profile hash: %s", loaded.SHA256)
	}
	if loaded.Path != path {
		t.Fatalf("unexpected path: %s", loaded.Path)
	}
}

func TestLoadProfileRejectsBadRPCURL(t *testing.T) {
	t.Parallel()

	path := writeTempProfile(t, `
version: "2026-08"
chain:
  name: optimism
  rpc_url: ftp://mainnet.optimism.io
contract:
  address: "0x777172385ac1d2e4ac61a9a98b0686cb4701b3a7"
`)

	if _, err := NewLoader(path).Load(context.Background()); err == nil {
		t.Fatalf("expected non-http rpc_url to be rejected")
	}
}

func TestLoadProfileRejectsBadContract(t *testing.T) {
	t.Parallel()

	path := writeTempProfile(t, `
version: "2026-08"
chain:
  name: optimism
  rpc_url: https://mainnet.optimism.io
contract:
  address: "0x1234"
`)

	if _, err := NewLoader(path).Load(context.Background()); err == nil {
		t.Fatalf("expected malformed contract address to be rejected")
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load(context.Background()); err == nil {
		t.Fatalf("expected error for missing profile")
	}
}
