package csvio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"uqalloc-query/internal/services/report"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addresses.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("%+v", err)
	}
	return path
}

func TestReadAddressesWithHeader(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, strings.Join([]string{
		"address,label",
		"0x000000000000000000000000000000000000dead,first",
		"",
		"0x1111111111111111111111111111111111111111,second",
	}, "\n"))

	got, err := ReadAddresses(path)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	want := []string{
		"0x000000000000000000000000000000000000dead",
		"0x1111111111111111111111111111111111111111",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected addresses: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("address %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestReadAddressesHeaderless(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, strings.Join([]string{
		"0x000000000000000000000000000000000000dead",
		"not-an-address",
	}, "\n"))

	got, err := ReadAddresses(path)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	// 非法内容不过滤，留给查询阶段归类。
	if len(got) != 2 || got[1] != "not-an-address" {
		t.Fatalf("unexpected addresses: %v", got)
	}
}

func TestReadAddressesUnknownHeaderWord(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, strings.Join([]string{
		"holders_of_record",
		"0x000000000000000000000000000000000000dead",
	}, "\n"))

	got, err := ReadAddresses(path)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	// 首行不像地址且后续行存在地址，按表头跳过。
	if len(got) != 1 || got[0] != "0x000000000000000000000000000000000000dead" {
		t.Fatalf("unexpected addresses: %v", got)
	}
}

func TestReadAddressesMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := ReadAddresses(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestWriteResultsRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	records := []report.Record{
		{Address: "0x000000000000000000000000000000000000dEaD", Allocation: "1500", Status: "Success"},
		{Address: "bogus", Allocation: "0", Status: "Invalid address format"},
	}
	if err := WriteResults(path, records); err != nil {
		t.Fatalf("%+v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("unexpected csv contents:\n%s", raw)
	}
	if lines[0] != "address,uq_allocation,status" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "0x000000000000000000000000000000000000dEaD,1500,Success" {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	if lines[2] != "bogus,0,Invalid address format" {
		t.Fatalf("unexpected second row: %q", lines[2])
	}
}
