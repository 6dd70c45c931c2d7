package report

import (
	"math/big"
	"strings"
	"testing"

	"uqalloc-query/internal/domain/model"
)

func sampleResults() ([]model.QueryResult, model.RunSummary) {
	results := []model.QueryResult{
		{
			Position:   0,
			Address:    "0x000000000000000000000000000000000000dEaD",
			Allocation: big.NewInt(1500),
			Status:     model.StatusSuccess,
		},
		{
			Position:   1,
			Address:    "bogus",
			Allocation: big.NewInt(0),
			Status:     model.StatusInvalidAddress,
		},
		{
			Position:   2,
			Address:    "0x1111111111111111111111111111111111111111",
			Allocation: big.NewInt(0),
			Status:     model.StatusTransportError,
			Detail:     "connection refused",
		},
	}
	summary := model.RunSummary{
		Total:           3,
		Successful:      1,
		Failed:          2,
		TotalAllocation: big.NewInt(1500),
	}
	return results, summary
}

func TestTableLayout(t *testing.T) {
	t.Parallel()

	results, summary := sampleResults()
	out := Table(results, summary)
	lines := strings.Split(out, "\n")

	if lines[0] != strings.Repeat("=", 80) || lines[1] != "RESULTS:" {
		t.Fatalf("unexpected table header:\n%s", out)
	}
	header := lines[3]
	if !strings.HasPrefix(header, "Address") || !strings.Contains(header, "Allocation") || !strings.HasSuffix(header, "Status") {
		t.Fatalf("unexpected column header: %q", header)
	}
	// Allocation 列固定从第 46 列开始。
	if !strings.HasPrefix(lines[5], "0x000000000000000000000000000000000000dEaD") {
		t.Fatalf("unexpected first row: %q", lines[5])
	}
	if lines[5][46:50] != "1500" {
		t.Fatalf("allocation column misaligned: %q", lines[5])
	}
	if !strings.Contains(lines[6], "N/A") || !strings.Contains(lines[6], "Invalid address format") {
		t.Fatalf("invalid row missing N/A placeholder: %q", lines[6])
	}
	if !strings.Contains(lines[7], "N/A") || !strings.Contains(lines[7], "RPC error: connection refused") {
		t.Fatalf("transport row malformed: %q", lines[7])
	}
}

func TestTableRowOrderMatchesInput(t *testing.T) {
	t.Parallel()

	results, summary := sampleResults()
	out := Table(results, summary)

	first := strings.Index(out, "0x000000000000000000000000000000000000dEaD")
	second := strings.Index(out, "bogus")
	third := strings.Index(out, "0x1111111111111111111111111111111111111111")
	if !(first < second && second < third) {
		t.Fatalf("rows out of order:\n%s", out)
	}
}

func TestSummaryBlock(t *testing.T) {
	t.Parallel()

	_, summary := sampleResults()
	out := SummaryBlock(summary)

	for _, want := range []string{
		"Summary:",
		"  Total addresses queried: 3",
		"  Successful queries: 1",
		"  Failed queries: 2",
		"  Total allocation found: 1500",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRecordsKeepFailuresNumeric(t *testing.T) {
	t.Parallel()

	results, _ := sampleResults()
	recs := Records(results)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].Allocation != "1500" || recs[0].Status != "Success" {
		t.Fatalf("unexpected success record: %+v", recs[0])
	}
	// 记录集里失败行保留数值 0，N/A 只属于表格展示。
	if recs[1].Allocation != "0" || recs[2].Allocation != "0" {
		t.Fatalf("failed records should carry 0 allocation: %+v", recs)
	}
	if recs[2].Status != "RPC error: connection refused" {
		t.Fatalf("unexpected status rendering: %+v", recs[2])
	}
}
