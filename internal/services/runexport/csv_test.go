package runexport

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateRunCSV(t *testing.T) {
	store, dbPath, runID := setupExportDB(t)
	ctx := context.Background()

	outPath := filepath.Join(t.TempDir(), "exports", "run_out.csv")
	res, err := GenerateRunCSV(ctx, store, CSVOptions{
		RunID:    runID,
		DBPath:   dbPath,
		OutPath:  outPath,
		Operator: "tester",
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if res.ReportID == "" {
		t.Fatalf("report id missing: %+v", res)
	}
	if res.RowCount != 3 {
		t.Fatalf("unexpected row count: %d", res.RowCount)
	}
	if len(res.CSVSHA256) != 64 {
		t.Fatalf("unexpected csv sha256: %s", res.CSVSHA256)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("csv not written: %+v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("unexpected csv rows: %d", len(rows))
	}
	if rows[0][0] != "address" || rows[0][1] != "uq_allocation" || rows[0][2] != "status" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "0x000000000000000000000000000000000000dEaD" || rows[1][1] != "1500" || rows[1][2] != "Success" {
		t.Fatalf("unexpected success row: %v", rows[1])
	}
	if rows[2][1] != "0" || rows[2][2] != "Invalid address format" {
		t.Fatalf("unexpected invalid row: %v", rows[2])
	}
	if rows[3][2] != "RPC error: connection refused" {
		t.Fatalf("unexpected transport row: %v", rows[3])
	}

	report, err := store.GetReportByID(ctx, res.ReportID)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if report == nil || report.ReportType != "run_csv" {
		t.Fatalf("unexpected report row: %+v", report)
	}
	if report.SHA256 != res.CSVSHA256 {
		t.Fatalf("report sha mismatch: %s != %s", report.SHA256, res.CSVSHA256)
	}
}

func TestGenerateRunCSVMissingRun(t *testing.T) {
	store, dbPath, _ := setupExportDB(t)

	_, err := GenerateRunCSV(context.Background(), store, CSVOptions{
		RunID:   "run_missing",
		DBPath:  dbPath,
		OutPath: filepath.Join(t.TempDir(), "out.csv"),
	})
	if err == nil {
		t.Fatalf("expected error for missing run")
	}
}
