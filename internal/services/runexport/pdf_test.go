package runexport

import (
	"context"
	"database/sql"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	sqliteadapter "uqalloc-query/internal/adapters/store/sqlite"
	"uqalloc-query/internal/domain/model"

	_ "modernc.org/sqlite"
)

func setupExportDB(t *testing.T) (*sqliteadapter.Store, string, string) {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "uqalloc.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		t.Fatalf("%+v", err)
	}

	if err := sqliteadapter.NewMigrator(db).Up(ctx); err != nil {
		t.Fatalf("%+v", err)
	}

	store := sqliteadapter.NewStore(db)
	runID, err := store.SaveRun(ctx, model.RunRecord{
		RPCURL:          "https://mainnet.optimism.io",
		ChainID:         "10",
		ContractAddress: "0x777172385ac1d2e4ac61a9a98b0686cb4701b3a7",
		FunctionName:    "uqAlloc",
		Operator:        "tester",
		Total:           3,
		Successful:      1,
		Failed:          2,
		TotalAllocation: "1500",
		StartedAt:       1700000000,
		FinishedAt:      1700000005,
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	results := []model.QueryResult{
		{
			Position:     0,
			InputAddress: "0x000000000000000000000000000000000000dead",
			Address:      "0x000000000000000000000000000000000000dEaD",
			Allocation:   big.NewInt(1500),
			Status:       model.StatusSuccess,
		},
		{
			Position:     1,
			InputAddress: "bogus",
			Address:      "bogus",
			Allocation:   big.NewInt(0),
			Status:       model.StatusInvalidAddress,
		},
		{
			Position:     2,
			InputAddress: "0x1111111111111111111111111111111111111111",
			Address:      "0x1111111111111111111111111111111111111111",
			Allocation:   big.NewInt(0),
			Status:       model.StatusTransportError,
			Detail:       "connection refused",
		},
	}
	if err := store.SaveResults(ctx, runID, results); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := store.AppendAudit(ctx, runID, "alloc_query", "run_finish", "success", "tester", "test", map[string]any{"total": 3}); err != nil {
		t.Fatalf("%+v", err)
	}

	return store, dbPath, runID
}

func TestGenerateRunPDF(t *testing.T) {
	store, dbPath, runID := setupExportDB(t)
	ctx := context.Background()

	res, err := GenerateRunPDF(ctx, store, PDFOptions{
		RunID:    runID,
		DBPath:   dbPath,
		Operator: "tester",
		Note:     "nightly check",
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if res.ReportID == "" {
		t.Fatalf("report id missing: %+v", res)
	}
	if len(res.PDFSHA256) != 64 {
		t.Fatalf("unexpected pdf sha256: %s", res.PDFSHA256)
	}
	fi, err := os.Stat(res.PDFPath)
	if err != nil {
		t.Fatalf("pdf not written: %+v", err)
	}
	if fi.Size() == 0 {
		t.Fatalf("pdf file is empty")
	}

	report, err := store.GetReportByID(ctx, res.ReportID)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if report == nil || report.ReportType != "run_pdf" {
		t.Fatalf("unexpected report row: %+v", report)
	}
	if report.SHA256 != res.PDFSHA256 {
		t.Fatalf("report sha mismatch: %s != %s", report.SHA256, res.PDFSHA256)
	}
}

func TestGenerateRunPDFMasked(t *testing.T) {
	store, dbPath, runID := setupExportDB(t)

	res, err := GenerateRunPDF(context.Background(), store, PDFOptions{
		RunID:   runID,
		DBPath:  dbPath,
		Privacy: "masked",
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := os.Stat(res.PDFPath); err != nil {
		t.Fatalf("pdf not written: %+v", err)
	}
}

func TestGenerateRunPDFMissingRun(t *testing.T) {
	store, dbPath, _ := setupExportDB(t)

	_, err := GenerateRunPDF(context.Background(), store, PDFOptions{
		RunID:  "run_missing",
		DBPath: dbPath,
	})
	if err == nil {
		t.Fatalf("expected error for missing run")
	}
}
