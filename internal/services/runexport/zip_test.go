package runexport

import (
	"archive/zip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateRunZip(t *testing.T) {
	store, dbPath, runID := setupExportDB(t)
	ctx := context.Background()

	// 准备一份已登记的 CSV 报告文件，让 ZIP 有产物可打包；
	// 再登记一个指向不存在文件的报告，验证 best-effort 跳过。
	reportsDir := filepath.Join(filepath.Dir(dbPath), "reports")
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		t.Fatalf("%+v", err)
	}
	csvPath := filepath.Join(reportsDir, "run_out.csv")
	if err := os.WriteFile(csvPath, []byte("address,uq_allocation,status\n"), 0o644); err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := store.SaveReport(ctx, runID, "run_csv", csvPath, "cafe", "test", "ready"); err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := store.SaveReport(ctx, runID, "run_csv", filepath.Join(reportsDir, "absent.csv"), "dead", "test", "ready"); err != nil {
		t.Fatalf("%+v", err)
	}

	res, err := GenerateRunZip(ctx, store, ZipOptions{
		RunID:    runID,
		DBPath:   dbPath,
		Operator: "tester",
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if res.ReportID == "" || len(res.ZipSHA256) != 64 {
		t.Fatalf("unexpected zip result: %+v", res)
	}
	hasSkipWarning := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "absent.csv") {
			hasSkipWarning = true
		}
	}
	if !hasSkipWarning {
		t.Fatalf("expected skip warning for missing report file: %v", res.Warnings)
	}

	zr, err := zip.OpenReader(res.ZipPath)
	if err != nil {
		t.Fatalf("open zip: %+v", err)
	}
	defer zr.Close()

	entries := map[string]*zip.File{}
	for _, f := range zr.File {
		entries[f.Name] = f
	}
	for _, want := range []string{"manifest.json", "hashes.sha256", "reports/run_out.csv"} {
		if _, ok := entries[want]; !ok {
			t.Fatalf("zip missing entry %s; got %v", want, zipNames(zr))
		}
	}

	mf, err := entries["manifest.json"].Open()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	raw, err := io.ReadAll(mf)
	mf.Close()
	if err != nil {
		t.Fatalf("%+v", err)
	}

	var manifest ZipManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		t.Fatalf("parse manifest: %+v", err)
	}
	if manifest.Schema != manifestSchemaV1 {
		t.Fatalf("unexpected manifest schema: %s", manifest.Schema)
	}
	if manifest.Run == nil || manifest.Run.RunID != runID {
		t.Fatalf("unexpected manifest run: %+v", manifest.Run)
	}
	if len(manifest.Results) != 3 {
		t.Fatalf("expected 3 manifest results, got %d", len(manifest.Results))
	}
	if len(manifest.Audits) == 0 {
		t.Fatalf("manifest audits missing")
	}

	report, err := store.GetReportByID(ctx, res.ReportID)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if report == nil || report.ReportType != "run_zip" {
		t.Fatalf("unexpected report row: %+v", report)
	}
}

func zipNames(zr *zip.ReadCloser) []string {
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}
