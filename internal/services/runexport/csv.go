package runexport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"uqalloc-query/internal/adapters/csvio"
	sqliteadapter "uqalloc-query/internal/adapters/store/sqlite"
	"uqalloc-query/internal/platform/hash"
	"uqalloc-query/internal/services/report"
)

// 运行 CSV 导出（run_csv）
//
// 与查询时的 --output-csv 不同：这里从数据库读取历史运行的结果重新导出，
// 文件格式两者保持一致（address,uq_allocation,status），方便脚本复用。

type CSVOptions struct {
	RunID    string
	DBPath   string
	OutPath  string
	Operator string
}

type CSVResult struct {
	ReportID    string `json:"report_id"`
	CSVPath     string `json:"csv_path"`
	CSVSHA256   string `json:"csv_sha256"`
	RowCount    int    `json:"row_count"`
	GeneratedAt int64  `json:"generated_at"`
}

const csvGeneratorVer = "runexport-csv-0.1.0"

// GenerateRunCSV 将一次历史运行的结果导出为 CSV，并登记为 report_type=run_csv。
func GenerateRunCSV(ctx context.Context, store *sqliteadapter.Store, opts CSVOptions) (*CSVResult, error) {
	runID := strings.TrimSpace(opts.RunID)
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}
	outPath := strings.TrimSpace(opts.OutPath)
	if outPath == "" {
		return nil, fmt.Errorf("out path is required")
	}
	operator := strings.TrimSpace(opts.Operator)
	if operator == "" {
		operator = "system"
	}

	ov, err := store.GetRunOverview(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run overview: %w", err)
	}
	if ov == nil {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	rows, err := store.ListResultsByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	records := make([]report.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, report.Record{
			Address:    r.Address,
			Allocation: r.Allocation,
			Status:     r.StatusLine(),
		})
	}

	if dir := filepath.Dir(outPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir csv out dir: %w", err)
		}
	}
	if err := csvio.WriteResults(outPath, records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	sum, _, err := hash.File(outPath)
	if err != nil {
		return nil, fmt.Errorf("sha256 csv: %w", err)
	}

	reportID, err := store.SaveReport(ctx, runID, "run_csv", outPath, sum, csvGeneratorVer, "ready")
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	now := time.Now().Unix()
	_ = store.AppendAudit(ctx, runID, "export", "run_csv", "success", operator, "runexport.GenerateRunCSV", map[string]any{
		"report_id":  reportID,
		"csv_path":   outPath,
		"csv_sha256": sum,
		"row_count":  len(records),
	})

	return &CSVResult{
		ReportID:    reportID,
		CSVPath:     outPath,
		CSVSHA256:   sum,
		RowCount:    len(records),
		GeneratedAt: now,
	}, nil
}
