package runview

import (
	"context"
	"database/sql"
	"fmt"

	sqliteadapter "uqalloc-query/internal/adapters/store/sqlite"
	"uqalloc-query/internal/domain/model"

	_ "modernc.org/sqlite"
)

// RunView 是单次运行的结果明细查询结果。
type RunView struct {
	Overview *model.RunOverview `json:"overview,omitempty"`
	Results  []model.ResultInfo `json:"results"`
}

// ReportView 是报告索引查询结果。
type ReportView struct {
	Overview *model.RunOverview `json:"overview,omitempty"`
	Report   *model.ReportInfo  `json:"report,omitempty"`
}

// openRun 打开库并确认 runID 存在，返回 store 与运行摘要。
// 调用方负责 close。
func openRun(ctx context.Context, dbPath, runID string) (*sql.DB, *sqliteadapter.Store, *model.RunOverview, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	store := sqliteadapter.NewStore(db)
	overview, err := store.GetRunOverview(ctx, runID)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	if overview == nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("run not found: %s", runID)
	}
	return db, store, overview, nil
}

// GetRunView 查询运行摘要与全部结果明细（按输入顺序）。
func GetRunView(ctx context.Context, dbPath, runID string) (*RunView, error) {
	db, store, overview, err := openRun(ctx, dbPath, runID)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	results, err := store.ListResultsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.ResultInfo{}
	}
	return &RunView{Overview: overview, Results: results}, nil
}

// GetReportView 查询运行的报告索引。reportID 为空时返回最新报告。
func GetReportView(ctx context.Context, dbPath, runID, reportID string) (*ReportView, error) {
	db, store, overview, err := openRun(ctx, dbPath, runID)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var report *model.ReportInfo
	if reportID != "" {
		report, err = store.GetReportByID(ctx, reportID)
	} else {
		report, err = store.GetLatestReportByRun(ctx, runID)
	}
	if err != nil {
		return nil, err
	}
	return &ReportView{Overview: overview, Report: report}, nil
}
