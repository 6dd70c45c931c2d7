package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"uqalloc-query/internal/domain/model"
	"uqalloc-query/internal/platform/hash"
	"uqalloc-query/internal/platform/id"
)

// Store 封装与 SQLite 的读写逻辑。
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetSchemaMetaValue 查询 schema_meta 表指定 key 的 value。
func (s *Store) GetSchemaMetaValue(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `
		SELECT value
		FROM schema_meta
		WHERE key = ?
		LIMIT 1
	`, key).Scan(&v)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("query schema_meta %s: %w", key, err)
	}
	return v, nil
}

// SaveRun 写入一次批量查询的运行记录；未传 run_id 时自动生成。
func (s *Store) SaveRun(ctx context.Context, run model.RunRecord) (string, error) {
	runID := strings.TrimSpace(run.RunID)
	if runID == "" {
		runID = id.New("run")
	}
	totalAllocation := run.TotalAllocation
	if totalAllocation == "" {
		totalAllocation = "0"
	}
	status := run.Status
	if status == "" {
		status = "completed"
	}
	now := time.Now().Unix()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_runs(
			run_id, rpc_url, chain_id, contract_address, function_name,
			profile_sha256, operator, note, total, successful, failed,
			total_allocation, started_at, finished_at, status, created_at
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		run.RPCURL,
		nullIfEmpty(run.ChainID),
		run.ContractAddress,
		run.FunctionName,
		nullIfEmpty(run.ProfileSHA256),
		nullIfEmpty(run.Operator),
		nullIfEmpty(run.Note),
		run.Total,
		run.Successful,
		run.Failed,
		totalAllocation,
		run.StartedAt,
		run.FinishedAt,
		status,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("insert query run: %w", err)
	}
	return runID, nil
}

// SaveResults 批量写入查询结果，使用事务保证原子性。
// record_hash 在落库时计算，固化每行的可复核指纹。
func (s *Store) SaveResults(ctx context.Context, runID string, results []model.QueryResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save results: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO query_results(
			result_id, run_id, position, input_address, address,
			allocation, status, detail, record_hash, created_at
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert results: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, r := range results {
		allocation := r.AllocationString()
		recordHash := hash.Text(
			runID,
			fmt.Sprintf("%d", r.Position),
			r.InputAddress,
			r.Address,
			allocation,
			string(r.Status),
			r.Detail,
		)

		_, err = stmt.ExecContext(ctx,
			id.New("res"),
			runID,
			r.Position,
			r.InputAddress,
			r.Address,
			allocation,
			string(r.Status),
			nullIfEmpty(r.Detail),
			recordHash,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert query result %d: %w", r.Position, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save results: %w", err)
	}
	return nil
}

// AppendAudit 写入审计日志，并生成链式 hash 以便后续校验完整性。
func (s *Store) AppendAudit(ctx context.Context, runID, eventType, action, status, actor, source string, detail any) error {
	detailJSON := []byte("{}")
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err == nil {
			detailJSON = raw
		}
	}

	prev := ""
	err := s.db.QueryRowContext(ctx, `
		SELECT chain_hash
		FROM audit_logs
		WHERE run_id = ?
		ORDER BY occurred_at DESC, event_id DESC
		LIMIT 1
	`, runID).Scan(&prev)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("query previous chain hash: %w", err)
	}

	now := time.Now().Unix()
	eventID := id.New("evt")
	chain := hash.Text(prev, runID, eventType, action, status, fmt.Sprintf("%d", now), string(detailJSON))

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_logs(
			event_id, run_id, event_type, action, status,
			actor, source, detail_json, occurred_at, chain_prev_hash, chain_hash
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, eventID, runID, eventType, action, status, actor, source, string(detailJSON), now, nullIfEmpty(prev), chain)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

// SaveReport 记录报告产物信息，供导出与校验流程追踪。
func (s *Store) SaveReport(ctx context.Context, runID, reportType, filePath, sha256, generatorVersion, status string) (string, error) {
	reportID := id.New("report")
	now := time.Now().Unix()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports(
			report_id, run_id, report_type, file_path, sha256, generated_at, generator_version, status
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, reportID, runID, reportType, filePath, sha256, now, generatorVersion, status)
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	return reportID, nil
}

// GetRunOverview 返回单次运行的聚合摘要（结果数/报告数）。
func (s *Store) GetRunOverview(ctx context.Context, runID string) (*model.RunOverview, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			r.run_id,
			r.rpc_url,
			COALESCE(r.chain_id, ''),
			r.contract_address,
			r.function_name,
			COALESCE(r.profile_sha256, ''),
			COALESCE(r.operator, ''),
			COALESCE(r.note, ''),
			r.total,
			r.successful,
			r.failed,
			r.total_allocation,
			r.started_at,
			r.finished_at,
			r.status,
			r.created_at,
			(SELECT COUNT(*) FROM query_results q WHERE q.run_id = r.run_id),
			(SELECT COUNT(*) FROM reports p WHERE p.run_id = r.run_id)
		FROM query_runs r
		WHERE r.run_id = ?
	`, runID)

	var out model.RunOverview
	if err := row.Scan(
		&out.RunID,
		&out.RPCURL,
		&out.ChainID,
		&out.ContractAddress,
		&out.FunctionName,
		&out.ProfileSHA256,
		&out.Operator,
		&out.Note,
		&out.Total,
		&out.Successful,
		&out.Failed,
		&out.TotalAllocation,
		&out.StartedAt,
		&out.FinishedAt,
		&out.Status,
		&out.CreatedAt,
		&out.ResultCount,
		&out.ReportCount,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query run overview: %w", err)
	}
	return &out, nil
}

// ListRuns 返回运行列表，按开始时间倒序。
func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]model.RunListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			run_id,
			contract_address,
			rpc_url,
			total,
			successful,
			failed,
			total_allocation,
			status,
			started_at,
			finished_at
		FROM query_runs
		ORDER BY started_at DESC, created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []model.RunListItem
	for rows.Next() {
		var item model.RunListItem
		if err := rows.Scan(
			&item.RunID,
			&item.ContractAddress,
			&item.RPCURL,
			&item.Total,
			&item.Successful,
			&item.Failed,
			&item.TotalAllocation,
			&item.Status,
			&item.StartedAt,
			&item.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run list item: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run list: %w", err)
	}
	if out == nil {
		out = []model.RunListItem{}
	}
	return out, nil
}

// ListResultsByRun 返回一次运行的全部结果，按输入顺序排列。
func (s *Store) ListResultsByRun(ctx context.Context, runID string) ([]model.ResultInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			result_id,
			run_id,
			position,
			input_address,
			address,
			allocation,
			status,
			COALESCE(detail, ''),
			record_hash,
			created_at
		FROM query_results
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results by run: %w", err)
	}
	defer rows.Close()

	var out []model.ResultInfo
	for rows.Next() {
		var item model.ResultInfo
		var status string
		if err := rows.Scan(
			&item.ResultID,
			&item.RunID,
			&item.Position,
			&item.InputAddress,
			&item.Address,
			&item.Allocation,
			&status,
			&item.Detail,
			&item.RecordHash,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		item.Status = model.StatusKind(status)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	if out == nil {
		out = []model.ResultInfo{}
	}
	return out, nil
}

// ListAuditLogs 返回运行的审计日志（按时间升序）。
func (s *Store) ListAuditLogs(ctx context.Context, runID string, limit int) ([]model.AuditLog, error) {
	if limit <= 0 {
		limit = 500
	}
	if limit > 5000 {
		limit = 5000
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			event_id,
			run_id,
			event_type,
			action,
			status,
			COALESCE(actor, ''),
			COALESCE(source, ''),
			COALESCE(detail_json, '{}'),
			occurred_at,
			COALESCE(chain_prev_hash, ''),
			chain_hash
		FROM audit_logs
		WHERE run_id = ?
		ORDER BY occurred_at ASC, event_id ASC
		LIMIT ?
	`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var out []model.AuditLog
	for rows.Next() {
		var item model.AuditLog
		var detail string
		if err := rows.Scan(
			&item.EventID,
			&item.RunID,
			&item.EventType,
			&item.Action,
			&item.Status,
			&item.Actor,
			&item.Source,
			&detail,
			&item.OccurredAt,
			&item.ChainPrevHash,
			&item.ChainHash,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		item.DetailJSON = json.RawMessage(detail)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	if out == nil {
		out = []model.AuditLog{}
	}
	return out, nil
}

// GetLatestReportByRun 返回运行最新的报告索引。
func (s *Store) GetLatestReportByRun(ctx context.Context, runID string) (*model.ReportInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT report_id, run_id, report_type, file_path, sha256, generated_at, generator_version, status
		FROM reports
		WHERE run_id = ?
		ORDER BY generated_at DESC, report_id DESC
		LIMIT 1
	`, runID)
	return scanReportInfo(row)
}

// GetReportByID 按报告 ID 查询报告索引。
func (s *Store) GetReportByID(ctx context.Context, reportID string) (*model.ReportInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT report_id, run_id, report_type, file_path, sha256, generated_at, generator_version, status
		FROM reports
		WHERE report_id = ?
		LIMIT 1
	`, reportID)
	return scanReportInfo(row)
}

// ListReportsByRun 返回运行全部报告索引，按生成时间倒序。
func (s *Store) ListReportsByRun(ctx context.Context, runID string) ([]model.ReportInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, run_id, report_type, file_path, sha256, generated_at, generator_version, status
		FROM reports
		WHERE run_id = ?
		ORDER BY generated_at DESC, report_id DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query reports by run: %w", err)
	}
	defer rows.Close()

	var out []model.ReportInfo
	for rows.Next() {
		var item model.ReportInfo
		if err := rows.Scan(
			&item.ReportID,
			&item.RunID,
			&item.ReportType,
			&item.FilePath,
			&item.SHA256,
			&item.GeneratedAt,
			&item.GeneratorVersion,
			&item.Status,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	if out == nil {
		out = []model.ReportInfo{}
	}
	return out, nil
}

func scanReportInfo(row *sql.Row) (*model.ReportInfo, error) {
	var out model.ReportInfo
	if err := row.Scan(
		&out.ReportID,
		&out.RunID,
		&out.ReportType,
		&out.FilePath,
		&out.SHA256,
		&out.GeneratedAt,
		&out.GeneratorVersion,
		&out.Status,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query report info: %w", err)
	}
	return &out, nil
}

// 空字符串按 NULL 写入，避免无意义空值污染查询条件。
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
