package main

import (
	"archive/zip"
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	sqliteadapter "uqalloc-query/internal/adapters/store/sqlite"
	"uqalloc-query/internal/app"
	"uqalloc-query/internal/domain/model"
	"uqalloc-query/internal/platform/hash"
	"uqalloc-query/internal/services/auditverify"

	_ "modernc.org/sqlite"
)

// runVerify 是 verify 子命令路由：
// - verify zip：复算导出包内 hashes.sha256 列出的文件哈希，并复核 manifest 审计链
// - verify reports：复核 reports.file_path 文件哈希（与入库 sha256 对比）
// - verify audits：基于数据库重算审计链
func runVerify(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printVerifyUsage()
		return nil
	}

	switch args[0] {
	case "zip":
		return runVerifyZip(ctx, args[1:])
	case "reports":
		return runVerifyReports(ctx, args[1:])
	case "audits":
		return runVerifyAudits(ctx, args[1:])
	default:
		printVerifyUsage()
		return fmt.Errorf("unknown verify command: %s", args[0])
	}
}

func printVerifyUsage() {
	fmt.Println("Usage:")
	fmt.Println("  uqalloc-cli verify zip --zip PATH_TO_ZIP")
	fmt.Println("  uqalloc-cli verify reports --run-id RUN_ID [--db data/uqalloc.db]")
	fmt.Println("  uqalloc-cli verify audits --run-id RUN_ID [--db data/uqalloc.db] [--limit 5000]")
}

// hashListEntry 是 hashes.sha256 的一行：期望哈希 + ZIP 内路径。
type hashListEntry struct {
	SHA256 string
	Path   string
}

// zipVerifyItem 是单个 ZIP 条目的复核结论。
type zipVerifyItem struct {
	Path     string
	Expected string
	Actual   string
	Status   string // ok|missing|mismatch|error
	Err      string
}

func (it zipVerifyItem) failLine() string {
	line := fmt.Sprintf("FAIL %s status=%s expected=%s actual=%s", it.Path, it.Status, it.Expected, it.Actual)
	if it.Err != "" {
		line += " error=" + it.Err
	}
	return line
}

func runVerifyZip(ctx context.Context, args []string) error {
	_ = ctx // 预留：后续可给逐文件复核加超时/取消。

	fs := flag.NewFlagSet("verify zip", flag.ContinueOnError)
	zipPath := fs.String("zip", "", "path to run export zip (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*zipPath) == "" {
		return fmt.Errorf("--zip is required")
	}

	r, err := zip.OpenReader(*zipPath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	entries := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		entries[f.Name] = f
	}

	listFile, ok := entries["hashes.sha256"]
	if !ok {
		return fmt.Errorf("hashes.sha256 not found in zip")
	}
	expected, err := parseHashList(listFile)
	if err != nil {
		return err
	}

	items := make([]zipVerifyItem, 0, len(expected))
	failed := 0
	for _, e := range expected {
		item := checkZipEntry(entries, e)
		if item.Status != "ok" {
			failed++
		}
		items = append(items, item)
	}

	fmt.Println("run zip verify completed")
	fmt.Printf("zip=%s\n", *zipPath)
	fmt.Printf("files_total=%d ok=%d failed=%d\n", len(items), len(items)-failed, failed)
	if failed > 0 {
		for _, it := range items {
			if it.Status != "ok" {
				fmt.Println(it.failLine())
			}
		}
		return fmt.Errorf("run zip verify failed: %d files mismatch/missing", failed)
	}

	// 文件哈希全部通过后再复核 manifest 内嵌的审计链。
	// manifest 缺失或无法解析按“无审计链可核”处理，不算失败。
	audits, ok := manifestAudits(entries["manifest.json"])
	if !ok {
		return nil
	}
	res := auditverify.VerifyAuditLogs(audits)
	fmt.Printf("audit_chain_total=%d failed=%d prev_hash_failed=%d chain_hash_failed=%d\n",
		res.Total, res.Failed, res.PrevHashFailed, res.ChainHashFailed)
	if !res.OK {
		for _, f := range res.Failures {
			fmt.Printf("FAIL audit_chain index=%d event_id=%s message=%s expected_prev=%s actual_prev=%s expected_hash=%s actual_hash=%s\n",
				f.Index, f.EventID, f.Message, f.ExpectedPrevHash, f.ActualPrevHash, f.ExpectedChainHash, f.ActualChainHash,
			)
		}
		return fmt.Errorf("run zip verify failed: audit chain mismatch")
	}
	return nil
}

// parseHashList 读取 sha256sum 兼容格式：<sha256><空白><path>。
// "#" 开头的注释行、空行和非 64 位 hex 的异常行直接跳过。
func parseHashList(f *zip.File) ([]hashListEntry, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open hashes.sha256: %w", err)
	}
	defer rc.Close()

	var out []hashListEntry
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 64 {
			continue
		}
		out = append(out, hashListEntry{
			SHA256: fields[0],
			Path:   strings.Join(fields[1:], " "),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read hashes.sha256: %w", err)
	}
	return out, nil
}

func checkZipEntry(entries map[string]*zip.File, e hashListEntry) zipVerifyItem {
	item := zipVerifyItem{Path: e.Path, Expected: e.SHA256}

	f, ok := entries[e.Path]
	if !ok {
		item.Status = "missing"
		return item
	}

	rc, err := f.Open()
	if err != nil {
		item.Status = "error"
		item.Err = err.Error()
		return item
	}
	defer rc.Close()

	sum, _, err := hash.Reader(rc)
	if err != nil {
		item.Status = "error"
		item.Err = err.Error()
		return item
	}
	item.Actual = sum

	if strings.EqualFold(item.Actual, e.SHA256) {
		item.Status = "ok"
	} else {
		item.Status = "mismatch"
	}
	return item
}

// manifestAudits 从 manifest.json 解出审计链；文件缺失或解析失败返回 ok=false。
func manifestAudits(f *zip.File) ([]model.AuditLog, bool) {
	if f == nil {
		return nil, false
	}
	rc, err := f.Open()
	if err != nil {
		return nil, false
	}
	defer rc.Close()

	var payload struct {
		Audits []model.AuditLog `json:"audits"`
	}
	if err := json.NewDecoder(rc).Decode(&payload); err != nil {
		return nil, false
	}
	return payload.Audits, true
}

// runVerifyReports 重算一次运行的全部报告产物哈希，与 reports 表入库值比对。
func runVerifyReports(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("verify reports", flag.ContinueOnError)
	dbPath := fs.String("db", envOr("UQALLOC_DB", cfg.DBPath), "sqlite database path")
	runID := fs.String("run-id", "", "run id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id := strings.TrimSpace(*runID)
	if id == "" {
		return fmt.Errorf("--run-id is required")
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}

	migrator := sqliteadapter.NewMigrator(db)
	if err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	store := sqliteadapter.NewStore(db)
	ov, err := store.GetRunOverview(ctx, id)
	if err != nil {
		return err
	}
	if ov == nil {
		return fmt.Errorf("run not found: %s", id)
	}
	reports, err := store.ListReportsByRun(ctx, id)
	if err != nil {
		return err
	}

	type failure struct {
		rep    model.ReportInfo
		status string
		actual string
		errMsg string
	}
	var failures []failure
	for _, rep := range reports {
		sum, _, err := hash.File(rep.FilePath)
		if err != nil {
			// 常见：产物被删除/移动，或权限不足。
			failures = append(failures, failure{rep: rep, status: "missing", errMsg: err.Error()})
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(sum), strings.TrimSpace(rep.SHA256)) {
			failures = append(failures, failure{rep: rep, status: "mismatch", actual: sum})
		}
	}

	fmt.Println("report sha256 verify completed")
	fmt.Printf("run_id=%s total=%d ok=%d failed=%d\n", id, len(reports), len(reports)-len(failures), len(failures))
	for _, f := range failures {
		line := fmt.Sprintf("FAIL report_id=%s type=%s status=%s expected=%s actual=%s path=%s",
			f.rep.ReportID, f.rep.ReportType, f.status, f.rep.SHA256, f.actual, f.rep.FilePath)
		if f.errMsg != "" {
			line += " error=" + f.errMsg
		}
		fmt.Println(line)
	}
	if len(failures) > 0 {
		return fmt.Errorf("report sha256 verify failed: %d items mismatch/missing", len(failures))
	}
	return nil
}

// runVerifyAudits 基于数据库重算一次运行的审计链。
// 只读已有表，不做迁移；库结构缺失时按查询错误报出。
func runVerifyAudits(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("verify audits", flag.ContinueOnError)
	dbPath := fs.String("db", envOr("UQALLOC_DB", cfg.DBPath), "sqlite database path")
	runID := fs.String("run-id", "", "run id (required)")
	limit := fs.Int("limit", 5000, "max audit logs to verify (default 5000)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id := strings.TrimSpace(*runID)
	if id == "" {
		return fmt.Errorf("--run-id is required")
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	_, _ = db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`)

	store := sqliteadapter.NewStore(db)
	logs, err := store.ListAuditLogs(ctx, id, *limit)
	if err != nil {
		return err
	}

	res := auditverify.VerifyAuditLogs(logs)
	fmt.Println("audit chain verify completed")
	fmt.Printf("run_id=%s total=%d failed=%d prev_hash_failed=%d chain_hash_failed=%d\n",
		id, res.Total, res.Failed, res.PrevHashFailed, res.ChainHashFailed)
	if !res.OK {
		for _, f := range res.Failures {
			fmt.Printf("FAIL index=%d event_id=%s message=%s expected_prev=%s actual_prev=%s expected_hash=%s actual_hash=%s\n",
				f.Index, f.EventID, f.Message, f.ExpectedPrevHash, f.ActualPrevHash, f.ExpectedChainHash, f.ActualChainHash,
			)
		}
		return fmt.Errorf("audit chain verify failed")
	}
	return nil
}
