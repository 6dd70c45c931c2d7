package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"uqalloc-query/internal/adapters/csvio"
	"uqalloc-query/internal/adapters/evm"
	"uqalloc-query/internal/adapters/profile"
	sqliteadapter "uqalloc-query/internal/adapters/store/sqlite"
	"uqalloc-query/internal/app"
	"uqalloc-query/internal/domain/model"
	"uqalloc-query/internal/services/allocquery"
	"uqalloc-query/internal/services/privacy"
	"uqalloc-query/internal/services/report"
	"uqalloc-query/internal/services/runexport"
	"uqalloc-query/internal/services/runview"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// CLI 入口。所有子命令错误都统一输出到 stderr 并返回非 0 状态码。
func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run 是一级命令路由：query / migrate / profile / runs / export / verify / version。
func run(ctx context.Context, args []string) error {
	// .env 仅在文件存在时生效，便于本地覆盖 UQALLOC_RPC_URL / UQALLOC_DB 等。
	_ = godotenv.Load()

	if len(args) == 0 {
		printUsage()
		return nil
	}

	switch args[0] {
	case "query":
		return runQuery(ctx, args[1:])
	case "migrate":
		return runMigrate(ctx, args[1:])
	case "profile":
		return runProfile(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "verify":
		return runVerify(ctx, args[1:])
	case "version":
		return runVersion(args[1:])
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// queryRunOutput 是 query --json 的输出载荷。
type queryRunOutput struct {
	RunID      string              `json:"run_id,omitempty"`
	RPCURL     string              `json:"rpc_url"`
	ChainID    string              `json:"chain_id"`
	Contract   string              `json:"contract"`
	Function   string              `json:"function"`
	OutputCSV  string              `json:"output_csv,omitempty"`
	Results    []model.QueryResult `json:"results"`
	Summary    model.RunSummary    `json:"summary"`
	StartedAt  int64               `json:"started_at"`
	FinishedAt int64               `json:"finished_at"`
}

// runQuery 执行批量查询全流程（装载地址 -> 建连 -> 逐地址调用 -> 输出 -> 入库）。
//
// 控制台输出与原脚本保持一致：进度行、结果表格/CSV、汇总块；
// 入库与审计是本工具新增的默认行为，--no-store 可关闭。
func runQuery(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	addresses := fs.String("addresses", "", "comma separated addresses to query")
	csvFile := fs.String("csv-file", "", "csv file containing addresses (first column)")
	rpcURL := fs.String("rpc-url", "", "optimism rpc endpoint url (default: profile or "+allocquery.DefaultRPCURL+")")
	profilePath := fs.String("profile", envOr("UQALLOC_PROFILE", cfg.ProfilePath), "chain profile yaml path")
	outputCSV := fs.String("output-csv", "", "write results to csv file instead of console table")
	dbPath := fs.String("db", envOr("UQALLOC_DB", cfg.DBPath), "sqlite database path")
	noStore := fs.Bool("no-store", false, "skip persisting the run to sqlite")
	operator := fs.String("operator", "system", "operator id or name")
	note := fs.String("note", "", "run note")
	privacyMode := fs.String("privacy", "off", "privacy mode: off|masked (console table only)")
	asJSON := fs.Bool("json", false, "print machine readable result payload")
	if err := fs.Parse(args); err != nil {
		return err
	}

	masked := false
	switch strings.ToLower(strings.TrimSpace(*privacyMode)) {
	case "", "off":
	case "masked":
		masked = true
	default:
		return fmt.Errorf("invalid --privacy: %s (expect off|masked)", *privacyMode)
	}

	addrs, err := resolveAddresses(*addresses, *csvFile)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d addresses to query\n", len(addrs))

	// 链配置文件：默认路径缺失时静默走内置默认，显式指定缺失则报错。
	var prof *profile.LoadedProfile
	if _, statErr := os.Stat(*profilePath); statErr == nil {
		loaded, err := profile.NewLoader(*profilePath).Load(ctx)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		prof = loaded
	} else if *profilePath != cfg.ProfilePath {
		return fmt.Errorf("profile file not found: %s", *profilePath)
	}

	// RPC 端点解析顺序：--rpc-url > UQALLOC_RPC_URL > profile > 内置默认。
	rpc := strings.TrimSpace(*rpcURL)
	if rpc == "" {
		rpc = strings.TrimSpace(os.Getenv("UQALLOC_RPC_URL"))
	}
	if rpc == "" && prof != nil {
		rpc = strings.TrimSpace(prof.Profile.Chain.RPCURL)
	}
	if rpc == "" {
		rpc = allocquery.DefaultRPCURL
	}

	fmt.Println("Connecting to Optimism network...")
	client, chainID, err := evm.Dial(ctx, rpc)
	if err != nil {
		return fmt.Errorf("connect rpc endpoint: %w", err)
	}
	defer client.Close()

	contractAddr := ""
	if prof != nil {
		contractAddr = prof.Profile.Contract.Address
	}
	reader, err := allocquery.NewReader(client, contractAddr)
	if err != nil {
		return err
	}

	fmt.Println("Querying contract...")
	outcome, err := allocquery.Run(ctx, allocquery.Options{
		Addresses: addrs,
		Reader:    reader,
		Progress: func(index, total int, address string) {
			fmt.Printf("Querying %d/%d: %s\n", index, total, address)
		},
	})
	if err != nil {
		return err
	}

	if strings.TrimSpace(*outputCSV) != "" {
		if err := csvio.WriteResults(*outputCSV, report.Records(outcome.Results)); err != nil {
			return fmt.Errorf("write results csv: %w", err)
		}
		if !*asJSON {
			fmt.Printf("Results written to %s\n", *outputCSV)
			fmt.Print(report.SummaryBlock(outcome.Summary))
		}
	} else if !*asJSON {
		display := outcome.Results
		if masked {
			display = privacy.MaskResults(display)
		}
		fmt.Print("\n" + report.Table(display, outcome.Summary))
	}

	runID := ""
	if !*noStore {
		runID, err = persistRun(ctx, *dbPath, rpc, chainID.String(), reader.Contract(), prof, *operator, *note, outcome)
		if err != nil {
			return err
		}
		if !*asJSON {
			fmt.Printf("run_id=%s\n", runID)
		}
	}

	if *asJSON {
		return printJSON(queryRunOutput{
			RunID:      runID,
			RPCURL:     rpc,
			ChainID:    chainID.String(),
			Contract:   reader.Contract(),
			Function:   allocquery.FunctionName,
			OutputCSV:  strings.TrimSpace(*outputCSV),
			Results:    outcome.Results,
			Summary:    outcome.Summary,
			StartedAt:  outcome.StartedAt,
			FinishedAt: outcome.FinishedAt,
		})
	}
	return nil
}

// resolveAddresses 把互斥的 --addresses / --csv-file 归一成原始地址列表。
// 校验在核心层做，这里只负责“拿到一串非空字符串”。
func resolveAddresses(addresses, csvFile string) ([]string, error) {
	addresses = strings.TrimSpace(addresses)
	csvFile = strings.TrimSpace(csvFile)

	switch {
	case addresses != "" && csvFile != "":
		return nil, fmt.Errorf("--addresses and --csv-file are mutually exclusive")
	case addresses == "" && csvFile == "":
		return nil, fmt.Errorf("one of --addresses or --csv-file is required")
	}

	var addrs []string
	if addresses != "" {
		for _, part := range strings.Split(addresses, ",") {
			if v := strings.TrimSpace(part); v != "" {
				addrs = append(addrs, v)
			}
		}
	} else {
		loaded, err := csvio.ReadAddresses(csvFile)
		if err != nil {
			return nil, err
		}
		addrs = loaded
	}

	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses to query")
	}
	return addrs, nil
}

// persistRun 把一次查询结果落库并写入审计链，返回 run_id。
func persistRun(ctx context.Context, dbPath, rpcURL, chainID, contract string, prof *profile.LoadedProfile, operator, note string, outcome *allocquery.Outcome) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return "", fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return "", fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		return "", fmt.Errorf("set busy_timeout: %w", err)
	}

	migrator := sqliteadapter.NewMigrator(db)
	if err := migrator.Up(ctx); err != nil {
		return "", fmt.Errorf("apply migrations: %w", err)
	}

	store := sqliteadapter.NewStore(db)

	profileSHA := ""
	if prof != nil {
		profileSHA = prof.SHA256
	}
	runID, err := store.SaveRun(ctx, model.RunRecord{
		RPCURL:          rpcURL,
		ChainID:         chainID,
		ContractAddress: contract,
		FunctionName:    allocquery.FunctionName,
		ProfileSHA256:   profileSHA,
		Operator:        strings.TrimSpace(operator),
		Note:            strings.TrimSpace(note),
		Total:           outcome.Summary.Total,
		Successful:      outcome.Summary.Successful,
		Failed:          outcome.Summary.Failed,
		TotalAllocation: outcome.Summary.TotalAllocationString(),
		StartedAt:       outcome.StartedAt,
		FinishedAt:      outcome.FinishedAt,
		Status:          "completed",
	})
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	if err := store.SaveResults(ctx, runID, outcome.Results); err != nil {
		return "", fmt.Errorf("save results: %w", err)
	}

	_ = store.AppendAudit(ctx, runID, "alloc_query", "run_start", "success", operator, "cli.query", map[string]any{
		"address_count": outcome.Summary.Total,
		"rpc_url":       rpcURL,
		"contract":      contract,
		"started_at":    outcome.StartedAt,
	})
	_ = store.AppendAudit(ctx, runID, "alloc_query", "run_finish", "success", operator, "cli.query", map[string]any{
		"total":            outcome.Summary.Total,
		"successful":       outcome.Summary.Successful,
		"failed":           outcome.Summary.Failed,
		"total_allocation": outcome.Summary.TotalAllocationString(),
		"finished_at":      outcome.FinishedAt,
	})

	return runID, nil
}

// runMigrate 执行 SQLite 迁移，确保数据库结构完整。
func runMigrate(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fs.String("db", envOr("UQALLOC_DB", cfg.DBPath), "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}

	m := sqliteadapter.NewMigrator(db)
	if err := m.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	store := sqliteadapter.NewStore(db)
	schemaVersion, err := store.GetSchemaMetaValue(ctx, "schema_version")
	if err != nil {
		return err
	}

	fmt.Printf("migrations applied successfully: db=%s schema_version=%s\n", *dbPath, schemaVersion)
	return nil
}

// runProfile 是二级命令路由，目前支持 profile validate。
func runProfile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printProfileUsage()
		return nil
	}

	switch args[0] {
	case "validate":
		return runProfileValidate(ctx, args[1:])
	default:
		printProfileUsage()
		return fmt.Errorf("unknown profile command: %s", args[0])
	}
}

// runProfileValidate 用于链配置文件合法性检查，输出目标链与哈希摘要。
func runProfileValidate(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("profile validate", flag.ContinueOnError)
	profilePath := fs.String("profile", envOr("UQALLOC_PROFILE", cfg.ProfilePath), "chain profile yaml path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loaded, err := profile.NewLoader(*profilePath).Load(ctx)
	if err != nil {
		return err
	}

	fmt.Println("profile validation passed")
	fmt.Printf("chain=%s rpc_url=%s\n", loaded.Profile.Chain.Name, loaded.Profile.Chain.RPCURL)
	fmt.Printf("contract=%s symbol=%s version=%s\n",
		loaded.Profile.Contract.Address, loaded.Profile.Contract.Symbol, loaded.Profile.Version)
	fmt.Printf("sha256=%s\n", loaded.SHA256)
	return nil
}

// runRuns 是二级命令路由：runs list / runs show。
func runRuns(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printRunsUsage()
		return nil
	}

	switch args[0] {
	case "list":
		return runRunsList(ctx, args[1:])
	case "show":
		return runRunsShow(ctx, args[1:])
	default:
		printRunsUsage()
		return fmt.Errorf("unknown runs command: %s", args[0])
	}
}

// runRunsList 列出历史运行记录，按开始时间倒序。
func runRunsList(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("runs list", flag.ContinueOnError)
	dbPath := fs.String("db", envOr("UQALLOC_DB", cfg.DBPath), "sqlite database path")
	limit := fs.Int("limit", 50, "max runs to list")
	if err := fs.Parse(args); err != nil {
		return err
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
	items, err := store.ListRuns(ctx, *limit, 0)
	if err != nil {
		return err
	}

	fmt.Printf("runs_total=%d\n", len(items))
	for _, it := range items {
		fmt.Printf("run_id=%s status=%s total=%d successful=%d failed=%d total_allocation=%s started_at=%d\n",
			it.RunID, it.Status, it.Total, it.Successful, it.Failed, it.TotalAllocation, it.StartedAt,
		)
	}
	return nil
}

// runRunsShow 展示单次运行的摘要与逐地址结果，适合复核历史批次。
func runRunsShow(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("runs show", flag.ContinueOnError)
	dbPath := fs.String("db", envOr("UQALLOC_DB", cfg.DBPath), "sqlite database path")
	runID := fs.String("run-id", "", "run id (required)")
	asJSON := fs.Bool("json", true, "print as json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*runID) == "" {
		return fmt.Errorf("--run-id is required")
	}

	view, err := runview.GetRunView(ctx, *dbPath, strings.TrimSpace(*runID))
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(view)
	}

	ov := view.Overview
	fmt.Printf("run_id=%s status=%s total=%d successful=%d failed=%d total_allocation=%s\n",
		ov.RunID, ov.Status, ov.Total, ov.Successful, ov.Failed, ov.TotalAllocation)
	fmt.Printf("contract=%s function=%s chain_id=%s rpc_url=%s\n",
		ov.ContractAddress, ov.FunctionName, ov.ChainID, ov.RPCURL)
	for _, r := range view.Results {
		fmt.Printf("position=%d address=%s allocation=%s status=%s\n",
			r.Position, r.Address, r.Allocation, r.StatusLine())
	}
	return nil
}

// runExport 是导出命令路由：从历史运行生成 CSV / PDF / ZIP 产物。
func runExport(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printExportUsage()
		return nil
	}

	switch args[0] {
	case "csv":
		return runExportCSV(ctx, args[1:])
	case "pdf":
		return runExportPDF(ctx, args[1:])
	case "zip":
		return runExportZip(ctx, args[1:])
	default:
		printExportUsage()
		return fmt.Errorf("unknown export command: %s", args[0])
	}
}

func runExportCSV(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("export csv", flag.ContinueOnError)
	dbPath := fs.String("db", envOr("UQALLOC_DB", cfg.DBPath), "sqlite database path")
	runID := fs.String("run-id", "", "run id (required)")
	outPath := fs.String("out", "", "output csv path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*runID) == "" {
		return fmt.Errorf("--run-id is required")
	}
	if strings.TrimSpace(*outPath) == "" {
		return fmt.Errorf("--out is required")
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
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
	res, err := runexport.GenerateRunCSV(ctx, store, runexport.CSVOptions{
		RunID:   strings.TrimSpace(*runID),
		DBPath:  *dbPath,
		OutPath: strings.TrimSpace(*outPath),
	})
	if err != nil {
		return err
	}

	fmt.Println("run csv export completed")
	fmt.Printf("run_id=%s report_id=%s\n", strings.TrimSpace(*runID), res.ReportID)
	fmt.Printf("csv=%s rows=%d\n", res.CSVPath, res.RowCount)
	fmt.Printf("csv_sha256=%s\n", res.CSVSHA256)
	return nil
}

func runExportPDF(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("export pdf", flag.ContinueOnError)
	dbPath := fs.String("db", envOr("UQALLOC_DB", cfg.DBPath), "sqlite database path")
	runID := fs.String("run-id", "", "run id (required)")
	operator := fs.String("operator", "system", "operator id or name")
	note := fs.String("note", "", "export note")
	privacyMode := fs.String("privacy", "off", "privacy mode: off|masked")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*runID) == "" {
		return fmt.Errorf("--run-id is required")
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
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
	res, err := runexport.GenerateRunPDF(ctx, store, runexport.PDFOptions{
		RunID:    strings.TrimSpace(*runID),
		DBPath:   *dbPath,
		Operator: strings.TrimSpace(*operator),
		Note:     strings.TrimSpace(*note),
		Privacy:  strings.TrimSpace(*privacyMode),
	})
	if err != nil {
		return err
	}

	fmt.Println("run pdf export completed")
	fmt.Printf("run_id=%s report_id=%s\n", strings.TrimSpace(*runID), res.ReportID)
	fmt.Printf("pdf=%s\n", res.PDFPath)
	fmt.Printf("pdf_sha256=%s\n", res.PDFSHA256)
	if len(res.Warnings) > 0 {
		fmt.Printf("warnings=%s\n", strings.Join(res.Warnings, " | "))
	}
	return nil
}

func runExportZip(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("export zip", flag.ContinueOnError)
	dbPath := fs.String("db", envOr("UQALLOC_DB", cfg.DBPath), "sqlite database path")
	runID := fs.String("run-id", "", "run id (required)")
	operator := fs.String("operator", "system", "operator id or name")
	note := fs.String("note", "", "export note")
	outDir := fs.String("out-dir", "", "export output directory (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*runID) == "" {
		return fmt.Errorf("--run-id is required")
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
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

	// 默认路径存在链配置文件时一并打包，保证导出包可独立复核。
	profilePath := envOr("UQALLOC_PROFILE", cfg.ProfilePath)
	if _, err := os.Stat(profilePath); err != nil {
		profilePath = ""
	}

	res, err := runexport.GenerateRunZip(ctx, store, runexport.ZipOptions{
		RunID:       strings.TrimSpace(*runID),
		DBPath:      *dbPath,
		ProfilePath: profilePath,
		Operator:    strings.TrimSpace(*operator),
		Note:        strings.TrimSpace(*note),
		ExportDir:   strings.TrimSpace(*outDir),
	})
	if err != nil {
		return err
	}

	fmt.Println("run zip export completed")
	fmt.Printf("run_id=%s report_id=%s\n", res.RunID, res.ReportID)
	fmt.Printf("zip=%s\n", res.ZipPath)
	fmt.Printf("zip_sha256=%s\n", res.ZipSHA256)
	if len(res.Warnings) > 0 {
		fmt.Printf("warnings=%s\n", strings.Join(res.Warnings, " | "))
	}
	return nil
}

// runVersion 输出构建信息（-ldflags 注入）。
func runVersion(args []string) error {
	_ = args
	fmt.Printf("uqalloc-cli %s commit=%s built=%s\n", app.Version, app.Commit, app.BuildTime)
	return nil
}

// envOr 读取环境变量，空值时回退默认，用于 UQALLOC_* 覆盖链。
func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// printUsage 输出一级命令帮助。
func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  uqalloc-cli query --addresses 0xA,0xB [--rpc-url URL] [--output-csv out.csv] [--privacy off|masked] [--no-store]")
	fmt.Println("  uqalloc-cli query --csv-file addresses.csv [--rpc-url URL] [--output-csv out.csv] [--db data/uqalloc.db]")
	fmt.Println("  uqalloc-cli migrate [--db data/uqalloc.db]")
	fmt.Println("  uqalloc-cli profile validate [--profile profiles/optimism.template.yaml]")
	fmt.Println("  uqalloc-cli runs list [--db data/uqalloc.db] [--limit 50]")
	fmt.Println("  uqalloc-cli runs show --run-id RUN_ID [--db data/uqalloc.db]")
	fmt.Println("  uqalloc-cli export csv --run-id RUN_ID --out results.csv [--db data/uqalloc.db]")
	fmt.Println("  uqalloc-cli export pdf --run-id RUN_ID [--db data/uqalloc.db] [--privacy off|masked]")
	fmt.Println("  uqalloc-cli export zip --run-id RUN_ID [--db data/uqalloc.db] [--out-dir path]")
	fmt.Println("  uqalloc-cli verify zip --zip PATH_TO_ZIP")
	fmt.Println("  uqalloc-cli verify reports --run-id RUN_ID [--db data/uqalloc.db]")
	fmt.Println("  uqalloc-cli verify audits --run-id RUN_ID [--db data/uqalloc.db] [--limit 5000]")
	fmt.Println("  uqalloc-cli version")
}

// printProfileUsage 输出 profile 子命令帮助。
func printProfileUsage() {
	fmt.Println("Usage:")
	fmt.Println("  uqalloc-cli profile validate [--profile path]")
}

// printRunsUsage 输出 runs 子命令帮助。
func printRunsUsage() {
	fmt.Println("Usage:")
	fmt.Println("  uqalloc-cli runs list [--db path] [--limit 50]")
	fmt.Println("  uqalloc-cli runs show --run-id id [--db path] [--json=true]")
}

func printExportUsage() {
	fmt.Println("Usage:")
	fmt.Println("  uqalloc-cli export csv --run-id RUN_ID --out path [--db path]")
	fmt.Println("  uqalloc-cli export pdf --run-id RUN_ID [--db path] [--operator name] [--note text] [--privacy off|masked]")
	fmt.Println("  uqalloc-cli export zip --run-id RUN_ID [--db path] [--out-dir path] [--operator name] [--note text]")
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
