package runexport

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sqliteadapter "uqalloc-query/internal/adapters/store/sqlite"
	"uqalloc-query/internal/app"
	"uqalloc-query/internal/domain/model"
	"uqalloc-query/internal/platform/hash"
)

// ZipOptions 定义运行导出包（ZIP）的生成参数。
// 导出包把一次运行的结果记录、报告产物、链配置、清单与 hash 列表
// 收进一个文件，便于离线流转和独立复核。
type ZipOptions struct {
	RunID string

	// DBPath 决定默认导出目录（db 同级目录下 exports/）。
	DBPath string

	// ProfilePath 可选：本次运行使用的链配置文件，存在时一并打包。
	ProfilePath string

	// Operator/Note 写入审计日志。
	Operator string
	Note     string

	// ExportDir 可选：显式指定导出目录。
	ExportDir string
}

// FileHashEntry 是 manifest 中一个打包文件的哈希登记项。
type FileHashEntry struct {
	Path      string `json:"path"`       // ZIP 内路径，"/" 分隔
	SHA256    string `json:"sha256"`     // 文件内容 SHA-256
	SizeBytes int64  `json:"size_bytes"` // 原始字节数
	Kind      string `json:"kind"`       // report|profile|manifest
}

// ManifestReport 把 reports 表记录和其在 ZIP 内的位置对应起来。
type ManifestReport struct {
	Report  model.ReportInfo `json:"report"`
	ZipPath string           `json:"zip_path"`
}

// ZipManifest 是导出包的结构化清单（manifest.json）。
type ZipManifest struct {
	Schema      string `json:"schema"`
	GeneratedAt int64  `json:"generated_at"`

	App struct {
		Version   string `json:"version"`
		Commit    string `json:"commit"`
		BuildTime string `json:"build_time"`
	} `json:"app"`

	Run      *model.RunOverview `json:"run"`
	Results  []model.ResultInfo `json:"results"`
	Audits   []model.AuditLog   `json:"audits"`
	Reports  []ManifestReport   `json:"reports"`
	Files    []FileHashEntry    `json:"files"`
	Warnings []string           `json:"warnings,omitempty"`
	Note     string             `json:"note,omitempty"`
	Stats    map[string]any     `json:"stats,omitempty"`
}

// ZipResult 是一次 ZIP 导出的摘要输出。
type ZipResult struct {
	RunID      string   `json:"run_id"`
	ReportID   string   `json:"report_id"`
	ZipPath    string   `json:"zip_path"`
	ZipSHA256  string   `json:"zip_sha256"`
	Warnings   []string `json:"warnings,omitempty"`
	StartedAt  int64    `json:"started_at"`
	FinishedAt int64    `json:"finished_at"`
}

const (
	manifestSchemaV1 = "uqalloc_query.run_export_manifest.v1"
	zipGeneratorVer  = "runexport-zip-0.1.0"
)

// zipBuilder 聚合 zip 写入与逐文件哈希登记。
// 磁盘文件缺失不会中止导出，只记 warning；manifest 必须成功写入。
type zipBuilder struct {
	zw       *zip.Writer
	hashes   []FileHashEntry
	warnings []string
}

func (b *zipBuilder) addFromDisk(srcPath, entryPath, kind string) {
	fi, err := os.Stat(srcPath)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("skip file %s -> %s: %v", srcPath, entryPath, err))
		return
	}
	if fi.IsDir() {
		b.warnings = append(b.warnings, fmt.Sprintf("skip file %s -> %s: is a directory", srcPath, entryPath))
		return
	}

	hdr, err := zip.FileInfoHeader(fi)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("skip file %s -> %s: %v", srcPath, entryPath, err))
		return
	}
	hdr.Name = entryPath
	hdr.Method = zip.Deflate

	w, err := b.zw.CreateHeader(hdr)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("skip file %s -> %s: %v", srcPath, entryPath, err))
		return
	}
	f, err := os.Open(srcPath)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("skip file %s -> %s: %v", srcPath, entryPath, err))
		return
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(w, h), f)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("skip file %s -> %s: %v", srcPath, entryPath, err))
		return
	}
	b.hashes = append(b.hashes, FileHashEntry{
		Path:      entryPath,
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		SizeBytes: n,
		Kind:      kind,
	})
}

func (b *zipBuilder) addFromBytes(entryPath, kind string, data []byte) error {
	w, err := b.zw.CreateHeader(&zip.FileHeader{
		Name:     entryPath,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return err
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(w, h), bytes.NewReader(data))
	if err != nil {
		return err
	}
	b.hashes = append(b.hashes, FileHashEntry{
		Path:      entryPath,
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		SizeBytes: n,
		Kind:      kind,
	})
	return nil
}

// hashListBytes 渲染 sha256sum 兼容格式的哈希列表（"#" 开头为注释行）。
func (b *zipBuilder) hashListBytes() []byte {
	sort.Slice(b.hashes, func(i, j int) bool { return b.hashes[i].Path < b.hashes[j].Path })

	var out strings.Builder
	out.WriteString("# uqalloc-query run export hash list\n")
	fmt.Fprintf(&out, "# generated_at=%d\n", time.Now().Unix())
	out.WriteString("# format: <sha256><two spaces><path>\n")
	for _, e := range b.hashes {
		fmt.Fprintf(&out, "%s  %s\n", e.SHA256, e.Path)
	}
	return []byte(out.String())
}

// GenerateRunZip 生成运行导出包，登记为 report_type=run_zip 并写审计留痕。
//
// ZIP 内容（v1）：
//   - manifest.json：运行/结果/审计/报告的结构化清单
//   - hashes.sha256：各文件（除自身）的 SHA-256 列表
//   - reports/..：报告产物（不含 run_zip 自身，避免递归打包）
//   - profile/..：链配置文件（提供时）
func GenerateRunZip(ctx context.Context, store *sqliteadapter.Store, opts ZipOptions) (*ZipResult, error) {
	startedAt := time.Now().Unix()

	runID := strings.TrimSpace(opts.RunID)
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}
	dbPath := strings.TrimSpace(opts.DBPath)
	if dbPath == "" {
		dbPath = app.DefaultConfig().DBPath
	}
	operator := strings.TrimSpace(opts.Operator)
	if operator == "" {
		operator = "system"
	}

	overview, err := store.GetRunOverview(ctx, runID)
	if err != nil {
		return nil, err
	}
	if overview == nil {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	results, err := store.ListResultsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	audits, err := store.ListAuditLogs(ctx, runID, 5000)
	if err != nil {
		return nil, err
	}
	allReports, err := store.ListReportsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	exportDir := strings.TrimSpace(opts.ExportDir)
	if exportDir == "" {
		exportDir = filepath.Join(filepath.Dir(dbPath), "exports")
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	zipPath := filepath.Join(exportDir, fmt.Sprintf("%s_run_export_%d.zip", runID, startedAt))
	f, err := os.Create(zipPath)
	if err != nil {
		return nil, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = f.Close() }()

	builder := &zipBuilder{zw: zip.NewWriter(f)}
	defer func() { _ = builder.zw.Close() }()

	// 报告产物：run_zip 自身跳过，路径尽量保留 reports/ 下的相对层级。
	reportsBase := mustAbs(filepath.Join(filepath.Dir(dbPath), "reports"))
	manifestReports := make([]ManifestReport, 0, len(allReports))
	for _, r := range allReports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(r.ReportType) == "run_zip" {
			continue
		}
		src := strings.TrimSpace(r.FilePath)
		if src == "" {
			continue
		}
		rel := safeRel(reportsBase, mustAbs(src))
		if rel == "" {
			rel = filepath.Base(src)
		}
		entry := filepath.ToSlash(filepath.Join("reports", rel))
		builder.addFromDisk(src, entry, "report")
		manifestReports = append(manifestReports, ManifestReport{Report: r, ZipPath: entry})
	}

	if p := strings.TrimSpace(opts.ProfilePath); p != "" {
		builder.addFromDisk(p, filepath.ToSlash(filepath.Join("profile", filepath.Base(p))), "profile")
	}

	manifest := ZipManifest{
		Schema:      manifestSchemaV1,
		GeneratedAt: time.Now().Unix(),
		Run:         overview,
		Results:     results,
		Audits:      audits,
		Reports:     manifestReports,
		Warnings:    builder.warnings,
		Note:        strings.TrimSpace(opts.Note),
		Stats: map[string]any{
			"result_count": len(results),
			"audit_count":  len(audits),
			"report_count": len(allReports),
		},
	}
	manifest.App.Version = app.Version
	manifest.App.Commit = app.Commit
	manifest.App.BuildTime = app.BuildTime

	sort.Slice(builder.hashes, func(i, j int) bool { return builder.hashes[i].Path < builder.hashes[j].Path })
	manifest.Files = append([]FileHashEntry{}, builder.hashes...)

	manifestRaw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := builder.addFromBytes("manifest.json", "manifest", manifestRaw); err != nil {
		return nil, fmt.Errorf("write manifest to zip: %w", err)
	}

	// hashes.sha256 列出包括 manifest 在内的所有条目，自身除外。
	hashRaw := builder.hashListBytes()
	if w, err := builder.zw.CreateHeader(&zip.FileHeader{
		Name:     "hashes.sha256",
		Method:   zip.Deflate,
		Modified: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("write hashes.sha256 to zip: %w", err)
	} else if _, err := w.Write(hashRaw); err != nil {
		return nil, fmt.Errorf("write hashes.sha256 to zip: %w", err)
	}

	if err := builder.zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close zip file: %w", err)
	}

	zipSum, _, err := hash.File(zipPath)
	if err != nil {
		return nil, fmt.Errorf("hash zip: %w", err)
	}

	reportID, err := store.SaveReport(ctx, runID, "run_zip", zipPath, zipSum, zipGeneratorVer, "ready")
	if err != nil {
		return nil, err
	}
	_ = store.AppendAudit(ctx, runID, "export", "run_zip", "success", operator, "runexport.GenerateRunZip", map[string]any{
		"zip_path":   zipPath,
		"zip_sha256": zipSum,
		"warnings":   builder.warnings,
	})

	return &ZipResult{
		RunID:      runID,
		ReportID:   reportID,
		ZipPath:    zipPath,
		ZipSHA256:  zipSum,
		Warnings:   builder.warnings,
		StartedAt:  startedAt,
		FinishedAt: time.Now().Unix(),
	}, nil
}

func mustAbs(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// safeRel 返回 target 相对 base 的路径；跳出 base 或无法计算时返回空。
func safeRel(baseAbs, targetAbs string) string {
	if baseAbs == "" || targetAbs == "" {
		return ""
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return ""
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return rel
}
