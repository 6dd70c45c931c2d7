package runexport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	sqliteadapter "uqalloc-query/internal/adapters/store/sqlite"
	"uqalloc-query/internal/domain/model"
	"uqalloc-query/internal/platform/hash"
	"uqalloc-query/internal/services/privacy"

	"github.com/phpdave11/gofpdf"
)

// PDFOptions 定义运行 PDF 报告（run_pdf）的生成参数。
type PDFOptions struct {
	RunID    string
	DBPath   string
	Operator string
	Note     string
	// Privacy 为 "masked" 时对地址做展示层脱敏；数据库记录不受影响。
	Privacy string
}

type PDFResult struct {
	ReportID    string   `json:"report_id"`
	PDFPath     string   `json:"pdf_path"`
	PDFSHA256   string   `json:"pdf_sha256"`
	Warnings    []string `json:"warnings,omitempty"`
	GeneratedAt int64    `json:"generated_at"`
}

const pdfGeneratorVer = "runexport-0.1.0"

// 结果行数上限，超出的部分只体现在汇总计数里。
const pdfMaxResultRows = 500

// GenerateRunPDF 生成一次运行的 PDF 报告，登记为 report_type=run_pdf 并写审计留痕。
// PDF 是展示产物；可复核的完整记录集走 ZIP 导出。
func GenerateRunPDF(ctx context.Context, store *sqliteadapter.Store, opts PDFOptions) (*PDFResult, error) {
	runID := strings.TrimSpace(opts.RunID)
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}
	dbPath := strings.TrimSpace(opts.DBPath)
	if dbPath == "" {
		return nil, fmt.Errorf("db_path is required")
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

	var warnings []string
	results, err := store.ListResultsByRun(ctx, runID)
	if err != nil {
		warnings = append(warnings, "list results failed: "+err.Error())
		results = []model.ResultInfo{}
	}
	audits, err := store.ListAuditLogs(ctx, runID, 5000)
	if err != nil {
		warnings = append(warnings, "list audits failed: "+err.Error())
		audits = []model.AuditLog{}
	}

	rows := results
	if len(rows) > pdfMaxResultRows {
		rows = rows[:pdfMaxResultRows]
		warnings = append(warnings, fmt.Sprintf("result list truncated to first %d rows", pdfMaxResultRows))
	}
	masked := strings.EqualFold(strings.TrimSpace(opts.Privacy), "masked")
	if masked {
		rows = privacy.MaskResultInfos(rows)
	}

	lastAuditHash := ""
	if n := len(audits); n > 0 {
		lastAuditHash = audits[n-1].ChainHash
	}

	doc := newPDFDoc()
	if !doc.utf8OK {
		warnings = append(warnings, "pdf utf8 font not available; non-ascii text may be replaced with '?'")
	}
	doc.renderRunReport(*ov, rows, operator, opts.Note, masked, lastAuditHash, warnings)

	now := time.Now().Unix()
	reportDir := filepath.Join(filepath.Dir(dbPath), "reports")
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir reports: %w", err)
	}
	pdfPath := filepath.Join(reportDir, fmt.Sprintf("%s_report_%d.pdf", runID, now))
	if err := doc.pdf.OutputFileAndClose(pdfPath); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	sum, _, err := hash.File(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("sha256 pdf: %w", err)
	}
	reportID, err := store.SaveReport(ctx, runID, "run_pdf", pdfPath, sum, pdfGeneratorVer, "ready")
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	_ = store.AppendAudit(ctx, runID, "export", "run_pdf", "success", operator, "runexport.GenerateRunPDF", map[string]any{
		"pdf":          pdfPath,
		"pdf_sha256":   sum,
		"result_count": ov.ResultCount,
		"masked":       masked,
		"note":         strings.TrimSpace(opts.Note),
		"warnings":     warnings,
	})

	return &PDFResult{
		ReportID:    reportID,
		PDFPath:     pdfPath,
		PDFSHA256:   sum,
		Warnings:    warnings,
		GeneratedAt: now,
	}, nil
}

// pdfDoc 包一层 gofpdf，统一字体族和非 ASCII 兜底。
type pdfDoc struct {
	pdf    *gofpdf.Fpdf
	family string
	utf8OK bool
}

func newPDFDoc() *pdfDoc {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle("UQ Allocation Query - Run Report", false)

	doc := &pdfDoc{pdf: pdf, family: "Helvetica"}
	doc.loadUnicodeFont()
	pdf.AddPage()
	return doc
}

// loadUnicodeFont 尝试注册一个 TrueType UTF-8 字体：
// UQALLOC_PDF_FONT 指定的文件优先，然后按系统常见路径探测；
// 全部失败时停留在 Helvetica，非 ASCII 字符由 clean() 替换为 '?'。
func (d *pdfDoc) loadUnicodeFont() {
	var candidates []string
	if v := strings.TrimSpace(os.Getenv("UQALLOC_PDF_FONT")); v != "" {
		candidates = append(candidates, v)
	}
	switch runtime.GOOS {
	case "darwin":
		candidates = append(candidates,
			"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
			"/System/Library/Fonts/Hiragino Sans GB.ttc",
			"/System/Library/Fonts/PingFang.ttc",
		)
	case "windows":
		candidates = append(candidates,
			`C:\Windows\Fonts\arialuni.ttf`,
			`C:\Windows\Fonts\msyh.ttc`,
			`C:\Windows\Fonts\simsun.ttc`,
		)
	default:
		candidates = append(candidates,
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/noto/NotoSansCJK-Regular.ttc",
			"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
		)
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		d.pdf.AddUTF8Font("unicode", "", p)
		if d.pdf.Err() {
			d.pdf.ClearError()
			continue
		}
		// 同一字体文件兼作粗体，注册失败不影响 regular。
		d.pdf.AddUTF8Font("unicode", "B", p)
		if d.pdf.Err() {
			d.pdf.ClearError()
		}
		d.family = "unicode"
		d.utf8OK = true
		return
	}
}

// clean 去掉换行并在无 UTF-8 字体时把非 ASCII 字符替换为 '?'，保证渲染不失败。
func (d *pdfDoc) clean(s string) string {
	s = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(s))
	if d.utf8OK {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '?'
	}, s)
}

func (d *pdfDoc) heading(title string) {
	d.pdf.SetFont(d.family, "B", 12)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	d.pdf.SetDrawColor(200, 200, 200)
	d.pdf.Line(d.pdf.GetX(), d.pdf.GetY(), 200, d.pdf.GetY())
	d.pdf.Ln(2)
}

func (d *pdfDoc) field(key, value string) {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	d.pdf.SetFont(d.family, "B", 10)
	d.pdf.SetTextColor(30, 30, 30)
	d.pdf.CellFormat(42, 5.2, key+":", "", 0, "L", false, 0, "")
	d.pdf.SetFont(d.family, "", 10)
	d.pdf.SetTextColor(20, 20, 20)
	d.pdf.MultiCell(0, 5.2, d.clean(value), "", "L", false)
}

func (d *pdfDoc) renderRunReport(
	ov model.RunOverview,
	rows []model.ResultInfo,
	operator, note string,
	masked bool,
	lastAuditHash string,
	warnings []string,
) {
	pdf := d.pdf

	pdf.SetFont(d.family, "B", 16)
	pdf.CellFormat(0, 9, "UQ Allocation Query - Run Report", "", 1, "L", false, 0, "")
	pdf.SetFont(d.family, "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, "Generated at: "+pdfTime(time.Now().Unix()), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Operator: "+d.clean(operator), "", 1, "L", false, 0, "")
	if masked {
		pdf.CellFormat(0, 6, "Privacy: addresses masked for display", "", 1, "L", false, 0, "")
	}
	if strings.TrimSpace(note) != "" {
		pdf.MultiCell(0, 5, "Note: "+d.clean(note), "", "L", false)
	}
	pdf.Ln(2)

	d.heading("1. Run Overview")
	d.field("Run ID", ov.RunID)
	d.field("RPC URL", ov.RPCURL)
	d.field("Chain ID", ov.ChainID)
	d.field("Contract", ov.ContractAddress)
	d.field("Function", ov.FunctionName)
	d.field("Profile SHA256", ov.ProfileSHA256)
	d.field("Started At", pdfTime(ov.StartedAt))
	d.field("Finished At", pdfTime(ov.FinishedAt))
	d.field("Total Queried", fmt.Sprintf("%d", ov.Total))
	d.field("Successful", fmt.Sprintf("%d", ov.Successful))
	d.field("Failed", fmt.Sprintf("%d", ov.Failed))
	d.field("Total Allocation", ov.TotalAllocation)
	d.field("Audit Chain Last Hash", lastAuditHash)
	pdf.Ln(2)

	if len(warnings) > 0 {
		d.heading("Warnings")
		pdf.SetFont(d.family, "", 9)
		pdf.SetTextColor(120, 80, 0)
		for _, w := range warnings {
			pdf.MultiCell(0, 4.5, "- "+d.clean(w), "", "L", false)
		}
		pdf.Ln(2)
	}

	d.heading("2. Query Results")
	if len(rows) == 0 {
		pdf.SetFont(d.family, "", 10)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 5, "(empty)", "", "L", false)
	} else {
		d.resultTable(rows)
	}

	pdf.Ln(3)
	pdf.SetFont(d.family, "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.MultiCell(0, 4.5, "Note: This PDF is a display artifact. For the full verifiable record set, use the ZIP export (manifest.json + hashes.sha256).", "", "L", false)
}

// resultTable 按输入顺序（position ASC）渲染结果表；失败行的 Allocation 列显示 N/A。
func (d *pdfDoc) resultTable(rows []model.ResultInfo) {
	pdf := d.pdf
	const (
		posW    = 12.0
		addrW   = 88.0
		allocW  = 34.0
		lineH   = 5.0
		detailH = 4.5
	)

	pdf.SetFont(d.family, "B", 9)
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(posW, lineH, "#", "B", 0, "L", false, 0, "")
	pdf.CellFormat(addrW, lineH, "Address", "B", 0, "L", false, 0, "")
	pdf.CellFormat(allocW, lineH, "Allocation", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, lineH, "Status", "B", 1, "L", false, 0, "")

	for _, r := range rows {
		allocation := r.Allocation
		if r.Status != model.StatusSuccess {
			allocation = "N/A"
		}
		pdf.SetFont(d.family, "", 8)
		pdf.SetTextColor(40, 40, 40)
		pdf.CellFormat(posW, lineH, fmt.Sprintf("%d", r.Position), "", 0, "L", false, 0, "")
		pdf.CellFormat(addrW, lineH, d.clean(r.Address), "", 0, "L", false, 0, "")
		pdf.CellFormat(allocW, lineH, allocation, "", 0, "R", false, 0, "")
		pdf.CellFormat(0, lineH, string(r.Status), "", 1, "L", false, 0, "")
		if r.Detail != "" {
			pdf.SetTextColor(120, 60, 60)
			pdf.MultiCell(0, detailH, "    "+d.clean(r.Detail), "", "L", false)
		}
	}
}

func pdfTime(ts int64) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}
