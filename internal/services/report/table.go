package report

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"uqalloc-query/internal/domain/model"
)

const (
	addressColWidth    = 45
	allocationColWidth = 15
	ruleWidth          = 80
)

// Table 渲染控制台结果表格，行顺序与输入一致。
// 失败行的 Allocation 列固定显示 N/A，末尾附带汇总块。
func Table(results []model.QueryResult, summary model.RunSummary) string {
	var b strings.Builder
	b.Grow(96 * (len(results) + 8))

	b.WriteString(strings.Repeat("=", ruleWidth))
	b.WriteByte('\n')
	b.WriteString("RESULTS:\n")
	b.WriteString(strings.Repeat("=", ruleWidth))
	b.WriteByte('\n')
	writeRow(&b, "Address", "Allocation", "Status")
	b.WriteString(strings.Repeat("-", ruleWidth))
	b.WriteByte('\n')

	for _, r := range results {
		alloc := "N/A"
		if r.Succeeded() {
			alloc = r.AllocationString()
		}
		writeRow(&b, r.Address, alloc, r.StatusLine())
	}

	b.WriteString(strings.Repeat("-", ruleWidth))
	b.WriteByte('\n')
	b.WriteString(SummaryBlock(summary))
	return b.String()
}

// SummaryBlock 渲染汇总统计；表格与 CSV 两条输出路径都会打印它。
func SummaryBlock(summary model.RunSummary) string {
	var b strings.Builder
	b.WriteString("\nSummary:\n")
	fmt.Fprintf(&b, "  Total addresses queried: %d\n", summary.Total)
	fmt.Fprintf(&b, "  Successful queries: %d\n", summary.Successful)
	fmt.Fprintf(&b, "  Failed queries: %d\n", summary.Failed)
	fmt.Fprintf(&b, "  Total allocation found: %s\n", summary.TotalAllocationString())
	return b.String()
}

func writeRow(b *strings.Builder, address, allocation, status string) {
	b.WriteString(pad(address, addressColWidth))
	b.WriteByte(' ')
	b.WriteString(pad(allocation, allocationColWidth))
	b.WriteByte(' ')
	b.WriteString(status)
	b.WriteByte('\n')
}

// pad 按显示宽度右侧补空格；错误明细可能混入宽字符，按终端列宽计算。
func pad(s string, width int) string {
	if runewidth.StringWidth(s) >= width {
		return s
	}
	return runewidth.FillRight(s, width)
}
