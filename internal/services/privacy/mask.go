package privacy

import (
	"regexp"
	"strings"

	"uqalloc-query/internal/domain/model"
)

var reEVMAddress = regexp.MustCompile(`(?i)^0x[0-9a-f]{40}$`)

// MaskAddress 对 EVM 地址做“部分展示”：保留头尾，隐藏中间。
// 非地址输入（批次里夹带的非法行）直接返回占位符。
// 只用于展示层（控制台表格 / PDF），数据库与 CSV 永远保留原值。
func MaskAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if !reEVMAddress.MatchString(addr) {
		return "<masked>"
	}
	if len(addr) <= 14 {
		return addr[:2] + "..."
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// MaskResults 返回地址脱敏后的结果副本，原切片不被修改。
func MaskResults(results []model.QueryResult) []model.QueryResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]model.QueryResult, 0, len(results))
	for _, r := range results {
		rr := r
		rr.Address = MaskAddress(rr.Address)
		rr.InputAddress = MaskAddress(rr.InputAddress)
		out = append(out, rr)
	}
	return out
}

// MaskResultInfos 是 MaskResults 的读取模型版本（runs show / PDF 用）。
func MaskResultInfos(results []model.ResultInfo) []model.ResultInfo {
	if len(results) == 0 {
		return nil
	}
	out := make([]model.ResultInfo, 0, len(results))
	for _, r := range results {
		rr := r
		rr.Address = MaskAddress(rr.Address)
		rr.InputAddress = MaskAddress(rr.InputAddress)
		out = append(out, rr)
	}
	return out
}
