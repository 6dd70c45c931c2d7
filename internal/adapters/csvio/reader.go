package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ReadAddresses 读取 CSV 首列的地址列表。
// 自动识别表头行；空行与首列为空的行跳过；其余内容原样保留，
// 合法性交给查询阶段判断。
func ReadAddresses(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv file %s: %w", path, err)
	}

	start := 0
	if looksLikeHeader(rows) {
		start = 1
	}

	addresses := make([]string, 0, len(rows))
	for _, row := range rows[start:] {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		addresses = append(addresses, cell)
	}
	return addresses, nil
}

// looksLikeHeader 判断首行是否为表头：
// 首单元格是常见表头词，或首单元格不像地址而后续行存在地址。
func looksLikeHeader(rows [][]string) bool {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return false
	}
	first := strings.TrimSpace(rows[0][0])
	if first == "" {
		return false
	}
	switch strings.ToLower(first) {
	case "address", "addresses", "wallet", "account", "holder":
		return true
	}
	if common.IsHexAddress(first) {
		return false
	}
	for _, row := range rows[1:] {
		if len(row) > 0 && common.IsHexAddress(strings.TrimSpace(row[0])) {
			return true
		}
	}
	return false
}
