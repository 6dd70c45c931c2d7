package report

import "uqalloc-query/internal/domain/model"

// Record 是 CSV 导出与持久化协作方共用的单行记录。
// 失败行的 Allocation 固定为 "0"，N/A 只出现在展示层。
type Record struct {
	Address    string `json:"address"`
	Allocation string `json:"uq_allocation"`
	Status     string `json:"status"`
}

// Records 把查询结果转换为顺序一致的记录集。
func Records(results []model.QueryResult) []Record {
	out := make([]Record, 0, len(results))
	for _, r := range results {
		out = append(out, Record{
			Address:    r.Address,
			Allocation: r.AllocationString(),
			Status:     r.StatusLine(),
		})
	}
	return out
}
