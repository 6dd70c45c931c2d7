package csvio

import (
	"encoding/csv"
	"fmt"
	"os"

	"uqalloc-query/internal/services/report"
)

// ResultHeader 是导出 CSV 的固定表头。
var ResultHeader = []string{"address", "uq_allocation", "status"}

// WriteResults 把记录集写为 CSV 文件，行顺序与记录集一致。
func WriteResults(path string, records []report.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(ResultHeader); err != nil {
		f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write([]string{rec.Address, rec.Allocation, rec.Status}); err != nil {
			f.Close()
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush csv file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}
	return nil
}
