package model

import "encoding/json"

// ReportInfo 表示报告产物索引信息（reports 表）。
// report_type 取值：run_csv / run_pdf / run_zip。
type ReportInfo struct {
	ReportID         string `json:"report_id"`
	RunID            string `json:"run_id"`
	ReportType       string `json:"report_type"`
	FilePath         string `json:"file_path"`
	SHA256           string `json:"sha256"`
	GeneratedAt      int64  `json:"generated_at"`
	GeneratorVersion string `json:"generator_version"`
	Status           string `json:"status"`
}

// AuditLog 表示一条审计日志记录（audit_logs 表）。
// chain_hash = sha256(prev, run_id, event_type, action, status, occurred_at, detail_json)，
// 逐条链接形成防篡改链。
type AuditLog struct {
	EventID       string          `json:"event_id"`
	RunID         string          `json:"run_id"`
	EventType     string          `json:"event_type"`
	Action        string          `json:"action"`
	Status        string          `json:"status"`
	Actor         string          `json:"actor,omitempty"`
	Source        string          `json:"source,omitempty"`
	DetailJSON    json.RawMessage `json:"detail_json,omitempty"`
	OccurredAt    int64           `json:"occurred_at"`
	ChainPrevHash string          `json:"chain_prev_hash,omitempty"`
	ChainHash     string          `json:"chain_hash"`
}
