package model

// RunRecord 是写入 query_runs 表的一次批量查询记录。
type RunRecord struct {
	// RunID 为空时由存储层自动生成。
	RunID           string
	RPCURL          string
	ChainID         string
	ContractAddress string
	FunctionName    string
	// ProfileSHA256 是本次运行使用的链配置文件哈希（未用配置文件时为空）。
	ProfileSHA256 string
	Operator      string
	Note          string
	Total         int
	Successful    int
	Failed        int
	// TotalAllocation 以十进制字符串落库，避免 uint256 溢出 int64。
	TotalAllocation string
	StartedAt       int64
	FinishedAt      int64
	Status          string
}

// RunOverview 是单次运行的聚合摘要（结果数/报告数来自子查询）。
type RunOverview struct {
	RunID           string `json:"run_id"`
	RPCURL          string `json:"rpc_url"`
	ChainID         string `json:"chain_id,omitempty"`
	ContractAddress string `json:"contract_address"`
	FunctionName    string `json:"function_name"`
	ProfileSHA256   string `json:"profile_sha256,omitempty"`
	Operator        string `json:"operator,omitempty"`
	Note            string `json:"note,omitempty"`
	Total           int    `json:"total"`
	Successful      int    `json:"successful"`
	Failed          int    `json:"failed"`
	TotalAllocation string `json:"total_allocation"`
	StartedAt       int64  `json:"started_at"`
	FinishedAt      int64  `json:"finished_at"`
	Status          string `json:"status"`
	CreatedAt       int64  `json:"created_at"`
	ResultCount     int    `json:"result_count"`
	ReportCount     int    `json:"report_count"`
}

// RunListItem 是运行列表页用的轻量结构（避免每次都做聚合统计）。
type RunListItem struct {
	RunID           string `json:"run_id"`
	ContractAddress string `json:"contract_address"`
	RPCURL          string `json:"rpc_url"`
	Total           int    `json:"total"`
	Successful      int    `json:"successful"`
	Failed          int    `json:"failed"`
	TotalAllocation string `json:"total_allocation"`
	Status          string `json:"status"`
	StartedAt       int64  `json:"started_at"`
	FinishedAt      int64  `json:"finished_at"`
}

// ResultInfo 是 query_results 表的读取模型（allocation 保持字符串）。
type ResultInfo struct {
	ResultID     string     `json:"result_id"`
	RunID        string     `json:"run_id"`
	Position     int        `json:"position"`
	InputAddress string     `json:"input_address"`
	Address      string     `json:"address"`
	Allocation   string     `json:"allocation"`
	Status       StatusKind `json:"status"`
	Detail       string     `json:"detail,omitempty"`
	RecordHash   string     `json:"record_hash,omitempty"`
	CreatedAt    int64      `json:"created_at"`
}

// StatusLine 返回面向用户的状态文案。
func (r ResultInfo) StatusLine() string {
	return StatusLine(r.Status, r.Detail)
}
