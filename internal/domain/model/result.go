package model

import "math/big"

// StatusKind 表示单个地址查询结果的分类。
// 分类是契约；展示文案只是 StatusLine 的一种渲染。
type StatusKind string

const (
	// StatusSuccess 表示合约调用成功返回。
	StatusSuccess StatusKind = "success"
	// StatusInvalidAddress 表示地址格式/校验和不合法，未发起调用。
	StatusInvalidAddress StatusKind = "invalid_address"
	// StatusContractError 表示节点执行了调用但确定性拒绝（revert 等）。
	StatusContractError StatusKind = "contract_error"
	// StatusTransportError 表示调用未能到达或未能完成（网络/超时/响应异常）。
	StatusTransportError StatusKind = "transport_error"
	// StatusUnknownError 表示客户端层抛出的其他异常。
	StatusUnknownError StatusKind = "unknown_error"
)

// QueryResult 是批量查询中单个地址的结果。
// 创建后不再修改；Position 与输入顺序一一对应。
type QueryResult struct {
	// Position 是该地址在输入列表中的下标（从 0 开始）。
	Position int `json:"position"`
	// InputAddress 是用户输入的原始字符串。
	InputAddress string `json:"input_address"`
	// Address 在成功路径上是 EIP-55 校验和格式；失败时保留原始输入。
	Address string `json:"address"`
	// Allocation 仅在 StatusSuccess 时非零；其余状态恒为 0。
	Allocation *big.Int `json:"allocation"`
	Status     StatusKind `json:"status"`
	// Detail 是失败明细（错误消息），成功时为空。
	Detail string `json:"detail,omitempty"`
}

// Succeeded 报告该结果是否为成功查询。
func (r QueryResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// AllocationString 返回十进制字符串形式的 allocation（nil 兜底为 "0"）。
func (r QueryResult) AllocationString() string {
	if r.Allocation == nil {
		return "0"
	}
	return r.Allocation.String()
}

// StatusLine 返回面向用户的状态文案。
func (r QueryResult) StatusLine() string {
	return StatusLine(r.Status, r.Detail)
}

// StatusLine 把分类 + 明细渲染为展示用状态行。
func StatusLine(kind StatusKind, detail string) string {
	label := ""
	switch kind {
	case StatusSuccess:
		return "Success"
	case StatusInvalidAddress:
		return "Invalid address format"
	case StatusContractError:
		label = "Contract error"
	case StatusTransportError:
		label = "RPC error"
	case StatusUnknownError:
		label = "Error"
	default:
		label = "Error"
	}
	if detail == "" {
		return label
	}
	return label + ": " + detail
}

// RunSummary 是一次批量查询的派生统计，结果列表定稿后单次遍历得出。
type RunSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	// TotalAllocation 是所有成功结果的 allocation 之和。
	TotalAllocation *big.Int `json:"total_allocation"`
}

// TotalAllocationString 返回十进制字符串形式的总量（nil 兜底为 "0"）。
func (s RunSummary) TotalAllocationString() string {
	if s.TotalAllocation == nil {
		return "0"
	}
	return s.TotalAllocation.String()
}
