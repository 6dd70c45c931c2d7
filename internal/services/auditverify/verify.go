package auditverify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"uqalloc-query/internal/domain/model"
	"uqalloc-query/internal/platform/hash"
)

// FailureItem 记录单条审计事件的校验失败明细。
type FailureItem struct {
	Index int `json:"index"`

	EventID    string `json:"event_id"`
	OccurredAt int64  `json:"occurred_at"`
	EventType  string `json:"event_type"`
	Action     string `json:"action"`
	Status     string `json:"status"`

	// PrevHashMismatch：该事件的 chain_prev_hash 与前一条事件的 chain_hash 不一致。
	PrevHashMismatch bool   `json:"prev_hash_mismatch"`
	ExpectedPrevHash string `json:"expected_prev_hash,omitempty"`
	ActualPrevHash   string `json:"actual_prev_hash,omitempty"`

	// ChainHashMismatch：按公式重算的 chain_hash 与存量值不一致。
	ChainHashMismatch bool   `json:"chain_hash_mismatch"`
	ExpectedChainHash string `json:"expected_chain_hash,omitempty"`
	ActualChainHash   string `json:"actual_chain_hash,omitempty"`

	Message string `json:"message,omitempty"`
}

// Result 汇总一次审计链校验。
type Result struct {
	OK bool `json:"ok"`

	Total int `json:"total"`

	Failed          int `json:"failed"`
	PrevHashFailed  int `json:"prev_hash_failed"`
	ChainHashFailed int `json:"chain_hash_failed"`

	LastChainHash string `json:"last_chain_hash,omitempty"`

	Failures []FailureItem `json:"failures,omitempty"`
}

// VerifyAuditLogs 按事件顺序重算审计链并与存量字段比对。
// 校验两件事：chain_prev_hash 的前后衔接，以及 chain_hash 本身。
// 重算公式必须与 Store.AppendAudit 写入时保持一致。
func VerifyAuditLogs(logs []model.AuditLog) Result {
	res := Result{
		OK:       true,
		Total:    len(logs),
		Failures: []FailureItem{},
	}

	prev := ""
	for i, ev := range logs {
		item, storedChain := checkEvent(i, ev, prev)
		if item != nil {
			res.OK = false
			res.Failed++
			if item.PrevHashMismatch {
				res.PrevHashFailed++
			}
			if item.ChainHashMismatch {
				res.ChainHashFailed++
			}
			res.Failures = append(res.Failures, *item)
		}
		// 以库中记录的 chain_hash 推进，坏链之后的事件仍能继续定位差异。
		prev = storedChain
		res.LastChainHash = storedChain
	}

	return res
}

// checkEvent 校验单条事件，通过时返回 nil；第二个返回值是库中记录的 chain_hash。
func checkEvent(index int, ev model.AuditLog, expectedPrev string) (*FailureItem, string) {
	storedPrev := strings.TrimSpace(ev.ChainPrevHash)
	storedChain := strings.TrimSpace(ev.ChainHash)

	// 入库时 detail_json 来自 json.Marshal（紧凑形式），但导出清单会经过
	// MarshalIndent 美化；重算前统一 compact，确保只有真实篡改才会报差异。
	expectedChain := hash.Text(
		expectedPrev,
		ev.RunID,
		ev.EventType,
		ev.Action,
		ev.Status,
		fmt.Sprintf("%d", ev.OccurredAt),
		compactJSON(ev.DetailJSON),
	)

	prevMismatch := storedPrev != expectedPrev
	chainMismatch := storedChain != expectedChain
	if !prevMismatch && !chainMismatch {
		return nil, storedChain
	}

	msg := "chain_hash mismatch"
	if prevMismatch && chainMismatch {
		msg = "chain_prev_hash and chain_hash mismatch"
	} else if prevMismatch {
		msg = "chain_prev_hash mismatch"
	}

	return &FailureItem{
		Index:      index,
		EventID:    ev.EventID,
		OccurredAt: ev.OccurredAt,
		EventType:  ev.EventType,
		Action:     ev.Action,
		Status:     ev.Status,

		PrevHashMismatch: prevMismatch,
		ExpectedPrevHash: expectedPrev,
		ActualPrevHash:   storedPrev,

		ChainHashMismatch: chainMismatch,
		ExpectedChainHash: expectedChain,
		ActualChainHash:   storedChain,

		Message: msg,
	}, storedChain
}

func compactJSON(in []byte) string {
	if len(bytes.TrimSpace(in)) == 0 {
		return "{}"
	}
	var b bytes.Buffer
	if err := json.Compact(&b, in); err == nil {
		return b.String()
	}
	// 非 JSON 内容按原样参与重算，和写入侧行为一致。
	return strings.TrimSpace(string(in))
}
