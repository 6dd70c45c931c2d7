package allocquery

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"uqalloc-query/internal/domain/model"
)

// Options 定义一次批量查询的输入。
type Options struct {
	// Addresses 是原始输入地址，允许包含非法项。
	Addresses []string
	// Reader 执行单地址合约调用。
	Reader *Reader
	// Progress 非空时在每个地址查询前回调，index 从 1 计数。
	Progress func(index, total int, address string)
}

// Outcome 是一次批量查询的完整产出。
type Outcome struct {
	Results    []model.QueryResult `json:"results"`
	Summary    model.RunSummary    `json:"summary"`
	StartedAt  int64               `json:"started_at"`
	FinishedAt int64               `json:"finished_at"`
}

// Run 执行批量查询主流程：逐地址校验、调用、汇总。
//
// 严格串行，一个地址完成后才开始下一个；单地址失败只记入对应结果，
// 绝不中断批次。返回的 Results 与 Addresses 等长且顺序一致。
// 仅空输入返回错误，连接问题在调用方建连阶段拦截。
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	if len(opts.Addresses) == 0 {
		return nil, errors.New("no addresses to query")
	}
	if opts.Reader == nil {
		return nil, errors.New("reader is required")
	}

	started := time.Now().Unix()
	results := make([]model.QueryResult, 0, len(opts.Addresses))
	for i, raw := range opts.Addresses {
		if opts.Progress != nil {
			opts.Progress(i+1, len(opts.Addresses), raw)
		}
		results = append(results, queryOne(ctx, opts.Reader, i, raw))
	}

	return &Outcome{
		Results:    results,
		Summary:    Summarize(results),
		StartedAt:  started,
		FinishedAt: time.Now().Unix(),
	}, nil
}

// queryOne 处理单个地址：非法地址直接落结果，不发起链上调用。
// 成功时 Address 为 EIP-55 规范形式，失败时保留原始输入。
func queryOne(ctx context.Context, rd *Reader, position int, raw string) model.QueryResult {
	res := model.QueryResult{
		Position:     position,
		InputAddress: raw,
		Address:      raw,
		Allocation:   big.NewInt(0),
	}

	canonical, ok := NormalizeAddress(raw)
	if !ok {
		res.Status = model.StatusInvalidAddress
		return res
	}

	alloc, err := rd.Read(ctx, common.HexToAddress(canonical))
	if err != nil {
		var qe *QueryError
		if errors.As(err, &qe) {
			res.Status = qe.Kind
			res.Detail = qe.Detail
		} else {
			res.Status = model.StatusUnknownError
			res.Detail = err.Error()
		}
		return res
	}

	res.Address = canonical
	res.Allocation = alloc
	res.Status = model.StatusSuccess
	return res
}

// Summarize 单次遍历结果列表计算运行统计。
// 任何子集上重复计算结果一致，便于持久化后复核。
func Summarize(results []model.QueryResult) model.RunSummary {
	sum := model.RunSummary{
		Total:           len(results),
		TotalAllocation: new(big.Int),
	}
	for _, r := range results {
		if r.Succeeded() {
			sum.Successful++
			if r.Allocation != nil {
				sum.TotalAllocation.Add(sum.TotalAllocation, r.Allocation)
			}
		}
	}
	sum.Failed = sum.Total - sum.Successful
	return sum
}
