package allocquery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"uqalloc-query/internal/domain/model"
)

const (
	// DefaultContractAddress 是 UqbarDAO 合约（Optimism 主网）。
	DefaultContractAddress = "0x777172385ac1d2e4ac61a9a98b0686cb4701b3a7"
	// DefaultRPCURL 是默认公共 RPC 端点，可被配置覆盖。
	DefaultRPCURL = "https://mainnet.optimism.io"
	// FunctionName 是本工具唯一支持的只读函数。
	FunctionName = "uqAlloc"
)

// uqAllocABIJSON 只收录需要的函数片段，合约其余接口与本工具无关。
const uqAllocABIJSON = `[{"inputs":[{"internalType":"address","name":"","type":"address"}],"name":"uqAlloc","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

// ContractCaller 是只读合约调用的最小接口，*ethclient.Client 直接满足。
// 测试用桩实现替换真实节点。
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// QueryError 是单地址查询失败的分类错误。
// Kind 区分合约逻辑拒绝 / 网络失败 / 未知失败，Detail 保留底层错误摘要。
type QueryError struct {
	Kind   model.StatusKind
	Detail string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Reader 对固定合约执行 uqAlloc(address) 只读调用。
type Reader struct {
	caller   ContractCaller
	contract common.Address
	parsed   abi.ABI
}

// NewReader 构造 Reader；contractAddress 为空时使用默认合约。
func NewReader(caller ContractCaller, contractAddress string) (*Reader, error) {
	if caller == nil {
		return nil, errors.New("contract caller is required")
	}
	parsed, err := abi.JSON(strings.NewReader(uqAllocABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse uqAlloc abi: %w", err)
	}
	addr := strings.TrimSpace(contractAddress)
	if addr == "" {
		addr = DefaultContractAddress
	}
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid contract address: %s", contractAddress)
	}
	return &Reader{caller: caller, contract: common.HexToAddress(addr), parsed: parsed}, nil
}

// Contract 返回规范形式的目标合约地址。
func (r *Reader) Contract() string { return r.contract.Hex() }

// Read 对单个持有人地址执行一次同步 eth_call（latest 区块）。
// 不重试、不缓存；失败以 *QueryError 返回并携带分类。
func (r *Reader) Read(ctx context.Context, holder common.Address) (*big.Int, error) {
	data, err := r.parsed.Pack(FunctionName, holder)
	if err != nil {
		return nil, &QueryError{Kind: model.StatusUnknownError, Detail: err.Error(), Err: err}
	}

	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.contract, Data: data}, nil)
	if err != nil {
		return nil, classify(err)
	}

	out, err := r.parsed.Unpack(FunctionName, raw)
	if err != nil {
		// 响应载荷缺失或无法按 uint256 解码，按网络层异常处理。
		return nil, &QueryError{Kind: model.StatusTransportError, Detail: fmt.Sprintf("malformed call result: %v", err), Err: err}
	}
	alloc, ok := out[0].(*big.Int)
	if !ok {
		return nil, &QueryError{Kind: model.StatusTransportError, Detail: "malformed call result: not a uint256", Err: nil}
	}
	return alloc, nil
}

// classify 把 eth_call 的错误归入状态分类：
//   - 合约逻辑拒绝：节点执行了调用并返回 revert（错误码 3、携带 revert 数据、或消息含 revert）；
//   - 网络失败：HTTP/连接/超时/载荷损坏等传输层问题；
//   - 未知失败：其余情况（含限流等非 revert 的 JSON-RPC 错误）。
func classify(err error) *QueryError {
	detail := err.Error()

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if rpcErr.ErrorCode() == 3 || containsRevert(detail) {
			return &QueryError{Kind: model.StatusContractError, Detail: detail, Err: err}
		}
		var dataErr rpc.DataError
		if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
			return &QueryError{Kind: model.StatusContractError, Detail: detail, Err: err}
		}
		return &QueryError{Kind: model.StatusUnknownError, Detail: detail, Err: err}
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return &QueryError{Kind: model.StatusTransportError, Detail: detail, Err: err}
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &QueryError{Kind: model.StatusTransportError, Detail: detail, Err: err}
	}

	if containsRevert(detail) {
		return &QueryError{Kind: model.StatusContractError, Detail: detail, Err: err}
	}
	return &QueryError{Kind: model.StatusUnknownError, Detail: detail, Err: err}
}

func containsRevert(s string) bool {
	return strings.Contains(strings.ToLower(s), "revert")
}
