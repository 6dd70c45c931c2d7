package allocquery

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"uqalloc-query/internal/domain/model"
)

// stubCaller 以固定函数响应每次 eth_call，并记录调用次数。
type stubCaller struct {
	calls int
	fn    func(call ethereum.CallMsg) ([]byte, error)
}

func (s *stubCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	s.calls++
	return s.fn(call)
}

// holderFromCallData 还原 uqAlloc 调用参数中的持有人地址。
func holderFromCallData(data []byte) common.Address {
	if len(data) != 36 {
		return common.Address{}
	}
	return common.BytesToAddress(data[16:36])
}

func encodeUint256(v int64) []byte {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

func TestRunOrderAndIsolation(t *testing.T) {
	t.Parallel()

	okAddr := "0x000000000000000000000000000000000000dEaD"
	badAddr := "not-an-address"
	revertAddr := "0x1111111111111111111111111111111111111111"

	caller := &stubCaller{fn: func(call ethereum.CallMsg) ([]byte, error) {
		if holderFromCallData(call.Data) == common.HexToAddress(revertAddr) {
			return nil, errors.New("execution reverted: not eligible")
		}
		return encodeUint256(42), nil
	}}
	rd, err := NewReader(caller, "")
	if err != nil {
		t.Fatalf("%+v", err)
	}

	out, err := Run(context.Background(), Options{
		Addresses: []string{okAddr, badAddr, revertAddr, strings.ToLower(okAddr)},
		Reader:    rd,
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if len(out.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(out.Results))
	}
	for i, r := range out.Results {
		if r.Position != i {
			t.Fatalf("result %d has position %d", i, r.Position)
		}
	}
	// 非法地址不发起链上调用。
	if caller.calls != 3 {
		t.Fatalf("expected 3 contract calls, got %d", caller.calls)
	}

	if out.Results[0].Status != model.StatusSuccess || out.Results[0].Address != okAddr {
		t.Fatalf("unexpected first result: %+v", out.Results[0])
	}
	if out.Results[1].Status != model.StatusInvalidAddress || out.Results[1].Address != badAddr {
		t.Fatalf("unexpected invalid result: %+v", out.Results[1])
	}
	if out.Results[2].Status != model.StatusContractError || out.Results[2].Address != revertAddr {
		t.Fatalf("unexpected revert result: %+v", out.Results[2])
	}
	if out.Results[3].Status != model.StatusSuccess || out.Results[3].Address != okAddr {
		t.Fatalf("lowercase input not canonicalized: %+v", out.Results[3])
	}

	sum := out.Summary
	if sum.Total != 4 || sum.Successful != 2 || sum.Failed != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.TotalAllocation.Cmp(big.NewInt(84)) != 0 {
		t.Fatalf("unexpected total allocation: %s", sum.TotalAllocation)
	}
}

func TestRunProgressCallback(t *testing.T) {
	t.Parallel()

	caller := &stubCaller{fn: func(ethereum.CallMsg) ([]byte, error) {
		return encodeUint256(1), nil
	}}
	rd, err := NewReader(caller, "")
	if err != nil {
		t.Fatalf("%+v", err)
	}

	var seen []string
	_, err = Run(context.Background(), Options{
		Addresses: []string{"0x1111111111111111111111111111111111111111", "bogus"},
		Reader:    rd,
		Progress: func(index, total int, address string) {
			seen = append(seen, fmt.Sprintf("%d/%d %s", index, total, address))
		},
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	want := []string{
		"1/2 0x1111111111111111111111111111111111111111",
		"2/2 bogus",
	}
	if len(seen) != len(want) {
		t.Fatalf("unexpected progress lines: %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("progress line %d: got %q want %q", i, seen[i], want[i])
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	t.Parallel()

	caller := &stubCaller{fn: func(ethereum.CallMsg) ([]byte, error) {
		return encodeUint256(1), nil
	}}
	rd, err := NewReader(caller, "")
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if _, err := Run(context.Background(), Options{Reader: rd}); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	sum := Summarize(nil)
	if sum.Total != 0 || sum.Successful != 0 || sum.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.TotalAllocationString() != "0" {
		t.Fatalf("unexpected total allocation: %s", sum.TotalAllocationString())
	}
}
