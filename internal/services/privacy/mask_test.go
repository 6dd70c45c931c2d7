package privacy

import (
	"math/big"
	"testing"

	"uqalloc-query/internal/domain/model"
)

func TestMaskAddress(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"0x000000000000000000000000000000000000dEaD", "0x0000...dEaD"},
		{"0x777172385ac1d2e4ac61a9a98b0686cb4701b3a7", "0x7771...b3a7"},
		{"not-an-address", "<masked>"},
		{"0x1234", "<masked>"},
		{"", ""},
	}
	for _, c := range cases {
		if got := MaskAddress(c.in); got != c.want {
			t.Fatalf("MaskAddress(%q): got %q want %q", c.in, got, c.want)
		}
	}
}

func TestMaskResultsCopies(t *testing.T) {
	t.Parallel()

	orig := []model.QueryResult{
		{
			Position:     0,
			InputAddress: "0x000000000000000000000000000000000000dead",
			Address:      "0x000000000000000000000000000000000000dEaD",
			Allocation:   big.NewInt(7),
			Status:       model.StatusSuccess,
		},
	}
	masked := MaskResults(orig)
	if masked[0].Address != "0x0000...dEaD" {
		t.Fatalf("unexpected masked address: %s", masked[0].Address)
	}
	// 原切片不被修改。
	if orig[0].Address != "0x000000000000000000000000000000000000dEaD" {
		t.Fatalf("original slice was mutated: %s", orig[0].Address)
	}
	if masked[0].Allocation.Cmp(big.NewInt(7)) != 0 || masked[0].Status != model.StatusSuccess {
		t.Fatalf("non-address fields must survive masking: %+v", masked[0])
	}
}
