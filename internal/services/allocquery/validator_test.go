package allocquery

import "testing"

func TestNormalizeAddressCanonical(t *testing.T) {
	t.Parallel()

	canonical := "0x000000000000000000000000000000000000dEaD"
	got, ok := NormalizeAddress(canonical)
	if !ok {
		t.Fatalf("expected canonical address to be accepted")
	}
	if got != canonical {
		t.Fatalf("unexpected canonical form: %s", got)
	}
}

func TestNormalizeAddressLowerAndUpper(t *testing.T) {
	t.Parallel()

	want := "0x000000000000000000000000000000000000dEaD"
	for _, in := range []string{
		"0x000000000000000000000000000000000000dead",
		"0x000000000000000000000000000000000000DEAD",
		"  0x000000000000000000000000000000000000dead  ",
	} {
		got, ok := NormalizeAddress(in)
		if !ok {
			t.Fatalf("expected %q to be accepted", in)
		}
		if got != want {
			t.Fatalf("input %q: got %s want %s", in, got, want)
		}
	}
}

func TestNormalizeAddressChecksumMismatch(t *testing.T) {
	t.Parallel()

	// 混合大小写但与 EIP-55 校验和不符。
	if _, ok := NormalizeAddress("0x000000000000000000000000000000000000DeaD"); ok {
		t.Fatalf("expected checksum mismatch to be rejected")
	}
}

func TestNormalizeAddressInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"",
		"   ",
		"not-an-address",
		"0x1234",
		"0x00000000000000000000000000000000000000zz",
		"0x000000000000000000000000000000000000dead11",
	} {
		if _, ok := NormalizeAddress(in); ok {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}
