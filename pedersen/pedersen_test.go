package pedersen

import (
	"errors"
	"math/big"
	"testing"

	"github.com/orbitex-network/oxcrypto/curve"
)

func hexInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		t.Fatalf("bad hex constant %q", s)
	}
	return v
}

func TestHashVectors(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want string
	}{
		{
			name: "small",
			a:    "1",
			b:    "2",
			want: "5bb9440e27889a364bcb678b1f679ecd1347acdedcbf36e83494f857cc58026",
		},
		{
			name: "field sized 1",
			a:    "3d937c035c878245caf64531a5756109c53068da139362728feb561405371cb",
			b:    "208a0a10250e382e1e4bbe2880906c2791bf6275695e02fbbc6aeff9cd8b31a",
			want: "30e480bed5fe53fa909cc0f8c4d99b8f9f2c016be4c41e13a4848797979c662",
		},
		{
			name: "field sized 2",
			a:    "58f580910a6ca59b28927c08fe6c43e2e303ca384badc365795fc645d479d45",
			b:    "78734f65a067be9bdb39de18434d71e79f7b6466a4b66bbd979ab9e7515fe0b",
			want: "68cc0b76cddd1dd4ed2301ada9b7c872b23875d5ff837b3a87993e0d9996b87",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Hash(hexInt(t, tc.a), hexInt(t, tc.b))
			if err != nil {
				t.Fatalf("hash: %v", err)
			}
			if want := hexInt(t, tc.want); got.Cmp(want) != 0 {
				t.Fatalf("unexpected hash\nwant: %#x\n got: %#x", want, got)
			}
		})
	}
}

func TestHashSingleElement(t *testing.T) {
	got, err := Hash(hexInt(t, "1234567890abcdef"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	want := hexInt(t, "573acc69f8ee19c53d6c6ed1eebde6238cd8b221d7ce12d8db63cd88a7bb624")
	if got.Cmp(want) != 0 {
		t.Fatalf("unexpected hash\nwant: %#x\n got: %#x", want, got)
	}
}

func TestHashZeroIsShiftPointX(t *testing.T) {
	got, err := Hash(big.NewInt(0), big.NewInt(0))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if got.Cmp(shiftPoint.X) != 0 {
		t.Fatalf("hash of zeros is not the shift point x: %#x", got)
	}
}

func TestHashDeterministicAndSensitive(t *testing.T) {
	a := hexInt(t, "3d937c035c878245caf64531a5756109c53068da139362728feb561405371cb")
	b := hexInt(t, "208a0a10250e382e1e4bbe2880906c2791bf6275695e02fbbc6aeff9cd8b31a")

	h1, err := Hash(a, b)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := Hash(a, b)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1.Cmp(h2) != 0 {
		t.Fatal("hash is not deterministic")
	}

	flipped := new(big.Int).Xor(b, big.NewInt(1))
	h3, err := Hash(a, flipped)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1.Cmp(h3) == 0 {
		t.Fatal("flipping an input bit did not change the hash")
	}
}

func TestHashRejectsOutOfRangeInput(t *testing.T) {
	if _, err := Hash(new(big.Int).Set(curve.P), big.NewInt(0)); !errors.Is(err, ErrInputRange) {
		t.Fatalf("expected ErrInputRange for input = P, got %v", err)
	}
	if _, err := Hash(big.NewInt(-1)); !errors.Is(err, ErrInputRange) {
		t.Fatalf("expected ErrInputRange for negative input, got %v", err)
	}
	pMinus1 := new(big.Int).Sub(curve.P, big.NewInt(1))
	if _, err := Hash(pMinus1, big.NewInt(0)); err != nil {
		t.Fatalf("P-1 must hash, got %v", err)
	}
}

func TestHashArity(t *testing.T) {
	if _, err := Hash(); err == nil {
		t.Fatal("expected error for zero inputs")
	}
	if _, err := Hash(big.NewInt(1), big.NewInt(2), big.NewInt(3)); err == nil {
		t.Fatal("expected error for three inputs")
	}
}

func TestConstantTableShape(t *testing.T) {
	pts := constantPoints()
	if len(pts) != 2+maxElements*elementBits {
		t.Fatalf("table has %d points, want %d", len(pts), 2+maxElements*elementBits)
	}
	for i, p := range pts {
		if !curve.IsOnCurve(p) {
			t.Fatalf("table point %d is off-curve", i)
		}
	}
	// each chain entry doubles its predecessor
	for slot := 0; slot < maxElements; slot++ {
		base := 2 + slot*elementBits
		for j := 1; j < lowPartBits; j++ {
			if !pts[base+j].Equal(curve.Double(pts[base+j-1])) {
				t.Fatalf("slot %d low chain broken at %d", slot, j)
			}
		}
		high := base + lowPartBits
		for j := 1; j < elementBits-lowPartBits; j++ {
			if !pts[high+j].Equal(curve.Double(pts[high+j-1])) {
				t.Fatalf("slot %d high chain broken at %d", slot, j)
			}
		}
	}
}
