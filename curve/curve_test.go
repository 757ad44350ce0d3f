package curve

import (
	"errors"
	"math/big"
	"testing"
)

func hexInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		t.Fatalf("bad hex constant %q", s)
	}
	return v
}

func TestGeneratorOnCurve(t *testing.T) {
	if !IsOnCurve(Gen) {
		t.Fatal("generator is not on the curve")
	}
}

func TestGeneratorOrder(t *testing.T) {
	if got := ScalarMult(N, Gen); got != nil {
		t.Fatalf("N*G is not infinity, x = %#x", got.X)
	}
}

func TestAddDoubleConsistency(t *testing.T) {
	two := big.NewInt(2)
	if !ScalarMult(two, Gen).Equal(Double(Gen)) {
		t.Fatal("2*G != Double(G)")
	}
	if !Add(Gen, Double(Gen)).Equal(ScalarMult(big.NewInt(3), Gen)) {
		t.Fatal("G + 2G != 3G")
	}

	// adding a point to its negation lands on infinity
	neg := &Point{X: new(big.Int).Set(Gen.X), Y: new(big.Int).Sub(P, Gen.Y)}
	if Add(Gen, neg) != nil {
		t.Fatal("G + (-G) is not infinity")
	}
	if Add(nil, Gen) == nil || Add(Gen, nil) == nil {
		t.Fatal("adding infinity lost the other operand")
	}
}

func TestScalarMultMatchesRepeatedAdd(t *testing.T) {
	var acc *Point
	for i := 1; i <= 12; i++ {
		acc = Add(acc, Gen)
		if !acc.Equal(ScalarMult(big.NewInt(int64(i)), Gen)) {
			t.Fatalf("scalar mult mismatch at %d", i)
		}
	}
}

func TestRecoverY(t *testing.T) {
	y, err := RecoverY(Gen.X)
	if err != nil {
		t.Fatalf("recover generator y: %v", err)
	}
	negY := new(big.Int).Sub(P, y)
	if y.Cmp(Gen.Y) != 0 && negY.Cmp(Gen.Y) != 0 {
		t.Fatalf("recovered y matches neither root: %#x", y)
	}

	// x = 0 identifies no point on this curve
	if _, err := RecoverY(big.NewInt(0)); !errors.Is(err, ErrNoSquareRoot) {
		t.Fatalf("expected ErrNoSquareRoot for x=0, got %v", err)
	}
	if _, err := RecoverY(P); err == nil {
		t.Fatal("expected range error for x = P")
	}
}

func TestScalarMultVector(t *testing.T) {
	priv := hexInt(t, "2dccce1da22003777062ee0870e9881b460a8b7eca276870f57c601f182136c")
	pub := ScalarMult(priv, Gen)

	wantX := hexInt(t, "499f65ae2f71d5298d2d88823b2e5e19596a71aac1984710479e406a002439")
	wantY := hexInt(t, "4745865467631492cf6ecc433a3cf4ecc580d698097d6b738ad8f3da7c4d66c")
	if pub.X.Cmp(wantX) != 0 || pub.Y.Cmp(wantY) != 0 {
		t.Fatalf("unexpected public point\nwant: (%#x, %#x)\n got: (%#x, %#x)", wantX, wantY, pub.X, pub.Y)
	}
	if !IsOnCurve(pub) {
		t.Fatal("derived public point is off-curve")
	}
}
