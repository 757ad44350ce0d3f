// Package curve implements the fixed short-Weierstrass curve used by the
// settlement protocol: y² = x³ + αx + β over the 252-bit prime field
// P = 2²⁵¹ + 17·2¹⁹² + 1, with α = 1.
//
// Points are affine; a nil *Point is the point at infinity. All arithmetic
// is arbitrary precision and exact. The package-level parameters are
// initialized once and never mutated, so they are safe for concurrent reads.
package curve

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// P is the field prime 2^251 + 17*2^192 + 1.
	P = mustHex("800000000000011000000000000000000000000000000000000000000000001")

	// N is the order of the curve group generated by Gen.
	N = mustHex("800000000000010ffffffffffffffffb781126dcae7b2321e66a241adc64d2f")

	// Alpha and Beta are the Weierstrass coefficients.
	Alpha = big.NewInt(1)
	Beta  = mustHex("6f21413efbe40de150e596d72f7a8c5609ad26c15c915c1f4cdfcb99cee9e89")

	// Gen is the group generator.
	Gen = &Point{
		X: mustHex("1ef15c18599971b7beced415a40f0c7deacfd9b0d1819e03d723d8bc943cfca"),
		Y: mustHex("5668060aa49730b7be4801df46ec62de53ecd11abe43a32873000c36e8dc1f"),
	}
)

// ErrNoSquareRoot reports an x coordinate that does not identify any point
// on the curve.
var ErrNoSquareRoot = errors.New("curve: x coordinate is not on the curve")

// Point is an affine curve point.
type Point struct {
	X, Y *big.Int
}

// NewPoint returns a point with copies of the given coordinates.
func NewPoint(x, y *big.Int) *Point {
	return &Point{X: new(big.Int).Set(x), Y: new(big.Int).Set(y)}
}

// Clone returns a deep copy of p. The infinity point clones to itself.
func (p *Point) Clone() *Point {
	if p == nil {
		return nil
	}
	return NewPoint(p.X, p.Y)
}

// Equal reports whether p and q are the same point.
func (p *Point) Equal(q *Point) bool {
	if p == nil || q == nil {
		return p == q
	}
	return p.X.Cmp(q.X) == 0 && p.Y.Cmp(q.Y) == 0
}

// IsOnCurve reports whether p satisfies the curve equation with both
// coordinates reduced into the field. Infinity is not considered on-curve.
func IsOnCurve(p *Point) bool {
	if p == nil {
		return false
	}
	if p.X.Sign() < 0 || p.X.Cmp(P) >= 0 || p.Y.Sign() < 0 || p.Y.Cmp(P) >= 0 {
		return false
	}
	lhs := new(big.Int).Mul(p.Y, p.Y)
	lhs.Mod(lhs, P)
	rhs := rhs(p.X)
	return lhs.Cmp(rhs) == 0
}

// Add returns p + q. Either argument may be infinity.
func Add(p, q *Point) *Point {
	if p == nil {
		return q.Clone()
	}
	if q == nil {
		return p.Clone()
	}
	if p.X.Cmp(q.X) == 0 {
		ySum := new(big.Int).Add(p.Y, q.Y)
		if ySum.Mod(ySum, P).Sign() == 0 {
			return nil
		}
		return Double(p)
	}
	// slope = (py - qy) / (px - qx)
	num := new(big.Int).Sub(p.Y, q.Y)
	den := new(big.Int).Sub(p.X, q.X)
	m := fieldDiv(num, den)

	x := new(big.Int).Mul(m, m)
	x.Sub(x, p.X)
	x.Sub(x, q.X)
	x.Mod(x, P)

	y := new(big.Int).Sub(p.X, x)
	y.Mul(y, m)
	y.Sub(y, p.Y)
	y.Mod(y, P)
	return &Point{X: x, Y: y}
}

// Double returns 2p.
func Double(p *Point) *Point {
	if p == nil {
		return nil
	}
	// slope = (3x² + α) / 2y
	num := new(big.Int).Mul(p.X, p.X)
	num.Mul(num, big.NewInt(3))
	num.Add(num, Alpha)
	den := new(big.Int).Lsh(p.Y, 1)
	m := fieldDiv(num, den)

	x := new(big.Int).Mul(m, m)
	x.Sub(x, p.X)
	x.Sub(x, p.X)
	x.Mod(x, P)

	y := new(big.Int).Sub(p.X, x)
	y.Mul(y, m)
	y.Sub(y, p.Y)
	y.Mod(y, P)
	return &Point{X: x, Y: y}
}

// ScalarMult returns k * p for a non-negative scalar k.
func ScalarMult(k *big.Int, p *Point) *Point {
	var acc *Point
	q := p.Clone()
	for i := 0; i < k.BitLen(); i++ {
		if k.Bit(i) == 1 {
			acc = Add(acc, q)
		}
		q = Double(q)
	}
	return acc
}

// RecoverY returns a y coordinate such that (x, y) is on the curve. The
// matching point for a given public key is either (x, y) or (x, P-y).
func RecoverY(x *big.Int) (*big.Int, error) {
	if x.Sign() < 0 || x.Cmp(P) >= 0 {
		return nil, fmt.Errorf("curve: x coordinate out of field range")
	}
	y := new(big.Int).ModSqrt(rhs(x), P)
	if y == nil {
		return nil, ErrNoSquareRoot
	}
	return y, nil
}

// rhs evaluates x³ + αx + β in the field.
func rhs(x *big.Int) *big.Int {
	r := new(big.Int).Mul(x, x)
	r.Mul(r, x)
	r.Add(r, new(big.Int).Mul(Alpha, x))
	r.Add(r, Beta)
	return r.Mod(r, P)
}

// fieldDiv returns num/den in the field. den must be nonzero mod P.
func fieldDiv(num, den *big.Int) *big.Int {
	inv := new(big.Int).ModInverse(new(big.Int).Mod(den, P), P)
	m := new(big.Int).Mul(num, inv)
	return m.Mod(m, P)
}

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("curve: invalid parameter constant " + s)
	}
	return v
}
