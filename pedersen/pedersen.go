// Package pedersen implements the protocol's collision-resistant hash,
// built by conditionally summing precomputed curve points selected by the
// bits of the inputs.
package pedersen

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/orbitex-network/oxcrypto/curve"
)

const (
	// elementBits is the number of table points consumed per input slot.
	elementBits = 252
	// lowPartBits is the size of a slot's low doubling chain; the remaining
	// elementBits - lowPartBits points continue from the slot's high base.
	lowPartBits = 248
	// maxElements is the widest hash this protocol defines.
	maxElements = 2
)

var (
	// ErrUnhashableInput is returned when a running sum would be added to a
	// constant point with the same x coordinate. This cannot happen for
	// honest inputs and a correct table; it signals a forged input or a
	// corrupted constant table and always aborts the hash.
	ErrUnhashableInput = errors.New("pedersen: unhashable input")

	// ErrInputRange is returned when an input is not a reduced field element.
	ErrInputRange = errors.New("pedersen: input out of field range")
)

// shiftPoint offsets the running sum so it never passes through infinity
// while hashing valid inputs.
var shiftPoint = &curve.Point{
	X: mustHex("49ee3eba8c1600700ee1b87eb599f16716b0b1022947733551fde4050ca6804"),
	Y: mustHex("3ca0cfe4b3bc6ddf346d49d06ea0ed34e621062c0e056c1d0405d266e10268a"),
}

// slotBases holds, per input slot, the base points of the low and high
// doubling chains. Together with shiftPoint and the curve generator these
// six points fix the whole constant table.
var slotBases = [maxElements][2]*curve.Point{
	{
		{
			X: mustHex("234287dcbaffe7f969c748655fca9e58fa8120b6d56eb0c1080d17957ebe47b"),
			Y: mustHex("3b056f100f96fb21e889527d41f4e39940135dd7a6c94cc6ed0268ee89e5615"),
		},
		{
			X: mustHex("4fa56f376c83db33f9dab2656558f3399099ec1de5e3018b7a6932dba8aa378"),
			Y: mustHex("3fa0984c931c9e38113e0c0e47e4401562761f92a7a23b45168f4e80ff5b54d"),
		},
	},
	{
		{
			X: mustHex("4ba4cc166be8dec764910f75b45f74b40c690c74709e90f3aa372f0bd2d6997"),
			Y: mustHex("40301cf5c1751f4b971e46c4ede85fcac5c59a5ce5ae7c48151f27b24b219c"),
		},
		{
			X: mustHex("54302dcb0e6cc1c6e44cca8f61a63bb2ca65048d53fb325d36ff12c49a58202"),
			Y: mustHex("1b77b3e37d13504b348046268d8ae25ce98ad783c25561a879dcc77e99c2426"),
		},
	},
}

var (
	tableOnce sync.Once
	table     []*curve.Point
)

// constantPoints expands the slot bases into the full table: the shift
// point, the generator, then per slot the low chain followed by the high
// chain of doublings. Built once, read-only afterwards.
func constantPoints() []*curve.Point {
	tableOnce.Do(func() {
		pts := make([]*curve.Point, 0, 2+maxElements*elementBits)
		pts = append(pts, shiftPoint, curve.Gen)
		for _, bases := range slotBases {
			p := bases[0].Clone()
			for j := 0; j < lowPartBits; j++ {
				pts = append(pts, p)
				p = curve.Double(p)
			}
			p = bases[1].Clone()
			for j := 0; j < elementBits-lowPartBits; j++ {
				pts = append(pts, p)
				p = curve.Double(p)
			}
		}
		table = pts
	})
	return table
}

// Hash folds one or two field elements into a single field element.
// Every input must satisfy 0 <= v < curve.P.
func Hash(elements ...*big.Int) (*big.Int, error) {
	p, err := hashAsPoint(elements)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(p.X), nil
}

func hashAsPoint(elements []*big.Int) (*curve.Point, error) {
	if len(elements) == 0 || len(elements) > maxElements {
		return nil, fmt.Errorf("pedersen: hash defined for 1 to %d inputs, got %d", maxElements, len(elements))
	}
	pts := constantPoints()
	run := shiftPoint
	for i, elem := range elements {
		if elem.Sign() < 0 || elem.Cmp(curve.P) >= 0 {
			return nil, fmt.Errorf("%w: input %d", ErrInputRange, i)
		}
		for j := 0; j < elementBits; j++ {
			pt := pts[2+i*elementBits+j]
			if run.X.Cmp(pt.X) == 0 {
				return nil, ErrUnhashableInput
			}
			if elem.Bit(j) == 1 {
				run = curve.Add(run, pt)
			}
		}
	}
	return run, nil
}

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("pedersen: invalid point constant " + s)
	}
	return v
}
