// Package ecdsa implements the settlement protocol's signature scheme: an
// ECDSA variant over the protocol curve with deterministic nonces and
// curve-specific truncation rules bridging the 252-bit hash range and the
// group order's bit width.
package ecdsa

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/orbitex-network/oxcrypto/curve"
)

var (
	// ErrNotSignable reports a message hash or signature component outside
	// the ranges the proof system accepts. It is a fatal input error,
	// distinct from a verification mismatch.
	ErrNotSignable = errors.New("ecdsa: not signable")

	// ErrInvalidPrivateKey reports a private scalar outside [1, N).
	ErrInvalidPrivateKey = errors.New("ecdsa: private key out of range")
)

// elementBound is 2^251, the exclusive upper bound on message hashes and on
// the r and w = s⁻¹ components of a signature.
var elementBound = new(big.Int).Lsh(big.NewInt(1), 251)

// Signature is an (r, s) pair. It is meaningful only together with the
// message hash and public key it verifies against.
type Signature struct {
	R, S *big.Int
}

// KeyPair holds a private scalar and its public curve point. The private
// scalar never leaves the holder; only the public point (or its
// x coordinate, the settlement key) is shared.
type KeyPair struct {
	priv *big.Int
	pub  *curve.Point
}

// NewKeyPair derives the public point for a private scalar in [1, N).
func NewKeyPair(priv *big.Int) (*KeyPair, error) {
	if priv.Sign() <= 0 || priv.Cmp(curve.N) >= 0 {
		return nil, ErrInvalidPrivateKey
	}
	p := new(big.Int).Set(priv)
	return &KeyPair{priv: p, pub: curve.ScalarMult(p, curve.Gen)}, nil
}

// GenerateKeyPair draws a uniform private scalar from crypto/rand.
func GenerateKeyPair() (*KeyPair, error) {
	max := new(big.Int).Sub(curve.N, big.NewInt(1))
	k, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, err
	}
	k.Add(k, big.NewInt(1))
	return NewKeyPair(k)
}

// PrivateKey returns a copy of the private scalar.
func (kp *KeyPair) PrivateKey() *big.Int {
	return new(big.Int).Set(kp.priv)
}

// PublicKey returns a copy of the public curve point.
func (kp *KeyPair) PublicKey() *curve.Point {
	return kp.pub.Clone()
}

// SettlementKey returns the x coordinate of the public point, the form in
// which accounts are identified on-chain.
func (kp *KeyPair) SettlementKey() *big.Int {
	return new(big.Int).Set(kp.pub.X)
}

// Sign produces a deterministic signature over msgHash, which must lie in
// [0, 2^251).
func (kp *KeyPair) Sign(msgHash *big.Int) (*Signature, error) {
	return kp.sign(msgHash, nil)
}

// SignWithSeed mixes extra entropy into the deterministic nonce stream.
// Different seeds yield different, equally valid signatures for the same
// message; a nil or zero seed is equivalent to Sign.
func (kp *KeyPair) SignWithSeed(msgHash, seed *big.Int) (*Signature, error) {
	return kp.sign(msgHash, seed)
}

func (kp *KeyPair) sign(msgHash, seed *big.Int) (*Signature, error) {
	if err := checkMsgHash(msgHash); err != nil {
		return nil, err
	}
	digest := fixMsgHash(msgHash)
	z := digestToScalar(digest.Bytes())

	var extra []byte
	if seed != nil {
		extra = seed.Bytes()
	}
	gen := newNonceGenerator(kp.priv, digest, extra)
	for {
		k := gen.generate()

		r := new(big.Int).Set(curve.ScalarMult(k, curve.Gen).X)
		if r.Sign() == 0 || r.Cmp(elementBound) >= 0 {
			continue
		}
		// t = z + r*d; t == 0 mod N would make the signature degenerate.
		t := new(big.Int).Mul(r, kp.priv)
		t.Add(t, z)
		t.Mod(t, curve.N)
		if t.Sign() == 0 {
			continue
		}
		s := new(big.Int).ModInverse(k, curve.N)
		s.Mul(s, t)
		s.Mod(s, curve.N)
		w := new(big.Int).ModInverse(s, curve.N)
		if w.Sign() == 0 || w.Cmp(elementBound) >= 0 {
			continue
		}

		sig := &Signature{R: r, S: s}
		// Independent post-condition, guarding against a degenerate result
		// from the loop above ever escaping.
		if err := checkSignature(sig); err != nil {
			return nil, err
		}
		return sig, nil
	}
}

// Verify checks sig over msgHash against a full public point. A
// cryptographic mismatch returns (false, nil); range and format violations
// return an error and must not be read as a failed verification.
func Verify(pub *curve.Point, msgHash *big.Int, sig *Signature) (bool, error) {
	if err := checkMsgHash(msgHash); err != nil {
		return false, err
	}
	if err := checkSignature(sig); err != nil {
		return false, err
	}
	if !curve.IsOnCurve(pub) {
		return false, fmt.Errorf("%w: public key not on curve", ErrNotSignable)
	}

	z := digestToScalar(fixMsgHash(msgHash).Bytes())
	w := new(big.Int).ModInverse(sig.S, curve.N)
	u1 := new(big.Int).Mul(z, w)
	u1.Mod(u1, curve.N)
	u2 := new(big.Int).Mul(sig.R, w)
	u2.Mod(u2, curve.N)

	p := curve.Add(curve.ScalarMult(u1, curve.Gen), curve.ScalarMult(u2, pub))
	if p == nil {
		return false, nil
	}
	// The recovered x is compared to r without reducing mod N. A recovered
	// x in [N, P) therefore never matches an in-range r.
	return p.X.Cmp(sig.R) == 0, nil
}

// VerifySettlementKey verifies against an x-only public key by trying both
// candidate points. An x that is on no curve point verifies false.
func VerifySettlementKey(key, msgHash *big.Int, sig *Signature) (bool, error) {
	if err := checkMsgHash(msgHash); err != nil {
		return false, err
	}
	if err := checkSignature(sig); err != nil {
		return false, err
	}
	y, err := curve.RecoverY(key)
	if err != nil {
		if errors.Is(err, curve.ErrNoSquareRoot) {
			return false, nil
		}
		return false, err
	}
	ok, err := Verify(&curve.Point{X: key, Y: y}, msgHash, sig)
	if err != nil || ok {
		return ok, err
	}
	negY := new(big.Int).Sub(curve.P, y)
	return Verify(&curve.Point{X: key, Y: negY}, msgHash, sig)
}

func checkMsgHash(msgHash *big.Int) error {
	if msgHash.Sign() < 0 || msgHash.Cmp(elementBound) >= 0 {
		return fmt.Errorf("%w: msgHash = %#x", ErrNotSignable, msgHash)
	}
	return nil
}

func checkSignature(sig *Signature) error {
	if sig.R.Sign() <= 0 || sig.R.Cmp(elementBound) >= 0 {
		return fmt.Errorf("%w: r = %#x", ErrNotSignable, sig.R)
	}
	if sig.S.Sign() <= 0 || sig.S.Cmp(curve.N) >= 0 {
		return fmt.Errorf("%w: s = %#x", ErrNotSignable, sig.S)
	}
	w := new(big.Int).ModInverse(sig.S, curve.N)
	if w.Sign() <= 0 || w.Cmp(elementBound) >= 0 {
		return fmt.Errorf("%w: w = %#x", ErrNotSignable, w)
	}
	return nil
}

// fixMsgHash aligns a digest whose significant hex form is exactly 63
// digits (bit length 249-252) by appending one zero nibble. Together with
// the right shift in digestToScalar this is self-inverse, so such digests
// survive the primitive's byte-oriented truncation unchanged.
func fixMsgHash(h *big.Int) *big.Int {
	if bl := h.BitLen(); bl >= 249 && bl <= 252 {
		return new(big.Int).Lsh(h, 4)
	}
	return new(big.Int).Set(h)
}

// digestToScalar interprets a big-endian digest, discarding low-order bits
// when the digest is wider than the group order's bit length.
func digestToScalar(digest []byte) *big.Int {
	z := new(big.Int).SetBytes(digest)
	if delta := len(digest)*8 - curve.N.BitLen(); delta > 0 {
		z.Rsh(z, uint(delta))
	}
	return z
}
