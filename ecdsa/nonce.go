package ecdsa

import (
	"crypto/hmac"
	"crypto/sha256"
	"math/big"

	"github.com/orbitex-network/oxcrypto/curve"
)

// scalarBytes is the octet length of group-order-sized values in the nonce
// derivation (RFC 6979 rolen for a 252-bit order).
const scalarBytes = 32

// nonceGenerator produces the deterministic nonce stream of RFC 6979
// (HMAC-SHA256) for the protocol curve's 252-bit order. The digest is the
// length-fixed message hash; extra entropy, when present, is appended to
// the seed material so distinct seeds give independent streams.
type nonceGenerator struct {
	k, v []byte
}

func newNonceGenerator(priv, digest *big.Int, extra []byte) *nonceGenerator {
	h1 := digest.Bytes()
	z2 := new(big.Int).Mod(bits2int(h1), curve.N)

	seed := make([]byte, 0, 2*scalarBytes+len(extra))
	seed = append(seed, int2octets(priv)...)
	seed = append(seed, int2octets(z2)...)
	seed = append(seed, extra...)

	g := &nonceGenerator{
		k: make([]byte, sha256.Size),
		v: make([]byte, sha256.Size),
	}
	for i := range g.v {
		g.v[i] = 0x01
	}
	g.update(seed)
	return g
}

// update performs the two-step K/V reseed of RFC 6979 section 3.2d-g.
func (g *nonceGenerator) update(seed []byte) {
	g.k = mac(g.k, g.v, []byte{0x00}, seed)
	g.v = mac(g.k, g.v)
	g.k = mac(g.k, g.v, []byte{0x01}, seed)
	g.v = mac(g.k, g.v)
}

// generate returns the next candidate nonce in [1, N). The state always
// steps forward, so a candidate rejected by the caller is never replayed.
func (g *nonceGenerator) generate() *big.Int {
	for {
		var t []byte
		for len(t) < scalarBytes {
			g.v = mac(g.k, g.v)
			t = append(t, g.v...)
		}
		k := bits2int(t[:scalarBytes])

		g.k = mac(g.k, g.v, []byte{0x00})
		g.v = mac(g.k, g.v)

		if k.Sign() > 0 && k.Cmp(curve.N) < 0 {
			return k
		}
	}
}

// bits2int keeps the leftmost qlen bits of a big-endian octet string.
func bits2int(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	if excess := len(b)*8 - curve.N.BitLen(); excess > 0 {
		v.Rsh(v, uint(excess))
	}
	return v
}

// int2octets encodes v as exactly scalarBytes big-endian bytes.
func int2octets(v *big.Int) []byte {
	return v.FillBytes(make([]byte, scalarBytes))
}

func mac(key []byte, parts ...[]byte) []byte {
	m := hmac.New(sha256.New, key)
	for _, p := range parts {
		m.Write(p)
	}
	return m.Sum(nil)
}
