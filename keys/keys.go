// Package keys deterministically derives settlement-curve private keys
// from a mnemonic seed phrase and an account path, with unbiased reduction
// into the curve's scalar field.
package keys

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/orbitex-network/oxcrypto/curve"
	"github.com/orbitex-network/oxcrypto/ecdsa"
)

// purpose is the hardened top-level index reserved for settlement keys.
const purpose = 2645

// low31 masks a value to its low 31 bits, the width of a hardened child
// index.
const low31 = 1<<31 - 1

var (
	// ErrInvalidMnemonic reports a seed phrase that fails its checksum.
	ErrInvalidMnemonic = errors.New("keys: invalid mnemonic")

	// ErrInvalidPath reports a derivation path that is not of the hardened
	// m/2645'/... form this protocol uses.
	ErrInvalidPath = errors.New("keys: invalid derivation path")

	// ErrGrindExhausted reports that grinding hit its iteration cap. The
	// per-iteration rejection chance is a few percent at most, so reaching
	// the cap indicates broken inputs rather than bad luck.
	ErrGrindExhausted = errors.New("keys: key grinding exhausted its iteration budget")

	// ErrUnusableChild reports a child index whose derived key falls
	// outside the secp256k1 group, which BIP-32 declares invalid.
	ErrUnusableChild = errors.New("keys: derived child key is invalid, use the next index")
)

// grindAttempts caps the rejection-sampling loop; the counter is a single
// byte, so the cap also keeps its encoding fixed-width.
const grindAttempts = 256

// AccountPath composes the hardened derivation path for an account:
// m/2645'/layer'/application'/addrLow'/addrHigh'/index'. The layer and
// application components are the low 31 bits of the SHA-256 of their
// strings; addrLow and addrHigh are the low and next 31 bits of the
// Ethereum address, which must carry a 0x prefix.
func AccountPath(layer, application, ethereumAddress string, index uint32) (string, error) {
	if !strings.HasPrefix(ethereumAddress, "0x") {
		return "", fmt.Errorf("%w: ethereum address %q lacks 0x prefix", ErrInvalidPath, ethereumAddress)
	}
	addr, ok := new(big.Int).SetString(ethereumAddress[2:], 16)
	if !ok || addr.Sign() < 0 {
		return "", fmt.Errorf("%w: ethereum address %q is not hex", ErrInvalidPath, ethereumAddress)
	}

	layerPart := hashLow31([]byte(layer))
	applicationPart := hashLow31([]byte(application))
	addrLow := new(big.Int).And(addr, big.NewInt(low31)).Uint64()
	addrHigh := new(big.Int).And(new(big.Int).Rsh(addr, 31), big.NewInt(low31)).Uint64()

	return fmt.Sprintf("m/%d'/%d'/%d'/%d'/%d'/%d'",
		purpose, layerPart, applicationPart, addrLow, addrHigh, index), nil
}

// KeyPairFromMnemonic derives the settlement key pair for a mnemonic at
// the given hardened path: BIP-39 seed, hardened BIP-32 chain, then an
// unbiased grind into the curve's scalar field.
func KeyPairFromMnemonic(mnemonic, path string) (*ecdsa.KeyPair, error) {
	priv, err := PrivateKeyFromMnemonic(mnemonic, path)
	if err != nil {
		return nil, err
	}
	return ecdsa.NewKeyPair(priv)
}

// PrivateKeyFromMnemonic derives only the private scalar.
func PrivateKeyFromMnemonic(mnemonic, path string) (*big.Int, error) {
	indices, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	// EntropyFromMnemonic is the checksum-validating decode; IsMnemonicValid
	// only checks word count and wordlist membership.
	if _, err := bip39.EntropyFromMnemonic(mnemonic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	seed := bip39.NewSeed(mnemonic, "")

	key, chain := masterKey(seed)
	for _, index := range indices {
		if key, chain, err = hardenedChild(key, chain, index); err != nil {
			return nil, err
		}
	}
	return GrindKey(key.FillBytes(make([]byte, 32)), curve.N)
}

// GrindKey reduces a raw key seed into [0, modulus) without modulo bias:
// SHA-256(seed || counter) digests are rejected until one falls below the
// largest multiple of the modulus not exceeding 2^256, and only that digest
// is reduced. Reducing an unconstrained digest directly would bias small
// residues and must never be substituted.
func GrindKey(seed []byte, modulus *big.Int) (*big.Int, error) {
	if modulus.Sign() <= 0 {
		return nil, fmt.Errorf("keys: grind modulus must be positive")
	}
	one := new(big.Int).Lsh(big.NewInt(1), 256)
	bound := new(big.Int).Div(one, modulus)
	bound.Mul(bound, modulus)

	for counter := 0; counter < grindAttempts; counter++ {
		digest := sha256.Sum256(append(append([]byte{}, seed...), byte(counter)))
		v := new(big.Int).SetBytes(digest[:])
		if v.Cmp(bound) < 0 {
			return v.Mod(v, modulus), nil
		}
	}
	return nil, ErrGrindExhausted
}

// masterKey is the BIP-32 master step: HMAC-SHA512 keyed "Bitcoin seed"
// splitting into key and chain code.
func masterKey(seed []byte) (*big.Int, []byte) {
	mac := hmac.New(sha512.New, []byte("Bitcoin seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return new(big.Int).SetBytes(sum[:32]), sum[32:]
}

// hardenedChild is the hardened BIP-32 child step; the settlement paths
// never use non-hardened indices, so no public-key material enters the MAC.
func hardenedChild(key *big.Int, chain []byte, index uint32) (*big.Int, []byte, error) {
	data := make([]byte, 0, 37)
	data = append(data, 0x00)
	data = append(data, key.FillBytes(make([]byte, 32))...)
	hardened := index | 1<<31
	data = append(data, byte(hardened>>24), byte(hardened>>16), byte(hardened>>8), byte(hardened))

	mac := hmac.New(sha512.New, chain)
	mac.Write(data)
	sum := mac.Sum(nil)

	n := btcec.S256().Params().N
	child := new(big.Int).SetBytes(sum[:32])
	if child.Cmp(n) >= 0 {
		return nil, nil, ErrUnusableChild
	}
	child.Add(child, key)
	child.Mod(child, n)
	if child.Sign() == 0 {
		return nil, nil, ErrUnusableChild
	}
	return child, sum[32:], nil
}

func hashLow31(data []byte) uint64 {
	sum := sha256.Sum256(data)
	digest := new(big.Int).SetBytes(sum[:])
	return digest.And(digest, big.NewInt(low31)).Uint64()
}

// parsePath accepts only fully hardened m/... paths.
func parsePath(path string) ([]uint32, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	indices := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		raw, hardened := strings.CutSuffix(part, "'")
		if !hardened {
			return nil, fmt.Errorf("%w: component %q is not hardened", ErrInvalidPath, part)
		}
		v, err := strconv.ParseUint(raw, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: component %q: %v", ErrInvalidPath, part, err)
		}
		indices = append(indices, uint32(v))
	}
	return indices, nil
}
