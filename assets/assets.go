// Package assets derives the canonical asset-type and asset-id identifiers
// the settlement layer uses to distinguish token classes and individual
// token instances. Unlike operation hashing, asset identifiers are built on
// Keccak-256 so they can be recomputed by on-chain contracts.
package assets

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Kind enumerates the supported token classes.
type Kind int

const (
	ETH Kind = iota
	ERC20
	ERC721
	MintableERC20
	MintableERC721
)

// Asset describes one asset. TokenAddress is required for every kind but
// ETH; Quantum defaults to 1 when empty; TokenID applies to ERC721;
// MintingBlob applies to the mintable kinds.
type Asset struct {
	Kind         Kind
	TokenAddress string // 0x-prefixed hex
	Quantum      string // decimal
	TokenID      string // decimal
	MintingBlob  string // 0x-prefixed hex
}

var (
	// ErrUnknownKind reports a Kind outside the closed set above.
	ErrUnknownKind = errors.New("assets: unknown asset kind")

	// ErrFieldFormat reports a malformed descriptor field.
	ErrFieldFormat = errors.New("assets: malformed field")

	// errPackedOverflow guards the pad-to-expected-length discipline; the
	// natural encoding must never exceed the expected width.
	errPackedOverflow = errors.New("assets: packed value wider than expected")
)

// Function-signature strings hashed into the per-kind 4-byte selectors.
var selectorSignatures = map[Kind]string{
	ETH:            "ETH()",
	ERC20:          "ERC20Token(address)",
	ERC721:         "ERC721Token(address,uint256)",
	MintableERC20:  "MintableERC20Token(address)",
	MintableERC721: "MintableERC721Token(address,uint256)",
}

var (
	mask251 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 251), big.NewInt(1))
	mask240 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 240), big.NewInt(1))
	// mintableFlag marks minted-asset ids, above the 240-bit hash part.
	mintableFlag = new(big.Int).Lsh(big.NewInt(1), 250)

	nftPrefix      = new(big.Int).SetBytes([]byte("NFT:"))
	mintablePrefix = new(big.Int).SetBytes([]byte("MINTABLE:"))
)

// AssetType returns the canonical asset-type identifier as 0x-prefixed
// lowercase hex.
func (a *Asset) AssetType() (string, error) {
	v, err := a.assetType()
	if err != nil {
		return "", err
	}
	return hexOut(v), nil
}

// AssetID returns the canonical asset-id identifier as 0x-prefixed
// lowercase hex. For fungible assets without a minting blob this equals the
// asset type; non-fungible and minted assets extend it with the token id or
// blob hash.
func (a *Asset) AssetID() (string, error) {
	v, err := a.assetID()
	if err != nil {
		return "", err
	}
	return hexOut(v), nil
}

func (a *Asset) assetType() (*big.Int, error) {
	sig, ok := selectorSignatures[a.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, a.Kind)
	}
	selector := new(big.Int).SetBytes(keccak256([]byte(sig))[:4])

	parts := []*big.Int{selector}
	expected := 4 + 32
	if a.Kind != ETH {
		addr, err := parseHex("token_address", a.TokenAddress)
		if err != nil {
			return nil, err
		}
		parts = append(parts, addr)
		expected += 32
	}
	quantum, err := parseQuantum(a.Quantum)
	if err != nil {
		return nil, err
	}
	parts = append(parts, quantum)

	digest, err := hashPacked(parts, expected)
	if err != nil {
		return nil, err
	}
	return digest.And(digest, mask251), nil
}

func (a *Asset) assetID() (*big.Int, error) {
	assetType, err := a.assetType()
	if err != nil {
		return nil, err
	}
	switch a.Kind {
	case ETH, ERC20:
		return assetType, nil

	case ERC721:
		tokenID, err := parseUint256("token_id", a.TokenID)
		if err != nil {
			return nil, err
		}
		digest, err := hashPacked([]*big.Int{nftPrefix, assetType, tokenID}, 4+32+32)
		if err != nil {
			return nil, err
		}
		return digest.And(digest, mask251), nil

	case MintableERC20, MintableERC721:
		if a.MintingBlob == "" {
			return assetType, nil
		}
		blob, err := parseBlob(a.MintingBlob)
		if err != nil {
			return nil, err
		}
		blobHash := new(big.Int).SetBytes(keccak256(blob))
		digest, err := hashPacked([]*big.Int{mintablePrefix, assetType, blobHash}, 9+32+32)
		if err != nil {
			return nil, err
		}
		digest.And(digest, mask240)
		return digest.Or(digest, mintableFlag), nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, a.Kind)
	}
}

// hashPacked composes the parts via 256-bit left shifts, zero-pads the
// big-endian encoding to exactly expected bytes and hashes it.
func hashPacked(parts []*big.Int, expected int) (*big.Int, error) {
	acc := new(big.Int).Set(parts[0])
	for _, p := range parts[1:] {
		acc.Lsh(acc, 256)
		acc.Add(acc, p)
	}
	if len(acc.Bytes()) > expected {
		return nil, errPackedOverflow
	}
	buf := acc.FillBytes(make([]byte, expected))
	return new(big.Int).SetBytes(keccak256(buf)), nil
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

func parseQuantum(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(1), nil
	}
	return parseUint256("quantum", s)
}

// parseUint256 reads a decimal value fitting one 256-bit limb of the
// packed composition.
func parseUint256(name, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s = %q is not decimal", ErrFieldFormat, name, s)
	}
	if v.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %s exceeds 256 bits", ErrFieldFormat, name)
	}
	return v, nil
}

func parseHex(name, s string) (*big.Int, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("%w: %s = %q lacks 0x prefix", ErrFieldFormat, name, s)
	}
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s = %q is not hex", ErrFieldFormat, name, s)
	}
	if v.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %s exceeds 256 bits", ErrFieldFormat, name)
	}
	return v, nil
}

// parseBlob decodes the raw minting-blob bytes.
func parseBlob(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("%w: minting_blob %q lacks 0x prefix", ErrFieldFormat, s)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: minting_blob: %v", ErrFieldFormat, err)
	}
	return b, nil
}

func hexOut(v *big.Int) string {
	return fmt.Sprintf("0x%x", v)
}
