// Package ops canonically encodes settlement operations - limit orders,
// transfers and conditional transfers - into the single field element that
// is signed on their behalf.
//
// Numeric fields are packed most-significant first into one 256-bit word:
// the instruction tag, then two 31-bit vault ids, two 63-bit amounts, a
// 31-bit nonce and a 22-bit expiration timestamp. Token identifiers, the
// counterparty public key and the optional condition do not enter the
// packed word; they are folded in through the Pedersen hash.
package ops

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"github.com/orbitex-network/oxcrypto/curve"
	"github.com/orbitex-network/oxcrypto/pedersen"
)

// Instruction type tags.
const (
	tagLimitOrder          = 0
	tagTransfer            = 1
	tagConditionalTransfer = 2
)

// Field bit widths of the packed instruction word.
const (
	vaultBits      = 31
	amountBits     = 63
	nonceBits      = 31
	expirationBits = 22
)

var (
	// ErrFieldRange reports a field value outside its canonical bit width
	// or field range. The offending field is named in the error.
	ErrFieldRange = errors.New("ops: field out of range")

	// ErrFieldFormat reports a malformed field encoding, such as a hex
	// value without the mandatory 0x prefix.
	ErrFieldFormat = errors.New("ops: malformed field")

	// ErrDigestRange reports a message hash outside [0, 2^251). The input
	// constraints make this unreachable; it is checked regardless.
	ErrDigestRange = errors.New("ops: message hash out of range")
)

// LimitOrder sells AmountSell of TokenSell out of VaultSell and buys
// AmountBuy of TokenBuy into VaultBuy.
type LimitOrder struct {
	VaultSell           uint64
	VaultBuy            uint64
	AmountSell          string // decimal
	AmountBuy           string // decimal
	TokenSell           string // 0x-prefixed hex
	TokenBuy            string // 0x-prefixed hex
	Nonce               uint64
	ExpirationTimestamp uint64
}

// Hash returns the message hash the order is signed over.
func (o *LimitOrder) Hash() (*big.Int, error) {
	if err := checkBits("vault_sell", o.VaultSell, vaultBits); err != nil {
		return nil, err
	}
	if err := checkBits("vault_buy", o.VaultBuy, vaultBits); err != nil {
		return nil, err
	}
	amountSell, err := parseAmount("amount_sell", o.AmountSell)
	if err != nil {
		return nil, err
	}
	amountBuy, err := parseAmount("amount_buy", o.AmountBuy)
	if err != nil {
		return nil, err
	}
	tokenSell, err := parseFieldElement("token_sell", o.TokenSell)
	if err != nil {
		return nil, err
	}
	tokenBuy, err := parseFieldElement("token_buy", o.TokenBuy)
	if err != nil {
		return nil, err
	}
	if err := checkBits("nonce", o.Nonce, nonceBits); err != nil {
		return nil, err
	}
	if err := checkBits("expiration_timestamp", o.ExpirationTimestamp, expirationBits); err != nil {
		return nil, err
	}
	return messageHash(tagLimitOrder, o.VaultSell, o.VaultBuy, amountSell, amountBuy,
		o.Nonce, o.ExpirationTimestamp, tokenSell, tokenBuy, nil)
}

// Transfer moves Amount of Token from SenderVault to ReceiverVault, whose
// owner is identified by ReceiverPublicKey.
type Transfer struct {
	SenderVault         uint64
	ReceiverVault       uint64
	Amount              string // decimal
	Token               string // 0x-prefixed hex
	ReceiverPublicKey   string // 0x-prefixed hex
	Nonce               uint64
	ExpirationTimestamp uint64
}

// Hash returns the message hash the transfer is signed over.
func (t *Transfer) Hash() (*big.Int, error) {
	return t.hash(tagTransfer, nil)
}

func (t *Transfer) hash(tag uint64, condition *big.Int) (*big.Int, error) {
	if err := checkBits("sender_vault", t.SenderVault, vaultBits); err != nil {
		return nil, err
	}
	if err := checkBits("receiver_vault", t.ReceiverVault, vaultBits); err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", t.Amount)
	if err != nil {
		return nil, err
	}
	token, err := parseFieldElement("token", t.Token)
	if err != nil {
		return nil, err
	}
	receiver, err := parseFieldElement("receiver_public_key", t.ReceiverPublicKey)
	if err != nil {
		return nil, err
	}
	if err := checkBits("nonce", t.Nonce, nonceBits); err != nil {
		return nil, err
	}
	if err := checkBits("expiration_timestamp", t.ExpirationTimestamp, expirationBits); err != nil {
		return nil, err
	}
	// The second amount slot is unused by transfers and packs as zero.
	return messageHash(tag, t.SenderVault, t.ReceiverVault, amount, 0,
		t.Nonce, t.ExpirationTimestamp, token, receiver, condition)
}

// ConditionalTransfer is a Transfer that only settles when the stated
// condition is met on-chain.
type ConditionalTransfer struct {
	Transfer
	Condition string // 0x-prefixed hex
}

// Hash returns the message hash the conditional transfer is signed over.
func (t *ConditionalTransfer) Hash() (*big.Int, error) {
	condition, err := parseFieldElement("condition", t.Condition)
	if err != nil {
		return nil, err
	}
	return t.hash(tagConditionalTransfer, condition)
}

func messageHash(tag, vault0, vault1, amount0, amount1, nonce, expiration uint64,
	token0, token1 *big.Int, condition *big.Int) (*big.Int, error) {
	inner, err := pedersen.Hash(token0, token1)
	if err != nil {
		return nil, err
	}
	if condition != nil {
		if inner, err = pedersen.Hash(inner, condition); err != nil {
			return nil, err
		}
	}
	packed := packInstruction(tag, vault0, vault1, amount0, amount1, nonce, expiration)
	digest, err := pedersen.Hash(inner, packed.ToBig())
	if err != nil {
		return nil, err
	}
	if digest.BitLen() > 251 {
		return nil, fmt.Errorf("%w: %#x", ErrDigestRange, digest)
	}
	return digest, nil
}

// packInstruction builds the packed word. All values are pre-validated to
// fit their widths, so or-ing after the shift is exact.
func packInstruction(tag, vault0, vault1, amount0, amount1, nonce, expiration uint64) *uint256.Int {
	acc := uint256.NewInt(tag)
	field := func(width uint, v uint64) {
		acc.Lsh(acc, width)
		acc.Or(acc, uint256.NewInt(v))
	}
	field(vaultBits, vault0)
	field(vaultBits, vault1)
	field(amountBits, amount0)
	field(amountBits, amount1)
	field(nonceBits, nonce)
	field(expirationBits, expiration)
	return acc
}

func checkBits(name string, v uint64, width uint) error {
	if v >= 1<<width {
		return fmt.Errorf("%w: %s = %d exceeds %d bits", ErrFieldRange, name, v, width)
	}
	return nil
}

// parseAmount reads a decimal amount strictly below 2^63.
func parseAmount(name, s string) (uint64, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return 0, fmt.Errorf("%w: %s = %q is not a decimal amount", ErrFieldFormat, name, s)
	}
	if v.BitLen() > amountBits {
		return 0, fmt.Errorf("%w: %s = %s exceeds %d bits", ErrFieldRange, name, s, amountBits)
	}
	return v.Uint64(), nil
}

// parseFieldElement reads a 0x-prefixed hex value strictly below the field
// prime. The prefix is mandatory.
func parseFieldElement(name, s string) (*big.Int, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("%w: %s = %q lacks 0x prefix", ErrFieldFormat, name, s)
	}
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s = %q is not hex", ErrFieldFormat, name, s)
	}
	if v.Cmp(curve.P) >= 0 {
		return nil, fmt.Errorf("%w: %s not below the field prime", ErrFieldRange, name)
	}
	return v, nil
}
