// package scalar implements the engine's prime-field Scalar algebra:
// native field arithmetic plus a signed interpretation split at a
// midpoint constant. The underlying field is bn254's scalar field, the
// same field the rest of the pack's gnark/gnark-crypto stack already
// computes over.
package scalar

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
)

// S is a field element with a signed interpretation. Addition and
// multiplication are native field operations; "signed" is purely how
// SignedCmp and Neg-of-abs reads the bit pattern.
type S struct {
	v fr.Element
}

// Zero is the additive identity.
func Zero() S { return S{} }

// One is the multiplicative identity.
func One() S {
	var s S
	s.v.SetOne()
	return s
}

// maxSigned and modulus are computed once at init from the field's modulus.
var (
	modulusBig   big.Int
	maxSignedBig big.Int
	maxSigned    S
)

func init() {
	modulusBig.Set(fr.Modulus())
	maxSignedBig.Sub(&modulusBig, big.NewInt(1))
	maxSignedBig.Rsh(&maxSignedBig, 1)
	maxSigned.v.SetBigInt(&maxSignedBig)
}

// MaxSigned returns (p-1)/2, the signed-interpretation midpoint:
// values in [0, MaxSigned] are interpreted as non-negative, values in
// (MaxSigned, p) as negative.
func MaxSigned() S { return maxSigned }

// Modulus returns the field's modulus p as a big.Int copy.
func Modulus() *big.Int {
	m := new(big.Int).Set(&modulusBig)
	return m
}

func FromUint64(v uint64) S {
	var s S
	s.v.SetUint64(v)
	return s
}

func FromInt64(v int64) S {
	var s S
	s.v.SetInt64(v)
	return s
}

func FromBigInt(v *big.Int) S {
	var s S
	s.v.SetBigInt(v)
	return s
}

func (a S) Add(b S) S {
	var r S
	r.v.Add(&a.v, &b.v)
	return r
}

func (a S) Sub(b S) S {
	var r S
	r.v.Sub(&a.v, &b.v)
	return r
}

func (a S) Mul(b S) S {
	var r S
	r.v.Mul(&a.v, &b.v)
	return r
}

func (a S) Neg() S {
	var r S
	r.v.Neg(&a.v)
	return r
}

// Inverse returns the multiplicative inverse of a, or the zero element if
// a is zero (matching the Equals-expr gadget's need for a "multiplicative
// inverse of the nonzero part" that must behave sanely at zero).
func (a S) Inverse() S {
	var r S
	if a.v.IsZero() {
		return r
	}
	r.v.Inverse(&a.v)
	return r
}

func (a S) IsZero() bool { return a.v.IsZero() }

func (a S) Equal(b S) bool { return a.v.Equal(&b.v) }

// BigInt returns the canonical non-negative representative of a in [0, p).
func (a S) BigInt() *big.Int {
	z := new(big.Int)
	a.v.BigInt(z)
	return z
}

// SignedCmp compares a and b under the signed interpretation: values in
// (MaxSigned, p) are negative. Returns -1, 0, or 1.
func SignedCmp(a, b S) int {
	sa, sb := signedBigInt(a), signedBigInt(b)
	return sa.Cmp(sb)
}

// Sign returns -1, 0, or 1 under the signed interpretation.
func (a S) Sign() int {
	if a.IsZero() {
		return 0
	}
	if a.v.Cmp(&maxSigned.v) <= 0 {
		return 1
	}
	return -1
}

func signedBigInt(a S) *big.Int {
	raw := a.BigInt()
	if a.v.Cmp(&maxSigned.v) <= 0 {
		return raw
	}
	neg := new(big.Int).Sub(raw, &modulusBig)
	return neg
}

// Abs returns the field element whose canonical BigInt equals |signed
// value of a|; this is the value whose 256-bit encoding the bit gadgets
// decompose.
func (a S) Abs() S {
	if a.Sign() >= 0 {
		return a
	}
	return a.Neg()
}

// Bytes returns the canonical big-endian 32-byte wire encoding.
func (a S) Bytes() [32]byte {
	return a.v.Bytes()
}

// SetBytes interprets buf as a big-endian encoding and reduces it mod p.
func SetBytes(buf []byte) S {
	var s S
	s.v.SetBytes(buf)
	return s
}

// ToU256 returns the little-endian 4x64 unsigned-integer representation of
// the canonical non-negative value of a, as a fixed-width unsigned
// 256-bit integer (little-endian 4x uint64).
func (a S) ToU256() *uint256.Int {
	return uint256.MustFromBig(a.BigInt())
}

// FromU256 builds a scalar by reducing u mod p.
func FromU256(u *uint256.Int) S {
	return FromBigInt(u.ToBig())
}

// String renders the canonical non-negative decimal representative.
func (a S) String() string {
	return a.BigInt().String()
}

// FrElement exposes the underlying bn254 fr.Element for packages (the PCS
// adapter) that must hand raw field elements to gnark-crypto's KZG
// implementation.
func (a S) FrElement() fr.Element { return a.v }

// FromFrElement wraps a raw bn254 fr.Element as a Scalar.
func FromFrElement(e fr.Element) S { return S{v: e} }
