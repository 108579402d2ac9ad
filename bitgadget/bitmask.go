// package bitgadget implements the absolute-bit-mask and bit-distribution
// utilities underlying every inequality, sign, and decimal-range proof.
package bitgadget

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/spaceandtimelabs/provsql/scalar"
)

// NumBits is the width of the absolute-value bit mask: 255 magnitude bits
// plus one sign bit at position 255.
const NumBits = 256

// SignBit is the position of the sign flag within a mask.
const SignBit = NumBits - 1

// AbsBitMask maps x to a 256-bit string equal to abs_signed(x) with the
// sign bit placed at position 255: if x is negative under the signed
// interpretation, bit 255 is set and the remaining bits hold -x; otherwise
// bit 255 is clear and the remaining bits hold x.
func AbsBitMask(x scalar.S) *bitset.BitSet {
	bs := bitset.New(NumBits)
	mag := x.Abs().ToU256()
	for word := 0; word < 4; word++ {
		w := mag[word]
		for bit := 0; bit < 64; bit++ {
			if w&(1<<uint(bit)) != 0 {
				bs.Set(uint(word*64 + bit))
			}
		}
	}
	if x.Sign() < 0 {
		bs.Set(SignBit)
	}
	return bs
}

// ReconstructFromBits rebuilds the signed scalar encoded by a bit mask of
// the form produced by AbsBitMask: the magnitude sum_k 2^k * bit_k over
// bits [0, numMagnitudeBits), negated when the sign bit is set. The sign
// gadget in proofexpr does not call it; its reconstruction identity uses
// the same sign-magnitude form, (1 - 2*sign) * sum_k 2^k * bit_k = x.
func ReconstructFromBits(bs *bitset.BitSet, numMagnitudeBits int) scalar.S {
	mag := scalar.Zero()
	two := scalar.FromInt64(2)
	pow := scalar.One()
	for k := 0; k < numMagnitudeBits; k++ {
		if bs.Test(uint(k)) {
			mag = mag.Add(pow)
		}
		pow = pow.Mul(two)
	}
	if bs.Test(SignBit) {
		return mag.Neg()
	}
	return mag
}
