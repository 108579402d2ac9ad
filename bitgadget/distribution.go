package bitgadget

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/spaceandtimelabs/provsql/scalar"
)

// Distribution captures, across a column, which of the NumBits bit
// positions vary and which are constant (and at what value). The prover
// computes it in one pass over the column; the verifier checks it is
// consistent with the claimed range/sign of the values.
type Distribution struct {
	// Varying marks bit positions that differ across at least two values
	// in the column.
	Varying *bitset.BitSet
	// ConstantValue holds the shared value (0 or 1) for every bit position
	// not in Varying; positions in Varying are meaningless here.
	ConstantValue *bitset.BitSet
	// NumRows is the length of the column this distribution summarizes;
	// a distribution over zero rows has every bit vacuously constant-0.
	NumRows int
}

// ComputeDistribution computes the per-column bit distribution in one pass.
func ComputeDistribution(values []scalar.S) Distribution {
	d := Distribution{
		Varying:       bitset.New(NumBits),
		ConstantValue: bitset.New(NumBits),
		NumRows:       len(values),
	}
	if len(values) == 0 {
		return d
	}
	first := AbsBitMask(values[0])
	d.ConstantValue = first.Clone()
	for _, v := range values[1:] {
		mask := AbsBitMask(v)
		diff := mask.SymmetricDifference(first)
		d.Varying.InPlaceUnion(diff)
	}
	return d
}

// IsConsistentWithRange checks that every bit from maxMagnitudeBit up to
// (not including) the sign bit is constant-zero across the column, i.e.
// the column fits within a maxMagnitudeBit-bit signed range. Bits below
// maxMagnitudeBit and the sign bit are not inspected. This is the check
// tying a distribution to the operator's claimed width.
func (d Distribution) IsConsistentWithRange(maxMagnitudeBit int) bool {
	for bit := maxMagnitudeBit; bit < SignBit; bit++ {
		if d.Varying.Test(uint(bit)) {
			return false
		}
		if d.ConstantValue.Test(uint(bit)) {
			return false
		}
	}
	return true
}

// VaryingBits returns the sorted list of bit positions this distribution
// marks as varying.
func (d Distribution) VaryingBits() []uint {
	bits := make([]uint, 0, d.Varying.Count())
	for i, e := d.Varying.NextSet(0); e; i, e = d.Varying.NextSet(i + 1) {
		bits = append(bits, i)
	}
	return bits
}
