package bitgadget

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/provsql/scalar"
)

func TestAbsBitMaskRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, 5, 255, 65536, -1, -5, -999} {
		s := scalar.FromInt64(v)
		mask := AbsBitMask(s)
		got := ReconstructFromBits(mask, SignBit)
		require.True(t, got.Equal(s), "value %d round-tripped to %s", v, got.String())
	}
}

func TestDistributionConstantColumn(t *testing.T) {
	values := []scalar.S{scalar.FromInt64(7), scalar.FromInt64(7), scalar.FromInt64(7)}
	d := ComputeDistribution(values)
	require.Zero(t, d.Varying.Count())
}

func TestDistributionVaryingColumn(t *testing.T) {
	values := []scalar.S{scalar.FromInt64(1), scalar.FromInt64(2), scalar.FromInt64(4)}
	d := ComputeDistribution(values)
	require.NotZero(t, d.Varying.Count())
}

func TestDistributionRangeConsistency(t *testing.T) {
	values := []scalar.S{scalar.FromInt64(1), scalar.FromInt64(-1), scalar.FromInt64(100)}
	d := ComputeDistribution(values)
	require.True(t, d.IsConsistentWithRange(8))
	require.False(t, d.IsConsistentWithRange(4))
}
