package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/provsql/scalar"
)

func TestDeterministicAcrossRuns(t *testing.T) {
	run := func() scalar.S {
		tr := New(2, 1)
		require.NoError(t, tr.AppendScalar(LabelResultColumn, scalar.FromInt64(42)))
		require.NoError(t, tr.AppendCommitment(LabelCommitment, []byte("commitment-bytes")))
		c, err := tr.ChallengeScalar(PostResultChallengeLabel(0))
		require.NoError(t, err)
		return c
	}
	require.True(t, run().Equal(run()))
}

func TestDifferentBindingsDiverge(t *testing.T) {
	tr1 := New(0, 1)
	require.NoError(t, tr1.AppendScalar(LabelResultColumn, scalar.FromInt64(1)))
	c1, err := tr1.ChallengeScalar(PostResultChallengeLabel(0))
	require.NoError(t, err)

	tr2 := New(0, 1)
	require.NoError(t, tr2.AppendScalar(LabelResultColumn, scalar.FromInt64(2)))
	c2, err := tr2.ChallengeScalar(PostResultChallengeLabel(0))
	require.NoError(t, err)

	require.False(t, c1.Equal(c2))
}

func TestSumcheckRoundLabelsSequential(t *testing.T) {
	tr := New(3, 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, tr.AppendScalar(SumcheckRoundLabel(i), scalar.FromInt64(int64(i))))
		_, err := tr.ChallengeScalar(SumcheckRoundLabel(i))
		require.NoError(t, err)
	}
}
