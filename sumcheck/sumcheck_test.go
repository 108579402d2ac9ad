package sumcheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/scalar"
	"github.com/spaceandtimelabs/provsql/transcript"
)

func fromInts(vs ...int64) []scalar.S {
	out := make([]scalar.S, len(vs))
	for i, v := range vs {
		out[i] = scalar.FromInt64(v)
	}
	return out
}

func buildProduct() (*mle.CompositePolynomial, scalar.S) {
	a := mle.NewDense(fromInts(1, 2, 3, 4))
	b := mle.NewDense(fromInts(5, 6, 7, 8))
	poly := mle.NewCompositePolynomial(2)
	poly.AddProduct(scalar.One(), []*mle.Dense{a, b})
	return poly, poly.Sum()
}

func TestProveThenVerifyAccepts(t *testing.T) {
	poly, claimedSum := buildProduct()

	proverTr := transcript.New(poly.NumVars, 0)
	proof, proverSubclaim, err := Prove(poly, proverTr)
	require.NoError(t, err)

	verifierTr := transcript.New(poly.NumVars, 0)
	subclaim, err := Verify(proof, claimedSum, poly.MaxDegree, verifierTr)
	require.NoError(t, err)

	require.Equal(t, len(proverSubclaim.Point), len(subclaim.Point))
	for i := range subclaim.Point {
		require.True(t, proverSubclaim.Point[i].Equal(subclaim.Point[i]))
	}
	require.True(t, proverSubclaim.ExpectedEval.Equal(subclaim.ExpectedEval))
}

func TestTamperedRoundEvaluationRejected(t *testing.T) {
	poly, claimedSum := buildProduct()
	proverTr := transcript.New(poly.NumVars, 0)
	proof, _, err := Prove(poly, proverTr)
	require.NoError(t, err)

	proof.RoundEvaluations[0][0] = proof.RoundEvaluations[0][0].Add(scalar.One())

	verifierTr := transcript.New(poly.NumVars, 0)
	_, err = Verify(proof, claimedSum, poly.MaxDegree, verifierTr)
	require.Error(t, err)
}

func TestWrongClaimedSumRejected(t *testing.T) {
	poly, claimedSum := buildProduct()
	proverTr := transcript.New(poly.NumVars, 0)
	proof, _, err := Prove(poly, proverTr)
	require.NoError(t, err)

	verifierTr := transcript.New(poly.NumVars, 0)
	_, err = Verify(proof, claimedSum.Add(scalar.One()), poly.MaxDegree, verifierTr)
	require.Error(t, err)
}
