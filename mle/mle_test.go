package mle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/provsql/scalar"
)

func fromInts(vs ...int64) []scalar.S {
	out := make([]scalar.S, len(vs))
	for i, v := range vs {
		out[i] = scalar.FromInt64(v)
	}
	return out
}

func TestEvaluationVectorIdentity(t *testing.T) {
	values := fromInts(3, 7, 11, 13)
	d := NewDense(values)
	r := fromInts(2, 5) // any field points work as the formula is polynomial
	got := d.Evaluate(r)

	v := EvaluationVector(r)
	want := InnerProduct(values, v)
	require.True(t, got.Equal(want))
}

func TestEvaluationVectorBooleanHypercube(t *testing.T) {
	values := fromInts(3, 7, 11, 13)
	d := NewDense(values)
	// Variable k addresses bit k of the table index, lowest bit first,
	// matching FixVariable's adjacent-pair fold order.
	for i, want := range values {
		bits := fromInts(int64(i&1), int64((i>>1)&1))
		got := d.Evaluate(bits)
		require.True(t, got.Equal(want), "point %d: got %s want %s", i, got, want)
	}
}

func TestFixVariableMatchesEvaluate(t *testing.T) {
	values := fromInts(1, 2, 3, 4, 5, 6, 7, 8)
	d := NewDense(values)
	r := fromInts(9, 2, 4)
	want := d.Evaluate(r)

	folded := NewDense(values)
	for _, ri := range r {
		folded.FixVariable(ri)
	}
	require.Len(t, folded.Evals, 1)
	require.True(t, folded.Evals[0].Equal(want))
}

func TestInterpolateUniPoly(t *testing.T) {
	// f(X) = X^2 + 1; evals at 0,1,2 are 1,2,5
	evals := fromInts(1, 2, 5)
	for x := int64(0); x < 10; x++ {
		got := InterpolateUniPoly(evals, scalar.FromInt64(x))
		want := scalar.FromInt64(x*x + 1)
		require.True(t, got.Equal(want), "x=%d got %s want %s", x, got, want)
	}
}

func TestCompositePolynomialSumAndRoundPoly(t *testing.T) {
	a := NewDense(fromInts(1, 2, 3, 4))
	b := NewDense(fromInts(5, 6, 7, 8))
	c := NewCompositePolynomial(2)
	c.AddProduct(scalar.One(), []*Dense{a, b})

	wantSum := scalar.Zero()
	for i := 0; i < 4; i++ {
		wantSum = wantSum.Add(a.Evals[i].Mul(b.Evals[i]))
	}
	require.True(t, c.Sum().Equal(wantSum))

	roundPoly := c.EvaluateRoundPoly()
	require.True(t, roundPoly[0].Add(roundPoly[1]).Equal(wantSum))
}
