package proofexpr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/provsql/database"
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

func newTestAccessor(t *testing.T, ref database.TableRef, a, b []int64) database.DataAccessor {
	t.Helper()
	colA, err := database.NewIntColumn(database.BigInt(), a)
	require.NoError(t, err)
	colB, err := database.NewIntColumn(database.BigInt(), b)
	require.NoError(t, err)
	tbl, err := database.NewTable([]string{"a", "b"}, []*database.Column{colA, colB})
	require.NoError(t, err)
	acc := database.NewMemoryAccessor()
	acc.AddTable(ref, tbl)
	return acc
}

// roundTrip drives expr through FinalRoundEvaluate, checks the resulting
// composite polynomial sums to zero over the hypercube (every identity
// holds pointwise), then replays the verifier side at an arbitrary point
// r and checks it reaches the same combined value as evaluating the
// prover's composite polynomial directly at r.
func roundTrip(t *testing.T, expr Expr, accessor database.DataAccessor, numVars, rowCount int, r []scalar.S) {
	t.Helper()

	proverTr := transcript.New(numVars, 0)
	fb, err := NewFinalRoundBuilder(proverTr, numVars, rowCount)
	require.NoError(t, err)

	_, _, err = expr.FinalRoundEvaluate(fb, accessor)
	require.NoError(t, err)
	require.True(t, fb.Composite().Sum().IsZero())

	mleEvals := make([]scalar.S, len(fb.MLEHandles()))
	for i, m := range fb.MLEHandles() {
		mleEvals[i] = m.Evaluate(r)
	}

	composite := fb.Composite()
	for _, coord := range r {
		composite.FixVariable(coord)
	}
	want := composite.Evaluate()

	verifierTr := transcript.New(numVars, 0)
	vb, err := NewVerifierBuilder(verifierTr, mleEvals)
	require.NoError(t, err)
	vb.SetPoint(r)

	commitAcc := database.NewMemoryAccessor()
	_, err = expr.VerifierEvaluate(vb, commitAcc, chiAt(numVars, rowCount, r))
	require.NoError(t, err)
	require.True(t, vb.Exhausted())
	require.True(t, want.Equal(vb.Accumulated()))
}

// chiAt evaluates the ones-of-length-rowCount indicator MLE at r, the
// one-evaluation the orchestrator hands to VerifierEvaluate.
func chiAt(numVars, rowCount int, r []scalar.S) scalar.S {
	ones := make([]scalar.S, 1<<uint(numVars))
	for i := 0; i < rowCount && i < len(ones); i++ {
		ones[i] = scalar.One()
	}
	return mle.NewDense(ones).Evaluate(r)
}

func TestColumnRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{1, 2, 3, 4}, []int64{5, 6, 7, 8})
	col := NewColumn(ref, "a", database.BigInt())
	roundTrip(t, col, accessor, 2, 4, fromInts(7, 11))
}

func TestAddRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{1, 2, 3, 4}, []int64{5, 6, 7, 8})
	expr := NewAdd(NewColumn(ref, "a", database.BigInt()), NewColumn(ref, "b", database.BigInt()), database.BigInt())
	roundTrip(t, expr, accessor, 2, 4, fromInts(3, 13))
}

func TestSubRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{10, 20, 30, 40}, []int64{1, 2, 3, 4})
	expr := NewSub(NewColumn(ref, "a", database.BigInt()), NewColumn(ref, "b", database.BigInt()), database.BigInt())
	roundTrip(t, expr, accessor, 2, 4, fromInts(5, 9))
}

func TestMulRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{1, 2, 3, 4}, []int64{5, 6, 7, 8})
	expr := NewMul(NewColumn(ref, "a", database.BigInt()), NewColumn(ref, "b", database.BigInt()), database.BigInt())
	roundTrip(t, expr, accessor, 2, 4, fromInts(2, 17))
}

func TestAndRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{0, 1, 0, 1}, []int64{0, 0, 1, 1})
	expr := NewAnd(NewColumn(ref, "a", database.Boolean()), NewColumn(ref, "b", database.Boolean()))
	roundTrip(t, expr, accessor, 2, 4, fromInts(4, 6))
}

func TestOrRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{0, 1, 0, 1}, []int64{0, 0, 1, 1})
	expr := NewOr(NewColumn(ref, "a", database.Boolean()), NewColumn(ref, "b", database.Boolean()))
	roundTrip(t, expr, accessor, 2, 4, fromInts(9, 2))
}

func TestNotRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{0, 1, 0, 1}, []int64{0, 0, 1, 1})
	expr := NewNot(NewColumn(ref, "a", database.Boolean()))
	roundTrip(t, expr, accessor, 2, 4, fromInts(8, 14))
}

func TestEqualsRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{1, 2, 3, 4}, []int64{1, 5, 3, 9})
	expr := NewEquals(NewColumn(ref, "a", database.BigInt()), NewColumn(ref, "b", database.BigInt()))
	roundTrip(t, expr, accessor, 2, 4, fromInts(6, 10))
}

func TestNotEqualsRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{1, 2, 3, 4}, []int64{1, 5, 3, 9})
	expr := NewNotEquals(NewColumn(ref, "a", database.BigInt()), NewColumn(ref, "b", database.BigInt()))
	roundTrip(t, expr, accessor, 2, 4, fromInts(13, 21))
}

func TestLessThanRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{1, 5, 3, 9}, []int64{4, 4, 3, 2})
	expr := NewLessThan(NewColumn(ref, "a", database.BigInt()), NewColumn(ref, "b", database.BigInt()))
	roundTrip(t, expr, accessor, 2, 4, fromInts(3, 19))
}

func TestLessEqualRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{1, 5, 3, 9}, []int64{4, 4, 3, 2})
	expr := NewLessEqual(NewColumn(ref, "a", database.BigInt()), NewColumn(ref, "b", database.BigInt()))
	roundTrip(t, expr, accessor, 2, 4, fromInts(17, 5))
}

func TestLiteralRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newTestAccessor(t, ref, []int64{1, 2, 3, 4}, []int64{5, 6, 7, 8})
	expr := NewLiteral(database.BigInt(), scalar.FromInt64(42))
	roundTrip(t, expr, accessor, 2, 4, fromInts(1, 1))
}

func TestCountAccumulatesAcrossTree(t *testing.T) {
	ref := database.NewTableRef("", "t")
	left := NewColumn(ref, "a", database.BigInt())
	right := NewColumn(ref, "b", database.BigInt())
	expr := NewMul(left, right, database.BigInt())

	counts := &database.Counts{}
	expr.Count(counts)
	require.Equal(t, 2, counts.AnchoredMLEs)
	require.Equal(t, 1, counts.IntermediateMLEs)
	require.Equal(t, 1, counts.Identities)
	require.Equal(t, 3, counts.MaxDegree) // p - a*b, eq-masked
}

// mleDenseEqual is a small helper kept for readability at call sites that
// want to assert two MLE handles agree on every entry without pulling in
// a full evaluation-vector round trip.
func mleDenseEqual(t *testing.T, got, want *mle.Dense, point []scalar.S) {
	t.Helper()
	require.True(t, got.Evaluate(point).Equal(want.Evaluate(point)))
}
