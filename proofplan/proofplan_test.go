package proofplan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/proofexpr"
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

func newAccessor(t *testing.T, ref database.TableRef, names []string, cols [][]int64) database.Accessor {
	t.Helper()
	dbCols := make([]*database.Column, len(cols))
	for i, c := range cols {
		col, err := database.NewIntColumn(database.BigInt(), c)
		require.NoError(t, err)
		dbCols[i] = col
	}
	tbl, err := database.NewTable(names, dbCols)
	require.NoError(t, err)
	acc := database.NewMemoryAccessor()
	acc.AddTable(ref, tbl)
	return acc
}

// planRoundTrip drives plan through FirstRoundEvaluate/FinalRoundEvaluate,
// checks the resulting composite polynomial sums to the claimed sum
// (zero for purely zero-checked plans, the fold total otherwise), then
// replays the verifier side at an arbitrary point r and checks it reaches
// the same combined value and claimed sum as the prover side.
func planRoundTrip(t *testing.T, plan Plan, accessor database.Accessor, numVars, rowCount int, r []scalar.S, proverChallenges, verifierChallenges []scalar.S) (*database.Table, []scalar.S) {
	t.Helper()

	proverTr := transcript.New(numVars, 0)
	fb, err := proofexpr.NewFinalRoundBuilder(proverTr, numVars, rowCount)
	require.NoError(t, err)

	resultTable, err := plan.FinalRoundEvaluate(fb, NewChallengeCursor(proverChallenges), accessor)
	require.NoError(t, err)
	require.True(t, fb.Composite().Sum().Equal(fb.ClaimedSum()))

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
	vb, err := proofexpr.NewVerifierBuilder(verifierTr, mleEvals)
	require.NoError(t, err)
	vb.SetPoint(r)

	chi := chiAt(numVars, rowCount, r)
	evals, err := plan.VerifierEvaluate(vb, NewChallengeCursor(verifierChallenges), accessor, chi, resultTable)
	require.NoError(t, err)
	require.True(t, vb.Exhausted())
	require.True(t, want.Equal(vb.Accumulated()))
	require.True(t, fb.ClaimedSum().Equal(vb.ClaimedSum()))

	return resultTable, evals
}

func TestTableExecRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newAccessor(t, ref, []string{"a", "b"}, [][]int64{{1, 2, 3, 4}, {5, 6, 7, 8}})
	fields := []database.NamedColumnType{{Name: "a", Type: database.BigInt()}, {Name: "b", Type: database.BigInt()}}
	plan := NewTableExec(ref, fields)

	first, err := plan.FirstRoundEvaluate(accessor)
	require.NoError(t, err)
	require.Equal(t, 4, first.NumRows())

	r := fromInts(7, 11)
	resultTable, evals := planRoundTrip(t, plan, accessor, 2, 4, r, nil, nil)
	require.Len(t, evals, 2)
	for i, name := range []string{"a", "b"} {
		col, ok := resultTable.Column(name)
		require.True(t, ok)
		want := col.ScalarEncoding()
		got := evalDense(want, r)
		require.True(t, evals[i].Equal(got))
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newAccessor(t, ref, []string{"a", "b"}, [][]int64{{1, 2, 3, 4}, {5, 6, 7, 8}})
	a := proofexpr.NewColumn(ref, "a", database.BigInt())
	b := proofexpr.NewColumn(ref, "b", database.BigInt())
	sum := proofexpr.NewAdd(a, b, database.BigInt())
	plan := NewProjection(ref, []string{"sum"}, []proofexpr.Expr{sum})

	first, err := plan.FirstRoundEvaluate(accessor)
	require.NoError(t, err)
	col, ok := first.Column("sum")
	require.True(t, ok)
	require.Equal(t, fromInts(6, 8, 10, 12), col.ScalarEncoding())

	r := fromInts(7, 11)
	resultTable, evals := planRoundTrip(t, plan, accessor, 2, 4, r, nil, nil)
	sumCol, ok := resultTable.Column("sum")
	require.True(t, ok)
	require.True(t, evals[0].Equal(evalDense(sumCol.ScalarEncoding(), r)))
}

func TestFilterRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newAccessor(t, ref, []string{"a", "b"}, [][]int64{{1, 2, 3, 4}, {10, 20, 30, 40}})
	a := proofexpr.NewColumn(ref, "a", database.BigInt())
	b := proofexpr.NewColumn(ref, "b", database.BigInt())
	where := proofexpr.NewLessThan(a, proofexpr.NewLiteral(database.BigInt(), scalar.FromInt64(3)))
	plan, err := NewFilter(ref, []string{"a", "b"}, []proofexpr.Expr{a, b}, where)
	require.NoError(t, err)

	first, err := plan.FirstRoundEvaluate(accessor)
	require.NoError(t, err)
	require.Equal(t, 2, first.NumRows())
	colA, _ := first.Column("a")
	require.Equal(t, fromInts(1, 2), colA.ScalarEncoding())

	r := fromInts(7, 11)
	beta := []scalar.S{scalar.FromInt64(5)}
	resultTable, evals := planRoundTrip(t, plan, accessor, 2, 4, r, beta, beta)
	require.Nil(t, evals)
	require.Equal(t, 2, resultTable.NumRows())
}

func TestGroupByRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newAccessor(t, ref, []string{"k", "v"}, [][]int64{{1, 1, 2, 2}, {10, 30, 20, 40}})
	k := proofexpr.NewColumn(ref, "k", database.BigInt())
	v := proofexpr.NewColumn(ref, "v", database.BigInt())
	plan, err := NewGroupBy(ref, []string{"k"}, []proofexpr.Expr{k}, []Aggregate{{Alias: "s", Expr: v}}, "cnt", nil, 2)
	require.NoError(t, err)

	first, err := plan.FirstRoundEvaluate(accessor)
	require.NoError(t, err)
	require.Equal(t, 2, first.NumRows())
	sCol, ok := first.Column("s")
	require.True(t, ok)
	require.Equal(t, fromInts(40, 60), sCol.ScalarEncoding())
	cntCol, ok := first.Column("cnt")
	require.True(t, ok)
	require.Equal(t, fromInts(2, 2), cntCol.ScalarEncoding())

	r := fromInts(7, 11)
	gamma := []scalar.S{scalar.FromInt64(9)}
	resultTable, evals := planRoundTrip(t, plan, accessor, 2, 4, r, gamma, gamma)
	require.Nil(t, evals)
	require.Equal(t, 2, resultTable.NumRows())
}

func TestGroupByTooManyGroups(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newAccessor(t, ref, []string{"k", "v"}, [][]int64{{1, 2, 3}, {10, 20, 30}})
	k := proofexpr.NewColumn(ref, "k", database.BigInt())
	v := proofexpr.NewColumn(ref, "v", database.BigInt())
	plan, err := NewGroupBy(ref, []string{"k"}, []proofexpr.Expr{k}, []Aggregate{{Alias: "s", Expr: v}}, "", nil, 2)
	require.NoError(t, err)

	_, err = plan.FirstRoundEvaluate(accessor)
	require.Error(t, err)
}

func TestSliceRoundTrip(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newAccessor(t, ref, []string{"a"}, [][]int64{{10, 20, 30, 40, 50}})
	a := proofexpr.NewColumn(ref, "a", database.BigInt())
	plan, err := NewSlice(ref, []string{"a"}, []proofexpr.Expr{a}, 1, 2, 5)
	require.NoError(t, err)

	first, err := plan.FirstRoundEvaluate(accessor)
	require.NoError(t, err)
	col, ok := first.Column("a")
	require.True(t, ok)
	require.Equal(t, fromInts(20, 30), col.ScalarEncoding())

	r := fromInts(3, 5, 13)
	resultTable, evals := planRoundTrip(t, plan, accessor, 3, 5, r, nil, nil)
	require.Nil(t, evals)
	require.Equal(t, 2, resultTable.NumRows())
}

func TestSlicePastEnd(t *testing.T) {
	ref := database.NewTableRef("", "t")
	accessor := newAccessor(t, ref, []string{"a"}, [][]int64{{10, 20, 30}})
	a := proofexpr.NewColumn(ref, "a", database.BigInt())
	plan, err := NewSlice(ref, []string{"a"}, []proofexpr.Expr{a}, 2, 4, 3)
	require.NoError(t, err)

	first, err := plan.FirstRoundEvaluate(accessor)
	require.NoError(t, err)
	require.Equal(t, 1, first.NumRows())

	r := fromInts(3, 5)
	resultTable, evals := planRoundTrip(t, plan, accessor, 2, 3, r, nil, nil)
	require.Nil(t, evals)
	require.Equal(t, 1, resultTable.NumRows())
}

// evalDense evaluates the dense multilinear extension of values at r
// without going through proofplan's internals, for cross-checking
// returned evaluations in tests.
func evalDense(values []scalar.S, r []scalar.S) scalar.S {
	return mle.NewDense(values).Evaluate(r)
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
