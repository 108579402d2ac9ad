package proofplan

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/poserr"
	"github.com/spaceandtimelabs/provsql/proofexpr"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// Filter is the Filter(results, input, where) operator: publishes the
// m <= n rows of results whose where evaluates truthy. Soundness
// rests on a single folded-membership check rather than a per-row
// indicator matrix: Where's own result is already Boolean-constrained by
// its expression tree (Equals/Inequality/And/Or/Not all enforce 0/1
// internally), so it doubles directly as the selection indicator s(x),
// with no separate witness or consistency identity needed. A transcript
// challenge beta folds the result columns into one value per row;
// proving sum_x s(x)*F_in(x) equals the (publicly known) sum_y F_out(y)
// is a random-linear-combination argument that the selected multiset of
// rows matches the published output, regardless of row order. Row order
// itself is never separately policed: the first round selects matching
// input rows in their original order, which is already monotone by
// construction.
type Filter struct {
	Table   database.TableRef
	Names   []string
	Results []proofexpr.Expr
	Where   proofexpr.Expr
}

func NewFilter(table database.TableRef, names []string, results []proofexpr.Expr, where proofexpr.Expr) (*Filter, error) {
	if !where.DataType().Equal(database.Boolean()) {
		return nil, poserr.TypeMismatchf("filter: where clause must be Boolean, got %s", where.DataType())
	}
	return &Filter{Table: table, Names: names, Results: results, Where: where}, nil
}

func (f *Filter) ColumnFields() []database.NamedColumnType {
	out := make([]database.NamedColumnType, len(f.Results))
	for i, r := range f.Results {
		out[i] = database.NamedColumnType{Name: f.Names[i], Type: r.DataType()}
	}
	return out
}

func (f *Filter) UsedTableRefs() []database.TableRef {
	return []database.TableRef{f.Table}
}

func (f *Filter) Count(c *database.Counts) {
	f.Where.Count(c)
	for _, r := range f.Results {
		r.Count(c)
	}
	c.AddFoldIdentity(2)
	c.PostResultChallenges++
}

func (f *Filter) selectedIndices(whereVals []scalar.S) []int {
	var idx []int
	for i, v := range whereVals {
		if !v.IsZero() {
			idx = append(idx, i)
		}
	}
	return idx
}

func (f *Filter) FirstRoundEvaluate(accessor database.Accessor) (*database.Table, error) {
	n, err := accessor.GetLength(f.Table)
	if err != nil {
		return nil, err
	}
	whereCol, err := f.Where.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	idx := f.selectedIndices(whereCol.ScalarEncoding())

	cols := make([]*database.Column, len(f.Results))
	for i, r := range f.Results {
		col, err := r.FirstRoundEvaluate(n, accessor)
		if err != nil {
			return nil, err
		}
		cols[i] = selectRows(col, idx)
	}
	return database.NewTable(f.Names, cols)
}

func (f *Filter) FinalRoundEvaluate(b *proofexpr.FinalRoundBuilder, challenges *ChallengeCursor, accessor database.Accessor) (*database.Table, error) {
	whereCol, sMLE, err := f.Where.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, err
	}
	whereVals := whereCol.ScalarEncoding()
	idx := f.selectedIndices(whereVals)

	resultMLEs := make([]*mle.Dense, len(f.Results))
	outputCols := make([]*database.Column, len(f.Results))
	for i, r := range f.Results {
		col, m, err := r.FinalRoundEvaluate(b, accessor)
		if err != nil {
			return nil, err
		}
		resultMLEs[i] = m
		outputCols[i] = selectRows(col, idx)
	}

	beta, err := challenges.Next()
	if err != nil {
		return nil, err
	}
	pow := powersOf(beta, len(f.Results))

	terms := make([]proofexpr.IdentityTerm, len(f.Results))
	claimedPartialSum := scalar.Zero()
	for k := range f.Results {
		terms[k] = proofexpr.IdentityTerm{Coefficient: pow[k], Factors: []*mle.Dense{sMLE, resultMLEs[k]}}
		colSum := scalar.Zero()
		for _, v := range outputCols[k].ScalarEncoding() {
			colSum = colSum.Add(v)
		}
		claimedPartialSum = claimedPartialSum.Add(pow[k].Mul(colSum))
	}
	if err := b.AddFoldIdentity(terms, claimedPartialSum); err != nil {
		return nil, err
	}

	return database.NewTable(f.Names, outputCols)
}

func (f *Filter) VerifierEvaluate(b *proofexpr.VerifierBuilder, challenges *ChallengeCursor, accessor database.CommitmentAccessor, chiEval scalar.S, resultTable *database.Table) ([]scalar.S, error) {
	sVal, err := f.Where.VerifierEvaluate(b, accessor, chiEval)
	if err != nil {
		return nil, err
	}
	resultVals := make([]scalar.S, len(f.Results))
	for i, r := range f.Results {
		v, err := r.VerifierEvaluate(b, accessor, chiEval)
		if err != nil {
			return nil, err
		}
		resultVals[i] = v
	}

	beta, err := challenges.Next()
	if err != nil {
		return nil, err
	}
	pow := powersOf(beta, len(f.Results))

	value := scalar.Zero()
	claimedPartialSum := scalar.Zero()
	for k := range f.Results {
		value = value.Add(pow[k].Mul(sVal).Mul(resultVals[k]))
		col, ok := resultTable.Column(f.Names[k])
		if !ok {
			return nil, poserr.VerificationError("filter", "result table missing column %q", f.Names[k])
		}
		colSum := scalar.Zero()
		for _, v := range col.ScalarEncoding() {
			colSum = colSum.Add(v)
		}
		claimedPartialSum = claimedPartialSum.Add(pow[k].Mul(colSum))
	}
	if err := b.AddFoldIdentity(value, claimedPartialSum); err != nil {
		return nil, err
	}
	return nil, nil
}

// selectRows returns a new Column holding col's rows at idx, in order,
// preserving col's declared type.
func selectRows(col *database.Column, idx []int) *database.Column {
	return col.Gather(idx)
}

// powersOf returns weight^1, ..., weight^count.
func powersOf(weight scalar.S, count int) []scalar.S {
	out := make([]scalar.S, count)
	cur := scalar.One()
	for i := 0; i < count; i++ {
		cur = cur.Mul(weight)
		out[i] = cur
	}
	return out
}
