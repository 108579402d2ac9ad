package proofplan

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/poserr"
	"github.com/spaceandtimelabs/provsql/proofexpr"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// Slice is the Slice(input, offset, limit) operator: publishes at most
// Limit rows of Results starting at the public, query-supplied Offset
// into the base table's row domain. Because Offset/Limit are public
// constants (not data-dependent, unlike Filter's where or GroupBy's
// grouping), row selection needs no witnessed indicator: each output slot
// i uses the deterministic one-hot vector for row Offset+i (the standard
// basis vector, not a Lagrange eq-polynomial), computed identically by
// prover and verifier, folded against each result column exactly like
// Filter's beta-weighted fold but with a public rather than witnessed
// selector. Limit is a static bound on the published row count (Count
// cannot touch data), so slots with Offset+i beyond the table's actual row
// count fold against the zero vector, contributing a trivial zero claim.
// Composing Slice on top of Filter or GroupBy's own (already row-reduced)
// output is out of scope: Slice here selects directly from a row-count-
// preserving input over the base committed domain.
type Slice struct {
	Table         database.TableRef
	Names         []string
	Results       []proofexpr.Expr
	Offset        int
	Limit         int
	InputRowCount int // static row count of Table, since Count cannot access data
}

func NewSlice(table database.TableRef, names []string, results []proofexpr.Expr, offset, limit, inputRowCount int) (*Slice, error) {
	if limit < 0 {
		return nil, poserr.Unsupportedf("slice: limit must be non-negative")
	}
	if offset < 0 {
		return nil, poserr.Unsupportedf("slice: offset must be non-negative")
	}
	return &Slice{Table: table, Names: names, Results: results, Offset: offset, Limit: limit, InputRowCount: inputRowCount}, nil
}

func (s *Slice) ColumnFields() []database.NamedColumnType {
	out := make([]database.NamedColumnType, len(s.Results))
	for i, r := range s.Results {
		out[i] = database.NamedColumnType{Name: s.Names[i], Type: r.DataType()}
	}
	return out
}

func (s *Slice) UsedTableRefs() []database.TableRef { return []database.TableRef{s.Table} }

func (s *Slice) Count(c *database.Counts) {
	for _, r := range s.Results {
		r.Count(c)
	}
	for i := 0; i < s.Limit; i++ {
		for range s.Results {
			c.AddFoldIdentity(2)
		}
	}
}

// publishedLen reports how many of the Limit slots land within the base
// table's InputRowCount rows.
func (s *Slice) publishedLen() int {
	if s.Offset >= s.InputRowCount {
		return 0
	}
	n := s.InputRowCount - s.Offset
	if n > s.Limit {
		n = s.Limit
	}
	return n
}

func (s *Slice) FirstRoundEvaluate(accessor database.Accessor) (*database.Table, error) {
	n, err := accessor.GetLength(s.Table)
	if err != nil {
		return nil, err
	}
	if n != s.InputRowCount {
		return nil, poserr.VerificationError("slice", "input row count %d does not match declared %d", n, s.InputRowCount)
	}
	m := s.publishedLen()
	idx := make([]int, m)
	for i := range idx {
		idx[i] = s.Offset + i
	}
	cols := make([]*database.Column, len(s.Results))
	for i, r := range s.Results {
		col, err := r.FirstRoundEvaluate(n, accessor)
		if err != nil {
			return nil, err
		}
		cols[i] = col.Gather(idx)
	}
	return database.NewTable(s.Names, cols)
}

func (s *Slice) FinalRoundEvaluate(b *proofexpr.FinalRoundBuilder, challenges *ChallengeCursor, accessor database.Accessor) (*database.Table, error) {
	n := b.RowCount()
	if n != s.InputRowCount {
		return nil, poserr.VerificationError("slice", "input row count %d does not match declared %d", n, s.InputRowCount)
	}
	m := s.publishedLen()
	idx := make([]int, m)
	for i := range idx {
		idx[i] = s.Offset + i
	}

	resultMLEs := make([]*mle.Dense, len(s.Results))
	outputCols := make([]*database.Column, len(s.Results))
	for i, r := range s.Results {
		col, rm, err := r.FinalRoundEvaluate(b, accessor)
		if err != nil {
			return nil, err
		}
		resultMLEs[i] = rm
		outputCols[i] = col.Gather(idx)
	}

	for i := 0; i < s.Limit; i++ {
		selector := mle.NewDense(zeroOrOneHot(s.Offset+i, n))
		for k, rm := range resultMLEs {
			claimed := scalar.Zero()
			if i < m {
				claimed = outputCols[k].ScalarAt(i)
			}
			if err := b.AddFoldIdentity([]proofexpr.IdentityTerm{
				{Coefficient: scalar.One(), Factors: []*mle.Dense{selector, rm}},
			}, claimed); err != nil {
				return nil, err
			}
		}
	}

	return database.NewTable(s.Names, outputCols)
}

func (s *Slice) VerifierEvaluate(b *proofexpr.VerifierBuilder, challenges *ChallengeCursor, accessor database.CommitmentAccessor, chiEval scalar.S, resultTable *database.Table) ([]scalar.S, error) {
	resultVals := make([]scalar.S, len(s.Results))
	for i, r := range s.Results {
		v, err := r.VerifierEvaluate(b, accessor, chiEval)
		if err != nil {
			return nil, err
		}
		resultVals[i] = v
	}

	m := resultTable.NumRows()
	n := s.InputRowCount
	point := b.Point()
	for i := 0; i < s.Limit; i++ {
		selector := mle.NewDense(zeroOrOneHot(s.Offset+i, n))
		selVal := selector.Evaluate(point)
		for k := range s.Results {
			claimed := scalar.Zero()
			if i < m {
				col, ok := resultTable.Column(s.Names[k])
				if !ok {
					return nil, poserr.VerificationError("slice", "result table missing column %q", s.Names[k])
				}
				claimed = col.ScalarAt(i)
			}
			value := selVal.Mul(resultVals[k])
			if err := b.AddFoldIdentity(value, claimed); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// zeroOrOneHot returns the dense 0/1 vector of length n holding a single 1
// at index, or the all-zero vector if index falls outside [0, n).
func zeroOrOneHot(index, n int) []scalar.S {
	out := make([]scalar.S, n)
	if index >= 0 && index < n {
		out[index] = scalar.One()
	}
	return out
}
