package proofplan

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/proofexpr"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// Projection is the Projection(results, input) operator: output columns
// are the evaluations of results on input, row-count preserving.
// No filtering, no identity beyond what each result expression already
// registers; the orchestrator checks the published columns against the
// sumcheck point directly from the evaluations this returns.
type Projection struct {
	Table   database.TableRef
	Names   []string
	Results []proofexpr.Expr
}

func NewProjection(table database.TableRef, names []string, results []proofexpr.Expr) *Projection {
	return &Projection{Table: table, Names: names, Results: results}
}

func (p *Projection) ColumnFields() []database.NamedColumnType {
	out := make([]database.NamedColumnType, len(p.Results))
	for i, r := range p.Results {
		out[i] = database.NamedColumnType{Name: p.Names[i], Type: r.DataType()}
	}
	return out
}

func (p *Projection) UsedTableRefs() []database.TableRef {
	return []database.TableRef{p.Table}
}

func (p *Projection) Count(c *database.Counts) {
	for _, r := range p.Results {
		r.Count(c)
	}
}

func (p *Projection) FirstRoundEvaluate(accessor database.Accessor) (*database.Table, error) {
	n, err := accessor.GetLength(p.Table)
	if err != nil {
		return nil, err
	}
	cols := make([]*database.Column, len(p.Results))
	for i, r := range p.Results {
		col, err := r.FirstRoundEvaluate(n, accessor)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return database.NewTable(p.Names, cols)
}

func (p *Projection) FinalRoundEvaluate(b *proofexpr.FinalRoundBuilder, challenges *ChallengeCursor, accessor database.Accessor) (*database.Table, error) {
	cols := make([]*database.Column, len(p.Results))
	for i, r := range p.Results {
		col, _, err := r.FinalRoundEvaluate(b, accessor)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return database.NewTable(p.Names, cols)
}

func (p *Projection) VerifierEvaluate(b *proofexpr.VerifierBuilder, challenges *ChallengeCursor, accessor database.CommitmentAccessor, chiEval scalar.S, resultTable *database.Table) ([]scalar.S, error) {
	evals := make([]scalar.S, len(p.Results))
	for i, r := range p.Results {
		v, err := r.VerifierEvaluate(b, accessor, chiEval)
		if err != nil {
			return nil, err
		}
		evals[i] = v
	}
	return evals, nil
}
