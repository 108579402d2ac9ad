package proofplan

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/proofexpr"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// TableExec is the leaf plan node: it exposes a table's committed column
// MLEs directly, with no witness or identity of its own.
type TableExec struct {
	Table  database.TableRef
	Fields []database.NamedColumnType
}

// NewTableExec builds a TableExec over fields, resolved against
// accessor's schema by the caller (typically query construction code).
func NewTableExec(table database.TableRef, fields []database.NamedColumnType) *TableExec {
	return &TableExec{Table: table, Fields: fields}
}

func (t *TableExec) ColumnFields() []database.NamedColumnType { return t.Fields }

func (t *TableExec) UsedTableRefs() []database.TableRef {
	return []database.TableRef{t.Table}
}

func (t *TableExec) Count(c *database.Counts) {
	for _, e := range t.columns() {
		e.Count(c)
	}
}

// columns builds one proofexpr.Column per field, the expression-level
// view TableExec's Plan methods delegate to.
func (t *TableExec) columns() []proofexpr.Expr {
	out := make([]proofexpr.Expr, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = proofexpr.NewColumn(t.Table, f.Name, f.Type)
	}
	return out
}

func (t *TableExec) FirstRoundEvaluate(accessor database.Accessor) (*database.Table, error) {
	names, _ := namedTypes(t.Fields)
	cols := make([]*database.Column, len(t.Fields))
	for i, name := range names {
		col, err := accessor.GetColumn(t.Table, name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return database.NewTable(names, cols)
}

func (t *TableExec) FinalRoundEvaluate(b *proofexpr.FinalRoundBuilder, challenges *ChallengeCursor, accessor database.Accessor) (*database.Table, error) {
	names, _ := namedTypes(t.Fields)
	cols := make([]*database.Column, len(t.Fields))
	for i, e := range t.columns() {
		col, _, err := e.FinalRoundEvaluate(b, accessor)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return database.NewTable(names, cols)
}

func (t *TableExec) VerifierEvaluate(b *proofexpr.VerifierBuilder, challenges *ChallengeCursor, accessor database.CommitmentAccessor, chiEval scalar.S, resultTable *database.Table) ([]scalar.S, error) {
	evals := make([]scalar.S, len(t.Fields))
	for i, e := range t.columns() {
		v, err := e.VerifierEvaluate(b, accessor, chiEval)
		if err != nil {
			return nil, err
		}
		evals[i] = v
	}
	return evals, nil
}
