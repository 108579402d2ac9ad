package proofexpr

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// Column references a committed column by table and name; its value is
// supplied directly via PCS opening, no witness.
type Column struct {
	Table database.TableRef
	Name  string
	Typ   database.ColumnType
}

func NewColumn(table database.TableRef, name string, typ database.ColumnType) *Column {
	return &Column{Table: table, Name: name, Typ: typ}
}

func (c *Column) DataType() database.ColumnType { return c.Typ }

func (c *Column) Count(counts *database.Counts) {
	counts.AnchoredMLEs++
}

func (c *Column) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	return accessor.GetColumn(c.Table, c.Name)
}

func (c *Column) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
	col, err := accessor.GetColumn(c.Table, c.Name)
	if err != nil {
		return nil, nil, err
	}
	m := b.ProduceAnchoredMLE(c.Table, c.Name, col.ScalarEncoding())
	return col, m, nil
}

func (c *Column) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
	return b.NextMLEEval()
}
