package proofexpr

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// Literal is a constant value broadcast across every row. It needs no
// witness, since its MLE at any point r is the closed form k*one_mle(r);
// this implementation still registers an intermediate MLE and a pointwise
// consistency identity (lit(x) - k*chi(x) = 0, with chi zeroing the
// constant on padding rows) so every Expr uniformly returns a usable MLE
// handle to its parent. Simpler than threading a constant-folding special
// case through every binary operator, at the cost of one extra witness
// and identity per literal.
type Literal struct {
	Typ   database.ColumnType
	Value scalar.S
}

func NewLiteral(typ database.ColumnType, value scalar.S) *Literal {
	return &Literal{Typ: typ, Value: value}
}

func (l *Literal) DataType() database.ColumnType { return l.Typ }

func (l *Literal) Count(counts *database.Counts) {
	counts.IntermediateMLEs++
	counts.AddIdentity(1)
}

func (l *Literal) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	return broadcastColumn(l.Typ, l.Value, n), nil
}

func (l *Literal) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
	col := broadcastColumn(l.Typ, l.Value, b.RowCount())
	m := b.ProduceIntermediateMLE(col.ScalarEncoding())
	if err := b.AddIdentity([]IdentityTerm{
		{Coefficient: scalar.One(), Factors: []*mle.Dense{m}},
		{Coefficient: l.Value.Neg(), Factors: []*mle.Dense{b.Chi()}},
	}); err != nil {
		return nil, nil, err
	}
	return col, m, nil
}

func (l *Literal) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
	lit, err := b.NextMLEEval()
	if err != nil {
		return scalar.S{}, err
	}
	if err := b.AddIdentity(lit.Sub(l.Value.Mul(chiEval))); err != nil {
		return scalar.S{}, err
	}
	return lit, nil
}

func broadcastColumn(typ database.ColumnType, value scalar.S, n int) *database.Column {
	values := make([]scalar.S, n)
	for i := range values {
		values[i] = value
	}
	return database.NewScalarColumn(values)
}
