package proofexpr

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// linearBinary implements Add/Sub as linear combinations: the result is
// registered as an intermediate MLE tied to its operands by one degree-1
// identity; overflow is prevented by the declared column type, not by an
// in-circuit range check.
type linearBinary struct {
	Left, Right Expr
	Typ         database.ColumnType
	rightSign   scalar.S // +1 for Add, -1 for Sub
}

func NewAdd(left, right Expr, typ database.ColumnType) Expr {
	return &linearBinary{Left: left, Right: right, Typ: typ, rightSign: scalar.One()}
}

func NewSub(left, right Expr, typ database.ColumnType) Expr {
	return &linearBinary{Left: left, Right: right, Typ: typ, rightSign: scalar.One().Neg()}
}

func (e *linearBinary) DataType() database.ColumnType { return e.Typ }

func (e *linearBinary) Count(c *database.Counts) {
	e.Left.Count(c)
	e.Right.Count(c)
	c.IntermediateMLEs++
	c.AddIdentity(1)
}

func (e *linearBinary) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	left, err := e.Left.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	right, err := e.Right.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	a, bb := left.ScalarEncoding(), right.ScalarEncoding()
	out := make([]scalar.S, len(a))
	for i := range out {
		out[i] = a[i].Add(e.rightSign.Mul(bb[i]))
	}
	return database.NewScalarColumn(out), nil
}

func (e *linearBinary) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
	leftCol, aMLE, err := e.Left.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, nil, err
	}
	rightCol, bMLE, err := e.Right.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, nil, err
	}
	a, bb := leftCol.ScalarEncoding(), rightCol.ScalarEncoding()
	sum := make([]scalar.S, len(a))
	for i := range sum {
		sum[i] = a[i].Add(e.rightSign.Mul(bb[i]))
	}
	sumMLE := b.ProduceIntermediateMLE(sum)
	if err := b.AddIdentity([]IdentityTerm{
		{Coefficient: scalar.One(), Factors: []*mle.Dense{sumMLE}},
		{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{aMLE}},
		{Coefficient: e.rightSign.Neg(), Factors: []*mle.Dense{bMLE}},
	}); err != nil {
		return nil, nil, err
	}
	return database.NewScalarColumn(sum), sumMLE, nil
}

func (e *linearBinary) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
	a, err := e.Left.VerifierEvaluate(b, accessor, chiEval)
	if err != nil {
		return scalar.S{}, err
	}
	bb, err := e.Right.VerifierEvaluate(b, accessor, chiEval)
	if err != nil {
		return scalar.S{}, err
	}
	sum, err := b.NextMLEEval()
	if err != nil {
		return scalar.S{}, err
	}
	if err := b.AddIdentity(sum.Sub(a).Sub(e.rightSign.Mul(bb))); err != nil {
		return scalar.S{}, err
	}
	return sum, nil
}

// Mul computes witness product p = a*b with identity p - a*b = 0.
type Mul struct {
	Left, Right Expr
	Typ         database.ColumnType
}

func NewMul(left, right Expr, typ database.ColumnType) *Mul {
	return &Mul{Left: left, Right: right, Typ: typ}
}

func (e *Mul) DataType() database.ColumnType { return e.Typ }

func (e *Mul) Count(c *database.Counts) {
	e.Left.Count(c)
	e.Right.Count(c)
	c.IntermediateMLEs++
	c.AddIdentity(2)
}

func (e *Mul) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	left, err := e.Left.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	right, err := e.Right.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	a, bb := left.ScalarEncoding(), right.ScalarEncoding()
	out := make([]scalar.S, len(a))
	for i := range out {
		out[i] = a[i].Mul(bb[i])
	}
	return database.NewScalarColumn(out), nil
}

func (e *Mul) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
	leftCol, aMLE, err := e.Left.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, nil, err
	}
	rightCol, bMLE, err := e.Right.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, nil, err
	}
	a, bb := leftCol.ScalarEncoding(), rightCol.ScalarEncoding()
	p := make([]scalar.S, len(a))
	for i := range p {
		p[i] = a[i].Mul(bb[i])
	}
	pMLE := b.ProduceIntermediateMLE(p)
	if err := b.AddIdentity([]IdentityTerm{
		{Coefficient: scalar.One(), Factors: []*mle.Dense{pMLE}},
		{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{aMLE, bMLE}},
	}); err != nil {
		return nil, nil, err
	}
	return database.NewScalarColumn(p), pMLE, nil
}

func (e *Mul) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
	a, err := e.Left.VerifierEvaluate(b, accessor, chiEval)
	if err != nil {
		return scalar.S{}, err
	}
	bb, err := e.Right.VerifierEvaluate(b, accessor, chiEval)
	if err != nil {
		return scalar.S{}, err
	}
	p, err := b.NextMLEEval()
	if err != nil {
		return scalar.S{}, err
	}
	if err := b.AddIdentity(p.Sub(a.Mul(bb))); err != nil {
		return scalar.S{}, err
	}
	return p, nil
}

// Cast bit-decomposes Input and range-checks it against Typ's wider bit
// width. The value itself is
// unchanged; only its declared type (and therefore its permitted range)
// changes.
type Cast struct {
	Input Expr
	Typ   database.ColumnType
}

func NewCast(input Expr, typ database.ColumnType) *Cast {
	return &Cast{Input: input, Typ: typ}
}

func (e *Cast) DataType() database.ColumnType { return e.Typ }

func (e *Cast) Count(c *database.Counts) {
	e.Input.Count(c)
	if width := e.Typ.BitWidth(); width > 0 {
		countRangeWitness(c, width)
	}
}

func (e *Cast) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	return e.Input.FirstRoundEvaluate(n, accessor)
}

func (e *Cast) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
	inCol, inMLE, err := e.Input.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, nil, err
	}
	width := e.Typ.BitWidth()
	if width == 0 {
		return inCol, inMLE, nil
	}
	if _, err := buildRangeWitness(b, inMLE, inCol.ScalarEncoding(), width); err != nil {
		return nil, nil, err
	}
	return inCol, inMLE, nil
}

func (e *Cast) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
	inVal, err := e.Input.VerifierEvaluate(b, accessor, chiEval)
	if err != nil {
		return scalar.S{}, err
	}
	width := e.Typ.BitWidth()
	if width == 0 {
		return inVal, nil
	}
	if _, err := verifyRangeWitness(b, inVal, width); err != nil {
		return scalar.S{}, err
	}
	return inVal, nil
}
