package proofexpr

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// Not computes logical negation 1-a. The result is registered as an
// intermediate MLE m and tied to its input by the identity m + a - chi = 0;
// a itself is not checked to be 0/1 here.
type Not struct {
	Input Expr
}

func NewNot(input Expr) *Not { return &Not{Input: input} }

func (e *Not) DataType() database.ColumnType { return database.Boolean() }

func (e *Not) Count(c *database.Counts) {
	e.Input.Count(c)
	c.IntermediateMLEs++
	c.AddIdentity(1)
}

func (e *Not) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	in, err := e.Input.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	enc := in.ScalarEncoding()
	out := make([]bool, in.Len())
	for i := range out {
		out[i] = enc[i].IsZero()
	}
	return database.NewBooleanColumn(out), nil
}

func (e *Not) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
	_, aMLE, err := e.Input.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, nil, err
	}
	col, err := e.FirstRoundEvaluate(b.RowCount(), accessor)
	if err != nil {
		return nil, nil, err
	}
	notVals := make([]scalar.S, len(col.ScalarEncoding()))
	for i, v := range col.ScalarEncoding() {
		notVals[i] = v
	}
	m := b.ProduceIntermediateMLE(notVals)
	if err := b.AddIdentity([]IdentityTerm{
		{Coefficient: scalar.One(), Factors: []*mle.Dense{m}},
		{Coefficient: scalar.One(), Factors: []*mle.Dense{aMLE}},
		{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{b.Chi()}},
	}); err != nil {
		return nil, nil, err
	}
	return col, m, nil
}

func (e *Not) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
	a, err := e.Input.VerifierEvaluate(b, accessor, chiEval)
	if err != nil {
		return scalar.S{}, err
	}
	notVal, err := b.NextMLEEval()
	if err != nil {
		return scalar.S{}, err
	}
	if err := b.AddIdentity(notVal.Add(a).Sub(chiEval)); err != nil {
		return scalar.S{}, err
	}
	return notVal, nil
}

// And computes witness p = a*b with identity p - a*b = 0; result p.
type And struct {
	Left, Right Expr
}

func NewAnd(left, right Expr) *And { return &And{Left: left, Right: right} }

func (e *And) DataType() database.ColumnType { return database.Boolean() }

func (e *And) Count(c *database.Counts) {
	e.Left.Count(c)
	e.Right.Count(c)
	c.IntermediateMLEs++
	c.AddIdentity(2)
}

func (e *And) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	left, err := e.Left.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	right, err := e.Right.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	a, bb := left.ScalarEncoding(), right.ScalarEncoding()
	out := make([]bool, len(a))
	for i := range out {
		out[i] = !a[i].IsZero() && !bb[i].IsZero()
	}
	return database.NewBooleanColumn(out), nil
}

func (e *And) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
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
	out := make([]bool, len(p))
	for i := range out {
		out[i] = !p[i].IsZero()
	}
	return database.NewBooleanColumn(out), pMLE, nil
}

func (e *And) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
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

// Or computes a+b-p where p is the witness product a*b. Both p and the
// OR value itself are registered as intermediate MLEs: a parent consuming
// Or as an identity factor needs a handle whose evaluations are the OR
// column's values, not the product's, so the linear identity
// or - a - b + p = 0 ties the returned handle back to its factors.
type Or struct {
	and *And
}

func NewOr(left, right Expr) *Or {
	return &Or{and: NewAnd(left, right)}
}

func (e *Or) DataType() database.ColumnType { return database.Boolean() }

func (e *Or) Count(c *database.Counts) {
	e.and.Count(c)
	c.IntermediateMLEs++
	c.AddIdentity(1)
}

func (e *Or) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	left, err := e.and.Left.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	right, err := e.and.Right.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	a, bb := left.ScalarEncoding(), right.ScalarEncoding()
	out := make([]bool, len(a))
	for i := range out {
		out[i] = !a[i].IsZero() || !bb[i].IsZero()
	}
	return database.NewBooleanColumn(out), nil
}

func (e *Or) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
	// The product witness is rebuilt here rather than delegated to
	// And.FinalRoundEvaluate, which does not surface the a,b handles the
	// OR-value identity below needs as factors.
	leftCol, aMLE, err := e.and.Left.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, nil, err
	}
	rightCol, bMLE, err := e.and.Right.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, nil, err
	}
	a, bb := leftCol.ScalarEncoding(), rightCol.ScalarEncoding()
	p := make([]scalar.S, len(a))
	or := make([]scalar.S, len(a))
	for i := range p {
		p[i] = a[i].Mul(bb[i])
		or[i] = a[i].Add(bb[i]).Sub(p[i])
	}
	pMLE := b.ProduceIntermediateMLE(p)
	if err := b.AddIdentity([]IdentityTerm{
		{Coefficient: scalar.One(), Factors: []*mle.Dense{pMLE}},
		{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{aMLE, bMLE}},
	}); err != nil {
		return nil, nil, err
	}
	orMLE := b.ProduceIntermediateMLE(or)
	if err := b.AddIdentity([]IdentityTerm{
		{Coefficient: scalar.One(), Factors: []*mle.Dense{orMLE}},
		{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{aMLE}},
		{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{bMLE}},
		{Coefficient: scalar.One(), Factors: []*mle.Dense{pMLE}},
	}); err != nil {
		return nil, nil, err
	}
	out := make([]bool, len(or))
	for i := range out {
		out[i] = !or[i].IsZero()
	}
	return database.NewBooleanColumn(out), orMLE, nil
}

func (e *Or) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
	a, err := e.and.Left.VerifierEvaluate(b, accessor, chiEval)
	if err != nil {
		return scalar.S{}, err
	}
	bb, err := e.and.Right.VerifierEvaluate(b, accessor, chiEval)
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
	or, err := b.NextMLEEval()
	if err != nil {
		return scalar.S{}, err
	}
	if err := b.AddIdentity(or.Sub(a).Sub(bb).Add(p)); err != nil {
		return scalar.S{}, err
	}
	return or, nil
}
