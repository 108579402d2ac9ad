package proofexpr

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// Equals computes d = a-b, an indicator i (1 when a==b, 0 otherwise), and
// the multiplicative inverse s of d's nonzero part, with identities
// i*d = 0 and d*s + i - 1 = 0. When d is zero, s is
// the zero element by scalar.Inverse's convention and the second
// identity forces i = 1; when d is nonzero, s is its true inverse and
// the same identity forces i = 0.
type Equals struct {
	Left, Right Expr
}

func NewEquals(left, right Expr) *Equals { return &Equals{Left: left, Right: right} }

func (e *Equals) DataType() database.ColumnType { return database.Boolean() }

func (e *Equals) Count(c *database.Counts) {
	e.Left.Count(c)
	e.Right.Count(c)
	c.IntermediateMLEs += 3
	c.AddIdentity(1)
	c.AddIdentity(2)
	c.AddIdentity(2)
}

func (e *Equals) computeIndicator(a, bb []scalar.S) (d, s, indicator []scalar.S) {
	n := len(a)
	d = make([]scalar.S, n)
	s = make([]scalar.S, n)
	indicator = make([]scalar.S, n)
	for i := range d {
		d[i] = a[i].Sub(bb[i])
		if d[i].IsZero() {
			indicator[i] = scalar.One()
		} else {
			s[i] = d[i].Inverse()
		}
	}
	return
}

func (e *Equals) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	left, err := e.Left.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	right, err := e.Right.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	_, _, indicator := e.computeIndicator(left.ScalarEncoding(), right.ScalarEncoding())
	out := make([]bool, len(indicator))
	for i, v := range indicator {
		out[i] = !v.IsZero()
	}
	return database.NewBooleanColumn(out), nil
}

func (e *Equals) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
	leftCol, aMLE, err := e.Left.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, nil, err
	}
	rightCol, bMLE, err := e.Right.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, nil, err
	}
	a, bb := leftCol.ScalarEncoding(), rightCol.ScalarEncoding()
	d, s, indicator := e.computeIndicator(a, bb)

	dMLE := b.ProduceIntermediateMLE(d)
	if err := b.AddIdentity([]IdentityTerm{
		{Coefficient: scalar.One(), Factors: []*mle.Dense{dMLE}},
		{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{aMLE}},
		{Coefficient: scalar.One(), Factors: []*mle.Dense{bMLE}},
	}); err != nil {
		return nil, nil, err
	}

	sMLE := b.ProduceIntermediateMLE(s)
	iMLE := b.ProduceIntermediateMLE(indicator)
	if err := b.AddIdentity([]IdentityTerm{
		{Coefficient: scalar.One(), Factors: []*mle.Dense{iMLE, dMLE}},
	}); err != nil {
		return nil, nil, err
	}
	if err := b.AddIdentity([]IdentityTerm{
		{Coefficient: scalar.One(), Factors: []*mle.Dense{dMLE, sMLE}},
		{Coefficient: scalar.One(), Factors: []*mle.Dense{iMLE}},
		{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{b.Chi()}},
	}); err != nil {
		return nil, nil, err
	}

	out := make([]bool, len(indicator))
	for i, v := range indicator {
		out[i] = !v.IsZero()
	}
	return database.NewBooleanColumn(out), iMLE, nil
}

func (e *Equals) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
	a, err := e.Left.VerifierEvaluate(b, accessor, chiEval)
	if err != nil {
		return scalar.S{}, err
	}
	bb, err := e.Right.VerifierEvaluate(b, accessor, chiEval)
	if err != nil {
		return scalar.S{}, err
	}
	d, err := b.NextMLEEval()
	if err != nil {
		return scalar.S{}, err
	}
	if err := b.AddIdentity(d.Sub(a).Add(bb)); err != nil {
		return scalar.S{}, err
	}
	s, err := b.NextMLEEval()
	if err != nil {
		return scalar.S{}, err
	}
	i, err := b.NextMLEEval()
	if err != nil {
		return scalar.S{}, err
	}
	if err := b.AddIdentity(i.Mul(d)); err != nil {
		return scalar.S{}, err
	}
	if err := b.AddIdentity(d.Mul(s).Add(i).Sub(chiEval)); err != nil {
		return scalar.S{}, err
	}
	return i, nil
}

// NotEquals is Not(Equals(a,b)), mirroring how Or reuses And's witness.
type NotEquals struct {
	not *Not
}

func NewNotEquals(left, right Expr) *NotEquals {
	return &NotEquals{not: NewNot(NewEquals(left, right))}
}

func (e *NotEquals) DataType() database.ColumnType { return database.Boolean() }
func (e *NotEquals) Count(c *database.Counts)      { e.not.Count(c) }

func (e *NotEquals) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	return e.not.FirstRoundEvaluate(n, accessor)
}

func (e *NotEquals) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
	return e.not.FinalRoundEvaluate(b, accessor)
}

func (e *NotEquals) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
	return e.not.VerifierEvaluate(b, accessor, chiEval)
}

// Inequality computes a<=b or a<b via the sign gadget applied to b-a (or
// a-b). LE(a,b) = 1 - Sign(b-a): b-a is negative exactly when a>b,
// so its sign bit is the complement of a<=b. LT(a,b) = Sign(a-b): a-b is
// negative exactly when a<b.
type Inequality struct {
	strict bool
	sign   *Sign
	not    *Not
}

func NewLessEqual(left, right Expr) *Inequality {
	diff := NewSub(right, left, left.DataType())
	s := NewSign(diff)
	return &Inequality{strict: false, sign: s, not: NewNot(s)}
}

func NewLessThan(left, right Expr) *Inequality {
	diff := NewSub(left, right, left.DataType())
	return &Inequality{strict: true, sign: NewSign(diff)}
}

func (e *Inequality) DataType() database.ColumnType { return database.Boolean() }

func (e *Inequality) Count(c *database.Counts) {
	if e.strict {
		e.sign.Count(c)
		return
	}
	e.not.Count(c)
}

func (e *Inequality) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	if e.strict {
		return e.sign.FirstRoundEvaluate(n, accessor)
	}
	return e.not.FirstRoundEvaluate(n, accessor)
}

func (e *Inequality) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
	if e.strict {
		return e.sign.FinalRoundEvaluate(b, accessor)
	}
	return e.not.FinalRoundEvaluate(b, accessor)
}

func (e *Inequality) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
	if e.strict {
		return e.sign.VerifierEvaluate(b, accessor, chiEval)
	}
	return e.not.VerifierEvaluate(b, accessor, chiEval)
}
