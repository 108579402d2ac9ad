package proofexpr

import (
	"github.com/spaceandtimelabs/provsql/bitgadget"
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/poserr"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// rangeWitness holds the intermediate MLEs of one sign/range gadget
// application: one Booleanity-constrained bit per magnitude bit plus the
// sign bit, and the reconstruction identity tying them back to the input
// value.
//
// Every magnitude bit gets its own Booleanity identity regardless of
// whether the column's bit distribution marks it constant; this
// implementation does not wire the verifier-side "skip constant bits"
// optimization, which would require
// shipping the bit distribution itself as part of the proof object.
func buildRangeWitness(b *FinalRoundBuilder, inputMLE *mle.Dense, values []scalar.S, width int) (signMLE *mle.Dense, err error) {
	if width <= 0 {
		return nil, poserr.Unsupportedf("sign gadget: unsupported bit width %d", width)
	}
	dist := bitgadget.ComputeDistribution(values)
	if !dist.IsConsistentWithRange(width) {
		return nil, poserr.VerificationError("sign_gadget", "column values exceed declared width of %d bits", width)
	}

	n := len(values)
	signCol := make([]scalar.S, n)
	bitCols := make([][]scalar.S, width)
	for k := range bitCols {
		bitCols[k] = make([]scalar.S, n)
	}
	for i, v := range values {
		mask := bitgadget.AbsBitMask(v)
		if mask.Test(bitgadget.SignBit) {
			signCol[i] = scalar.One()
		}
		for k := 0; k < width; k++ {
			if mask.Test(uint(k)) {
				bitCols[k][i] = scalar.One()
			}
		}
	}

	signMLE = b.ProduceIntermediateMLE(signCol)
	if err := b.AddIdentity(booleanityTerms(signMLE)); err != nil {
		return nil, err
	}

	bitMLEs := make([]*mle.Dense, width)
	for k := 0; k < width; k++ {
		bitMLEs[k] = b.ProduceIntermediateMLE(bitCols[k])
		if err := b.AddIdentity(booleanityTerms(bitMLEs[k])); err != nil {
			return nil, err
		}
	}

	// Reconstruction: (1 - 2*sign) * sum_k 2^k*bit_k - x = 0, i.e. x equals
	// the magnitude with its sign flipped when the sign bit is set.
	terms := make([]IdentityTerm, 0, 2*width+1)
	two := scalar.FromInt64(2)
	pow := scalar.One()
	for k := 0; k < width; k++ {
		terms = append(terms,
			IdentityTerm{Coefficient: pow, Factors: []*mle.Dense{bitMLEs[k]}},
			IdentityTerm{Coefficient: pow.Mul(two).Neg(), Factors: []*mle.Dense{bitMLEs[k], signMLE}},
		)
		pow = pow.Mul(two)
	}
	terms = append(terms, IdentityTerm{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{inputMLE}})
	if err := b.AddIdentity(terms); err != nil {
		return nil, err
	}
	return signMLE, nil
}

// verifyRangeWitness replays buildRangeWitness's identities on the
// verifier side, consuming the sign and bit MLE evaluations in the same
// order and returning the sign evaluation.
func verifyRangeWitness(b *VerifierBuilder, inputVal scalar.S, width int) (scalar.S, error) {
	signVal, err := b.NextMLEEval()
	if err != nil {
		return scalar.S{}, err
	}
	if err := b.AddIdentity(signVal.Mul(signVal).Sub(signVal)); err != nil {
		return scalar.S{}, err
	}

	bitVals := make([]scalar.S, width)
	for k := 0; k < width; k++ {
		v, err := b.NextMLEEval()
		if err != nil {
			return scalar.S{}, err
		}
		bitVals[k] = v
		if err := b.AddIdentity(v.Mul(v).Sub(v)); err != nil {
			return scalar.S{}, err
		}
	}

	two := scalar.FromInt64(2)
	pow := scalar.One()
	magnitude := scalar.Zero()
	for k := 0; k < width; k++ {
		magnitude = magnitude.Add(pow.Mul(bitVals[k]))
		pow = pow.Mul(two)
	}
	reconstructed := magnitude.Mul(scalar.One().Sub(two.Mul(signVal)))
	if err := b.AddIdentity(reconstructed.Sub(inputVal)); err != nil {
		return scalar.S{}, err
	}
	return signVal, nil
}

// Sign computes the sign bit of Input (1 if negative under the signed
// interpretation, 0 otherwise), proving Input lies in the range its
// declared type's bit width allows.
type Sign struct {
	Input Expr
	Width int
}

func NewSign(input Expr) *Sign {
	return &Sign{Input: input, Width: input.DataType().BitWidth()}
}

func (e *Sign) DataType() database.ColumnType { return database.Boolean() }

func (e *Sign) Count(c *database.Counts) {
	e.Input.Count(c)
	countRangeWitness(c, e.Width)
}

// countRangeWitness declares buildRangeWitness's contribution: the sign
// bit plus Width magnitude bits, a Booleanity identity for each, and the
// degree-2 reconstruction identity (its bit*sign cross terms).
func countRangeWitness(c *database.Counts, width int) {
	c.IntermediateMLEs += width + 1
	c.AddIdentity(2)
	for i := 0; i < width; i++ {
		c.AddIdentity(2)
	}
	c.AddIdentity(2)
}

func (e *Sign) FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error) {
	in, err := e.Input.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	enc := in.ScalarEncoding()
	out := make([]bool, len(enc))
	for i, v := range enc {
		out[i] = v.Sign() < 0
	}
	return database.NewBooleanColumn(out), nil
}

func (e *Sign) FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error) {
	inCol, inMLE, err := e.Input.FinalRoundEvaluate(b, accessor)
	if err != nil {
		return nil, nil, err
	}
	signMLE, err := buildRangeWitness(b, inMLE, inCol.ScalarEncoding(), e.Width)
	if err != nil {
		return nil, nil, err
	}
	enc := inCol.ScalarEncoding()
	out := make([]bool, len(enc))
	for i, v := range enc {
		out[i] = v.Sign() < 0
	}
	return database.NewBooleanColumn(out), signMLE, nil
}

func (e *Sign) VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error) {
	inVal, err := e.Input.VerifierEvaluate(b, accessor, chiEval)
	if err != nil {
		return scalar.S{}, err
	}
	return verifyRangeWitness(b, inVal, e.Width)
}
