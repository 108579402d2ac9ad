// package sumcheck implements the non-interactive sumcheck subprotocol:
// given a composite polynomial g of degree d in each variable and a
// claimed sum T, produce a proof checkable in O(nu*d)
// scalar ops plus one oracle evaluation of g at the final random point.
package sumcheck

import (
	"fmt"

	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/poserr"
	"github.com/spaceandtimelabs/provsql/scalar"
	"github.com/spaceandtimelabs/provsql/transcript"
)

// Proof is the sequence of per-round univariate evaluations the prover
// appends to the transcript, nu rounds of d+1 evaluations each on the
// wire.
type Proof struct {
	RoundEvaluations [][]scalar.S
}

// Subclaim is the sumcheck verifier's output per the GLOSSARY: an
// evaluation point and the expected polynomial value there, which the
// caller confirms against externally supplied MLE-factor evaluations.
type Subclaim struct {
	Point        []scalar.S
	ExpectedEval scalar.S
}

// Prove runs the sumcheck prover over poly, appending each round's d+1
// evaluations to tr and drawing the next round's challenge from it.
// poly is consumed (its MLEs are folded in place).
func Prove(poly *mle.CompositePolynomial, tr *transcript.Transcript) (*Proof, Subclaim, error) {
	nu := poly.NumVars
	proof := &Proof{RoundEvaluations: make([][]scalar.S, 0, nu)}
	point := make([]scalar.S, 0, nu)

	for i := 0; i < nu; i++ {
		roundPoly := poly.EvaluateRoundPoly()
		label := transcript.SumcheckRoundLabel(i)
		if err := tr.AppendScalars(label, roundPoly); err != nil {
			return nil, Subclaim{}, fmt.Errorf("sumcheck: error appending round %d: %v", i, err)
		}
		r, err := tr.ChallengeScalar(label)
		if err != nil {
			return nil, Subclaim{}, fmt.Errorf("sumcheck: error drawing round %d challenge: %v", i, err)
		}
		poly.FixVariable(r)
		proof.RoundEvaluations = append(proof.RoundEvaluations, roundPoly)
		point = append(point, r)
	}

	return proof, Subclaim{Point: point, ExpectedEval: poly.Evaluate()}, nil
}

// Verify checks proof against a claimed sum T, replaying the same
// transcript order the prover used. It returns the Subclaim the caller
// must confirm against g(r) computed from
// externally supplied MLE-factor evaluations (the Proof-Plan/Proof-Expr
// verifier_evaluate machinery); Verify itself never evaluates g.
func Verify(proof *Proof, claimedSum scalar.S, maxDegree int, tr *transcript.Transcript) (Subclaim, error) {
	nu := len(proof.RoundEvaluations)
	expected := claimedSum
	point := make([]scalar.S, 0, nu)

	for i, roundEvals := range proof.RoundEvaluations {
		if len(roundEvals) != maxDegree+1 {
			return Subclaim{}, poserr.VerificationError("sumcheck",
				"round %d has %d evaluations, want %d", i, len(roundEvals), maxDegree+1)
		}
		label := transcript.SumcheckRoundLabel(i)
		if err := tr.AppendScalars(label, roundEvals); err != nil {
			return Subclaim{}, fmt.Errorf("sumcheck: error appending round %d: %v", i, err)
		}
		sum := roundEvals[0].Add(roundEvals[1])
		if !sum.Equal(expected) {
			return Subclaim{}, poserr.VerificationError("sumcheck",
				"round %d check failed: eval[0]+eval[1] != expected sum", i)
		}
		r, err := tr.ChallengeScalar(label)
		if err != nil {
			return Subclaim{}, fmt.Errorf("sumcheck: error drawing round %d challenge: %v", i, err)
		}
		expected = mle.InterpolateUniPoly(roundEvals, r)
		point = append(point, r)
	}

	return Subclaim{Point: point, ExpectedEval: expected}, nil
}
