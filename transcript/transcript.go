// package transcript implements the Fiat-Shamir public-coin transcript
// binding prover messages, commitments, and derived scalar challenges
// under domain-separated labels. It wraps gnark-crypto's fiat-shamir
// package, the same transcript machinery gnark's PLONK prover uses to
// derive its gamma/alpha/zeta challenge schedule.
package transcript

import (
	"crypto/sha256"
	"fmt"

	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"

	"github.com/spaceandtimelabs/provsql/scalar"
)

// Domain-separation labels shared by prover and verifier so the same byte
// sequence is reproducible on both sides.
const (
	LabelResultColumn        = "posql/result-column"
	LabelCommitment          = "posql/commitment"
	LabelPostResultChallenge = "posql/post-result-challenge"
	LabelCombination         = "posql/identity-combination"
	LabelZerocheck           = "posql/zerocheck-seed"
	LabelSumcheckRoundPrefix = "posql/sumcheck-round-"
	LabelPcsEvaluation       = "posql/pcs-evaluation"
)

// Transcript is a labeled Fiat-Shamir sponge. Every label that will ever be
// bound to or challenged from must be declared up front at New, matching
// fiat-shamir's own label-predeclaration contract.
type Transcript struct {
	inner  fiatshamir.Transcript
	labels []string // declaration order
}

// New declares the fixed set of labels this proof's pipeline will use:
// the ambient labels plus one per sumcheck round (numSumcheckRounds) and
// one per post-result challenge (numPostResultChallenges).
func New(numSumcheckRounds, numPostResultChallenges int) *Transcript {
	labels := []string{
		LabelResultColumn,
		LabelCommitment,
		LabelCombination,
		LabelZerocheck,
		LabelPcsEvaluation,
	}
	for i := 0; i < numPostResultChallenges; i++ {
		labels = append(labels, fmt.Sprintf("%s-%d", LabelPostResultChallenge, i))
	}
	for i := 0; i < numSumcheckRounds; i++ {
		labels = append(labels, SumcheckRoundLabel(i))
	}
	return &Transcript{inner: fiatshamir.NewTranscript(sha256.New(), labels...), labels: labels}
}

// SumcheckRoundLabel builds the transcript label for sumcheck round i.
func SumcheckRoundLabel(i int) string {
	return fmt.Sprintf("%s%d", LabelSumcheckRoundPrefix, i)
}

// PostResultChallengeLabel builds the transcript label for post-result
// challenge i.
func PostResultChallengeLabel(i int) string {
	return fmt.Sprintf("%s-%d", LabelPostResultChallenge, i)
}

// AppendBytes appends raw prover-visible bytes under label.
func (t *Transcript) AppendBytes(label string, b []byte) error {
	if err := t.inner.Bind(label, b); err != nil {
		return fmt.Errorf("transcript: error binding bytes under %q: %v", label, err)
	}
	return nil
}

// AppendScalar appends a scalar's canonical big-endian encoding under
// label.
func (t *Transcript) AppendScalar(label string, s scalar.S) error {
	b := s.Bytes()
	return t.AppendBytes(label, b[:])
}

// AppendScalars appends a sequence of scalars under the same label, in
// order.
func (t *Transcript) AppendScalars(label string, ss []scalar.S) error {
	for _, s := range ss {
		if err := t.AppendScalar(label, s); err != nil {
			return err
		}
	}
	return nil
}

// AppendCommitment appends an opaque commitment's byte encoding under
// label.
func (t *Transcript) AppendCommitment(label string, c []byte) error {
	return t.AppendBytes(label, c)
}

// ChallengeScalar draws a scalar challenge for label by reducing the
// 32-byte SHA-256 challenge mod p. Declared labels that precede label and
// have not been challenged yet are challenged first, in declaration order,
// so each challenge chains over every byte bound under earlier labels
// (result columns and commitments included). Drawing a label a second
// time returns the same scalar.
func (t *Transcript) ChallengeScalar(label string) (scalar.S, error) {
	for _, l := range t.labels {
		if l == label {
			break
		}
		if _, err := t.inner.ComputeChallenge(l); err != nil {
			return scalar.S{}, fmt.Errorf("transcript: error computing challenge %q: %v", l, err)
		}
	}
	b, err := t.inner.ComputeChallenge(label)
	if err != nil {
		return scalar.S{}, fmt.Errorf("transcript: error computing challenge %q: %v", label, err)
	}
	return scalar.SetBytes(b), nil
}
