// package proofexpr implements the provable expression tree: column
// references, literals, boolean/comparison/arithmetic operators, casts,
// and the sign gadget, each exposing its static counts, first- and
// final-round evaluation, and verifier-side replay against a shared
// builder.
package proofexpr

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/poserr"
	"github.com/spaceandtimelabs/provsql/scalar"
	"github.com/spaceandtimelabs/provsql/transcript"
)

// Expr is one node of a provable expression tree.
type Expr interface {
	DataType() database.ColumnType
	Count(c *database.Counts)
	FirstRoundEvaluate(n int, accessor database.DataAccessor) (*database.Column, error)

	// FinalRoundEvaluate returns the expression's result column together
	// with the single MLE handle registered in FinalRoundBuilder
	// representing that column's values, so a parent operator can use it
	// directly as an identity factor without re-registering it.
	FinalRoundEvaluate(b *FinalRoundBuilder, accessor database.DataAccessor) (*database.Column, *mle.Dense, error)

	VerifierEvaluate(b *VerifierBuilder, accessor database.CommitmentAccessor, chiEval scalar.S) (scalar.S, error)
}

// IdentityTerm is one product term c*prod(factors) of a subpolynomial
// identity that must hold at every row; every identity registered via
// AddIdentity is a claim that this term sum is zero pointwise across the
// Boolean hypercube.
type IdentityTerm struct {
	Coefficient scalar.S
	Factors     []*mle.Dense
}

// booleanityTerms returns the identity terms for m*(m-1) = 0, the
// Booleanity check every witness indicator (equality indicator, AND
// product, bit-decomposition bit) must satisfy.
func booleanityTerms(m *mle.Dense) []IdentityTerm {
	return []IdentityTerm{
		{Coefficient: scalar.One(), Factors: []*mle.Dense{m, m}},
		{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{m}},
	}
}

// FirstRoundBuilder accumulates prover-introduced witness columns in
// registration order. The proof orchestrator does not use it: the only
// commitments it appends to the transcript before drawing post-result
// challenges are the anchored column commitments of the queried table.
type FirstRoundBuilder struct {
	witnessColumns [][]scalar.S
}

func NewFirstRoundBuilder() *FirstRoundBuilder { return &FirstRoundBuilder{} }

func (b *FirstRoundBuilder) RegisterWitnessColumn(values []scalar.S) {
	b.witnessColumns = append(b.witnessColumns, values)
}

func (b *FirstRoundBuilder) WitnessColumns() [][]scalar.S { return b.witnessColumns }

// powers returns base^1, base^2, ..., base^count, computed iteratively.
func powers(base scalar.S, count int) []scalar.S {
	out := make([]scalar.S, count)
	cur := scalar.One()
	for i := 0; i < count; i++ {
		cur = cur.Mul(base)
		out[i] = cur
	}
	return out
}

// eqEval evaluates the multilinear equality polynomial eq(rho, r) =
// prod_k (rho_k*r_k + (1-rho_k)*(1-r_k)) in closed form, without
// materializing a 2^nu-entry table; both prover and verifier use this to
// apply the same zero-check mask to every identity (see FinalRoundBuilder
// doc).
func eqEval(rho, r []scalar.S) scalar.S {
	total := scalar.One()
	one := scalar.One()
	for k := range rho {
		term := rho[k].Mul(r[k]).Add(one.Sub(rho[k]).Mul(one.Sub(r[k])))
		total = total.Mul(term)
	}
	return total
}

// FinalRoundBuilder accumulates, in a single declaration-order pass over
// the plan tree, every anchored and intermediate MLE handle (each later
// opened by the PCS at the sumcheck point) plus every subpolynomial
// identity.
//
// Two transcript-drawn seeds, each declared and challenged exactly once,
// combine the identities into the single CompositePolynomial the global
// sumcheck runs over:
//   - a combination seed alpha: identity j (1-indexed) is scaled by
//     alpha^j, a standard powers-of-a-single-challenge batching that
//     avoids predeclaring one transcript label per identity;
//   - a zerocheck seed used to derive a pseudorandom point rho of length
//     NumVars (via powers of the seed) and multiply every identity term
//     by eq(rho, x). Without this mask a cheating prover could satisfy
//     "sum over the hypercube equals zero" while some individual row
//     violates the identity (positive and negative errors cancelling in
//     the sum); eq(rho, x) ties the zero-check to a point unknown to the
//     prover at witness-construction time, so Schwartz-Zippel makes that
//     forgery overwhelmingly unlikely.
//
// Zero-checked identities (AddIdentity) therefore add nothing to the
// claimed sumcheck sum; only fold identities (AddFoldIdentity) contribute
// to it.
type FinalRoundBuilder struct {
	poly     *mle.CompositePolynomial
	rowCount int
	eqDense  *mle.Dense
	chiDense *mle.Dense
	alpha    scalar.S

	identityIndex     int
	mles              []*mle.Dense
	anchored          []bool
	anchorKeys        []AnchorKey
	anchoredCount     int
	intermediateCount int
	claimedSum        scalar.S
}

// AnchorKey names the committed column an anchored MLE was produced from,
// letting the orchestrator pair ProduceAnchoredMLE's output back up with
// the pre-existing commitment it must PCS-verify against, since the
// builder itself only ever sees raw scalar values.
type AnchorKey struct {
	Table  database.TableRef
	Column string
}

// NewFinalRoundBuilder draws the combination and zerocheck seeds from tr
// and constructs the zero-check mask over numVars variables.
func NewFinalRoundBuilder(tr *transcript.Transcript, numVars, rowCount int) (*FinalRoundBuilder, error) {
	alpha, err := tr.ChallengeScalar(transcript.LabelCombination)
	if err != nil {
		return nil, err
	}
	zeta, err := tr.ChallengeScalar(transcript.LabelZerocheck)
	if err != nil {
		return nil, err
	}
	rho := powers(zeta, numVars)
	eqTable := mle.EvaluationVector(rho)
	chiTable := make([]scalar.S, 1<<uint(numVars))
	for i := 0; i < rowCount && i < len(chiTable); i++ {
		chiTable[i] = scalar.One()
	}
	return &FinalRoundBuilder{
		poly:     mle.NewCompositePolynomial(numVars),
		rowCount: rowCount,
		eqDense:  mle.NewDense(eqTable),
		chiDense: mle.NewDense(chiTable),
		alpha:    alpha,
	}, nil
}

// Chi is the ones-of-length-n indicator MLE (1 on real rows, 0 on padding
// rows past the table's row count). Identities with a constant term use it
// as the constant's factor, so the identity still holds on padding rows
// where every witness column is zero. Like the eq mask, it is never
// PCS-opened: the verifier recomputes its evaluation at the sumcheck point
// from the public row count alone.
func (b *FinalRoundBuilder) Chi() *mle.Dense { return b.chiDense }

// RowCount is the plan's actual row count n (not rounded up to a power of
// two), the length every expression's first/final round result column
// must share.
func (b *FinalRoundBuilder) RowCount() int { return b.rowCount }

// ProduceAnchoredMLE registers a column reference's own scalar encoding as
// an anchored MLE (its commitment already exists; only its evaluation at
// the sumcheck point still needs to be opened).
func (b *FinalRoundBuilder) ProduceAnchoredMLE(table database.TableRef, column string, values []scalar.S) *mle.Dense {
	d := mle.NewDense(values)
	b.mles = append(b.mles, d)
	b.anchored = append(b.anchored, true)
	b.anchorKeys = append(b.anchorKeys, AnchorKey{Table: table, Column: column})
	b.anchoredCount++
	return d
}

// ProduceIntermediateMLE registers a prover-introduced witness MLE
// (equality indicator, AND product, bit-decomposition bit, ...).
func (b *FinalRoundBuilder) ProduceIntermediateMLE(values []scalar.S) *mle.Dense {
	d := mle.NewDense(values)
	b.mles = append(b.mles, d)
	b.anchored = append(b.anchored, false)
	b.intermediateCount++
	return d
}

// AddIdentity registers one subpolynomial identity, claiming terms sums
// to zero at every row. Its coefficient alpha^j and the eq(rho,x) mask
// are folded in automatically.
func (b *FinalRoundBuilder) AddIdentity(terms []IdentityTerm) error {
	b.identityIndex++
	coeff := scalar.One()
	for i := 0; i < b.identityIndex; i++ {
		coeff = coeff.Mul(b.alpha)
	}
	for _, term := range terms {
		factors := append(append([]*mle.Dense(nil), term.Factors...), b.eqDense)
		b.poly.AddProduct(coeff.Mul(term.Coefficient), factors)
	}
	return nil
}

// AddFoldIdentity registers terms that contribute directly to the global
// sumcheck claim rather than being zero-checked: proofplan's fold-and-sum
// membership checks need the actual value of
// sum_x terms(x), not a proof that it is zero, so the eq(rho,x) mask is
// not applied here. claimedPartialSum is folded into the running total
// the orchestrator hands to sumcheck.Prove as the claimed sum T, scaled
// by the same alpha^j combination coefficient as terms.
func (b *FinalRoundBuilder) AddFoldIdentity(terms []IdentityTerm, claimedPartialSum scalar.S) error {
	b.identityIndex++
	coeff := scalar.One()
	for i := 0; i < b.identityIndex; i++ {
		coeff = coeff.Mul(b.alpha)
	}
	for _, term := range terms {
		b.poly.AddProduct(coeff.Mul(term.Coefficient), term.Factors)
	}
	b.claimedSum = b.claimedSum.Add(coeff.Mul(claimedPartialSum))
	return nil
}

// ClaimedSum is the total claimed sum T the orchestrator passes to
// sumcheck.Prove/Verify: zero from every zero-checked identity plus
// whatever AddFoldIdentity calls contributed.
func (b *FinalRoundBuilder) ClaimedSum() scalar.S { return b.claimedSum }

func (b *FinalRoundBuilder) MLEHandles() []*mle.Dense            { return b.mles }
func (b *FinalRoundBuilder) Composite() *mle.CompositePolynomial { return b.poly }
func (b *FinalRoundBuilder) AnchoredCount() int                  { return b.anchoredCount }
func (b *FinalRoundBuilder) IntermediateCount() int              { return b.intermediateCount }

// Kinds reports, for each MLEHandles index, whether that handle was
// registered via ProduceAnchoredMLE (true) or ProduceIntermediateMLE
// (false); the orchestrator needs this to know which handles already
// have a pre-existing column commitment and which need a fresh one
// carried on the wire, since the two calls interleave in plan-tree walk
// order rather than grouping by kind.
func (b *FinalRoundBuilder) Kinds() []bool { return b.anchored }

// AnchorKeys returns the (table, column) pair for every anchored MLE, in
// MLEHandles order, the orchestrator includes on the wire alongside
// MLEEvaluations so the verifier can look up each one's pre-existing
// commitment without needing to re-walk the plan tree structurally.
func (b *FinalRoundBuilder) AnchorKeys() []AnchorKey { return b.anchorKeys }

// VerifierBuilder replays FinalRoundBuilder's transcript draws and
// eq(rho,x) mask (collapsed to the closed-form scalar eq(rho, sumcheck
// point), since the verifier never materializes a 2^nu table), consuming
// prover-supplied MLE evaluations at the sumcheck point in the same
// declaration order and accumulating the same alpha^j-weighted
// combination.
//
// alpha and zeta must be drawn from tr at the exact transcript position
// FinalRoundBuilder drew them at (after post-result challenges, before any
// sumcheck round label) so the verifier's hash-chained transcript state
// matches the prover's. The sumcheck point r, needed to collapse zeta's
// derived mask point rho down to the scalar eq(rho,r), is only known once
// sumcheck.Verify returns its subclaim — strictly later than that
// transcript position — so it is supplied afterward via SetPoint rather
// than as a constructor argument.
type VerifierBuilder struct {
	mleEvals []scalar.S
	cursor   int

	alpha       scalar.S
	zeta        scalar.S
	eqAtPoint   scalar.S
	point       []scalar.S
	identityIdx int
	accumulated scalar.S
	claimedSum  scalar.S
}

// NewVerifierBuilder draws the same two seeds FinalRoundBuilder drew, in
// the same transcript position. Call SetPoint once the sumcheck subclaim
// is known, before any AddIdentity/AddFoldIdentity/Point call.
func NewVerifierBuilder(tr *transcript.Transcript, mleEvals []scalar.S) (*VerifierBuilder, error) {
	alpha, err := tr.ChallengeScalar(transcript.LabelCombination)
	if err != nil {
		return nil, err
	}
	zeta, err := tr.ChallengeScalar(transcript.LabelZerocheck)
	if err != nil {
		return nil, err
	}
	return &VerifierBuilder{mleEvals: mleEvals, alpha: alpha, zeta: zeta}, nil
}

// SetPoint finalizes the sumcheck point r, computing eq(rho, r) in closed
// form from zeta's derived mask point rho.
func (b *VerifierBuilder) SetPoint(point []scalar.S) {
	rho := powers(b.zeta, len(point))
	b.eqAtPoint = eqEval(rho, point)
	b.point = point
}

// Point returns the sumcheck point r, needed only by plans whose identity
// factors are public (not PCS-opened) and must be evaluated in closed
// form by the verifier, e.g. proofplan's Slice selector vectors.
func (b *VerifierBuilder) Point() []scalar.S { return b.point }

// NextMLEEval consumes and returns the next MLE evaluation in declaration
// order, matching FinalRoundBuilder.ProduceAnchoredMLE/ProduceIntermediateMLE
// call order exactly.
func (b *VerifierBuilder) NextMLEEval() (scalar.S, error) {
	if b.cursor >= len(b.mleEvals) {
		return scalar.S{}, poserr.VerificationError("verifier_evaluate", "exhausted mle_evaluations list")
	}
	v := b.mleEvals[b.cursor]
	b.cursor++
	return v, nil
}

// AddIdentity folds alpha^j * eq(rho,r) * value into the running
// combination, replaying the same weighting FinalRoundBuilder applied.
func (b *VerifierBuilder) AddIdentity(value scalar.S) error {
	b.identityIdx++
	coeff := scalar.One()
	for i := 0; i < b.identityIdx; i++ {
		coeff = coeff.Mul(b.alpha)
	}
	b.accumulated = b.accumulated.Add(coeff.Mul(b.eqAtPoint).Mul(value))
	return nil
}

// AddFoldIdentity replays AddFoldIdentity's prover-side weighting: value
// is the already-evaluated, unmasked term sum at the sumcheck point, and
// claimedPartialSum folds into ClaimedSum the same way the prover's
// claimedPartialSum did.
func (b *VerifierBuilder) AddFoldIdentity(value scalar.S, claimedPartialSum scalar.S) error {
	b.identityIdx++
	coeff := scalar.One()
	for i := 0; i < b.identityIdx; i++ {
		coeff = coeff.Mul(b.alpha)
	}
	b.accumulated = b.accumulated.Add(coeff.Mul(value))
	b.claimedSum = b.claimedSum.Add(coeff.Mul(claimedPartialSum))
	return nil
}

// ClaimedSum mirrors FinalRoundBuilder.ClaimedSum so the verifier can
// confirm the prover reported the same total sumcheck claim.
func (b *VerifierBuilder) ClaimedSum() scalar.S { return b.claimedSum }

func (b *VerifierBuilder) Accumulated() scalar.S { return b.accumulated }

// Exhausted reports whether every supplied MLE evaluation was consumed;
// the orchestrator checks this to reject a proof carrying unused
// evaluations.
func (b *VerifierBuilder) Exhausted() bool { return b.cursor == len(b.mleEvals) }
