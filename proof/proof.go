// package proof implements the verifiable-query-result orchestrator:
// the top-level Prove/Verify pipeline that drives a
// proofplan.Plan through both rounds, runs the global sumcheck, opens
// every MLE at the sumcheck point via a pcs.Adapter, and assembles or
// checks the resulting Proof object end to end.
package proof

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/pcs"
	"github.com/spaceandtimelabs/provsql/proofexpr"
	"github.com/spaceandtimelabs/provsql/scalar"
	"github.com/spaceandtimelabs/provsql/sumcheck"
)

// Proof is the wire-format proof object. ClaimedSum carries the
// prover's sumcheck claim T on the wire. sumcheck.Verify needs T as an
// input before it can run, but the verifier's only independent means of
// recomputing T (proofexpr.VerifierBuilder.ClaimedSum, folded from the
// plaintext ResultTable) requires the sumcheck subclaim's point, which
// does not exist until sumcheck.Verify has already returned — so T has to
// travel on the wire and be checked post hoc rather than recomputed
// upfront. See DESIGN.md for the full account.
type Proof struct {
	// Version pins the wire-format revision this Proof was produced
	// under, so a verifier can reject a Proof from an incompatible
	// future encoding instead of misparsing it.
	Version uint32

	// ResultTable is the plan's published result.
	ResultTable *database.Table

	// FirstRoundCommitments are the already-existing anchored column
	// commitments for every column of every table the plan touches, in
	// schema order, appended to the transcript before post-result
	// challenges are drawn. This implementation does not stage a separate
	// pre-challenge commitment round for prover-introduced intermediate
	// MLEs; see DESIGN.md.
	FirstRoundCommitments []database.ColumnCommitment

	// SumcheckProof is the non-interactive sumcheck transcript.
	SumcheckProof *sumcheck.Proof

	// ClaimedSum is the sumcheck claim T (see the type doc above).
	ClaimedSum scalar.S

	// MLEEvaluations holds every MLE handle's evaluation at the sumcheck
	// point, in FinalRoundBuilder.MLEHandles order: the interleaved
	// sequence of ProduceAnchoredMLE/ProduceIntermediateMLE calls the
	// plan tree made during FinalRoundEvaluate, not grouped by kind.
	MLEEvaluations []scalar.S

	// AnchoredMask reports, parallel to MLEEvaluations, which handles are
	// anchored (true) versus intermediate (false); FinalRoundBuilder.Kinds
	// at Prove time.
	AnchoredMask []bool

	// AnchorColumns names the (table, column) each anchored handle came
	// from, in the order anchored handles appear in MLEEvaluations
	// (i.e. indexed by a cursor over the true entries of AnchoredMask,
	// not by MLEEvaluations index directly). The verifier looks up each
	// one's pre-existing commitment via accessor.GetCommitment and checks
	// the corresponding PCSOpenings entry against it: a false claim here
	// cannot produce a passing opening unless the claimed data really is
	// that column's committed data, so trusting this wire field costs no
	// soundness.
	AnchorColumns []proofexpr.AnchorKey

	// IntermediateCommitments holds one fresh commitment per intermediate
	// handle, computed by the prover since this implementation never
	// stages a pre-challenge commitment round for witness MLEs (see
	// DESIGN.md), in the order intermediate handles appear in
	// MLEEvaluations (a cursor over the false entries of AnchoredMask).
	IntermediateCommitments []pcs.Commitment

	// PCSOpenings proves each of MLEEvaluations against its commitment
	// (AnchorColumns' for anchored handles, IntermediateCommitments' for
	// intermediate ones) at the sumcheck point, same order as
	// MLEEvaluations.
	PCSOpenings []pcs.OpeningProof
}

// wireVersion is the only Version this package produces or accepts.
const wireVersion uint32 = 1
