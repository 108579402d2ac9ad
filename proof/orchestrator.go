package proof

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/pcs"
	"github.com/spaceandtimelabs/provsql/poserr"
	"github.com/spaceandtimelabs/provsql/proofexpr"
	"github.com/spaceandtimelabs/provsql/proofplan"
	"github.com/spaceandtimelabs/provsql/scalar"
	"github.com/spaceandtimelabs/provsql/sumcheck"
	"github.com/spaceandtimelabs/provsql/transcript"
)

// VerifierAccessor bundles the accessor capabilities Verify needs: never
// DataAccessor, since the verifier only ever sees public metadata,
// schema, and commitments, never raw row data.
type VerifierAccessor interface {
	database.MetadataAccessor
	database.SchemaAccessor
	database.CommitmentAccessor
}

// numVars reports the sumcheck domain size (ceil(log2(n))) for a plan
// that touches exactly one base table, per proofplan's single-table
// scoping: "evaluated within a single sumcheck domain sized to that
// table's row count."
func numVars(n int) int {
	nu := 0
	size := 1
	for size < n {
		size *= 2
		nu++
	}
	return nu
}

// baseTable resolves the one table ref a Plan touches, rejecting plans
// that reference more than one (this implementation never builds join
// plans).
func baseTable(plan proofplan.Plan) (database.TableRef, error) {
	refs := plan.UsedTableRefs()
	if len(refs) != 1 {
		return database.TableRef{}, poserr.Unsupportedf(
			"plan touches %d base tables, want exactly 1", len(refs))
	}
	return refs[0], nil
}

// firstRoundCommitments gathers the pre-existing commitment for every
// column of the plan's base table, in schema order: these are appended
// to the transcript before post-result challenges are drawn.
func firstRoundCommitments(accessor VerifierAccessor, ref database.TableRef) ([]database.ColumnCommitment, error) {
	schema, err := accessor.LookupSchema(ref)
	if err != nil {
		return nil, err
	}
	offset, err := accessor.GetOffset(ref)
	if err != nil {
		return nil, err
	}
	out := make([]database.ColumnCommitment, len(schema))
	for i, col := range schema {
		c, err := accessor.GetCommitment(ref, col.Name)
		if err != nil {
			return nil, err
		}
		out[i] = database.ColumnCommitment{Table: ref, Column: col.Name, Offset: offset, Commitment: c}
	}
	return out, nil
}

// appendFirstRound binds the result table and first-round commitments
// into tr, the step common to both Prove and Verify.
func appendFirstRound(tr *transcript.Transcript, resultTable *database.Table, commitments []database.ColumnCommitment) error {
	for _, name := range resultTable.ColumnNames() {
		col, _ := resultTable.Column(name)
		if err := tr.AppendScalars(transcript.LabelResultColumn, col.ScalarEncoding()); err != nil {
			return err
		}
	}
	for _, c := range commitments {
		if err := tr.AppendCommitment(transcript.LabelCommitment, c.Commitment.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// drawPostResultChallenges draws count challenges from tr, in order,
// matching the ChallengeCursor both Prove's FinalRoundEvaluate and
// Verify's VerifierEvaluate consume from.
func drawPostResultChallenges(tr *transcript.Transcript, count int) ([]scalar.S, error) {
	out := make([]scalar.S, count)
	for i := range out {
		c, err := tr.ChallengeScalar(transcript.PostResultChallengeLabel(i))
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// Prove runs plan over accessor's real data, producing a Proof that
// Verify can check against accessor's public (non-data) capabilities
// alone.
func Prove(plan proofplan.Plan, accessor database.Accessor, adapter pcs.Adapter) (*Proof, error) {
	start := time.Now()
	ref, err := baseTable(plan)
	if err != nil {
		return nil, err
	}
	n, err := accessor.GetLength(ref)
	if err != nil {
		return nil, err
	}
	nu := numVars(n)

	var counts database.Counts
	plan.Count(&counts)
	logger.WithFields(logrus.Fields{
		"table":      ref.String(),
		"rows":       n,
		"vars":       nu,
		"identities": counts.Identities,
		"max_degree": counts.MaxDegree,
	}).Debug("proving query plan")

	resultTable, err := plan.FirstRoundEvaluate(accessor)
	if err != nil {
		return nil, err
	}

	commitments, err := firstRoundCommitments(accessor, ref)
	if err != nil {
		return nil, err
	}

	tr := transcript.New(nu, counts.PostResultChallenges)
	if err := appendFirstRound(tr, resultTable, commitments); err != nil {
		return nil, err
	}
	challenges, err := drawPostResultChallenges(tr, counts.PostResultChallenges)
	if err != nil {
		return nil, err
	}

	fb, err := proofexpr.NewFinalRoundBuilder(tr, nu, n)
	if err != nil {
		return nil, err
	}
	finalTable, err := plan.FinalRoundEvaluate(fb, proofplan.NewChallengeCursor(challenges), accessor)
	if err != nil {
		return nil, err
	}
	if finalTable.NumRows() != resultTable.NumRows() {
		return nil, fmt.Errorf("proof: final-round result table has %d rows, first round had %d",
			finalTable.NumRows(), resultTable.NumRows())
	}

	// Snapshot every MLE's original evaluation table before sumcheck.Prove
	// folds the shared handles down to a single value each.
	handles := fb.MLEHandles()
	snapshots := make([]*mleHandle, len(handles))
	kinds := fb.Kinds()
	anchorKeys := fb.AnchorKeys()
	anchorCursor := 0
	for i, h := range handles {
		snap := &mleHandle{original: h.Clone(), anchored: kinds[i]}
		if kinds[i] {
			snap.anchorKey = anchorKeys[anchorCursor]
			anchorCursor++
		}
		snapshots[i] = snap
	}

	sumcheckProof, subclaim, err := sumcheck.Prove(fb.Composite(), tr)
	if err != nil {
		return nil, err
	}

	mleEvaluations := make([]scalar.S, len(snapshots))
	anchoredMask := make([]bool, len(snapshots))
	pcsOpenings := make([]pcs.OpeningProof, len(snapshots))
	var anchorColumns []proofexpr.AnchorKey
	var intermediateCommitments []pcs.Commitment

	for i, snap := range snapshots {
		y, openProof, err := adapter.Open(snap.original.Evals, subclaim.Point)
		if err != nil {
			return nil, fmt.Errorf("proof: error opening mle %d: %v", i, err)
		}
		mleEvaluations[i] = y
		anchoredMask[i] = snap.anchored
		pcsOpenings[i] = openProof
		if snap.anchored {
			anchorColumns = append(anchorColumns, snap.anchorKey)
		} else {
			c, err := adapter.Commit(snap.original.Evals)
			if err != nil {
				return nil, fmt.Errorf("proof: error committing intermediate mle %d: %v", i, err)
			}
			intermediateCommitments = append(intermediateCommitments, c)
		}
	}

	logger.WithFields(logrus.Fields{
		"table":       ref.String(),
		"result_rows": resultTable.NumRows(),
		"mles":        len(snapshots),
		"elapsed":     time.Since(start),
	}).Info("proof generated")

	return &Proof{
		Version:                 wireVersion,
		ResultTable:             resultTable,
		FirstRoundCommitments:   commitments,
		SumcheckProof:           sumcheckProof,
		ClaimedSum:              fb.ClaimedSum(),
		MLEEvaluations:          mleEvaluations,
		AnchoredMask:            anchoredMask,
		AnchorColumns:           anchorColumns,
		IntermediateCommitments: intermediateCommitments,
		PCSOpenings:             pcsOpenings,
	}, nil
}

// mleHandle pairs a cloned MLE's original (unfolded) evaluation table
// with the bookkeeping Prove needs to assemble Proof after sumcheck.Prove
// has destructively folded the live handles.
type mleHandle struct {
	original  *mle.Dense
	anchored  bool
	anchorKey proofexpr.AnchorKey
}

// Verify checks proof against plan and accessor's public capabilities
// (no DataAccessor access). It returns a *poserr.Error of kind
// VerificationError on any
// rejection.
func Verify(plan proofplan.Plan, accessor VerifierAccessor, adapter pcs.Adapter, proof *Proof) error {
	start := time.Now()
	if proof.Version != wireVersion {
		return poserr.VerificationError("proof", "unsupported proof version %d", proof.Version)
	}

	ref, err := baseTable(plan)
	if err != nil {
		return err
	}
	n, err := accessor.GetLength(ref)
	if err != nil {
		return err
	}
	nu := numVars(n)

	var counts database.Counts
	plan.Count(&counts)

	commitments, err := firstRoundCommitments(accessor, ref)
	if err != nil {
		return err
	}
	if len(commitments) != len(proof.FirstRoundCommitments) {
		return poserr.VerificationError("proof",
			"proof carries %d first-round commitments, accessor reports %d", len(proof.FirstRoundCommitments), len(commitments))
	}
	for i, c := range commitments {
		pc := proof.FirstRoundCommitments[i]
		if !c.Table.Equal(pc.Table) || c.Column != pc.Column {
			return poserr.VerificationError("proof",
				"first-round commitment %d names %s.%s, accessor expects %s.%s", i, pc.Table, pc.Column, c.Table, c.Column)
		}
	}

	tr := transcript.New(nu, counts.PostResultChallenges)
	if err := appendFirstRound(tr, proof.ResultTable, commitments); err != nil {
		return err
	}
	challenges, err := drawPostResultChallenges(tr, counts.PostResultChallenges)
	if err != nil {
		return err
	}

	vb, err := proofexpr.NewVerifierBuilder(tr, proof.MLEEvaluations)
	if err != nil {
		return err
	}

	if len(proof.SumcheckProof.RoundEvaluations) != nu {
		return poserr.VerificationError("sumcheck",
			"proof has %d sumcheck rounds, table of %d rows needs %d", len(proof.SumcheckProof.RoundEvaluations), n, nu)
	}
	maxDegree := counts.MaxDegree
	if maxDegree < 1 {
		maxDegree = 1
	}
	subclaim, err := sumcheck.Verify(proof.SumcheckProof, proof.ClaimedSum, maxDegree, tr)
	if err != nil {
		return err
	}
	vb.SetPoint(subclaim.Point)

	// chi is the one-evaluation: the MLE of the ones-of-length-n column at
	// the sumcheck point, recomputed from the public row count alone. It is
	// the evaluation expressions substitute for constant terms so their
	// identities also hold on zero-padding rows.
	ones := make([]scalar.S, n)
	for i := range ones {
		ones[i] = scalar.One()
	}
	chiEval := evalDenseAt(ones, subclaim.Point)

	evals, err := plan.VerifierEvaluate(vb, proofplan.NewChallengeCursor(challenges), accessor, chiEval, proof.ResultTable)
	if err != nil {
		return err
	}
	if !vb.Exhausted() {
		return poserr.VerificationError("proof", "proof carries unused mle evaluations")
	}
	if !vb.Accumulated().Equal(subclaim.ExpectedEval) {
		return poserr.VerificationError("proof", "identity combination does not match sumcheck's final evaluation")
	}
	if !vb.ClaimedSum().Equal(proof.ClaimedSum) {
		return poserr.VerificationError("proof", "verifier's recomputed claimed sum does not match proof.ClaimedSum")
	}
	if err := checkResultEvaluations(plan, proof, subclaim.Point, evals); err != nil {
		return err
	}

	if err := verifyOpenings(accessor, adapter, proof, subclaim.Point); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"table":       ref.String(),
		"result_rows": proof.ResultTable.NumRows(),
		"elapsed":     time.Since(start),
	}).Info("proof verified")
	return nil
}

// checkResultEvaluations cross-checks, for row-count-preserving plans,
// that VerifierEvaluate's per-column evaluations (derived purely from
// identities) agree with evaluating proof.ResultTable's own MLEs at the
// sumcheck point directly. Row-reducing plans return nil
// evals (see proofplan.Plan.VerifierEvaluate's doc) and are skipped.
func checkResultEvaluations(plan proofplan.Plan, proof *Proof, point []scalar.S, evals []scalar.S) error {
	if evals == nil {
		return nil
	}
	fields := plan.ColumnFields()
	if len(evals) != len(fields) {
		return poserr.VerificationError("proof", "expected %d result evaluations, got %d", len(fields), len(evals))
	}
	for i, f := range fields {
		col, ok := proof.ResultTable.Column(f.Name)
		if !ok {
			return poserr.VerificationError("proof", "result table missing column %q", f.Name)
		}
		want := evalDenseAt(col.ScalarEncoding(), point)
		if !want.Equal(evals[i]) {
			return poserr.VerificationError("proof", "column %q evaluation at sumcheck point does not match result table", f.Name)
		}
	}
	return nil
}

func verifyOpenings(accessor database.CommitmentAccessor, adapter pcs.Adapter, proof *Proof, point []scalar.S) error {
	if len(proof.MLEEvaluations) != len(proof.PCSOpenings) || len(proof.MLEEvaluations) != len(proof.AnchoredMask) {
		return poserr.VerificationError("proof", "mle_evaluations, pcs_openings and anchored_mask length mismatch")
	}
	anchorCursor, interCursor := 0, 0
	for i, y := range proof.MLEEvaluations {
		var commitment pcs.Commitment
		if proof.AnchoredMask[i] {
			if anchorCursor >= len(proof.AnchorColumns) {
				return poserr.VerificationError("proof", "exhausted anchor_columns list at mle %d", i)
			}
			key := proof.AnchorColumns[anchorCursor]
			anchorCursor++
			c, err := accessor.GetCommitment(key.Table, key.Column)
			if err != nil {
				return poserr.VerificationError("proof", "mle %d names unknown column %s.%s", i, key.Table, key.Column)
			}
			commitment = c
		} else {
			if interCursor >= len(proof.IntermediateCommitments) {
				return poserr.VerificationError("proof", "exhausted intermediate_commitments list at mle %d", i)
			}
			commitment = proof.IntermediateCommitments[interCursor]
			interCursor++
		}
		if err := adapter.Verify(commitment, point, y, proof.PCSOpenings[i]); err != nil {
			return poserr.VerificationError("proof", "pcs opening %d rejected: %v", i, err)
		}
	}
	return nil
}

// evalDenseAt evaluates the dense multilinear extension of values at
// point, used to cross-check a plaintext result column against the
// sumcheck point without going through the identity machinery.
func evalDenseAt(values []scalar.S, point []scalar.S) scalar.S {
	return mle.NewDense(values).Evaluate(point)
}
