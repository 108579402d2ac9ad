// package proofplan implements the provable relational operator layer:
// Projection, Filter, GroupBy, Slice, and the TableExec leaf,
// each composed from proofexpr.Expr trees and driven by the same
// transcript-seeded FinalRoundBuilder/VerifierBuilder proofexpr.Expr uses.
package proofplan

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/poserr"
	"github.com/spaceandtimelabs/provsql/proofexpr"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// Plan is one node of a provable query plan: a relational operator over
// one base table, evaluated within a single sumcheck domain sized to
// that table's row count.
type Plan interface {
	ColumnFields() []database.NamedColumnType
	UsedTableRefs() []database.TableRef
	Count(c *database.Counts)

	// FirstRoundEvaluate computes the plan's published result table by
	// executing it over the real data. The prover side needs the full
	// Accessor bundle (not just DataAccessor) because every plan resolves
	// its own row count via GetLength before evaluating any expression.
	FirstRoundEvaluate(accessor database.Accessor) (*database.Table, error)

	// FinalRoundEvaluate produces intermediate MLEs and subpolynomial
	// identities enforcing the operator's correctness, consuming
	// post-result challenges from challenges in declaration order, and
	// returns the same result table FirstRoundEvaluate would.
	FinalRoundEvaluate(b *proofexpr.FinalRoundBuilder, challenges *ChallengeCursor, accessor database.Accessor) (*database.Table, error)

	// VerifierEvaluate replays FinalRoundEvaluate's identities against the
	// publicly revealed resultTable, consuming the same MLE evaluations,
	// identity slots, and post-result challenges in the same order.
	//
	// For row-count-preserving operators (TableExec, Projection) the
	// returned slice holds one evaluation per output column at the
	// sumcheck point r, aligned with ColumnFields order, which the
	// orchestrator cross-checks against resultTable. Row-reducing
	// operators (Filter, GroupBy, Slice) publish a result table in a
	// smaller domain that r's coordinates don't address at all; their
	// correctness is instead established entirely through fold-sum
	// identities whose claimed partial sums are read directly from
	// resultTable's plaintext values, so they return nil.
	VerifierEvaluate(b *proofexpr.VerifierBuilder, challenges *ChallengeCursor, accessor database.CommitmentAccessor, chiEval scalar.S, resultTable *database.Table) ([]scalar.S, error)
}

// ChallengeCursor hands out a fixed sequence of post-result challenges
// in declaration order; Filter's beta and GroupBy's gamma folding
// challenges are drawn from it.
type ChallengeCursor struct {
	values []scalar.S
	cursor int
}

func NewChallengeCursor(values []scalar.S) *ChallengeCursor {
	return &ChallengeCursor{values: values}
}

func (c *ChallengeCursor) Next() (scalar.S, error) {
	if c.cursor >= len(c.values) {
		return scalar.S{}, poserr.VerificationError("proof_plan", "exhausted post_result_challenges list")
	}
	v := c.values[c.cursor]
	c.cursor++
	return v, nil
}

func namedTypes(fields []database.NamedColumnType) ([]string, []database.ColumnType) {
	names := make([]string, len(fields))
	typs := make([]database.ColumnType, len(fields))
	for i, f := range fields {
		names[i] = f.Name
		typs[i] = f.Type
	}
	return names, typs
}

func booleanityTerms(m *mle.Dense) []proofexpr.IdentityTerm {
	return []proofexpr.IdentityTerm{
		{Coefficient: scalar.One(), Factors: []*mle.Dense{m, m}},
		{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{m}},
	}
}
