package database

// Counts is a static-per-plan tally: every expression and plan node's
// Count method accumulates into one of
// these fields so the orchestrator can preallocate witness storage and
// size the sumcheck's composite polynomial before any row is touched.
type Counts struct {
	// AnchoredMLEs is the number of column references whose commitment
	// already existed before the query (TableExec leaves).
	AnchoredMLEs int

	// IntermediateMLEs is the number of prover-introduced witness MLEs
	// (equality indicators, bit decompositions, fold values, ...).
	IntermediateMLEs int

	// Identities is the number of subpolynomial identities the second
	// round must supply and the sumcheck's random-linear combination
	// must fold together.
	Identities int

	// PostResultChallenges is the number of transcript challenges drawn
	// after the first round's result/commitments are appended, consumed
	// in declaration order by Filter's beta and GroupBy's gamma folding
	// challenges.
	PostResultChallenges int

	// MaxDegree is the highest per-variable degree any single identity
	// contributes, the "d" in sumcheck's O(nu*d) verifier cost.
	MaxDegree int
}

// AddIdentity records one zero-checked subpolynomial identity whose terms
// have at most degree MLE factors each. The recorded contribution is
// degree+1: the final-round builder multiplies every zero-checked term by
// the eq(rho,x) mask, adding one factor the declaration site never sees.
func (c *Counts) AddIdentity(degree int) {
	c.Identities++
	if degree+1 > c.MaxDegree {
		c.MaxDegree = degree + 1
	}
}

// AddFoldIdentity records one fold identity (a membership-check term that
// contributes its sum directly to the claim); fold terms carry no eq mask,
// so the declared degree is the real one.
func (c *Counts) AddFoldIdentity(degree int) {
	c.Identities++
	if degree > c.MaxDegree {
		c.MaxDegree = degree
	}
}
