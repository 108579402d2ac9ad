package proofplan

import (
	"sort"
	"strings"

	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/mle"
	"github.com/spaceandtimelabs/provsql/poserr"
	"github.com/spaceandtimelabs/provsql/proofexpr"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// Aggregate is one SUM(Expr) AS Alias item of a GroupBy's aggregate
// list; MIN/MAX belong to the unproven postprocessing layer instead.
type Aggregate struct {
	Alias string
	Expr  proofexpr.Expr
}

// GroupBy is the GroupBy(groups, aggregates, count_alias, input, where)
// operator: publishes one row per distinct group key present in the
// (optionally where-filtered) input, with SUM aggregates and an optional
// row count.
//
// Soundness rests on per-slot indicator columns ind_j, j in [0, MaxGroups):
// Booleanity, a key-consistency identity tying ind_j to the published
// group key g[j] (folded across group columns by a transcript challenge
// gamma, the same random-linear-combination trick Filter uses), and one
// exhaustiveness identity Σ_j ind_j(x) = where(x) shared across all
// slots. Per-slot SUM fold-sum claims read their target directly from the
// published, already-revealed output row. MaxGroups is a static bound on
// distinct output groups the plan must declare up front (count(plan) must
// be computable before touching data); slots beyond the actual number of
// groups G are driven to zero by pairing their consistency identity with
// a gamma-derived sentinel key value no real row can match except with
// negligible probability (gamma is drawn by the transcript only after
// every committed column is fixed, so Schwartz-Zippel applies exactly as
// it does for the zerocheck mask). The published group keys are checked
// for strict ascending order directly against the plaintext result table
// (no separate circuit identity), which also rules out two output rows
// silently describing the same group.
type GroupBy struct {
	Table      database.TableRef
	GroupNames []string
	Groups     []proofexpr.Expr
	Aggregates []Aggregate
	CountAlias string // "" means no published count column
	Where      proofexpr.Expr
	MaxGroups  int
}

func NewGroupBy(table database.TableRef, groupNames []string, groups []proofexpr.Expr, aggregates []Aggregate, countAlias string, where proofexpr.Expr, maxGroups int) (*GroupBy, error) {
	if maxGroups <= 0 {
		return nil, poserr.Unsupportedf("group_by: max_groups must be positive")
	}
	if where != nil && !where.DataType().Equal(database.Boolean()) {
		return nil, poserr.TypeMismatchf("group_by: where clause must be Boolean, got %s", where.DataType())
	}
	return &GroupBy{
		Table: table, GroupNames: groupNames, Groups: groups,
		Aggregates: aggregates, CountAlias: countAlias, Where: where, MaxGroups: maxGroups,
	}, nil
}

func (g *GroupBy) ColumnFields() []database.NamedColumnType {
	out := make([]database.NamedColumnType, 0, len(g.Groups)+len(g.Aggregates)+1)
	for i, e := range g.Groups {
		out = append(out, database.NamedColumnType{Name: g.GroupNames[i], Type: e.DataType()})
	}
	for _, a := range g.Aggregates {
		// SUM publishes as Scalar, matching the field's native width so a
		// sum across many rows cannot silently overflow a fixed-width
		// declared type (see DESIGN.md).
		out = append(out, database.NamedColumnType{Name: a.Alias, Type: database.Scalar()})
	}
	if g.CountAlias != "" {
		out = append(out, database.NamedColumnType{Name: g.CountAlias, Type: database.BigInt()})
	}
	return out
}

func (g *GroupBy) UsedTableRefs() []database.TableRef { return []database.TableRef{g.Table} }

func (g *GroupBy) Count(c *database.Counts) {
	if g.Where != nil {
		g.Where.Count(c)
	}
	for _, e := range g.Groups {
		e.Count(c)
	}
	for _, a := range g.Aggregates {
		a.Expr.Count(c)
	}
	c.IntermediateMLEs += g.MaxGroups
	for j := 0; j < g.MaxGroups; j++ {
		c.AddIdentity(2) // booleanity
	}
	for j := 0; j < g.MaxGroups; j++ {
		c.AddIdentity(2) // key consistency
	}
	if g.CountAlias != "" {
		for j := 0; j < g.MaxGroups; j++ {
			c.AddFoldIdentity(1) // count fold
		}
	}
	for j := 0; j < g.MaxGroups; j++ {
		for range g.Aggregates {
			c.AddFoldIdentity(2) // sum fold
		}
	}
	c.AddIdentity(1) // exhaustiveness
	c.PostResultChallenges++
}

// groupingInfo is the prover's plaintext pass over the (optionally
// filtered) input: the sorted distinct group keys, one representative row
// index per group (any row sharing that key), and the row indices
// belonging to each group.
type groupingInfo struct {
	repIndex []int
	rows     [][]int
}

func keyString(groupVals [][]scalar.S, row int) string {
	var sb strings.Builder
	for _, col := range groupVals {
		sb.WriteString(col[row].String())
		sb.WriteByte('|')
	}
	return sb.String()
}

func computeGrouping(whereVals []scalar.S, groupVals [][]scalar.S, maxGroups int) (*groupingInfo, error) {
	n := len(whereVals)
	rowsByKey := make(map[string][]int)
	var order []string
	for i := 0; i < n; i++ {
		if whereVals[i].IsZero() {
			continue
		}
		k := keyString(groupVals, i)
		if _, ok := rowsByKey[k]; !ok {
			order = append(order, k)
		}
		rowsByKey[k] = append(rowsByKey[k], i)
	}
	sort.Slice(order, func(a, b int) bool {
		ra, rb := rowsByKey[order[a]][0], rowsByKey[order[b]][0]
		if len(groupVals) == 0 {
			return ra < rb
		}
		return scalar.SignedCmp(groupVals[0][ra], groupVals[0][rb]) < 0
	})
	if len(order) > maxGroups {
		return nil, poserr.Unsupportedf("group_by: %d distinct groups exceeds max_groups=%d", len(order), maxGroups)
	}
	info := &groupingInfo{}
	for _, k := range order {
		rows := rowsByKey[k]
		info.repIndex = append(info.repIndex, rows[0])
		info.rows = append(info.rows, rows)
	}
	return info, nil
}

// unusedSlotSentinel is the gamma-derived key value no real row's folded
// group key can match except with negligible probability, used to drive
// slots beyond the actual group count to zero.
func unusedSlotSentinel(gamma scalar.S, maxGroups, slot int) scalar.S {
	return gamma.Mul(scalar.FromInt64(int64(maxGroups + slot + 1)))
}

func (g *GroupBy) FirstRoundEvaluate(accessor database.Accessor) (*database.Table, error) {
	n, err := accessor.GetLength(g.Table)
	if err != nil {
		return nil, err
	}
	whereVals, err := g.whereValues(n, accessor)
	if err != nil {
		return nil, err
	}
	groupCols := make([]*database.Column, len(g.Groups))
	groupVals := make([][]scalar.S, len(g.Groups))
	for i, e := range g.Groups {
		col, err := e.FirstRoundEvaluate(n, accessor)
		if err != nil {
			return nil, err
		}
		groupCols[i] = col
		groupVals[i] = col.ScalarEncoding()
	}
	aggVals := make([][]scalar.S, len(g.Aggregates))
	for i, a := range g.Aggregates {
		col, err := a.Expr.FirstRoundEvaluate(n, accessor)
		if err != nil {
			return nil, err
		}
		aggVals[i] = col.ScalarEncoding()
	}

	info, err := computeGrouping(whereVals, groupVals, g.MaxGroups)
	if err != nil {
		return nil, err
	}
	return g.buildOutputTable(groupCols, aggVals, info)
}

func (g *GroupBy) whereValues(n int, accessor database.DataAccessor) ([]scalar.S, error) {
	if g.Where == nil {
		return allOnes(n), nil
	}
	col, err := g.Where.FirstRoundEvaluate(n, accessor)
	if err != nil {
		return nil, err
	}
	return col.ScalarEncoding(), nil
}

func (g *GroupBy) buildOutputTable(groupCols []*database.Column, aggVals [][]scalar.S, info *groupingInfo) (*database.Table, error) {
	names, _ := namedTypes(g.ColumnFields())
	cols := make([]*database.Column, 0, len(names))
	for _, col := range groupCols {
		cols = append(cols, col.Gather(info.repIndex))
	}
	for a := range g.Aggregates {
		sums := make([]scalar.S, len(info.rows))
		for j, rows := range info.rows {
			sum := scalar.Zero()
			for _, r := range rows {
				sum = sum.Add(aggVals[a][r])
			}
			sums[j] = sum
		}
		cols = append(cols, database.NewScalarColumn(sums))
	}
	if g.CountAlias != "" {
		counts := make([]int64, len(info.rows))
		for j, rows := range info.rows {
			counts[j] = int64(len(rows))
		}
		col, err := database.NewIntColumn(database.BigInt(), counts)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return database.NewTable(names, cols)
}

func (g *GroupBy) FinalRoundEvaluate(b *proofexpr.FinalRoundBuilder, challenges *ChallengeCursor, accessor database.Accessor) (*database.Table, error) {
	n := b.RowCount()
	var whereMLE *mle.Dense
	var whereVals []scalar.S
	if g.Where != nil {
		col, m, err := g.Where.FinalRoundEvaluate(b, accessor)
		if err != nil {
			return nil, err
		}
		whereMLE = m
		whereVals = col.ScalarEncoding()
	} else {
		whereMLE = b.Chi()
		whereVals = allOnes(n)
	}

	groupMLEs := make([]*mle.Dense, len(g.Groups))
	groupCols := make([]*database.Column, len(g.Groups))
	groupVals := make([][]scalar.S, len(g.Groups))
	for i, e := range g.Groups {
		col, m, err := e.FinalRoundEvaluate(b, accessor)
		if err != nil {
			return nil, err
		}
		groupMLEs[i] = m
		groupCols[i] = col
		groupVals[i] = col.ScalarEncoding()
	}
	aggMLEs := make([]*mle.Dense, len(g.Aggregates))
	aggVals := make([][]scalar.S, len(g.Aggregates))
	for i, a := range g.Aggregates {
		col, m, err := a.Expr.FinalRoundEvaluate(b, accessor)
		if err != nil {
			return nil, err
		}
		aggMLEs[i] = m
		aggVals[i] = col.ScalarEncoding()
	}

	info, err := computeGrouping(whereVals, groupVals, g.MaxGroups)
	if err != nil {
		return nil, err
	}
	G := len(info.rows)

	gamma, err := challenges.Next()
	if err != nil {
		return nil, err
	}
	pow := powersOf(gamma, len(g.Groups))

	keyFoldAt := func(row int) scalar.S {
		v := scalar.Zero()
		for k := range g.Groups {
			v = v.Add(pow[k].Mul(groupVals[k][row]))
		}
		return v
	}

	indMLEs := make([]*mle.Dense, g.MaxGroups)
	for j := 0; j < g.MaxGroups; j++ {
		ind := make([]scalar.S, n)
		if j < G {
			for _, r := range info.rows[j] {
				ind[r] = scalar.One()
			}
		}
		indMLEs[j] = b.ProduceIntermediateMLE(ind)

		if err := b.AddIdentity(booleanityTerms(indMLEs[j])); err != nil {
			return nil, err
		}

		var gSlot scalar.S
		if j < G {
			gSlot = keyFoldAt(info.repIndex[j])
		} else {
			gSlot = unusedSlotSentinel(gamma, g.MaxGroups, j)
		}
		consistency := make([]proofexpr.IdentityTerm, 0, len(g.Groups)+1)
		for k := range g.Groups {
			consistency = append(consistency, proofexpr.IdentityTerm{Coefficient: pow[k], Factors: []*mle.Dense{indMLEs[j], groupMLEs[k]}})
		}
		consistency = append(consistency, proofexpr.IdentityTerm{Coefficient: gSlot.Neg(), Factors: []*mle.Dense{indMLEs[j]}})
		if err := b.AddIdentity(consistency); err != nil {
			return nil, err
		}

		if g.CountAlias != "" {
			count := scalar.Zero()
			if j < G {
				count = scalar.FromInt64(int64(len(info.rows[j])))
			}
			if err := b.AddFoldIdentity([]proofexpr.IdentityTerm{
				{Coefficient: scalar.One(), Factors: []*mle.Dense{indMLEs[j]}},
			}, count); err != nil {
				return nil, err
			}
		}

		for a := range g.Aggregates {
			sum := scalar.Zero()
			if j < G {
				for _, r := range info.rows[j] {
					sum = sum.Add(aggVals[a][r])
				}
			}
			if err := b.AddFoldIdentity([]proofexpr.IdentityTerm{
				{Coefficient: scalar.One(), Factors: []*mle.Dense{indMLEs[j], aggMLEs[a]}},
			}, sum); err != nil {
				return nil, err
			}
		}
	}

	exhaustive := make([]proofexpr.IdentityTerm, 0, g.MaxGroups+1)
	for j := 0; j < g.MaxGroups; j++ {
		exhaustive = append(exhaustive, proofexpr.IdentityTerm{Coefficient: scalar.One(), Factors: []*mle.Dense{indMLEs[j]}})
	}
	exhaustive = append(exhaustive, proofexpr.IdentityTerm{Coefficient: scalar.One().Neg(), Factors: []*mle.Dense{whereMLE}})
	if err := b.AddIdentity(exhaustive); err != nil {
		return nil, err
	}

	return g.buildOutputTable(groupCols, aggVals, info)
}

func (g *GroupBy) VerifierEvaluate(b *proofexpr.VerifierBuilder, challenges *ChallengeCursor, accessor database.CommitmentAccessor, chiEval scalar.S, resultTable *database.Table) ([]scalar.S, error) {
	var whereVal scalar.S
	if g.Where != nil {
		v, err := g.Where.VerifierEvaluate(b, accessor, chiEval)
		if err != nil {
			return nil, err
		}
		whereVal = v
	} else {
		whereVal = chiEval
	}

	groupVals := make([]scalar.S, len(g.Groups))
	for i, e := range g.Groups {
		v, err := e.VerifierEvaluate(b, accessor, chiEval)
		if err != nil {
			return nil, err
		}
		groupVals[i] = v
	}
	aggVals := make([]scalar.S, len(g.Aggregates))
	for i, a := range g.Aggregates {
		v, err := a.Expr.VerifierEvaluate(b, accessor, chiEval)
		if err != nil {
			return nil, err
		}
		aggVals[i] = v
	}

	if err := g.checkMonotonicGroupKeys(resultTable); err != nil {
		return nil, err
	}

	m := resultTable.NumRows()
	if m > g.MaxGroups {
		return nil, poserr.VerificationError("group_by", "published %d groups exceeds max_groups=%d", m, g.MaxGroups)
	}

	gamma, err := challenges.Next()
	if err != nil {
		return nil, err
	}
	pow := powersOf(gamma, len(g.Groups))

	publishedKeyFold := func(row int) (scalar.S, error) {
		v := scalar.Zero()
		for k := range g.Groups {
			col, ok := resultTable.Column(g.GroupNames[k])
			if !ok {
				return scalar.S{}, poserr.VerificationError("group_by", "result table missing group column %q", g.GroupNames[k])
			}
			v = v.Add(pow[k].Mul(col.ScalarAt(row)))
		}
		return v, nil
	}

	indVals := make([]scalar.S, g.MaxGroups)
	for j := 0; j < g.MaxGroups; j++ {
		indVal, err := b.NextMLEEval()
		if err != nil {
			return nil, err
		}
		indVals[j] = indVal
		if err := b.AddIdentity(indVal.Mul(indVal).Sub(indVal)); err != nil {
			return nil, err
		}

		var gSlot scalar.S
		if j < m {
			gSlot, err = publishedKeyFold(j)
			if err != nil {
				return nil, err
			}
		} else {
			gSlot = unusedSlotSentinel(gamma, g.MaxGroups, j)
		}
		consistencyVal := scalar.Zero()
		for k := range g.Groups {
			consistencyVal = consistencyVal.Add(pow[k].Mul(indVal).Mul(groupVals[k]))
		}
		consistencyVal = consistencyVal.Sub(gSlot.Mul(indVal))
		if err := b.AddIdentity(consistencyVal); err != nil {
			return nil, err
		}

		if g.CountAlias != "" {
			count := scalar.Zero()
			if j < m {
				col, ok := resultTable.Column(g.CountAlias)
				if !ok {
					return nil, poserr.VerificationError("group_by", "result table missing count column %q", g.CountAlias)
				}
				count = col.ScalarAt(j)
			}
			if err := b.AddFoldIdentity(indVal, count); err != nil {
				return nil, err
			}
		}

		for a := range g.Aggregates {
			sum := scalar.Zero()
			if j < m {
				col, ok := resultTable.Column(g.Aggregates[a].Alias)
				if !ok {
					return nil, poserr.VerificationError("group_by", "result table missing aggregate column %q", g.Aggregates[a].Alias)
				}
				sum = col.ScalarAt(j)
			}
			if err := b.AddFoldIdentity(indVal.Mul(aggVals[a]), sum); err != nil {
				return nil, err
			}
		}
	}

	exhaustiveVal := scalar.Zero()
	for j := 0; j < g.MaxGroups; j++ {
		exhaustiveVal = exhaustiveVal.Add(indVals[j])
	}
	exhaustiveVal = exhaustiveVal.Sub(whereVal)
	if err := b.AddIdentity(exhaustiveVal); err != nil {
		return nil, err
	}

	return nil, nil
}

func (g *GroupBy) checkMonotonicGroupKeys(resultTable *database.Table) error {
	if len(g.Groups) == 0 {
		return nil
	}
	col, ok := resultTable.Column(g.GroupNames[0])
	if !ok {
		return poserr.VerificationError("group_by", "result table missing group column %q", g.GroupNames[0])
	}
	enc := col.ScalarEncoding()
	for i := 1; i < len(enc); i++ {
		if scalar.SignedCmp(enc[i-1], enc[i]) >= 0 {
			return poserr.VerificationError("group_by", "published group keys are not strictly ascending at row %d", i)
		}
	}
	return nil
}

// allOnes returns the all-1s scalar vector of length n, used as the
// implicit where(x) when GroupBy has no filter.
func allOnes(n int) []scalar.S {
	out := make([]scalar.S, n)
	for i := range out {
		out[i] = scalar.One()
	}
	return out
}

