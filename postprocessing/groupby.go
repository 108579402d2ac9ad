package postprocessing

import (
	"sort"
	"strings"

	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/poserr"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// AggregateFunc is an aggregate GroupByWithoutProof computes in
// plaintext. The provable GroupBy plan proves only SUM and COUNT (see
// proofplan.GroupBy); Min, Max and Avg exist only here, and Sum and Count
// are also available here for unproven grouping.
type AggregateFunc int

const (
	Min AggregateFunc = iota
	Max
	Avg
	Sum
	Count
)

// UnprovenAggregate is one aggregate column of a GroupByWithoutProof.
type UnprovenAggregate struct {
	Alias  string
	Column string
	Func   AggregateFunc
}

// GroupByWithoutProof groups its input by GroupColumns and computes
// Aggregates, entirely in plaintext: unlike proofplan.GroupBy it carries
// no identity, witness, or MaxGroups bound, so it is only safe to apply
// after the input table's provenance is otherwise established (e.g. a
// second, unproven grouping pass over an already-verified result, or a
// MIN/MAX/AVG aggregate layered on top of a proved SUM/COUNT group).
type GroupByWithoutProof struct {
	GroupColumns []string
	Aggregates   []UnprovenAggregate
}

func NewGroupByWithoutProof(groupColumns []string, aggregates []UnprovenAggregate) *GroupByWithoutProof {
	return &GroupByWithoutProof{GroupColumns: groupColumns, Aggregates: aggregates}
}

func groupKeyString(keyVals [][]scalar.S, row int) string {
	var sb strings.Builder
	for _, col := range keyVals {
		sb.WriteString(col[row].String())
		sb.WriteByte('|')
	}
	return sb.String()
}

func (g *GroupByWithoutProof) Apply(t *database.Table) (*database.Table, error) {
	n := t.NumRows()

	groupCols := make([]*database.Column, len(g.GroupColumns))
	keyVals := make([][]scalar.S, len(g.GroupColumns))
	for i, name := range g.GroupColumns {
		col, ok := t.Column(name)
		if !ok {
			return nil, poserr.ColumnNotFound("<postprocessing input>", name)
		}
		groupCols[i] = col
		keyVals[i] = col.ScalarEncoding()
	}
	aggCols := make([]*database.Column, len(g.Aggregates))
	for i, a := range g.Aggregates {
		col, ok := t.Column(a.Column)
		if !ok {
			return nil, poserr.ColumnNotFound("<postprocessing input>", a.Column)
		}
		aggCols[i] = col
	}

	rowsByKey := make(map[string][]int)
	var order []string
	for i := 0; i < n; i++ {
		k := groupKeyString(keyVals, i)
		if _, ok := rowsByKey[k]; !ok {
			order = append(order, k)
		}
		rowsByKey[k] = append(rowsByKey[k], i)
	}
	sort.Slice(order, func(a, b int) bool {
		ra, rb := rowsByKey[order[a]][0], rowsByKey[order[b]][0]
		if len(keyVals) == 0 {
			return ra < rb
		}
		return scalar.SignedCmp(keyVals[0][ra], keyVals[0][rb]) < 0
	})

	repIndex := make([]int, len(order))
	groups := make([][]int, len(order))
	for j, k := range order {
		rows := rowsByKey[k]
		repIndex[j] = rows[0]
		groups[j] = rows
	}

	names := make([]string, 0, len(g.GroupColumns)+len(g.Aggregates))
	names = append(names, g.GroupColumns...)
	cols := make([]*database.Column, 0, cap(names))
	for _, col := range groupCols {
		cols = append(cols, col.Gather(repIndex))
	}
	for i, a := range g.Aggregates {
		names = append(names, a.Alias)
		col, err := g.applyAggregate(a.Func, aggCols[i], groups)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return database.NewTable(names, cols)
}

func (g *GroupByWithoutProof) applyAggregate(fn AggregateFunc, col *database.Column, groups [][]int) (*database.Column, error) {
	vals := col.ScalarEncoding()
	switch fn {
	case Sum:
		out := make([]scalar.S, len(groups))
		for j, rows := range groups {
			sum := scalar.Zero()
			for _, r := range rows {
				sum = sum.Add(vals[r])
			}
			out[j] = sum
		}
		return database.NewScalarColumn(out), nil
	case Count:
		out := make([]int64, len(groups))
		for j, rows := range groups {
			out[j] = int64(len(rows))
		}
		return database.NewIntColumn(database.BigInt(), out)
	case Min, Max:
		out := make([]scalar.S, len(groups))
		for j, rows := range groups {
			best := vals[rows[0]]
			for _, r := range rows[1:] {
				cmp := scalar.SignedCmp(vals[r], best)
				if (fn == Min && cmp < 0) || (fn == Max && cmp > 0) {
					best = vals[r]
				}
			}
			out[j] = best
		}
		return database.NewScalarColumn(out), nil
	case Avg:
		// Averages as a field element: sum * count^-1, the natural
		// quotient in a prime field rather than a rounded decimal.
		out := make([]scalar.S, len(groups))
		for j, rows := range groups {
			sum := scalar.Zero()
			for _, r := range rows {
				sum = sum.Add(vals[r])
			}
			inv := scalar.FromInt64(int64(len(rows))).Inverse()
			out[j] = sum.Mul(inv)
		}
		return database.NewScalarColumn(out), nil
	default:
		return nil, poserr.Unsupportedf("group_by_without_proof: unknown aggregate function %d", fn)
	}
}
