package postprocessing

import (
	"sort"

	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/poserr"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// Direction is one OrderBy key's sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// OrderByKey is one column of a (possibly multi-column) sort, applied in
// the order given, each key breaking ties left by the previous one.
type OrderByKey struct {
	Column    string
	Direction Direction
}

// OrderBy stable-sorts its input table by Keys. Row order is never
// policed by the provable layer, so any ORDER BY happens here, after
// verification, over the already-trusted result table.
type OrderBy struct {
	Keys []OrderByKey
}

func NewOrderBy(keys []OrderByKey) *OrderBy {
	return &OrderBy{Keys: keys}
}

func (o *OrderBy) Apply(t *database.Table) (*database.Table, error) {
	if len(o.Keys) == 0 {
		return t, nil
	}
	names := t.ColumnNames()
	keyVals := make([][]scalar.S, len(o.Keys))
	for i, k := range o.Keys {
		col, ok := t.Column(k.Column)
		if !ok {
			return nil, poserr.ColumnNotFound("<postprocessing input>", k.Column)
		}
		keyVals[i] = col.ScalarEncoding()
	}

	n := t.NumRows()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := idx[a], idx[b]
		for i, k := range o.Keys {
			cmp := scalar.SignedCmp(keyVals[i][ra], keyVals[i][rb])
			if cmp == 0 {
				continue
			}
			if k.Direction == Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	cols := make([]*database.Column, len(names))
	for i, name := range names {
		col, _ := t.Column(name)
		cols[i] = col.Gather(idx)
	}
	return database.NewTable(names, cols)
}
