package postprocessing

import "github.com/spaceandtimelabs/provsql/database"

// SliceWithoutProof takes at most Limit rows starting at Offset, the
// unproven counterpart of proofplan.Slice: no identity ties its output
// back to a committed table, so it is only ever safe to apply to a table
// that has already passed proof.Verify (or needed no proof to begin
// with, e.g. the result of an earlier postprocessing step).
type SliceWithoutProof struct {
	Offset int
	Limit  int // negative means unbounded
}

func NewSliceWithoutProof(offset, limit int) *SliceWithoutProof {
	return &SliceWithoutProof{Offset: offset, Limit: limit}
}

func (s *SliceWithoutProof) Apply(t *database.Table) (*database.Table, error) {
	n := t.NumRows()
	start := s.Offset
	if start > n {
		start = n
	}
	end := n
	if s.Limit >= 0 && start+s.Limit < end {
		end = start + s.Limit
	}

	names := t.ColumnNames()
	cols := make([]*database.Column, len(names))
	for i, name := range names {
		col, _ := t.Column(name)
		cols[i] = col.Slice(start, end)
	}
	return database.NewTable(names, cols)
}
