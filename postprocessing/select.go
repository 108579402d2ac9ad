package postprocessing

import (
	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/poserr"
)

// SelectRename selects, reorders, and renames columns of its input
// table, a pure projection (any computed expression belongs in the
// provable layer instead).
type SelectRename struct {
	// Sources names an input column per output column, in output order.
	Sources []string
	// Names is the output column's name; Names[i] == Sources[i] is a
	// plain passthrough.
	Names []string
}

func NewSelectRename(sources, names []string) *SelectRename {
	return &SelectRename{Sources: sources, Names: names}
}

func (s *SelectRename) Apply(t *database.Table) (*database.Table, error) {
	cols := make([]*database.Column, len(s.Sources))
	for i, src := range s.Sources {
		col, ok := t.Column(src)
		if !ok {
			return nil, poserr.ColumnNotFound("<postprocessing input>", src)
		}
		cols[i] = col
	}
	return database.NewTable(s.Names, cols)
}
