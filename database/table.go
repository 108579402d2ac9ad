package database

import (
	"fmt"
)

// Table is an insertion-ordered mapping from column name to Column, all
// sharing a single row count n. Table always owns its Column slices;
// callers needing a borrowed view slice the columns themselves.
type Table struct {
	names   []string
	columns map[string]*Column
	numRows int
}

// NewTable builds a Table from ordered (name, column) pairs, verifying
// every column shares the same row count.
func NewTable(names []string, columns []*Column) (*Table, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("database: %d names but %d columns", len(names), len(columns))
	}
	t := &Table{columns: make(map[string]*Column, len(columns))}
	n := -1
	for i, name := range names {
		col := columns[i]
		if n == -1 {
			n = col.Len()
		} else if col.Len() != n {
			return nil, fmt.Errorf("database: column %q has length %d, want %d", name, col.Len(), n)
		}
		if _, dup := t.columns[name]; dup {
			return nil, fmt.Errorf("database: duplicate column name %q", name)
		}
		t.names = append(t.names, name)
		t.columns[name] = col
	}
	if n == -1 {
		n = 0
	}
	t.numRows = n
	return t, nil
}

func (t *Table) NumRows() int { return t.numRows }

func (t *Table) ColumnNames() []string {
	return append([]string(nil), t.names...)
}

func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// Schema returns the (name, ColumnType) pairs in insertion order.
func (t *Table) Schema() []NamedColumnType {
	out := make([]NamedColumnType, len(t.names))
	for i, name := range t.names {
		out[i] = NamedColumnType{Name: name, Type: t.columns[name].Type()}
	}
	return out
}

// NamedColumnType pairs a column name with its declared type.
type NamedColumnType struct {
	Name string
	Type ColumnType
}
