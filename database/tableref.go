package database

import "strings"

// TableRef is a (schema, table) identifier pair, lowercase-normalized
// unless the caller has already applied quoted-identifier casing.
type TableRef struct {
	Schema string
	Table  string
}

// NewTableRef normalizes both parts to lowercase, matching the
// unquoted-identifier rule; callers that parsed a quoted identifier
// should construct a TableRef literal instead of calling this
// constructor.
func NewTableRef(schema, table string) TableRef {
	return TableRef{Schema: strings.ToLower(schema), Table: strings.ToLower(table)}
}

func (r TableRef) String() string {
	if r.Schema == "" {
		return r.Table
	}
	return r.Schema + "." + r.Table
}

func (r TableRef) Equal(o TableRef) bool {
	return r.Schema == o.Schema && r.Table == o.Table
}
