package database

import "github.com/spaceandtimelabs/provsql/pcs"

// ColumnCommitment binds a committed column to the (table, column,
// offset) tuple it was committed under: committed once per (table, column, offset), reused across
// queries."
type ColumnCommitment struct {
	Table      TableRef
	Column     string
	Offset     int
	Commitment pcs.Commitment
}
