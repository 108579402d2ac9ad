package database

import (
	"github.com/spaceandtimelabs/provsql/pcs"
	"github.com/spaceandtimelabs/provsql/poserr"
)

// MetadataAccessor exposes per-table row count and commitment offset.
type MetadataAccessor interface {
	GetLength(table TableRef) (int, error)
	GetOffset(table TableRef) (int, error)
}

// SchemaAccessor exposes column types by name and the full schema.
type SchemaAccessor interface {
	LookupColumn(table TableRef, name string) (ColumnType, bool, error)
	LookupSchema(table TableRef) ([]NamedColumnType, error)
}

// CommitmentAccessor exposes committed column digests. Available to both
// prover and verifier.
type CommitmentAccessor interface {
	GetCommitment(table TableRef, name string) (pcs.Commitment, error)
}

// DataAccessor exposes raw column data; prover-side only.
type DataAccessor interface {
	GetColumn(table TableRef, name string) (*Column, error)
}

// Accessor bundles the four accessor capabilities the proof-plan engine
// takes as a single dependency.
type Accessor interface {
	MetadataAccessor
	SchemaAccessor
	CommitmentAccessor
	DataAccessor
}

// MemoryAccessor is an in-memory Accessor over a fixed set of tables and
// their commitments, suitable for tests and for single-process
// deployments that hold the whole committed dataset in memory.
type MemoryAccessor struct {
	tables      map[TableRef]*Table
	offsets     map[TableRef]int
	commitments map[TableRef]map[string]pcs.Commitment
}

func NewMemoryAccessor() *MemoryAccessor {
	return &MemoryAccessor{
		tables:      make(map[TableRef]*Table),
		offsets:     make(map[TableRef]int),
		commitments: make(map[TableRef]map[string]pcs.Commitment),
	}
}

// AddTable registers a table at offset 0 with no commitments; call
// Commit afterward (or SetCommitment directly) to populate them.
func (a *MemoryAccessor) AddTable(ref TableRef, t *Table) {
	a.tables[ref] = t
	if _, ok := a.offsets[ref]; !ok {
		a.offsets[ref] = 0
	}
	if _, ok := a.commitments[ref]; !ok {
		a.commitments[ref] = make(map[string]pcs.Commitment)
	}
}

func (a *MemoryAccessor) SetOffset(ref TableRef, offset int) {
	a.offsets[ref] = offset
}

func (a *MemoryAccessor) SetCommitment(ref TableRef, column string, c pcs.Commitment) {
	if a.commitments[ref] == nil {
		a.commitments[ref] = make(map[string]pcs.Commitment)
	}
	a.commitments[ref][column] = c
}

// Commit computes and stores commitments for every column of ref using
// adapter. A column is committed once per (table, column, offset) and
// the commitment is reused across queries.
func (a *MemoryAccessor) Commit(ref TableRef, adapter pcs.Adapter) error {
	t, ok := a.tables[ref]
	if !ok {
		return poserr.TableNotFound(ref.String())
	}
	for _, name := range t.ColumnNames() {
		col, _ := t.Column(name)
		c, err := adapter.Commit(col.ScalarEncoding())
		if err != nil {
			return err
		}
		a.SetCommitment(ref, name, c)
	}
	return nil
}

func (a *MemoryAccessor) GetLength(ref TableRef) (int, error) {
	t, ok := a.tables[ref]
	if !ok {
		return 0, poserr.TableNotFound(ref.String())
	}
	return t.NumRows(), nil
}

func (a *MemoryAccessor) GetOffset(ref TableRef) (int, error) {
	if _, ok := a.tables[ref]; !ok {
		return 0, poserr.TableNotFound(ref.String())
	}
	return a.offsets[ref], nil
}

func (a *MemoryAccessor) LookupColumn(ref TableRef, name string) (ColumnType, bool, error) {
	t, ok := a.tables[ref]
	if !ok {
		return ColumnType{}, false, poserr.TableNotFound(ref.String())
	}
	col, ok := t.Column(name)
	if !ok {
		return ColumnType{}, false, nil
	}
	return col.Type(), true, nil
}

func (a *MemoryAccessor) LookupSchema(ref TableRef) ([]NamedColumnType, error) {
	t, ok := a.tables[ref]
	if !ok {
		return nil, poserr.TableNotFound(ref.String())
	}
	return t.Schema(), nil
}

func (a *MemoryAccessor) GetCommitment(ref TableRef, name string) (pcs.Commitment, error) {
	cols, ok := a.commitments[ref]
	if !ok {
		return nil, poserr.TableNotFound(ref.String())
	}
	c, ok := cols[name]
	if !ok {
		return nil, poserr.ColumnNotFound(ref.String(), name)
	}
	return c, nil
}

func (a *MemoryAccessor) GetColumn(ref TableRef, name string) (*Column, error) {
	t, ok := a.tables[ref]
	if !ok {
		return nil, poserr.TableNotFound(ref.String())
	}
	col, ok := t.Column(name)
	if !ok {
		return nil, poserr.ColumnNotFound(ref.String(), name)
	}
	return col, nil
}
