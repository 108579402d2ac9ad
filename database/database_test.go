package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/provsql/pcs/kzgpcs"
	"github.com/spaceandtimelabs/provsql/pcs/setup"
)

func TestTableLengthMismatchRejected(t *testing.T) {
	a := NewBooleanColumn([]bool{true, false})
	b := NewVarBinaryColumn([][]byte{{1}})
	_, err := NewTable([]string{"a", "b"}, []*Column{a, b})
	require.Error(t, err)
}

func TestTableSchemaOrderPreserved(t *testing.T) {
	a := NewBooleanColumn([]bool{true, false})
	b, err := NewIntColumn(BigInt(), []int64{1, 2})
	require.NoError(t, err)
	tbl, err := NewTable([]string{"a", "b"}, []*Column{a, b})
	require.NoError(t, err)

	schema := tbl.Schema()
	require.Equal(t, []string{"a", "b"}, []string{schema[0].Name, schema[1].Name})
	require.True(t, schema[0].Type.Equal(Boolean()))
	require.True(t, schema[1].Type.Equal(BigInt()))
}

func TestTableRefNormalization(t *testing.T) {
	r := NewTableRef("Public", "Orders")
	require.Equal(t, "public.orders", r.String())
}

func TestMemoryAccessorCommitAndLookup(t *testing.T) {
	col, err := NewIntColumn(BigInt(), []int64{1, 2, 3, 4})
	require.NoError(t, err)
	tbl, err := NewTable([]string{"v"}, []*Column{col})
	require.NoError(t, err)

	ref := NewTableRef("", "t")
	acc := NewMemoryAccessor()
	acc.AddTable(ref, tbl)

	srs, err := setup.Run(4, setup.TestOnly)
	require.NoError(t, err)
	adapter := kzgpcs.New(srs)
	require.NoError(t, acc.Commit(ref, adapter))

	n, err := acc.GetLength(ref)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	typ, ok, err := acc.LookupColumn(ref, "v")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, typ.Equal(BigInt()))

	_, err = acc.GetCommitment(ref, "v")
	require.NoError(t, err)

	_, err = acc.GetCommitment(ref, "missing")
	require.Error(t, err)
}

func TestDecimal75RejectsOutOfRangePrecision(t *testing.T) {
	_, err := Decimal75(76, 2)
	require.Error(t, err)
}
