package proof

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/pcs/kzgpcs"
	"github.com/spaceandtimelabs/provsql/pcs/setup"
	"github.com/spaceandtimelabs/provsql/poserr"
	"github.com/spaceandtimelabs/provsql/proofexpr"
	"github.com/spaceandtimelabs/provsql/proofplan"
	"github.com/spaceandtimelabs/provsql/scalar"
)

func fromInts(vs ...int64) []scalar.S {
	out := make([]scalar.S, len(vs))
	for i, v := range vs {
		out[i] = scalar.FromInt64(v)
	}
	return out
}

// committedAccessor builds a MemoryAccessor over one BigInt-columned table
// and commits every column with adapter, mirroring how a real deployment
// commits a table once at ingest time.
func committedAccessor(t *testing.T, ref database.TableRef, names []string, cols [][]int64, adapter *kzgpcs.Adapter) *database.MemoryAccessor {
	t.Helper()
	dbCols := make([]*database.Column, len(cols))
	for i, c := range cols {
		col, err := database.NewIntColumn(database.BigInt(), c)
		require.NoError(t, err)
		dbCols[i] = col
	}
	tbl, err := database.NewTable(names, dbCols)
	require.NoError(t, err)
	acc := database.NewMemoryAccessor()
	acc.AddTable(ref, tbl)
	require.NoError(t, acc.Commit(ref, adapter))
	return acc
}

// TestProveVerifyFilter drives an inequality-filter plan through the
// full Prove/Verify pipeline.
func TestProveVerifyFilter(t *testing.T) {
	srs, err := setup.Run(8, setup.TestOnly)
	require.NoError(t, err)
	adapter := kzgpcs.New(srs)

	ref := database.NewTableRef("", "orders")
	accessor := committedAccessor(t, ref, []string{"id", "price"},
		[][]int64{{1, 2, 3, 4}, {10, 20, 30, 40}}, adapter)

	id := proofexpr.NewColumn(ref, "id", database.BigInt())
	price := proofexpr.NewColumn(ref, "price", database.BigInt())
	where := proofexpr.NewLessThan(price, proofexpr.NewLiteral(database.BigInt(), scalar.FromInt64(25)))
	plan, err := proofplan.NewFilter(ref, []string{"id", "price"}, []proofexpr.Expr{id, price}, where)
	require.NoError(t, err)

	p, err := Prove(plan, accessor, adapter)
	require.NoError(t, err)
	require.Equal(t, 2, p.ResultTable.NumRows())
	idCol, ok := p.ResultTable.Column("id")
	require.True(t, ok)
	require.Equal(t, fromInts(1, 2), idCol.ScalarEncoding())

	err = Verify(plan, accessor, adapter, p)
	require.NoError(t, err)
}

// TestProveVerifyFilterOr drives an OR predicate under Filter, with rows
// matched by exactly one operand: the expression's MLE handle doubles as
// Filter's selection indicator, so its evaluations must be the OR
// column's values and not an internal witness's.
func TestProveVerifyFilterOr(t *testing.T) {
	srs, err := setup.Run(8, setup.TestOnly)
	require.NoError(t, err)
	adapter := kzgpcs.New(srs)

	ref := database.NewTableRef("", "orders")
	accessor := committedAccessor(t, ref, []string{"id", "price"},
		[][]int64{{1, 2, 3, 4}, {10, 20, 30, 40}}, adapter)

	id := proofexpr.NewColumn(ref, "id", database.BigInt())
	price := proofexpr.NewColumn(ref, "price", database.BigInt())
	where := proofexpr.NewOr(
		proofexpr.NewEquals(id, proofexpr.NewLiteral(database.BigInt(), scalar.FromInt64(1))),
		proofexpr.NewEquals(price, proofexpr.NewLiteral(database.BigInt(), scalar.FromInt64(20))),
	)
	plan, err := proofplan.NewFilter(ref, []string{"id", "price"}, []proofexpr.Expr{id, price}, where)
	require.NoError(t, err)

	p, err := Prove(plan, accessor, adapter)
	require.NoError(t, err)
	require.Equal(t, 2, p.ResultTable.NumRows())
	idCol, ok := p.ResultTable.Column("id")
	require.True(t, ok)
	require.Equal(t, fromInts(1, 2), idCol.ScalarEncoding())

	require.NoError(t, Verify(plan, accessor, adapter, p))
}

// TestProveVerifyBooleanProjection covers the smallest interesting plan:
// publishing a committed Boolean column as-is.
func TestProveVerifyBooleanProjection(t *testing.T) {
	srs, err := setup.Run(8, setup.TestOnly)
	require.NoError(t, err)
	adapter := kzgpcs.New(srs)

	ref := database.NewTableRef("", "t")
	col := database.NewBooleanColumn([]bool{true, false})
	tbl, err := database.NewTable([]string{"a"}, []*database.Column{col})
	require.NoError(t, err)
	accessor := database.NewMemoryAccessor()
	accessor.AddTable(ref, tbl)
	require.NoError(t, accessor.Commit(ref, adapter))

	a := proofexpr.NewColumn(ref, "a", database.Boolean())
	plan := proofplan.NewProjection(ref, []string{"a"}, []proofexpr.Expr{a})

	p, err := Prove(plan, accessor, adapter)
	require.NoError(t, err)
	got, ok := p.ResultTable.Column("a")
	require.True(t, ok)
	require.Equal(t, fromInts(1, 0), got.ScalarEncoding())

	require.NoError(t, Verify(plan, accessor, adapter, p))
}

// TestProveVerifyFilterVarBinaryEquality filters on equality against a
// varbinary literal, whose scalar encoding is a byte-string reduction
// rather than an integer embedding.
func TestProveVerifyFilterVarBinaryEquality(t *testing.T) {
	srs, err := setup.Run(8, setup.TestOnly)
	require.NoError(t, err)
	adapter := kzgpcs.New(srs)

	ref := database.NewTableRef("", "t")
	aCol, err := database.NewIntColumn(database.BigInt(), []int64{123, 4567})
	require.NoError(t, err)
	bCol := database.NewVarBinaryColumn([][]byte{{1, 2, 3}, {4, 5, 6, 7}})
	tbl, err := database.NewTable([]string{"a", "b"}, []*database.Column{aCol, bCol})
	require.NoError(t, err)
	accessor := database.NewMemoryAccessor()
	accessor.AddTable(ref, tbl)
	require.NoError(t, accessor.Commit(ref, adapter))

	a := proofexpr.NewColumn(ref, "a", database.BigInt())
	b := proofexpr.NewColumn(ref, "b", database.VarBinary())
	needle := proofexpr.NewLiteral(database.VarBinary(), scalar.SetBytes([]byte{4, 5, 6, 7}))
	where := proofexpr.NewEquals(b, needle)
	plan, err := proofplan.NewFilter(ref, []string{"a", "b"}, []proofexpr.Expr{a, b}, where)
	require.NoError(t, err)

	p, err := Prove(plan, accessor, adapter)
	require.NoError(t, err)
	require.Equal(t, 1, p.ResultTable.NumRows())
	gotA, ok := p.ResultTable.Column("a")
	require.True(t, ok)
	require.Equal(t, fromInts(4567), gotA.ScalarEncoding())
	gotB, ok := p.ResultTable.Column("b")
	require.True(t, ok)
	require.Equal(t, []byte{4, 5, 6, 7}, gotB.BytesAt(0))

	require.NoError(t, Verify(plan, accessor, adapter, p))
}

// TestProveVerifyGroupBy drives a group-by-sum plan through the full
// Prove/Verify pipeline.
func TestProveVerifyGroupBy(t *testing.T) {
	srs, err := setup.Run(8, setup.TestOnly)
	require.NoError(t, err)
	adapter := kzgpcs.New(srs)

	ref := database.NewTableRef("", "sales")
	accessor := committedAccessor(t, ref, []string{"region", "amount"},
		[][]int64{{1, 1, 2, 2}, {10, 30, 20, 40}}, adapter)

	region := proofexpr.NewColumn(ref, "region", database.BigInt())
	amount := proofexpr.NewColumn(ref, "amount", database.BigInt())
	plan, err := proofplan.NewGroupBy(ref, []string{"region"}, []proofexpr.Expr{region},
		[]proofplan.Aggregate{{Alias: "total", Expr: amount}}, "cnt", nil, 2)
	require.NoError(t, err)

	p, err := Prove(plan, accessor, adapter)
	require.NoError(t, err)
	require.Equal(t, 2, p.ResultTable.NumRows())
	totalCol, ok := p.ResultTable.Column("total")
	require.True(t, ok)
	require.Equal(t, fromInts(40, 60), totalCol.ScalarEncoding())

	err = Verify(plan, accessor, adapter, p)
	require.NoError(t, err)
}

// TestProveVerifyProjection covers a row-count-preserving plan, so
// checkResultEvaluations' cross-check against VerifierEvaluate's returned
// per-column evaluations actually runs (Filter/GroupBy both return nil
// evals and skip it).
func TestProveVerifyProjection(t *testing.T) {
	srs, err := setup.Run(8, setup.TestOnly)
	require.NoError(t, err)
	adapter := kzgpcs.New(srs)

	ref := database.NewTableRef("", "t")
	accessor := committedAccessor(t, ref, []string{"a", "b"},
		[][]int64{{1, 2, 3, 4}, {5, 6, 7, 8}}, adapter)

	a := proofexpr.NewColumn(ref, "a", database.BigInt())
	b := proofexpr.NewColumn(ref, "b", database.BigInt())
	sum := proofexpr.NewAdd(a, b, database.BigInt())
	plan := proofplan.NewProjection(ref, []string{"sum"}, []proofexpr.Expr{sum})

	p, err := Prove(plan, accessor, adapter)
	require.NoError(t, err)

	err = Verify(plan, accessor, adapter, p)
	require.NoError(t, err)
}

// TestVerifyRejectsTamperedMLEEvaluation flips one MLEEvaluations entry
// after a valid Prove, and checks Verify rejects fail-closed with a
// KindVerificationError rather than panicking or silently accepting.
func TestVerifyRejectsTamperedMLEEvaluation(t *testing.T) {
	srs, err := setup.Run(8, setup.TestOnly)
	require.NoError(t, err)
	adapter := kzgpcs.New(srs)

	ref := database.NewTableRef("", "orders")
	accessor := committedAccessor(t, ref, []string{"id", "price"},
		[][]int64{{1, 2, 3, 4}, {10, 20, 30, 40}}, adapter)

	id := proofexpr.NewColumn(ref, "id", database.BigInt())
	price := proofexpr.NewColumn(ref, "price", database.BigInt())
	where := proofexpr.NewLessThan(price, proofexpr.NewLiteral(database.BigInt(), scalar.FromInt64(25)))
	plan, err := proofplan.NewFilter(ref, []string{"id", "price"}, []proofexpr.Expr{id, price}, where)
	require.NoError(t, err)

	p, err := Prove(plan, accessor, adapter)
	require.NoError(t, err)
	require.NotEmpty(t, p.MLEEvaluations)

	p.MLEEvaluations[0] = p.MLEEvaluations[0].Add(scalar.One())

	err = Verify(plan, accessor, adapter, p)
	require.Error(t, err)
	var perr *poserr.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, poserr.KindVerificationError, perr.Kind)
}

// TestVerifyRejectsTamperedResultTable mutates the published result table
// after a valid Prove, and checks Verify rejects.
func TestVerifyRejectsTamperedResultTable(t *testing.T) {
	srs, err := setup.Run(8, setup.TestOnly)
	require.NoError(t, err)
	adapter := kzgpcs.New(srs)

	ref := database.NewTableRef("", "t")
	accessor := committedAccessor(t, ref, []string{"a", "b"},
		[][]int64{{1, 2, 3, 4}, {5, 6, 7, 8}}, adapter)

	a := proofexpr.NewColumn(ref, "a", database.BigInt())
	b := proofexpr.NewColumn(ref, "b", database.BigInt())
	sum := proofexpr.NewAdd(a, b, database.BigInt())
	plan := proofplan.NewProjection(ref, []string{"sum"}, []proofexpr.Expr{sum})

	p, err := Prove(plan, accessor, adapter)
	require.NoError(t, err)

	tamperedCol, err := database.NewIntColumn(database.BigInt(), []int64{99, 99, 99, 99})
	require.NoError(t, err)
	tampered, err := database.NewTable([]string{"sum"}, []*database.Column{tamperedCol})
	require.NoError(t, err)
	p.ResultTable = tampered

	err = Verify(plan, accessor, adapter, p)
	require.Error(t, err)
}

// TestEncodeDecodeTableRoundTrip checks EncodeTable/DecodeTable reproduce
// a table exactly, across Boolean, BigInt, VarChar, VarBinary, Scalar,
// Decimal75 and TimestampTZ columns.
func TestEncodeDecodeTableRoundTrip(t *testing.T) {
	boolCol := database.NewBooleanColumn([]bool{true, false, true})
	intCol, err := database.NewIntColumn(database.BigInt(), []int64{-5, 0, 42})
	require.NoError(t, err)
	strCol := database.NewVarCharColumn([]string{"alpha", "", "beta gamma"})
	binCol := database.NewVarBinaryColumn([][]byte{{1, 2, 3}, {}, {0xff}})
	scalarCol := database.NewScalarColumn(fromInts(7, 8, 9))
	decCol, err := database.NewDecimal75Column(mustDecimal(t, 20, 3), fromInts(100, -200, 300))
	require.NoError(t, err)
	tsCol, err := database.NewTimestampTZColumn(database.TimestampTZ(database.Second, -300), []int64{1000, -1, 0})
	require.NoError(t, err)

	names := []string{"flag", "count", "label", "raw", "scal", "amount", "seen"}
	cols := []*database.Column{boolCol, intCol, strCol, binCol, scalarCol, decCol, tsCol}
	table, err := database.NewTable(names, cols)
	require.NoError(t, err)

	buf := EncodeTable(table)
	decoded, err := DecodeTable(buf)
	require.NoError(t, err)

	require.Equal(t, table.ColumnNames(), decoded.ColumnNames())
	for _, name := range names {
		want, _ := table.Column(name)
		got, ok := decoded.Column(name)
		require.True(t, ok)
		require.Equal(t, want.ScalarEncoding(), got.ScalarEncoding())
		require.Equal(t, want.Type().WireTag(), got.Type().WireTag())
	}
}

func mustDecimal(t *testing.T, precision uint8, scale int8) database.ColumnType {
	t.Helper()
	typ, err := database.Decimal75(precision, scale)
	require.NoError(t, err)
	return typ
}
