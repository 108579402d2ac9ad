package database

import (
	"fmt"

	"github.com/spaceandtimelabs/provsql/scalar"
)

// Column is a tagged-union view over one column's native values. Every
// column lazily computes a scalar encoding (the representation the MLE
// layer and the PCS operate over); for non-scalar
// types this is a deterministic mapping from the native value to a field
// element (not injective for VarChar/VarBinary, see ScalarAt).
type Column struct {
	typ ColumnType

	bools  []bool
	ints   []int64  // TinyInt, SmallInt, Int, BigInt share this backing
	int128 []scalar.S
	decs   []scalar.S // Decimal75, Scalar share this backing
	strs   []string   // VarChar
	bins   [][]byte   // VarBinary
	times  []int64    // TimestampTZ, native epoch-unit ticks

	scalars []scalar.S // lazily populated
}

func (c *Column) Type() ColumnType { return c.typ }

// Len reports the column's row count, identical across all columns of a
// Table.
func (c *Column) Len() int {
	switch c.typ.tag {
	case tagBoolean:
		return len(c.bools)
	case tagTinyInt, tagSmallInt, tagInt, tagBigInt:
		return len(c.ints)
	case tagInt128:
		return len(c.int128)
	case tagDecimal75, tagScalar:
		return len(c.decs)
	case tagVarChar:
		return len(c.strs)
	case tagVarBinary:
		return len(c.bins)
	case tagTimestampTZ:
		return len(c.times)
	default:
		return 0
	}
}

func NewBooleanColumn(values []bool) *Column {
	return &Column{typ: Boolean(), bools: values}
}

func NewIntColumn(typ ColumnType, values []int64) (*Column, error) {
	switch typ.tag {
	case tagTinyInt, tagSmallInt, tagInt, tagBigInt:
		return &Column{typ: typ, ints: values}, nil
	default:
		return nil, fmt.Errorf("database: %s is not an integer column type", typ)
	}
}

func NewInt128Column(values []scalar.S) *Column {
	return &Column{typ: Int128(), int128: values}
}

func NewScalarColumn(values []scalar.S) *Column {
	return &Column{typ: Scalar(), decs: values}
}

func NewDecimal75Column(typ ColumnType, values []scalar.S) (*Column, error) {
	if typ.tag != tagDecimal75 {
		return nil, fmt.Errorf("database: %s is not a decimal column type", typ)
	}
	return &Column{typ: typ, decs: values}, nil
}

func NewVarCharColumn(values []string) *Column {
	return &Column{typ: VarChar(), strs: values}
}

func NewVarBinaryColumn(values [][]byte) *Column {
	return &Column{typ: VarBinary(), bins: values}
}

func NewTimestampTZColumn(typ ColumnType, values []int64) (*Column, error) {
	if typ.tag != tagTimestampTZ {
		return nil, fmt.Errorf("database: %s is not a timestamp column type", typ)
	}
	return &Column{typ: typ, times: values}, nil
}

// ScalarAt returns the scalar encoding of row i.
// Booleans encode as {0,1}; fixed-width integers encode via their signed
// value; VarChar/VarBinary encode as their raw bytes read big-endian and
// reduced mod p (Scalar.SetBytes). No hash is applied, so byte strings
// that differ only in leading zero bytes, or whose values are congruent
// mod p, share an encoding.
func (c *Column) ScalarAt(i int) scalar.S {
	switch c.typ.tag {
	case tagBoolean:
		if c.bools[i] {
			return scalar.One()
		}
		return scalar.Zero()
	case tagTinyInt, tagSmallInt, tagInt, tagBigInt:
		return scalar.FromInt64(c.ints[i])
	case tagInt128:
		return c.int128[i]
	case tagDecimal75, tagScalar:
		return c.decs[i]
	case tagVarChar:
		return scalar.SetBytes([]byte(c.strs[i]))
	case tagVarBinary:
		return scalar.SetBytes(c.bins[i])
	case tagTimestampTZ:
		return scalar.FromInt64(c.times[i])
	default:
		return scalar.Zero()
	}
}

// ScalarEncoding materializes the full scalar encoding of the column,
// caching the result. This is the vector the MLE layer treats as a dense
// evaluation table.
func (c *Column) ScalarEncoding() []scalar.S {
	if c.scalars != nil {
		return c.scalars
	}
	n := c.Len()
	out := make([]scalar.S, n)
	for i := 0; i < n; i++ {
		out[i] = c.ScalarAt(i)
	}
	c.scalars = out
	return out
}

// Slice returns a new Column holding rows [start,end) of c, used by
// Filter/GroupBy/Slice's first-round result publication.
func (c *Column) Slice(start, end int) *Column {
	switch c.typ.tag {
	case tagBoolean:
		return &Column{typ: c.typ, bools: append([]bool(nil), c.bools[start:end]...)}
	case tagTinyInt, tagSmallInt, tagInt, tagBigInt:
		return &Column{typ: c.typ, ints: append([]int64(nil), c.ints[start:end]...)}
	case tagInt128:
		return &Column{typ: c.typ, int128: append([]scalar.S(nil), c.int128[start:end]...)}
	case tagDecimal75, tagScalar:
		return &Column{typ: c.typ, decs: append([]scalar.S(nil), c.decs[start:end]...)}
	case tagVarChar:
		return &Column{typ: c.typ, strs: append([]string(nil), c.strs[start:end]...)}
	case tagVarBinary:
		out := make([][]byte, end-start)
		for i := range out {
			out[i] = append([]byte(nil), c.bins[start+i]...)
		}
		return &Column{typ: c.typ, bins: out}
	case tagTimestampTZ:
		return &Column{typ: c.typ, times: append([]int64(nil), c.times[start:end]...)}
	default:
		return &Column{typ: c.typ}
	}
}

// Gather returns a new Column holding c's rows at the given indices, in
// order, used by Filter/GroupBy to build a row-reduced, reordered output
// column while preserving the original declared type (unlike
// reconstructing purely from ScalarEncoding, which would collapse every
// output column to Scalar).
func (c *Column) Gather(idx []int) *Column {
	switch c.typ.tag {
	case tagBoolean:
		out := make([]bool, len(idx))
		for i, j := range idx {
			out[i] = c.bools[j]
		}
		return &Column{typ: c.typ, bools: out}
	case tagTinyInt, tagSmallInt, tagInt, tagBigInt:
		out := make([]int64, len(idx))
		for i, j := range idx {
			out[i] = c.ints[j]
		}
		return &Column{typ: c.typ, ints: out}
	case tagInt128:
		out := make([]scalar.S, len(idx))
		for i, j := range idx {
			out[i] = c.int128[j]
		}
		return &Column{typ: c.typ, int128: out}
	case tagDecimal75, tagScalar:
		out := make([]scalar.S, len(idx))
		for i, j := range idx {
			out[i] = c.decs[j]
		}
		return &Column{typ: c.typ, decs: out}
	case tagVarChar:
		out := make([]string, len(idx))
		for i, j := range idx {
			out[i] = c.strs[j]
		}
		return &Column{typ: c.typ, strs: out}
	case tagVarBinary:
		out := make([][]byte, len(idx))
		for i, j := range idx {
			out[i] = append([]byte(nil), c.bins[j]...)
		}
		return &Column{typ: c.typ, bins: out}
	case tagTimestampTZ:
		out := make([]int64, len(idx))
		for i, j := range idx {
			out[i] = c.times[j]
		}
		return &Column{typ: c.typ, times: out}
	default:
		return &Column{typ: c.typ}
	}
}

// BoolAt, IntAt and TimeAt give typed accessors for the identity/gadget
// layer, which always knows the declared type of the column it is
// reading; they panic on a column of another type. BytesAt returns the
// raw bytes of a VarChar or VarBinary row and nil for any other type.
func (c *Column) BoolAt(i int) bool  { return c.bools[i] }
func (c *Column) IntAt(i int) int64  { return c.ints[i] }
func (c *Column) TimeAt(i int) int64 { return c.times[i] }
func (c *Column) BytesAt(i int) []byte {
	switch c.typ.tag {
	case tagVarBinary:
		return c.bins[i]
	case tagVarChar:
		return []byte(c.strs[i])
	default:
		return nil
	}
}
