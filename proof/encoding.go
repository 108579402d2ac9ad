package proof

import (
	"encoding/binary"
	"fmt"

	"github.com/spaceandtimelabs/provsql/database"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// EncodeTable serializes t to the result-table wire format: a column
// count, then per column its name, declared type
// (WireTag plus any type parameters), row count, and native payload in
// declaration order. There is no length-prefix on the whole table beyond
// what DecodeTable needs to consume exactly the right number of bytes, so
// a Proof's ResultTable can be concatenated with adjacent wire fields
// unambiguously.
//
// Fixed-width integer columns (TinyInt..BigInt, TimestampTZ) encode as
// 8-byte big-endian two's complement regardless of their declared bit
// width; decoding re-truncates to the same native int64 the column held,
// so this loses no information and keeps the format independent of
// BitWidth. Int128/Decimal75/Scalar encode via the field's canonical
// 32-byte big-endian Scalar.Bytes.
func EncodeTable(t *database.Table) []byte {
	names := t.ColumnNames()
	var buf []byte
	buf = appendUint32(buf, uint32(len(names)))
	for _, name := range names {
		col, _ := t.Column(name)
		buf = appendString(buf, name)
		buf = append(buf, col.Type().WireTag())
		buf = appendTypeParams(buf, col.Type())
		n := col.Len()
		buf = appendUint32(buf, uint32(n))
		buf = appendColumnPayload(buf, col)
	}
	return buf
}

// DecodeTable is EncodeTable's inverse; decode(encode(T)) reproduces T
// byte-for-byte.
func DecodeTable(buf []byte) (*database.Table, error) {
	r := &reader{buf: buf}
	numCols, err := r.uint32()
	if err != nil {
		return nil, fmt.Errorf("proof: error decoding table: %v", err)
	}
	names := make([]string, numCols)
	cols := make([]*database.Column, numCols)
	for i := range names {
		name, err := r.string()
		if err != nil {
			return nil, fmt.Errorf("proof: error decoding column %d name: %v", i, err)
		}
		tag, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("proof: error decoding column %q type: %v", name, err)
		}
		typ, err := r.typeParams(tag)
		if err != nil {
			return nil, fmt.Errorf("proof: error decoding column %q type params: %v", name, err)
		}
		n, err := r.uint32()
		if err != nil {
			return nil, fmt.Errorf("proof: error decoding column %q row count: %v", name, err)
		}
		col, err := r.columnPayload(typ, int(n))
		if err != nil {
			return nil, fmt.Errorf("proof: error decoding column %q payload: %v", name, err)
		}
		names[i] = name
		cols[i] = col
	}
	return database.NewTable(names, cols)
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendInt64(buf []byte, v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return append(buf, b[:]...)
}

func appendString(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func appendBytes(buf []byte, b []byte) []byte {
	buf = appendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// appendTypeParams appends Decimal75's (precision, scale) or
// TimestampTZ's (unit, tz) fields; every other tag has none.
func appendTypeParams(buf []byte, typ database.ColumnType) []byte {
	switch typ.WireTag() {
	case 0x08: // Decimal75
		buf = append(buf, typ.Precision(), byte(typ.Scale()))
	case 0x0B: // TimestampTZ
		buf = append(buf, byte(typ.Unit()))
		buf = appendInt64(buf, int64(typ.TZOffset()))
	}
	return buf
}

func appendColumnPayload(buf []byte, col *database.Column) []byte {
	typ := col.Type()
	n := col.Len()
	switch typ.WireTag() {
	case 0x01: // Boolean
		for i := 0; i < n; i++ {
			if col.BoolAt(i) {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	case 0x02, 0x03, 0x04, 0x05: // TinyInt, SmallInt, Int, BigInt
		for i := 0; i < n; i++ {
			buf = appendInt64(buf, col.IntAt(i))
		}
	case 0x0B: // TimestampTZ
		for i := 0; i < n; i++ {
			buf = appendInt64(buf, col.TimeAt(i))
		}
	case 0x06, 0x07, 0x08: // Int128, Scalar, Decimal75
		enc := col.ScalarEncoding()
		for i := 0; i < n; i++ {
			b := enc[i].Bytes()
			buf = append(buf, b[:]...)
		}
	case 0x09: // VarChar
		for i := 0; i < n; i++ {
			buf = appendBytes(buf, col.BytesAt(i))
		}
	case 0x0A: // VarBinary
		for i := 0; i < n; i++ {
			buf = appendBytes(buf, col.BytesAt(i))
		}
	}
	return buf
}

// reader walks buf front-to-back, consuming exactly as many bytes as each
// field requires.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) need(n int) error {
	if len(r.buf)-r.pos < n {
		return fmt.Errorf("proof: unexpected end of buffer, need %d bytes, have %d", n, len(r.buf)-r.pos)
	}
	return nil
}

func (r *reader) byte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) int64() (int64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return int64(v), nil
}

func (r *reader) fixedBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := append([]byte(nil), r.buf[r.pos:r.pos+n]...)
	r.pos += n
	return b, nil
}

func (r *reader) string() (string, error) {
	n, err := r.uint32()
	if err != nil {
		return "", err
	}
	b, err := r.fixedBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) bytesField() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	return r.fixedBytes(int(n))
}

func (r *reader) scalar() (scalar.S, error) {
	b, err := r.fixedBytes(32)
	if err != nil {
		return scalar.S{}, err
	}
	return scalar.SetBytes(b), nil
}

func (r *reader) typeParams(tag byte) (database.ColumnType, error) {
	switch tag {
	case 0x01:
		return database.Boolean(), nil
	case 0x02:
		return database.TinyInt(), nil
	case 0x03:
		return database.SmallInt(), nil
	case 0x04:
		return database.Int(), nil
	case 0x05:
		return database.BigInt(), nil
	case 0x06:
		return database.Int128(), nil
	case 0x07:
		return database.Scalar(), nil
	case 0x08:
		precision, err := r.byte()
		if err != nil {
			return database.ColumnType{}, err
		}
		scaleByte, err := r.byte()
		if err != nil {
			return database.ColumnType{}, err
		}
		return database.Decimal75(precision, int8(scaleByte))
	case 0x09:
		return database.VarChar(), nil
	case 0x0A:
		return database.VarBinary(), nil
	case 0x0B:
		unitByte, err := r.byte()
		if err != nil {
			return database.ColumnType{}, err
		}
		tz, err := r.int64()
		if err != nil {
			return database.ColumnType{}, err
		}
		return database.TimestampTZ(database.TimeUnit(unitByte), int32(tz)), nil
	default:
		return database.ColumnType{}, fmt.Errorf("proof: unknown column type tag 0x%02x", tag)
	}
}

func (r *reader) columnPayload(typ database.ColumnType, n int) (*database.Column, error) {
	switch typ.WireTag() {
	case 0x01:
		out := make([]bool, n)
		for i := range out {
			b, err := r.byte()
			if err != nil {
				return nil, err
			}
			out[i] = b != 0
		}
		return database.NewBooleanColumn(out), nil
	case 0x02, 0x03, 0x04, 0x05:
		out := make([]int64, n)
		for i := range out {
			v, err := r.int64()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return database.NewIntColumn(typ, out)
	case 0x0B:
		out := make([]int64, n)
		for i := range out {
			v, err := r.int64()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return database.NewTimestampTZColumn(typ, out)
	case 0x06:
		out := make([]scalar.S, n)
		for i := range out {
			v, err := r.scalar()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return database.NewInt128Column(out), nil
	case 0x07:
		out := make([]scalar.S, n)
		for i := range out {
			v, err := r.scalar()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return database.NewScalarColumn(out), nil
	case 0x08:
		out := make([]scalar.S, n)
		for i := range out {
			v, err := r.scalar()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return database.NewDecimal75Column(typ, out)
	case 0x09:
		out := make([]string, n)
		for i := range out {
			b, err := r.bytesField()
			if err != nil {
				return nil, err
			}
			out[i] = string(b)
		}
		return database.NewVarCharColumn(out), nil
	case 0x0A:
		out := make([][]byte, n)
		for i := range out {
			b, err := r.bytesField()
			if err != nil {
				return nil, err
			}
			out[i] = b
		}
		return database.NewVarBinaryColumn(out), nil
	default:
		return nil, fmt.Errorf("proof: unknown column type tag 0x%02x", typ.WireTag())
	}
}
