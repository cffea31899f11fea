// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package schema

import (
	"encoding/binary"
	"math"
)

// RecordView is a lightweight decoding over a full (header-included)
// record extent: [u64 timestamp][u64 original_offset][columns packed
// in schema order]. It does not copy the underlying bytes.
type RecordView struct {
	schema *Schema
	buf    []byte // exactly schema.Stride() bytes
	offset uint64
	ts     uint64
}

// Apply constructs a RecordView over buf, which must be exactly
// schema.Stride() bytes starting at the record's offset in the data
// log. end and ts are recorded on the view; end is currently
// informational (it always equals offset+len(buf)) but is accepted
// as a separate parameter for callers that already have it on hand
// from a tail snapshot.
func (s *Schema) Apply(offset uint64, buf []byte, end uint64, ts uint64) *RecordView {
	if len(buf) != s.stride {
		panic("schema: Apply: buffer does not match record stride")
	}
	return &RecordView{schema: s, buf: buf, offset: offset, ts: ts}
}

// Offset returns the record's offset (and identifier) in the data log.
func (r *RecordView) Offset() uint64 { return r.offset }

// Timestamp returns the record's timestamp.
func (r *RecordView) Timestamp() uint64 { return r.ts }

// Bytes returns the full on-disk record bytes (header included).
func (r *RecordView) Bytes() []byte { return r.buf }

// Payload returns just the column bytes, excluding the header.
func (r *RecordView) Payload() []byte { return r.buf[TimestampSize+OffsetSize:] }

// Field returns a view over column ordinal's raw bytes within this record.
func (r *RecordView) Field(ordinal int) FieldView {
	col := r.schema.columns[ordinal]
	start := r.schema.offsets[ordinal]
	return FieldView{col: col, raw: r.buf[start : start+col.Width()]}
}

// Fields iterates every field view in column order.
func (r *RecordView) Fields() []FieldView {
	out := make([]FieldView, len(r.schema.columns))
	for i := range r.schema.columns {
		out[i] = r.Field(i)
	}
	return out
}

// FieldView is a single decoded field: its column metadata plus a
// slice of the record's raw on-disk bytes for that column.
type FieldView struct {
	col *Column
	raw []byte
}

// Ordinal returns the field's column ordinal.
func (f FieldView) Ordinal() int { return f.col.Ordinal() }

// Type returns the field's declared type.
func (f FieldView) Type() Type { return f.col.Type() }

// Name returns the field's column name.
func (f FieldView) Name() string { return f.col.Name() }

// Raw returns the field's raw little-endian on-disk bytes.
func (f FieldView) Raw() []byte { return f.raw }

// Indexed reports whether this field's column currently carries a live index.
func (f FieldView) Indexed() bool { return f.col.State() == Indexed }

// IndexID returns the column's index id. Only meaningful if Indexed.
func (f FieldView) IndexID() uint16 { return f.col.IndexID() }

// Key returns this field's order-preserving, fixed-width index key,
// encoded per EncodeKey using the column's current bucket size.
func (f FieldView) Key() []byte {
	return EncodeKey(f.col.Type(), f.col.Width(), f.raw, f.col.BucketSize())
}

// Int64 decodes the field as a signed integer (Char/Short/Int/Long).
func (f FieldView) Int64() int64 {
	switch f.col.Width() {
	case 1:
		return int64(int8(f.raw[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(f.raw)))
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(f.raw)))
	case 8:
		return int64(binary.LittleEndian.Uint64(f.raw))
	}
	panic("schema: Int64: unsupported width")
}

// Float64 decodes the field as Float or Double.
func (f FieldView) Float64() float64 {
	switch f.col.Type() {
	case Float:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(f.raw)))
	case Double:
		return math.Float64frombits(binary.LittleEndian.Uint64(f.raw))
	}
	panic("schema: Float64: not a floating column")
}

// Bool decodes the field as Bool.
func (f FieldView) Bool() bool { return f.raw[0] != 0 }

// String decodes the field as a right-padded fixed-width string,
// trimming trailing zero bytes.
func (f FieldView) String() string {
	n := len(f.raw)
	for n > 0 && f.raw[n-1] == 0 {
		n--
	}
	return string(f.raw[:n])
}
