// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package schema

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeRow packs values (one per column, in schema order) into a
// PayloadSize()-byte buffer suitable for passing to Table.Append.
// Accepted Go types: bool, int8/int16/int32/int64/int, float32/float64,
// string.
func (s *Schema) EncodeRow(values ...any) ([]byte, error) {
	if len(values) != len(s.columns) {
		return nil, fmt.Errorf("schema: EncodeRow: expected %d values, got %d", len(s.columns), len(values))
	}
	buf := make([]byte, s.PayloadSize())
	pos := 0
	for i, col := range s.columns {
		w := col.Width()
		dst := buf[pos : pos+w]
		if err := encodeValue(col.Type(), dst, values[i]); err != nil {
			return nil, fmt.Errorf("schema: EncodeRow: column %d (%s): %w", i, col.Name(), err)
		}
		pos += w
	}
	return buf, nil
}

func encodeValue(typ Type, dst []byte, v any) error {
	switch typ {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		if b {
			dst[0] = 1
		}
		return nil
	case Char:
		n, ok := asInt64(v)
		if !ok {
			return fmt.Errorf("expected integer, got %T", v)
		}
		dst[0] = byte(int8(n))
		return nil
	case Short:
		n, ok := asInt64(v)
		if !ok {
			return fmt.Errorf("expected integer, got %T", v)
		}
		binary.LittleEndian.PutUint16(dst, uint16(int16(n)))
		return nil
	case Int:
		n, ok := asInt64(v)
		if !ok {
			return fmt.Errorf("expected integer, got %T", v)
		}
		binary.LittleEndian.PutUint32(dst, uint32(int32(n)))
		return nil
	case Long:
		n, ok := asInt64(v)
		if !ok {
			return fmt.Errorf("expected integer, got %T", v)
		}
		binary.LittleEndian.PutUint64(dst, uint64(n))
		return nil
	case Float:
		f, ok := asFloat64(v)
		if !ok {
			return fmt.Errorf("expected float, got %T", v)
		}
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(f)))
		return nil
	case Double:
		f, ok := asFloat64(v)
		if !ok {
			return fmt.Errorf("expected float, got %T", v)
		}
		binary.LittleEndian.PutUint64(dst, math.Float64bits(f))
		return nil
	case String:
		str, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		if len(str) > len(dst) {
			return fmt.Errorf("string %q exceeds column width %d", str, len(dst))
		}
		copy(dst, str)
		return nil
	default:
		return fmt.Errorf("unsupported column type %v", typ)
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
