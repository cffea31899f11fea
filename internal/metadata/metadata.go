// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package metadata implements the durable descriptor writer: an
// append-only sequence of index/filter/trigger registration records,
// each prefixed by a 1-byte kind tag and a 4-byte length. It is the Go
// analogue of pebble's length-prefixed record framing
// (internal/record/log_writer.go), simplified to this format's fixed,
// fully-specified payload shapes.
package metadata

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
)

// Kind tags the descriptor record type.
type Kind byte

const (
	KindIndex   Kind = 0x01
	KindFilter  Kind = 0x02
	KindTrigger Kind = 0x03
)

// Writer appends descriptor records to an underlying io.Writer. It is
// safe for concurrent callers: writes are serialized by an internal
// mutex. Registration calls are infrequent and never sit on the
// append hot path, so a mutex here costs nothing.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// New wraps w (typically an append-mode *os.File, or an in-memory
// buffer in tests) as a metadata Writer.
func New(w io.Writer) *Writer { return &Writer{w: w} }

func (m *Writer) writeRecord(kind Kind, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	header := make([]byte, 5)
	header[0] = byte(kind)
	binary.LittleEndian.PutUint32(header[1:], uint32(len(payload)))
	if _, err := m.w.Write(header); err != nil {
		return fmt.Errorf("metadata: write header: %w", err)
	}
	if _, err := m.w.Write(payload); err != nil {
		return fmt.Errorf("metadata: write payload: %w", err)
	}
	return nil
}

// WriteIndexInfo persists an Index descriptor: u16 id, u16 field-name
// length, UTF-8 field name, f64 bucket size.
func (m *Writer) WriteIndexInfo(id uint16, field string, bucketSize float64) error {
	fb := []byte(field)
	payload := make([]byte, 2+2+len(fb)+8)
	binary.LittleEndian.PutUint16(payload[0:], id)
	binary.LittleEndian.PutUint16(payload[2:], uint16(len(fb)))
	copy(payload[4:], fb)
	binary.LittleEndian.PutUint64(payload[4+len(fb):], math.Float64bits(bucketSize))
	return m.writeRecord(KindIndex, payload)
}

// WriteFilterInfo persists a Filter descriptor: u32 id, u32
// expression length, UTF-8 expression text.
func (m *Writer) WriteFilterInfo(id uint32, expression string) error {
	eb := []byte(expression)
	payload := make([]byte, 4+4+len(eb))
	binary.LittleEndian.PutUint32(payload[0:], id)
	binary.LittleEndian.PutUint32(payload[4:], uint32(len(eb)))
	copy(payload[8:], eb)
	return m.writeRecord(KindFilter, payload)
}

// WriteTriggerInfo persists a Trigger descriptor: u32 id, u32
// filter_id, u8 aggregate_kind, u16 field-name length, UTF-8 field
// name, u8 relop_kind, 16 bytes numeric threshold. Every threshold
// this core accepts is a float64, so it is encoded as an 8-byte
// IEEE-754 value followed by 8 zero-padding bytes to fill out the
// reserved 16-byte slot.
func (m *Writer) WriteTriggerInfo(id, filterID uint32, aggregateKind uint8, field string, relopKind uint8, threshold float64) error {
	fb := []byte(field)
	payload := make([]byte, 4+4+1+2+len(fb)+1+16)
	pos := 0
	binary.LittleEndian.PutUint32(payload[pos:], id)
	pos += 4
	binary.LittleEndian.PutUint32(payload[pos:], filterID)
	pos += 4
	payload[pos] = aggregateKind
	pos++
	binary.LittleEndian.PutUint16(payload[pos:], uint16(len(fb)))
	pos += 2
	copy(payload[pos:], fb)
	pos += len(fb)
	payload[pos] = relopKind
	pos++
	binary.LittleEndian.PutUint64(payload[pos:], math.Float64bits(threshold))
	return m.writeRecord(KindTrigger, payload)
}
