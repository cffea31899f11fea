// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package confluo is an append-only, schema-aware record store with
// in-line secondary indexing and live filter/trigger evaluation over
// the ingest stream. Table is the orchestrator: it drives every
// append through the data log, schema, filters, and indexes, and
// publishes a read tail that is the single boundary readers consult.
package confluo

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/confluodb/confluo/internal/confluoclock"
	"github.com/confluodb/confluo/internal/datalog"
	"github.com/confluodb/confluo/internal/expr"
	"github.com/confluodb/confluo/internal/filter"
	"github.com/confluodb/confluo/internal/metadata"
	"github.com/confluodb/confluo/internal/monolog"
	"github.com/confluodb/confluo/internal/radix"
	"github.com/confluodb/confluo/internal/readtail"
	"github.com/confluodb/confluo/internal/schema"
	"github.com/confluodb/confluo/internal/tieredindex"
	"github.com/confluodb/confluo/internal/trigger"
)

func newInstanceName() string { return uuid.New().String() }

// Table is the core glue component: it orchestrates append
// (log-write -> schema-apply -> filter-update -> index-insert ->
// tail-publish) and the management operations that register indexes,
// filters, and triggers while ingest continues.
type Table struct {
	opts    *Options
	schema  *schema.Schema
	clock   confluoclock.Source
	logger  Logger
	metrics *Metrics

	dataLog *datalog.DataLog
	tail    readtail.Tail

	metadataWriter *metadata.Writer
	metadataCloser io.Closer

	filters  *monolog.Registry[*filter.Filter]
	triggers *monolog.Registry[*trigger.Descriptor]
	indexes  *monolog.Registry[*radix.Tree]

	mu sync.Mutex // guards add_index/add_filter/add_trigger registration only
}

// Open constructs a Table over sch, applying opts (EnsureDefaults is
// called internally; a nil opts is valid and yields an all-defaults,
// in-memory Table).
func Open(sch *schema.Schema, opts *Options) (*Table, error) {
	o := opts.EnsureDefaults()

	metadataWriter, closer, err := openMetadataWriter(o)
	if err != nil {
		return nil, newIOError(err)
	}

	t := &Table{
		opts:           o,
		schema:         sch,
		clock:          o.clockSource(),
		logger:         o.Logger,
		metrics:        NewMetrics(o.Name),
		dataLog:        datalog.New(o.Storage, o.Dir, "data_log", o.LogBucketSize, o.LogMaxBuckets),
		metadataWriter: metadataWriter,
		metadataCloser: closer,
		filters:        monolog.NewRegistry[*filter.Filter](DefaultRegistryBucketSize, DefaultRegistryMaxBuckets),
		triggers:       monolog.NewRegistry[*trigger.Descriptor](DefaultRegistryBucketSize, DefaultRegistryMaxBuckets),
		indexes:        monolog.NewRegistry[*radix.Tree](DefaultRegistryBucketSize, DefaultRegistryMaxBuckets),
	}
	t.metrics.register(o.Registerer)
	return t, nil
}

func openMetadataWriter(o *Options) (*metadata.Writer, io.Closer, error) {
	if o.Dir == "" {
		return metadata.New(&bytes.Buffer{}), nil, nil
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(o.Dir, "metadata.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return metadata.New(f), f, nil
}

// Close releases any file handles the table holds (e.g. the metadata
// log). It does not flush or otherwise finalize in-flight appends —
// callers must not call Close concurrently with Append.
func (t *Table) Close() error {
	if t.metadataCloser != nil {
		return t.metadataCloser.Close()
	}
	return nil
}

// Schema returns the table's schema.
func (t *Table) Schema() *schema.Schema { return t.schema }

// NumRecords is a direct synonym for the current tail value.
func (t *Table) NumRecords() uint64 { return t.tail.Get() }

// Append reserves space for data, decodes it against the schema,
// drives every registered filter and index, and publishes the
// resulting extent past the read tail. It returns the record's
// offset (its unique id).
//
// Filter update and index insert may run in either order, but both
// must complete before the tail is advanced, and the flush must
// precede the tail advance too. A zero-length record is rejected
// with ManagementError rather than silently accepted.
func (t *Table) Append(data []byte, ts uint64) (uint64, error) {
	start := time.Now()
	if len(data) == 0 {
		return 0, newManagementError("confluo: append: zero-length record")
	}
	if len(data) != t.schema.PayloadSize() {
		return 0, newManagementError("confluo: append: payload is %d bytes, schema expects %d", len(data), t.schema.PayloadSize())
	}

	n := uint64(t.schema.Stride())
	offset := t.dataLog.Reserve(n)

	header := make([]byte, schema.TimestampSize+schema.OffsetSize)
	putUint64LE(header[0:], ts)
	putUint64LE(header[8:], offset)

	if err := t.dataLog.WriteAt(offset, header); err != nil {
		t.logger.Fatalf("confluo: append: write header at %d: %v", offset, err)
	}
	if err := t.dataLog.WriteAt(offset+uint64(len(header)), data); err != nil {
		t.logger.Fatalf("confluo: append: write payload at %d: %v", offset, err)
	}

	full := t.dataLog.Ptr(offset, n)
	record := t.schema.Apply(offset, full, offset+n, ts)

	// Filter update. The registry's Len() is an acquire-load re-read
	// on every Append, so a filter registered mid-stream is picked up
	// starting with the very next Append, never retroactively by one
	// already past this point.
	filterStart := time.Now()
	nfilters := t.filters.Len()
	for i := uint64(0); i < nfilters; i++ {
		t.filters.At(i).Update(record)
	}
	t.metrics.FilterUpdateLatency.Observe(time.Since(filterStart).Seconds())

	// Index insert.
	indexStart := time.Now()
	for _, field := range record.Fields() {
		if !field.Indexed() {
			continue
		}
		tree := t.indexes.At(uint64(field.IndexID()))
		tree.Insert(field.Key(), offset)
	}
	t.metrics.IndexInsertLatency.Observe(time.Since(indexStart).Seconds())

	if err := t.dataLog.Flush(offset, n); err != nil {
		t.logger.Fatalf("confluo: append: flush at %d: %v", offset, err)
	}

	// Every reservation here is exactly n bytes, so when Reserve skipped
	// to a new bucket the remainder it skipped is LogBucketSize % n
	// bytes. No append owns those bytes, so this record's tail advance
	// covers them too; otherwise the tail would never reach offset.
	from := offset
	if pad := t.opts.LogBucketSize % n; pad != 0 && offset != 0 && offset%t.opts.LogBucketSize == 0 {
		from = offset - pad
	}
	t.advanceTail(from, offset+n-from)

	t.metrics.RecordsAppended.Inc()
	t.metrics.BytesAppended.Add(float64(len(data)))
	t.metrics.TailOffset.Set(float64(offset + n))
	t.metrics.AppendLatency.Observe(time.Since(start).Seconds())

	return offset, nil
}

// AppendNow calls Append with the table's injected clock's current
// time.
func (t *Table) AppendNow(data []byte) (uint64, error) {
	return t.Append(data, uint64(t.clock.NowNanos()))
}

// Get reads length bytes at offset into data, gated on the live read
// tail. It reports false (not found) if offset+length exceeds the
// current tail.
func (t *Table) Get(offset uint64, data []byte) (bool, error) {
	return t.ReadAt(offset, data, t.tail.Get())
}

// ReadAt is Get against a caller-supplied tail snapshot rather than
// the live tail, letting a caller take one snapshot and issue many
// reads against it without re-observing the tail atomically each
// time.
func (t *Table) ReadAt(offset uint64, data []byte, tail uint64) (bool, error) {
	if offset+uint64(len(data)) > tail {
		return false, nil
	}
	if err := t.dataLog.Read(offset, data); err != nil {
		return false, newIOError(err)
	}
	return true, nil
}

// Ptr returns a zero-copy view of the record at offset, gated on the
// live read tail.
func (t *Table) Ptr(offset uint64) ([]byte, bool) {
	return t.PtrAt(offset, t.tail.Get())
}

// PtrAt is Ptr against a caller-supplied tail snapshot.
func (t *Table) PtrAt(offset, tail uint64) ([]byte, bool) {
	if offset >= tail {
		return nil, false
	}
	return t.dataLog.Ptr(offset, uint64(t.schema.Stride())), true
}

// advanceTail publishes the tail past [offset, offset+n). A
// non-monotonic advance can only mean two reservations overlapped,
// which is a bug in the reservation path rather than anything a
// caller did wrong, so it is reported as an InvariantError rather
// than readtail's bare panic.
func (t *Table) advanceTail(offset, n uint64) {
	defer func() {
		if r := recover(); r != nil {
			invariantf("confluo: append: %v", r)
		}
	}()
	t.tail.Advance(offset, n)
}

func putUint64LE(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}

// AddIndex registers a secondary index on the named column: it looks
// up the ordinal (case-insensitive), transitions unindexed->indexing,
// allocates the width-appropriate tiered index, assigns its dense
// index id, transitions to indexed, and persists a descriptor. It
// fails with ManagementError if the column does not exist, is already
// indexed/indexing, or its type cannot be indexed.
func (t *Table) AddIndex(name string, bucketSize float64) (uint16, error) {
	ordinal, ok := t.schema.Lookup(name)
	if !ok {
		return 0, newManagementError("confluo: add_index: unknown field %q", name)
	}
	col := t.schema.Column(ordinal)
	if !col.Type().Indexable() {
		return 0, newManagementError("confluo: add_index: field %q: type %s is not indexable", name, col.Type())
	}
	if !col.SetIndexing() {
		return 0, newManagementError("confluo: add_index: field %q: already indexed/indexing", name)
	}

	t.mu.Lock()
	tree := tieredindex.New(col.Width(), col.Type() == schema.Bool)
	indexID := t.indexes.PushBack(tree)
	t.mu.Unlock()

	if indexID > 0xFFFF {
		col.SetUnindexed()
		return 0, newManagementError("confluo: add_index: exhausted the 16-bit index id space")
	}
	col.SetIndexed(uint16(indexID), bucketSize)

	if err := t.metadataWriter.WriteIndexInfo(uint16(indexID), col.Name(), bucketSize); err != nil {
		return 0, newIOError(err)
	}
	return uint16(indexID), nil
}

// RemoveIndex disables the index on the named column. The backing
// radix tree is retained (historical inserts remain reachable through
// the index registry) — only the column's indexing state flips back
// to unindexed.
func (t *Table) RemoveIndex(name string) error {
	ordinal, ok := t.schema.Lookup(name)
	if !ok {
		return newManagementError("confluo: remove_index: unknown field %q", name)
	}
	col := t.schema.Column(ordinal)
	if !col.DisableIndexing() {
		return newManagementError("confluo: remove_index: field %q: no index exists", name)
	}
	return nil
}

// AddFilter compiles expression against the table's schema, registers
// the resulting Filter under a dense id, and persists its descriptor.
func (t *Table) AddFilter(expression string, monitorMs uint64) (uint32, error) {
	pred, err := expr.Compile(expression, t.schema)
	if err != nil {
		return 0, newManagementError("confluo: add_filter: %v", err)
	}

	t.mu.Lock()
	f := filter.New(pred, monitorMs)
	filterID := t.filters.PushBack(f)
	t.mu.Unlock()

	if filterID > 0xFFFFFFFF {
		return 0, newManagementError("confluo: add_filter: exhausted the 32-bit filter id space")
	}
	if err := t.metadataWriter.WriteFilterInfo(uint32(filterID), expression); err != nil {
		return 0, newIOError(err)
	}
	return uint32(filterID), nil
}

// Filter returns the registered filter with the given id.
func (t *Table) Filter(id uint32) *filter.Filter { return t.filters.At(uint64(id)) }

// AddTrigger registers a threshold alarm over filterID's windowed
// aggregate and persists its descriptor.
func (t *Table) AddTrigger(filterID uint32, field string, agg trigger.Aggregate, op trigger.Op, threshold float64) (uint32, error) {
	if filterID >= uint32(t.filters.Len()) {
		return 0, newManagementError("confluo: add_trigger: unknown filter id %d", filterID)
	}

	t.mu.Lock()
	desc := trigger.New(filterID, field, agg, op, threshold)
	triggerID := t.triggers.PushBack(desc)
	t.mu.Unlock()

	if err := t.metadataWriter.WriteTriggerInfo(uint32(triggerID), filterID, uint8(agg), field, uint8(op), threshold); err != nil {
		return 0, newIOError(err)
	}
	return uint32(triggerID), nil
}

// Trigger returns the registered trigger descriptor with the given id.
func (t *Table) Trigger(id uint32) *trigger.Descriptor { return t.triggers.At(uint64(id)) }
