// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package confluo

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/confluodb/confluo/internal/confluoclock"
	"github.com/confluodb/confluo/internal/storage"
)

// Default sizing: data log buckets are 1,048,576 bytes, up to a total
// capacity of 1,073,741,824 bytes.
const (
	DefaultLogBucketSize = 1 << 20
	DefaultLogMaxBuckets = 1 << 30 / DefaultLogBucketSize

	// DefaultRegistryBucketSize and DefaultRegistryMaxBuckets size the
	// filter/trigger/index aux registries (monolog.Registry), which the
	// original sizes as aux_log_t<T, 256, 65536>.
	DefaultRegistryBucketSize = 256
	DefaultRegistryMaxBuckets = 65536
)

// Options configures a Table, following the pattern of
// cockroachdb-pebble's Options/EnsureDefaults: a documented struct
// with sensible defaults, constructed programmatically.
type Options struct {
	// Dir is the directory storage regions and the metadata log are
	// allocated under. The in-memory storage mode ignores it for data
	// log regions; the metadata log is written to Dir/metadata.log
	// whenever Dir is non-empty, and kept in memory when it is empty.
	Dir string

	// Storage selects the byte-region allocation/flush/read capability
	// the data log is built on. Defaults to storage.NewInMemory().
	Storage storage.Mode

	// LogBucketSize and LogMaxBuckets size the data log's buckets.
	LogBucketSize uint64
	LogMaxBuckets uint64

	// Clock is the injected time source used for the default append
	// timestamp (AppendNow); filters bucket records by that
	// timestamp, not by the clock itself. Defaults to the real
	// wall clock; tests inject clock.NewMock().
	Clock clock.Clock

	// Logger receives diagnostic output. Defaults to DefaultLogger.
	Logger Logger

	// Registerer, if non-nil, is where Table registers its Metrics.
	Registerer prometheus.Registerer

	// Name is a diagnostic label for this table instance (metric
	// labels, log lines). Defaults to a freshly generated UUID if
	// empty, following danthegoodman1-icedb's pervasive use of
	// uuid.New() for naming runtime resources.
	Name string
}

// EnsureDefaults returns a copy of o with every unset field replaced
// by its default, without mutating the receiver — matching
// pebble.Options.EnsureDefaults's contract.
func (o *Options) EnsureDefaults() *Options {
	opts := &Options{}
	if o != nil {
		*opts = *o
	}
	if opts.Storage == nil {
		opts.Storage = storage.NewInMemory()
	}
	if opts.LogBucketSize == 0 {
		opts.LogBucketSize = DefaultLogBucketSize
	}
	if opts.LogMaxBuckets == 0 {
		opts.LogMaxBuckets = DefaultLogMaxBuckets
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = DefaultLogger{}
	}
	if opts.Name == "" {
		opts.Name = newInstanceName()
	}
	return opts
}

// clockSource adapts opts.Clock to the confluoclock.Source capability
// the table's append path consumes.
func (o *Options) clockSource() confluoclock.Source { return confluoclock.New(o.Clock) }
