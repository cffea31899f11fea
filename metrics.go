// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package confluo

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsNamespace is the leading part of every metric this package
// publishes, following the namespace/subsystem/name convention used
// throughout influxdata-influxdb's tsdb/tsi1 and tsdb/tsm1 metrics.
const metricsNamespace = "confluo"

// Metrics holds the counters and histograms a Table publishes about
// its own append/read/index/filter activity. All fields are non-nil
// once NewMetrics returns; Table registers them against
// Options.Registerer if one is supplied.
type Metrics struct {
	RecordsAppended     prometheus.Counter
	BytesAppended       prometheus.Counter
	TailOffset          prometheus.Gauge
	AppendLatency       prometheus.Histogram
	IndexInsertLatency  prometheus.Histogram
	FilterUpdateLatency prometheus.Histogram
}

// NewMetrics constructs a Metrics set labeled with table (the table
// instance's diagnostic name).
func NewMetrics(table string) *Metrics {
	labels := prometheus.Labels{"table": table}
	return &Metrics{
		RecordsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "records_appended_total",
			Help:        "Total number of records successfully appended.",
			ConstLabels: labels,
		}),
		BytesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "bytes_appended_total",
			Help:        "Total number of payload bytes successfully appended.",
			ConstLabels: labels,
		}),
		TailOffset: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "tail_offset",
			Help:        "Current published read-tail offset.",
			ConstLabels: labels,
		}),
		AppendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   metricsNamespace,
			Name:        "append_latency_seconds",
			Help:        "Latency of Table.Append, end to end.",
			ConstLabels: labels,
		}),
		IndexInsertLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   metricsNamespace,
			Name:        "index_insert_latency_seconds",
			Help:        "Latency of inserting one record's fields into their indexes.",
			ConstLabels: labels,
		}),
		FilterUpdateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   metricsNamespace,
			Name:        "filter_update_latency_seconds",
			Help:        "Latency of evaluating every registered filter against one record.",
			ConstLabels: labels,
		}),
	}
}

// register adds every collector to reg, ignoring AlreadyRegisteredError
// so that opening multiple tables that happen to share a name against
// the same registry does not panic.
func (m *Metrics) register(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	collectors := []prometheus.Collector{
		m.RecordsAppended, m.BytesAppended, m.TailOffset,
		m.AppendLatency, m.IndexInsertLatency, m.FilterUpdateLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
