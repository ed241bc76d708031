// metrics.go: optional Prometheus exporter
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package bufpool

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports a Pool's already-mandated state (outstanding count,
// free list length, configured max_buffers) as Prometheus gauges. It
// intentionally adds no new accounting beyond what spec.md §4.2 already
// requires the pool to track; constructing a Metrics is purely an
// observability veneer over Pool.Outstanding and the free list.
//
// Grounded on grimm-is-flywall's internal/ebpf/metrics package for the
// naming and construction style; GaugeFunc rather than a hand-rolled
// Collector since every value here is a cheap atomic read taken at
// scrape time, exactly GaugeFunc's documented use case.
type Metrics struct {
	Outstanding prometheus.GaugeFunc
	FreeLength  prometheus.GaugeFunc
	MaxBuffers  prometheus.GaugeFunc
}

// NewMetrics builds a Metrics bound to pool, labeled with the pool's id
// so multiple pools can share one registry.
func NewMetrics(pool *Pool) *Metrics {
	id := pool.ID().String()
	return &Metrics{
		Outstanding: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "bufpool_outstanding_buffers",
			Help:        "Number of buffers currently acquired and not yet released.",
			ConstLabels: prometheus.Labels{"pool_id": id},
		}, func() float64 { return float64(pool.Outstanding()) }),

		FreeLength: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "bufpool_free_buffers",
			Help:        "Number of idle buffers sitting in the free list.",
			ConstLabels: prometheus.Labels{"pool_id": id},
		}, func() float64 { return float64(pool.freeList.Len()) }),

		MaxBuffers: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "bufpool_max_buffers",
			Help:        "Configured upper bound on total buffers, 0 if unbounded.",
			ConstLabels: prometheus.Labels{"pool_id": id},
		}, func() float64 {
			_, _, maxBuffers, _, _, _ := pool.GetConfig().Get()
			return float64(maxBuffers)
		}),
	}
}

// MustRegister registers every gauge with reg. Panics on collision,
// matching prometheus.Registry.MustRegister's own contract.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.Outstanding, m.FreeLength, m.MaxBuffers)
}
