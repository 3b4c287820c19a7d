// Package metrics tracks Prometheus metrics for the secure channel and
// session layers. All methods handle a nil receiver gracefully, so a nil
// *Metrics acts as a no-op (zero overhead when metrics are disabled).
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracked:
//   - Chunks sent/received by message type (OPN/MSG/CLO)
//   - Secure channel token renewals
//   - Pending request count (gauge)
//   - Publish queue depth (gauge)
type Metrics struct {
	// ChunksSent counts outgoing chunks by message type.
	// Labels: type=[OPN, MSG, CLO]
	ChunksSent *prometheus.CounterVec

	// ChunksReceived counts incoming chunks by message type.
	ChunksReceived *prometheus.CounterVec

	// Renewals counts completed secure channel token renewals.
	Renewals prometheus.Counter

	// PendingRequests tracks the number of outstanding session requests.
	PendingRequests prometheus.Gauge

	// PublishQueueDepth tracks the number of Publish responses queued for
	// subscriber fan-out.
	PublishQueueDepth prometheus.Gauge

	// RequestDuration tracks request round-trip time by service.
	RequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// New creates and registers the client's Prometheus metrics. If registerer
// is nil, prometheus.DefaultRegisterer is used. Idempotent: uses sync.Once
// so repeated calls (e.g. reconnects) return the same registered instance.
func New(registerer prometheus.Registerer) *Metrics {
	metricsOnce.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}

		m := &Metrics{
			ChunksSent: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "opcua_chunks_sent_total",
					Help: "Total chunks sent by message type",
				},
				[]string{"type"},
			),
			ChunksReceived: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "opcua_chunks_received_total",
					Help: "Total chunks received by message type",
				},
				[]string{"type"},
			),
			Renewals: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "opcua_channel_renewals_total",
					Help: "Total secure channel token renewals performed",
				},
			),
			PendingRequests: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "opcua_pending_requests",
					Help: "Current number of outstanding session requests",
				},
			),
			PublishQueueDepth: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "opcua_publish_queue_depth",
					Help: "Current number of queued Publish responses awaiting fan-out",
				},
			),
			RequestDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "opcua_request_duration_seconds",
					Help:    "Session request round-trip time by service",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"service"},
			),
		}

		registerer.MustRegister(
			m.ChunksSent,
			m.ChunksReceived,
			m.Renewals,
			m.PendingRequests,
			m.PublishQueueDepth,
			m.RequestDuration,
		)

		metricsInstance = m
	})

	return metricsInstance
}

// RecordChunkSent records one outgoing chunk of the given message type.
func (m *Metrics) RecordChunkSent(msgType string) {
	if m == nil {
		return
	}
	m.ChunksSent.WithLabelValues(msgType).Inc()
}

// RecordChunkReceived records one incoming chunk of the given message type.
func (m *Metrics) RecordChunkReceived(msgType string) {
	if m == nil {
		return
	}
	m.ChunksReceived.WithLabelValues(msgType).Inc()
}

// RecordRenewal records a completed token renewal.
func (m *Metrics) RecordRenewal() {
	if m == nil {
		return
	}
	m.Renewals.Inc()
}

// SetPendingRequests sets the current outstanding-request count.
func (m *Metrics) SetPendingRequests(n int) {
	if m == nil {
		return
	}
	m.PendingRequests.Set(float64(n))
}

// SetPublishQueueDepth sets the current publish fan-out queue depth.
func (m *Metrics) SetPublishQueueDepth(n int) {
	if m == nil {
		return
	}
	m.PublishQueueDepth.Set(float64(n))
}

// RecordRequestDuration records a completed request's round-trip time.
func (m *Metrics) RecordRequestDuration(service string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(service).Observe(d.Seconds())
}
