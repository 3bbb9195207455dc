// Package metrics exposes Prometheus collectors for the stream consumer.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Stream consumer Prometheus metrics.
var (
	StreamEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchwire",
			Name:      "stream_events_total",
			Help:      "Total number of stream events consumed",
		},
		[]string{"type"},
	)

	StreamFramesDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchwire",
			Name:      "stream_frames_dropped_total",
			Help:      "Total number of non-JSON frames dropped as protocol noise",
		},
	)

	StreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchwire",
			Name:      "streams_total",
			Help:      "Total number of search streams by outcome",
		},
		[]string{"outcome"}, // finalized / cancelled / error / superseded
	)

	StreamDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "searchwire",
			Name:      "stream_duration_seconds",
			Help:      "Search stream duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	AnswerBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchwire",
			Name:      "answer_bytes_total",
			Help:      "Total answer text bytes accumulated from completion deltas",
		},
	)
)

var registerOnce sync.Once

// Register registers the stream metrics. Safe to call from every client
// constructor: only the first call registers.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			StreamEventsTotal,
			StreamFramesDroppedTotal,
			StreamsTotal,
			StreamDuration,
			AnswerBytesTotal,
		)
	})
}
