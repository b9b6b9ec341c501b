package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alltube_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alltube_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alltube_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Extractor metrics
var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alltube_extractions_total",
			Help: "Total number of extractor invocations",
		},
		[]string{"mode", "status"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alltube_extraction_duration_seconds",
			Help:    "Extractor invocation duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"mode"},
	)
)

// Stream metrics
var (
	StreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alltube_streams_total",
			Help: "Total number of streams opened",
		},
		[]string{"kind", "status"},
	)

	StreamBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alltube_stream_bytes_total",
			Help: "Total bytes served through streaming pipelines",
		},
		[]string{"kind"},
	)

	StreamsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alltube_streams_in_flight",
			Help: "Number of streams currently being served",
		},
	)
)

// Archive metrics
var (
	ArchiveEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alltube_archive_entries_total",
			Help: "Total number of playlist archive entries processed",
		},
		[]string{"status"},
	)

	ArchivesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alltube_archives_total",
			Help: "Total number of playlist archives opened",
		},
		[]string{"status"},
	)
)

// History metrics
var (
	HistoryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alltube_history_entries",
			Help: "Number of rows in the conversion history store",
		},
	)

	HistoryWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alltube_history_writes_total",
			Help: "Total number of history store writes",
		},
		[]string{"status"},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "alltube_app_info",
			Help: "Application build information",
		},
		[]string{"version", "go_version"},
	)
)
