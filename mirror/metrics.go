package mirror

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "panomirror"

// Metrics collects counters for a post-processing run. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	filesScanned     prometheus.Counter
	filesRewritten   prometheus.Counter
	urlsQueued       prometheus.Gauge
	downloads        *prometheus.CounterVec
	downloadBytes    prometheus.Counter
	downloadDuration prometheus.Histogram
}

// NewMetrics creates the run metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		filesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_scanned_total",
			Help:      "Text files scanned for CDN references.",
		}),
		filesRewritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_rewritten_total",
			Help:      "Text files whose CDN references were rewritten.",
		}),
		urlsQueued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "urls_queued",
			Help:      "Distinct render data URLs queued for download.",
		}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "downloads_total",
			Help:      "Asset fetch attempts by outcome.",
		}, []string{"outcome"}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "download_bytes_total",
			Help:      "Bytes written for downloaded assets.",
		}),
		downloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "download_duration_seconds",
			Help:      "Time spent on each asset request.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.filesScanned,
		m.filesRewritten,
		m.urlsQueued,
		m.downloads,
		m.downloadBytes,
		m.downloadDuration,
	)

	return m
}

func (m *Metrics) observeScan(rewritten bool) {
	if m == nil {
		return
	}
	m.filesScanned.Inc()
	if rewritten {
		m.filesRewritten.Inc()
	}
}

func (m *Metrics) observeQueued(n int) {
	if m == nil {
		return
	}
	m.urlsQueued.Set(float64(n))
}

func (m *Metrics) observeDownload(status FetchStatus) {
	if m == nil {
		return
	}
	m.downloads.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) observeTransfer(n int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.downloadBytes.Add(float64(n))
	m.downloadDuration.Observe(elapsed.Seconds())
}
