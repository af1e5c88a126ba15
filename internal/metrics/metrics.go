// Package metrics exposes a minimal counter/gauge set for the optional
// `--metrics-addr` flag of `voicepipe run`/`daemon`: recordings detected,
// transcribed, and failed, plus per-batch transcription duration
// (SPEC_FULL.md domain stack table).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the orchestrator reports. A nil *Registry is
// valid: every method on it is a no-op, so callers that run without
// --metrics-addr never need a nil check.
type Registry struct {
	registry         *prometheus.Registry
	filesDetected    prometheus.Counter
	filesTranscribed prometheus.Counter
	filesFailed      prometheus.Counter
	batchDuration    prometheus.Histogram
}

// New registers a fresh metric set against its own registry, so repeated
// calls in tests never collide with prometheus's global default registerer.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Registry{
		registry: reg,
		filesDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_files_detected_total",
			Help: "Recordings found by the detect stage.",
		}),
		filesTranscribed: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_files_transcribed_total",
			Help: "Recordings transcribed successfully.",
		}),
		filesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepipe_files_failed_total",
			Help: "Recordings that failed at any pipeline stage.",
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicepipe_batch_duration_seconds",
			Help:    "Wall-clock duration of one transcription batch.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (r *Registry) AddDetected(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.filesDetected.Add(float64(n))
}

func (r *Registry) AddTranscribed(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.filesTranscribed.Add(float64(n))
}

func (r *Registry) AddFailed(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.filesFailed.Add(float64(n))
}

func (r *Registry) ObserveBatchDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.batchDuration.Observe(d.Seconds())
}

// Handler serves the registered metrics in the Prometheus text exposition
// format, or 404s if metrics were never enabled.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
