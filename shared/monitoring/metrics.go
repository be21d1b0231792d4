package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalyzeRequestsTotal counts analyze requests by outcome.
	AnalyzeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "copyscan",
		Subsystem: "server",
		Name:      "analyze_requests_total",
		Help:      "Total number of analyze requests served, labeled by result.",
	}, []string{"result"})

	// VideosFetchedTotal counts videos returned by the search stage.
	VideosFetchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "copyscan",
		Subsystem: "pipeline",
		Name:      "videos_fetched_total",
		Help:      "Total number of videos fetched from the search stage across all requests.",
	})

	// BatchesFailedTotal counts classifier batches that produced a
	// failure-marked placeholder instead of an analysis.
	BatchesFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "copyscan",
		Subsystem: "pipeline",
		Name:      "batches_failed_total",
		Help:      "Total number of classification batches that failed and were replaced by placeholders.",
	})

	// AnalyzeDurationSeconds is the end-to-end pipeline time per request.
	AnalyzeDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "copyscan",
		Subsystem: "server",
		Name:      "analyze_duration_seconds",
		Help:      "End-to-end time to serve one analyze request.",
		// Coarse buckets: real runs pace external calls and take minutes.
		Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"result"})
)

// Register installs the collectors on reg exactly once. Passing nil uses the
// default registerer.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			AnalyzeRequestsTotal,
			VideosFetchedTotal,
			BatchesFailedTotal,
			AnalyzeDurationSeconds,
		)
	})
}
