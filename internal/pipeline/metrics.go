package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fyrsmithlabs/sectionrank/internal/heading"
)

// Metrics holds the run counters. Each Metrics has its own registry so the
// textfile only carries one run.
type Metrics struct {
	registry *prometheus.Registry

	// DocumentsProcessed counts documents whose layout was read.
	DocumentsProcessed prometheus.Counter

	// DocumentsFailed counts documents whose layout could not be read.
	DocumentsFailed prometheus.Counter

	LinesSeen    prometheus.Counter
	LinesSkipped prometheus.Counter

	// Verdicts counts heuristic verdicts.
	// Labels: reason (accepted, length, whitespace, math, symbols, caption, font)
	Verdicts *prometheus.CounterVec

	// ClassifierVetoes counts heuristic-accepted blocks the classifier rejected.
	ClassifierVetoes prometheus.Counter

	SectionsRanked prometheus.Counter

	// DocumentDuration tracks per-document extraction time.
	DocumentDuration prometheus.Histogram
}

// NewMetrics registers the run metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		DocumentsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sectionrank",
			Subsystem: "pipeline",
			Name:      "documents_processed_total",
			Help:      "Total number of documents whose layout was extracted",
		}),
		DocumentsFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sectionrank",
			Subsystem: "pipeline",
			Name:      "documents_failed_total",
			Help:      "Total number of documents whose layout extraction failed",
		}),
		LinesSeen: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sectionrank",
			Subsystem: "pipeline",
			Name:      "lines_seen_total",
			Help:      "Total number of usable layout lines",
		}),
		LinesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sectionrank",
			Subsystem: "pipeline",
			Name:      "lines_skipped_total",
			Help:      "Total number of layout lines dropped for malformed data",
		}),
		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sectionrank",
			Subsystem: "heading",
			Name:      "verdicts_total",
			Help:      "Heuristic verdicts by deciding gate",
		}, []string{"reason"}),
		ClassifierVetoes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sectionrank",
			Subsystem: "heading",
			Name:      "classifier_vetoes_total",
			Help:      "Heuristic-accepted blocks rejected by the classifier",
		}),
		SectionsRanked: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sectionrank",
			Subsystem: "ranking",
			Name:      "sections_ranked_total",
			Help:      "Total number of sections scored against the query",
		}),
		DocumentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sectionrank",
			Subsystem: "pipeline",
			Name:      "document_duration_seconds",
			Help:      "Duration of per-document extraction in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, r := range heading.Reasons {
		m.Verdicts.WithLabelValues(string(r))
	}
	return m
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) recordDocument(doc *DocumentResult, elapsed time.Duration) {
	m.DocumentDuration.Observe(elapsed.Seconds())
	if doc.Failed {
		m.DocumentsFailed.Inc()
		return
	}
	m.DocumentsProcessed.Inc()
	m.LinesSeen.Add(float64(doc.Lines))
	m.LinesSkipped.Add(float64(doc.Skipped))
	for reason, n := range doc.Verdicts {
		m.Verdicts.WithLabelValues(string(reason)).Add(float64(n))
	}
	m.ClassifierVetoes.Add(float64(doc.Vetoed))
}
