package pipeline

import (
	"time"

	"github.com/arloliu/sensorpipe/filter"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a Pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	linesRead        prometheus.Counter
	readingsParsed   prometheus.Counter
	readingsAccepted prometheus.Counter
	readingsRejected *prometheus.CounterVec // by filter.Reason
	linesOversized   prometheus.Counter
	sourcesRead      prometheus.Counter
	sourcesFailed    prometheus.Counter
	sourceDuration   prometheus.Histogram
}

// NewMetrics creates the pipeline collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		linesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reader",
			Name:      "lines_total",
			Help:      "Physical lines consumed from sources",
		}),
		readingsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reader",
			Name:      "readings_total",
			Help:      "Readings decoded from sources",
		}),
		linesOversized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reader",
			Name:      "oversized_lines_total",
			Help:      "Lines skipped for exceeding the maximum line size",
		}),
		readingsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "accepted_total",
			Help:      "Readings accepted by the filter engine",
		}),
		readingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "rejected_total",
			Help:      "Readings rejected, by reason",
		}, []string{"reason"}),
		sourcesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "processed_total",
			Help:      "Sources processed, failed ones included",
		}),
		sourcesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "failed_total",
			Help:      "Sources that could not be read to completion",
		}),
		sourceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "duration_seconds",
			Help:      "Time spent reading one source",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.linesRead, m.readingsParsed, m.linesOversized, m.readingsAccepted,
		m.readingsRejected, m.sourcesRead, m.sourcesFailed, m.sourceDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	// Pre-create every reason so rejected_total series exist from the start.
	for _, reason := range filter.Reasons() {
		m.readingsRejected.WithLabelValues(reason.String())
	}

	return m, nil
}

func (m *Metrics) accepted() {
	if m == nil {
		return
	}
	m.readingsAccepted.Inc()
}

func (m *Metrics) rejected(reason filter.Reason) {
	if m == nil {
		return
	}
	m.readingsRejected.WithLabelValues(reason.String()).Inc()
}

func (m *Metrics) sourceDone(stats Stats, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	m.sourcesRead.Inc()
	if err != nil {
		m.sourcesFailed.Inc()
	}
	m.sourceDuration.Observe(elapsed.Seconds())
	m.linesRead.Add(float64(stats.Lines))
	m.readingsParsed.Add(float64(stats.Readings + stats.Skipped))
	m.linesOversized.Add(float64(stats.Oversized))
	if stats.Skipped > 0 {
		m.readingsRejected.WithLabelValues(filter.ReasonDateRange.String()).Add(float64(stats.Skipped))
	}
}
