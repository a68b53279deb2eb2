// Package metrics exposes association query counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/association"
)

// Association Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trackassoc",
			Name:      "queries_total",
			Help:      "Total number of association queries",
		},
		[]string{"associator", "direction"},
	)

	LinksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trackassoc",
			Name:      "links_total",
			Help:      "Total number of association links produced",
		},
		[]string{"associator", "direction"},
	)

	PairsEvaluatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trackassoc",
			Name:      "pairs_evaluated_total",
			Help:      "Total number of track-particle pairs evaluated",
		},
		[]string{"associator", "direction"},
	)

	SkippedParticlesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trackassoc",
			Name:      "skipped_particles_total",
			Help:      "Particles skipped for low pT or no usable state",
		},
		[]string{"associator", "direction"},
	)

	SingularCovarianceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trackassoc",
			Name:      "singular_covariance_total",
			Help:      "Pairs excluded because the track covariance could not be inverted",
		},
		[]string{"associator", "direction"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trackassoc",
			Name:      "query_duration_seconds",
			Help:      "Association query duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"associator", "direction"},
	)
)

var assocMetricsRegistered bool

// RegisterAssociationMetrics registers the association metrics with the
// default registry. Must be called once from main.
func RegisterAssociationMetrics() {
	if assocMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(LinksTotal)
	prometheus.MustRegister(PairsEvaluatedTotal)
	prometheus.MustRegister(SkippedParticlesTotal)
	prometheus.MustRegister(SingularCovarianceTotal)
	prometheus.MustRegister(QueryDuration)
	assocMetricsRegistered = true
}

// Observer records association queries into the package metrics.
type Observer struct{}

var _ association.Observer = Observer{}

// ObserveQuery implements association.Observer.
func (Observer) ObserveQuery(s association.QueryStats) {
	labels := []string{s.Associator, string(s.Direction)}
	QueriesTotal.WithLabelValues(labels...).Inc()
	LinksTotal.WithLabelValues(labels...).Add(float64(s.Links))
	PairsEvaluatedTotal.WithLabelValues(labels...).Add(float64(s.Diagnostics.PairsEvaluated))
	SkippedParticlesTotal.WithLabelValues(labels...).Add(float64(s.Diagnostics.SkippedParticles))
	SingularCovarianceTotal.WithLabelValues(labels...).Add(float64(s.Diagnostics.SingularCovariance))
	QueryDuration.WithLabelValues(labels...).Observe(s.Duration.Seconds())
}

// WriteTextfile writes the default registry in the text exposition format,
// for collection by a node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
