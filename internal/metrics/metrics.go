// Package metrics holds the Prometheus collectors for the ingestion pipeline.
// Every Metrics value owns its registry, so tests and commands never clash on
// the global one.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "listings"

// Enrichment outcomes.
const (
	OutcomeFilled    = "filled"
	OutcomeEmpty     = "empty"
	OutcomeCached    = "cached"
	OutcomeError     = "error"
	OutcomeTimeout   = "timeout"
	OutcomeInvalid   = "invalid"
	OutcomeLimited   = "rate_limited"
	OutcomeSkipped   = "skipped"
	ResultImported   = "imported"
	ResultSkipped    = "skipped"
	ResultFailed     = "failed"
	ResultReplaced   = "replaced"
	ResultReclassify = "reclassified"
)

// Metrics holds all pipeline collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	MessagesParsed     prometheus.Counter
	Records            *prometheus.CounterVec
	Unresolved         *prometheus.CounterVec
	Classified         *prometheus.CounterVec
	EnrichmentRequests *prometheus.CounterVec
	EnrichmentDuration prometheus.Histogram
	SendersCreated     prometheus.Counter
	DuplicatesRemoved  prometheus.Counter
	ImportDuration     prometheus.Histogram
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MessagesParsed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_parsed_total",
			Help:      "Messages recovered from chat exports",
		}),
		Records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records handled by import and reprocess, by result",
		}, []string{"result"}),
		Unresolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_unresolved_total",
			Help:      "Fields the rule cascades left as Other, by field",
		}, []string{"field"}),
		Classified: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_classified_total",
			Help:      "Records by property type after classification",
		}, []string{"property_type"}),
		EnrichmentRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_requests_total",
			Help:      "Enrichment attempts by outcome",
		}, []string{"outcome"}),
		EnrichmentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_duration_seconds",
			Help:      "Time spent waiting for the language model",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SendersCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "senders_created_total",
			Help:      "Senders registered for the first time",
		}),
		DuplicatesRemoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Records deleted by deduplication",
		}),
		ImportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Wall time of one source import",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// AddParsed counts parsed messages.
func (m *Metrics) AddParsed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MessagesParsed.Add(float64(n))
}

// AddRecords counts records by result.
func (m *Metrics) AddRecords(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Records.WithLabelValues(result).Add(float64(n))
}

// ObserveClassification records the property type and the fields the rules
// could not decide.
func (m *Metrics) ObserveClassification(propertyType string, unresolved []string) {
	if m == nil {
		return
	}
	m.Classified.WithLabelValues(propertyType).Inc()
	for _, f := range unresolved {
		m.Unresolved.WithLabelValues(f).Inc()
	}
}

// ObserveEnrichment records one enrichment attempt.
func (m *Metrics) ObserveEnrichment(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.EnrichmentRequests.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.EnrichmentDuration.Observe(elapsed.Seconds())
	}
}

// AddSendersCreated counts new senders.
func (m *Metrics) AddSendersCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SendersCreated.Add(float64(n))
}

// AddDuplicatesRemoved counts deleted duplicates.
func (m *Metrics) AddDuplicatesRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DuplicatesRemoved.Add(float64(n))
}

// ObserveImport records how long a source took to import.
func (m *Metrics) ObserveImport(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ImportDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the current values in the node_exporter textfile
// format. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
