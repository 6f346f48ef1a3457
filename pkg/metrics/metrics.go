// Package metrics exposes Prometheus counters for trie construction and
// PEC extraction.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Registry holds all metrics of one process
type Registry struct {
	PrefixesInserted *prometheus.CounterVec // source_type
	InsertErrors     *prometheus.CounterVec // reason
	PECs             *prometheus.GaugeVec   // kind
	PECsMerged       prometheus.Counter
	TrieNodes        prometheus.Gauge
	AnalysisDuration prometheus.Histogram
	CacheRequests    *prometheus.CounterVec // result

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric registered on a private
// prometheus.Registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}
	factory := promauto.With(reg)

	r.PrefixesInserted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpec_prefixes_inserted_total",
			Help: "Prefixes inserted into the trie",
		},
		[]string{"source_type"},
	)
	r.InsertErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpec_insert_errors_total",
			Help: "Configuration records that could not be inserted",
		},
		[]string{"reason"}, // invalid_prefix, invalid_record, unresolved_address
	)
	r.PECs = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netpec_pecs_total",
			Help: "PECs produced by the last analysis",
		},
		[]string{"kind"},
	)
	r.PECsMerged = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "netpec_pecs_merged_total",
			Help: "PECs absorbed by merging",
		},
	)
	r.TrieNodes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "netpec_trie_nodes",
			Help: "Nodes in the trie of the last analysis",
		},
	)
	r.AnalysisDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netpec_analysis_duration_seconds",
			Help:    "Time to build the trie and extract PECs",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	r.CacheRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netpec_cache_requests_total",
			Help: "Analysis cache lookups",
		},
		[]string{"result"},
	)
	return r
}

// GetPrometheusRegistry returns the underlying registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordInsert counts one inserted prefix
func (r *Registry) RecordInsert(sourceType string) {
	r.PrefixesInserted.WithLabelValues(sourceType).Inc()
}

// RecordInsertError counts one rejected record
func (r *Registry) RecordInsertError(reason string) {
	r.InsertErrors.WithLabelValues(reason).Inc()
}

// RecordAnalysis records the outcome of one analysis. kinds maps PEC kind to
// count; collected is the PEC count before merging.
func (r *Registry) RecordAnalysis(kinds map[string]int, collected, final, nodes int, duration time.Duration) {
	r.PECs.Reset()
	for kind, n := range kinds {
		r.PECs.WithLabelValues(kind).Set(float64(n))
	}
	if merged := collected - final; merged > 0 {
		r.PECsMerged.Add(float64(merged))
	}
	r.TrieNodes.Set(float64(nodes))
	r.AnalysisDuration.Observe(duration.Seconds())
}

// RecordCache counts a cache hit or miss
func (r *Registry) RecordCache(hit bool) {
	if hit {
		r.CacheRequests.WithLabelValues(CacheHit).Inc()
		return
	}
	r.CacheRequests.WithLabelValues(CacheMiss).Inc()
}

// WriteTextfile writes every metric in text exposition format to path, for
// the node_exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
