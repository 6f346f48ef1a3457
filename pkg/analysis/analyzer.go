// Package analysis runs the full pipeline: parsed router configurations are
// inserted into a prefix trie, PECs are extracted from it, and the outcome
// is packaged as a Result.
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/newtron-network/netpec/pkg/metrics"
	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/parser"
	"github.com/newtron-network/netpec/pkg/pec"
	"github.com/newtron-network/netpec/pkg/topology"
	"github.com/newtron-network/netpec/pkg/trie"
	"github.com/newtron-network/netpec/pkg/util"
)

// DefaultRouters are weighted with trie.DefaultWeight when no topology is
// configured.
var DefaultRouters = []string{"r0", "r1", "r2", "r3"}

// ErrNoConfigs is returned when Analyze is called without input
var ErrNoConfigs = errors.New("no configurations to analyze")

// Analyzer builds a fresh trie for every call and never shares it. The zero
// value is usable: it weights DefaultRouters plus every analyzed hostname,
// records to metrics.DefaultRegistry and does not cache.
type Analyzer struct {
	Topology *topology.File
	Metrics  *metrics.Registry
	Cache    *Cache
}

// NewAnalyzer creates an analyzer with the given topology (nil for the
// default one) and a result cache of DefaultCacheSize entries.
func NewAnalyzer(topo *topology.File) *Analyzer {
	cache, _ := NewCache(DefaultCacheSize)
	return &Analyzer{
		Topology: topo,
		Metrics:  metrics.DefaultRegistry(),
		Cache:    cache,
	}
}

func (a *Analyzer) metrics() *metrics.Registry {
	if a.Metrics == nil {
		return metrics.DefaultRegistry()
	}
	return a.Metrics
}

func (a *Analyzer) costs(hostnames []string) trie.Topology {
	if a.Topology != nil {
		return a.Topology.Costs()
	}
	topo := topology.Default(DefaultRouters...)
	topo.AddRouters(hostnames...)
	return topo.Costs()
}

// Analyze inserts every record of configs into a new trie and extracts its
// PECs. Records that cannot be inserted are logged and listed in
// Result.Skipped; they never fail the analysis.
func (a *Analyzer) Analyze(configs ...*model.Config) (*Result, error) {
	if len(configs) == 0 {
		return nil, ErrNoConfigs
	}
	start := time.Now()
	reg := a.metrics()

	hostnames := make([]string, 0, len(configs))
	for _, cfg := range configs {
		hostnames = util.AppendUnique(hostnames, cfg.Hostname)
	}

	t := trie.New()
	t.SetTopology(a.costs(hostnames))

	b := &builder{trie: t, metrics: reg, skipped: []SkippedRecord{}}
	for _, cfg := range configs {
		b.config(cfg)
	}

	ex := pec.NewExtractor()
	pecs, err := ex.Extract(t)
	if err != nil {
		return nil, fmt.Errorf("extracting PECs: %w", err)
	}

	stats := ex.Stats()
	result := &Result{
		ID:         uuid.New(),
		Hostnames:  hostnames,
		Configs:    configs,
		Tree:       t.Snapshot(),
		PECs:       pecs,
		TrieStats:  t.Stats(),
		PECStats:   stats,
		Validation: ex.Validate(),
		Skipped:    b.skipped,
		CreatedAt:  start.UTC(),
		Duration:   time.Since(start),
		trie:       t,
		extractor:  ex,
	}

	kinds := make(map[string]int, len(stats.TypeDistribution))
	for kind, n := range stats.TypeDistribution {
		kinds[string(kind)] = n
	}
	reg.RecordAnalysis(kinds, ex.CollectedCount(), len(pecs), result.TrieStats.TotalNodes, result.Duration)

	util.WithAnalysis("analyze", result.ID.String()).WithField("routers", len(hostnames)).Infof("%d prefixes, %d nodes, %d PECs (%d before merge), %d records skipped",
		result.TrieStats.TotalPrefixes, result.TrieStats.TotalNodes, len(pecs), ex.CollectedCount(), len(b.skipped))

	return result, nil
}

// AnalyzeText parses each configuration text and analyzes them together.
// Results are cached by a fingerprint of the texts and the topology.
func (a *Analyzer) AnalyzeText(texts ...string) (*Result, error) {
	if len(texts) == 0 {
		return nil, ErrNoConfigs
	}
	fp, err := a.fingerprint(texts)
	if err != nil {
		return nil, err
	}
	if a.Cache != nil {
		if r, ok := a.Cache.Get(fp); ok {
			a.metrics().RecordCache(true)
			util.WithOperation("analyze").Debugf("cache hit for %s", fp)
			return r, nil
		}
		a.metrics().RecordCache(false)
	}

	configs := make([]*model.Config, 0, len(texts))
	for i, text := range texts {
		cfg, err := parser.ParseString(text)
		if err != nil {
			return nil, fmt.Errorf("configuration %d: %w", i+1, err)
		}
		configs = append(configs, cfg)
	}

	result, err := a.Analyze(configs...)
	if err != nil {
		return nil, err
	}
	result.Fingerprint = fp
	if a.Cache != nil {
		a.Cache.Add(result)
	}
	return result, nil
}

// AnalyzeFiles reads each file and calls AnalyzeText
func (a *Analyzer) AnalyzeFiles(paths ...string) (*Result, error) {
	texts := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading configuration file: %w", err)
		}
		texts = append(texts, string(data))
	}
	return a.AnalyzeText(texts...)
}

func (a *Analyzer) fingerprint(texts []string) (string, error) {
	var topo []byte
	if a.Topology != nil {
		var err error
		if topo, err = json.Marshal(a.Topology.Costs()); err != nil {
			return "", err
		}
	}
	parts := make([][]byte, 0, len(texts)+1)
	parts = append(parts, topo)
	for _, text := range texts {
		parts = append(parts, []byte(text))
	}
	return Fingerprint(parts...)
}
