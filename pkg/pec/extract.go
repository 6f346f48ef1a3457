// Package pec partitions the address space held in a prefix trie into
// packet equivalence classes.
//
// Extraction is a single depth-first pass over the trie, 0 child before 1
// child, followed by a single left-to-right merge pass. Both passes are
// deterministic; the merge is order dependent and deliberately does not
// search for a maximal grouping.
package pec

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/trie"
	"github.com/newtron-network/netpec/pkg/util"
)

// IntermediateDepth is the deepest level at which every non-terminal node
// emits an intermediate PEC regardless of its other attributes.
const IntermediateDepth = 16

// ErrNilTrie is returned when extraction is asked to run without a trie
var ErrNilTrie = errors.New("pec: nil trie")

// Extractor runs extraction and keeps the last result for lookups and
// statistics. An Extractor must not be shared between concurrent analyses.
type Extractor struct {
	pecs      []*PEC
	collected int
}

// NewExtractor creates an extractor with no results
func NewExtractor() *Extractor {
	return &Extractor{pecs: []*PEC{}}
}

// Extract collects PECs from t, merges them, and stores the merged list.
func (e *Extractor) Extract(t *trie.Trie) ([]*PEC, error) {
	collected, err := e.Collect(t)
	if err != nil {
		return nil, err
	}
	e.collected = len(collected)
	e.pecs = Merge(collected)
	util.WithOperation("extract").Debugf("collected %d PECs, %d after merge", e.collected, len(e.pecs))
	return e.pecs, nil
}

// Collect returns the PECs of t before merging, in creation order with IDs
// starting at 1. It does not change the extractor's stored result.
func (e *Extractor) Collect(t *trie.Trie) ([]*PEC, error) {
	if t == nil {
		return nil, ErrNilTrie
	}
	c := &collector{topology: t.Topology(), pecs: []*PEC{}}
	t.Walk(c.visit)
	return c.pecs, nil
}

// PECs returns the result of the last Extract
func (e *Extractor) PECs() []*PEC {
	return e.pecs
}

// CollectedCount returns the number of PECs the last Extract produced
// before merging.
func (e *Extractor) CollectedCount() int {
	return e.collected
}

// FindForIP returns the PEC ip belongs to. The longest-match node's prefix
// is looked up first; when that PEC was merged away, the PEC with the
// deepest path covering ip is returned instead.
func (e *Extractor) FindForIP(ip string, t *trie.Trie) (*PEC, error) {
	if t == nil {
		return nil, ErrNilTrie
	}
	node, err := t.LongestMatch(ip)
	if err != nil {
		return nil, err
	}
	for _, p := range e.pecs {
		if p.Prefix == node.Prefix {
			return p, nil
		}
	}

	bits, err := addr.IPToBits(ip)
	if err != nil {
		return nil, err
	}
	var best *PEC
	for _, p := range e.pecs {
		if bits.HasPrefix(p.BinaryPath) && (best == nil || len(p.BinaryPath) > len(best.BinaryPath)) {
			best = p
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no PEC for %s: %w", ip, util.ErrNotFound)
	}
	return best, nil
}

type collector struct {
	topology trie.Topology
	pecs     []*PEC
}

func (c *collector) visit(n *trie.Node, path addr.Bits) {
	if n.IsTerminal {
		c.emit(n, path, KindExact)
		return
	}
	if emitsIntermediate(n, path) {
		c.emit(n, path, KindIntermediate)
	}
}

// emitsIntermediate over-generates on purpose: every node at depth 16 or
// less qualifies.
func emitsIntermediate(n *trie.Node, path addr.Bits) bool {
	return len(n.Weights) > 0 ||
		n.Origin != "" ||
		len(n.Sources) > 0 ||
		len(path) == 0 ||
		n.ChildCount() == 2 ||
		len(path) <= IntermediateDepth
}

func (c *collector) emit(n *trie.Node, path addr.Bits, kind Kind) {
	prefix := n.Prefix
	if prefix == "" {
		prefix = addr.BitsToPrefix(path)
	}
	start, end := addr.Range(path)

	p := &PEC{
		ID:              len(c.pecs) + 1,
		Prefix:          prefix,
		BinaryPath:      path,
		Kind:            kind,
		Sources:         append([]model.SourceRecord{}, n.Sources...),
		Origin:          n.Origin,
		Weights:         cloneWeights(n.Weights),
		Characteristics: c.characteristics(n, path),
		Description:     describe(n, prefix, len(path), kind),
		IPRange:         IPRange{Start: start, End: end},
	}
	c.pecs = append(c.pecs, p)
}

func (c *collector) characteristics(n *trie.Node, path addr.Bits) Characteristics {
	ch := Characteristics{
		PrefixLength:    len(path),
		SourceTypes:     []model.SourceType{},
		ActionTypes:     []string{},
		OSPFConfig:      ospfConfig(n),
		NetworkTopology: c.topologySummary(n),
		RoutingPolicies: routingPolicies(n.Sources),
		TrafficFlow:     trafficFlow(n),
	}

	routers := map[string]struct{}{}
	interfaces := map[string]struct{}{}
	for _, s := range n.Sources {
		ch.SourceTypes = util.AppendUnique(ch.SourceTypes, s.Type)
		if s.Action != "" {
			ch.ActionTypes = util.AppendUnique(ch.ActionTypes, s.Action)
		}
		if s.Router != "" {
			routers[s.Router] = struct{}{}
		}
		if s.Interface != "" {
			interfaces[s.Interface] = struct{}{}
		}
	}
	ch.RouterCount = len(routers)
	ch.InterfaceCount = len(interfaces)
	return ch
}

func ospfConfig(n *trie.Node) OSPFConfig {
	cfg := OSPFConfig{
		Origin:  n.Origin,
		Weights: cloneWeights(n.Weights),
	}
	for _, s := range n.Sources {
		if s.Type != model.SourceOSPF {
			continue
		}
		if s.Area != "" {
			cfg.Area = s.Area
		}
		if s.Cost != 0 {
			cfg.Cost = s.Cost
		}
	}
	return cfg
}

func (c *collector) topologySummary(n *trie.Node) TopologySummary {
	ts := TopologySummary{
		ConnectedRouters: make([]string, 0, len(n.Weights)),
		LinkCosts:        cloneWeights(n.Weights),
		PathCosts:        map[string]int{},
	}
	for router := range n.Weights {
		ts.ConnectedRouters = append(ts.ConnectedRouters, router)
	}
	sort.Strings(ts.ConnectedRouters)
	if n.Origin != "" {
		maps.Copy(ts.PathCosts, c.topology[n.Origin])
	}
	return ts
}

func routingPolicies(sources []model.SourceRecord) RoutingPolicies {
	rp := RoutingPolicies{
		AccessLists: []string{},
		PrefixLists: []string{},
		RouteMaps:   []string{},
		Community:   []string{},
	}
	for _, s := range sources {
		name := s.PolicyName()
		if name == "" {
			continue
		}
		switch s.Type {
		case model.SourceAccessList, model.SourceNamedACL:
			rp.AccessLists = append(rp.AccessLists, name)
		case model.SourcePrefixList:
			rp.PrefixLists = append(rp.PrefixLists, name)
		case model.SourceRouteMap:
			rp.RouteMaps = append(rp.RouteMaps, name)
		}
	}
	return rp
}

func trafficFlow(n *trie.Node) TrafficFlow {
	tf := TrafficFlow{
		Direction:     FlowBidirectional,
		Ingress:       []string{},
		Egress:        []string{},
		LoadBalancing: len(n.Weights) > 1,
	}
	for _, s := range n.Sources {
		if s.Interface == "" {
			continue
		}
		switch s.Direction {
		case model.DirectionIn:
			tf.Ingress = util.AppendUnique(tf.Ingress, s.Interface)
		case model.DirectionOut:
			tf.Egress = util.AppendUnique(tf.Egress, s.Interface)
		}
	}
	return tf
}

func describe(n *trie.Node, prefix string, length int, kind Kind) string {
	var b strings.Builder
	if kind == KindExact {
		fmt.Fprintf(&b, "PEC for exact prefix %s (%d bits)", prefix, length)
	} else {
		fmt.Fprintf(&b, "PEC for prefix range %s (%d bits)", prefix, length)
	}
	if n.Origin != "" {
		fmt.Fprintf(&b, " originating from router %s", n.Origin)
	}
	if len(n.Sources) > 0 {
		var types []string
		for _, s := range n.Sources {
			types = util.AppendUnique(types, string(s.Type))
		}
		fmt.Fprintf(&b, " with %s configuration", strings.Join(types, ", "))
	}
	if len(n.Weights) > 0 {
		b.WriteString(" and routing weights")
	}
	return b.String()
}

func cloneWeights(w map[string]int) map[string]int {
	if w == nil {
		return map[string]int{}
	}
	return maps.Clone(w)
}
