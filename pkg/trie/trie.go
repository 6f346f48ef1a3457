// Package trie implements a binary trie over IPv4 prefixes. Terminal nodes
// carry the configuration sources that announced the prefix, the router the
// prefix originates from, and a per-router weight table derived from the
// network topology.
package trie

import (
	"maps"
	"math"

	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/util"
)

// DefaultWeight is the weight of a router that has no links in the topology.
const DefaultWeight = 10

// Topology maps router -> neighbor -> link cost.
type Topology map[string]map[string]int

// Trie is a binary prefix trie. It is not safe for concurrent mutation.
type Trie struct {
	root        *Node
	prefixCount int
	topology    Topology
}

// New creates an empty trie holding only the root node
func New() *Trie {
	return &Trie{
		root:     newNode(0),
		topology: Topology{},
	}
}

// Root returns the root node
func (t *Trie) Root() *Node {
	return t.root
}

// PrefixCount returns the number of successful inserts, including repeats
// of the same prefix.
func (t *Trie) PrefixCount() int {
	return t.prefixCount
}

// SetTopology replaces the topology used for weight computation. Nodes
// inserted earlier keep the weights they were given.
func (t *Trie) SetTopology(topo Topology) {
	if topo == nil {
		topo = Topology{}
	}
	t.topology = topo
}

// Topology returns the current topology
func (t *Trie) Topology() Topology {
	return t.topology
}

// Insert adds prefix with its source. Inserting an existing prefix again
// appends another source to the same node. A malformed prefix leaves the
// trie unchanged and returns an error wrapping util.ErrInvalidPrefixFormat.
func (t *Trie) Insert(prefix string, source model.SourceRecord) error {
	bits, err := addr.PrefixToBits(prefix)
	if err != nil {
		return err
	}

	current := t.root
	for _, bit := range bits {
		current = current.ensureChild(bit)
	}

	current.IsTerminal = true
	current.Prefix = prefix
	current.Sources = append(current.Sources, source)
	if source.Router != "" {
		current.Origin = source.Router
	}
	t.computeWeights(current)
	t.prefixCount++

	util.WithPrefix(prefix).WithField("type", source.Type).Debugf("inserted at depth %d (%d sources)",
		current.BitPosition, len(current.Sources))
	return nil
}

// computeWeights replaces the node's weights with one entry per topology
// router: the rounded mean cost of that router's links, or DefaultWeight
// when it has none. An empty topology leaves the weights untouched.
func (t *Trie) computeWeights(n *Node) {
	if len(t.topology) == 0 {
		return
	}
	weights := make(map[string]int, len(t.topology))
	for router, links := range t.topology {
		weights[router] = routerWeight(links)
	}
	n.Weights = weights
}

func routerWeight(links map[string]int) int {
	if len(links) == 0 {
		return DefaultWeight
	}
	total := 0
	for _, cost := range links {
		total += cost
	}
	return int(math.Round(float64(total) / float64(len(links))))
}

// Search returns the terminal node for prefix. It returns util.ErrNotFound
// when the path is missing or ends at a non-terminal node.
func (t *Trie) Search(prefix string) (*Node, error) {
	bits, err := addr.PrefixToBits(prefix)
	if err != nil {
		return nil, err
	}
	current := t.root
	for _, bit := range bits {
		current = current.Child(bit)
		if current == nil {
			return nil, util.ErrNotFound
		}
	}
	if !current.IsTerminal {
		return nil, util.ErrNotFound
	}
	return current, nil
}

// LongestMatch returns the deepest terminal node on the path of ip.
func (t *Trie) LongestMatch(ip string) (*Node, error) {
	bits, err := addr.IPToBits(ip)
	if err != nil {
		return nil, err
	}
	var match *Node
	if t.root.IsTerminal {
		match = t.root
	}
	current := t.root
	for _, bit := range bits {
		current = current.Child(bit)
		if current == nil {
			break
		}
		if current.IsTerminal {
			match = current
		}
	}
	if match == nil {
		return nil, util.ErrNotFound
	}
	return match, nil
}

// Visitor is called with a node and the bit path from the root to it. The
// path slice is owned by the visitor.
type Visitor func(n *Node, path addr.Bits)

// Traverse calls fn on every terminal node in depth-first pre-order,
// visiting the 0 child before the 1 child.
func (t *Trie) Traverse(fn Visitor) {
	t.Walk(func(n *Node, path addr.Bits) {
		if n.IsTerminal {
			fn(n, path)
		}
	})
}

// Walk calls fn on every node, terminal or not, in the same order as Traverse.
func (t *Trie) Walk(fn Visitor) {
	walk(t.root, addr.Bits{}, fn)
}

func walk(n *Node, path addr.Bits, fn Visitor) {
	fn(n, path)
	for bit, child := range n.children {
		if child != nil {
			walk(child, path.Append(addr.Bit(bit)), fn)
		}
	}
}

// PrefixEntry is one terminal node in flat form
type PrefixEntry struct {
	Prefix      string               `json:"prefix"`
	Sources     []model.SourceRecord `json:"sources"`
	BitPosition int                  `json:"bitPosition"`
	Origin      string               `json:"origin,omitempty"`
	Weights     map[string]int       `json:"weights"`
}

// Prefixes lists every terminal node in traversal order
func (t *Trie) Prefixes() []PrefixEntry {
	entries := []PrefixEntry{}
	t.Traverse(func(n *Node, _ addr.Bits) {
		entries = append(entries, PrefixEntry{
			Prefix:      n.Prefix,
			Sources:     append([]model.SourceRecord{}, n.Sources...),
			BitPosition: n.BitPosition,
			Origin:      n.Origin,
			Weights:     maps.Clone(n.Weights),
		})
	})
	return entries
}

// Stats summarizes the trie size
type Stats struct {
	TotalPrefixes int `json:"totalPrefixes"`
	TotalNodes    int `json:"totalNodes"`
}

// Stats returns the insert count and the number of nodes including the root
func (t *Trie) Stats() Stats {
	return Stats{
		TotalPrefixes: t.prefixCount,
		TotalNodes:    t.root.count(),
	}
}
