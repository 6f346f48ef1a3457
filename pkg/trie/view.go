package trie

import (
	"maps"

	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/model"
)

// NodeView is a detached copy of a node and its subtree, safe to serialize
// and to hand to other goroutines.
type NodeView struct {
	BitPosition int                  `json:"bitPosition"`
	IsTerminal  bool                 `json:"isTerminal"`
	Prefix      string               `json:"prefix,omitempty"`
	Sources     []model.SourceRecord `json:"sources"`
	Origin      string               `json:"origin,omitempty"`
	Weights     map[string]int       `json:"weights"`
	Children    []ChildView          `json:"children"`
}

// ChildView pairs a child subtree with the bit that leads to it
type ChildView struct {
	Bit  addr.Bit  `json:"bit"`
	Node *NodeView `json:"node"`
}

// Snapshot returns a deep copy of the whole trie
func (t *Trie) Snapshot() *NodeView {
	return snapshot(t.root)
}

func snapshot(n *Node) *NodeView {
	v := &NodeView{
		BitPosition: n.BitPosition,
		IsTerminal:  n.IsTerminal,
		Prefix:      n.Prefix,
		Sources:     append([]model.SourceRecord{}, n.Sources...),
		Origin:      n.Origin,
		Weights:     maps.Clone(n.Weights),
		Children:    []ChildView{},
	}
	for bit, child := range n.children {
		if child != nil {
			v.Children = append(v.Children, ChildView{Bit: addr.Bit(bit), Node: snapshot(child)})
		}
	}
	return v
}

// Count returns the number of nodes in the view, itself included
func (v *NodeView) Count() int {
	total := 1
	for _, c := range v.Children {
		total += c.Node.Count()
	}
	return total
}
