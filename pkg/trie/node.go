package trie

import (
	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/model"
)

// Node is one position in the trie. The root sits at BitPosition 0 and every
// child is one bit deeper than its parent.
type Node struct {
	BitPosition int
	IsTerminal  bool
	Prefix      string // set only on terminal nodes, as inserted
	Sources     []model.SourceRecord
	Origin      string
	Weights     map[string]int

	children [2]*Node
}

func newNode(depth int) *Node {
	return &Node{
		BitPosition: depth,
		Sources:     []model.SourceRecord{},
		Weights:     map[string]int{},
	}
}

// Child returns the child reached by bit, or nil.
func (n *Node) Child(bit addr.Bit) *Node {
	return n.children[bit&1]
}

// ChildCount returns the number of occupied child slots (0, 1 or 2).
func (n *Node) ChildCount() int {
	count := 0
	for _, c := range n.children {
		if c != nil {
			count++
		}
	}
	return count
}

// IsLeaf returns true if the node has no children
func (n *Node) IsLeaf() bool {
	return n.children[0] == nil && n.children[1] == nil
}

func (n *Node) ensureChild(bit addr.Bit) *Node {
	if n.children[bit] == nil {
		n.children[bit] = newNode(n.BitPosition + 1)
	}
	return n.children[bit]
}

func (n *Node) count() int {
	total := 1
	for _, c := range n.children {
		if c != nil {
			total += c.count()
		}
	}
	return total
}
