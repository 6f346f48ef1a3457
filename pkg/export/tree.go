package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/trie"
)

// DumpTree writes an indented outline of the trie. Chains of single-child,
// non-terminal nodes are elided: only the root, branch points and prefix
// nodes are printed, each indented one level below its printed ancestor.
func DumpTree(w io.Writer, root *trie.NodeView) error {
	if root == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "### trie: nodes(%d)\n", root.Count()); err != nil {
		return err
	}
	return dumpRec(w, root, addr.Bits{}, 0)
}

func dumpRec(w io.Writer, n *trie.NodeView, path addr.Bits, level int) error {
	shown := len(path) == 0 || n.IsTerminal || len(n.Children) == 2
	if shown {
		if _, err := fmt.Fprintln(w, strings.Repeat("  ", level)+describeNode(n, path)); err != nil {
			return err
		}
		level++
	}
	for _, c := range n.Children {
		if err := dumpRec(w, c.Node, path.Append(c.Bit), level); err != nil {
			return err
		}
	}
	return nil
}

func describeNode(n *trie.NodeView, path addr.Bits) string {
	var b strings.Builder
	switch {
	case len(path) == 0:
		b.WriteString("[root]")
	case n.IsTerminal:
		b.WriteString("[prefix]")
	default:
		b.WriteString("[branch]")
	}
	fmt.Fprintf(&b, " depth: %d path: %s", len(path), addr.BitsToPrefix(path))
	if !n.IsTerminal {
		return b.String()
	}
	fmt.Fprintf(&b, " prefix: %s sources: %d", n.Prefix, len(n.Sources))
	if n.Origin != "" {
		fmt.Fprintf(&b, " origin: %s", n.Origin)
	}
	if len(n.Weights) > 0 {
		routers := make([]string, 0, len(n.Weights))
		for r := range n.Weights {
			routers = append(routers, r)
		}
		sort.Strings(routers)
		weights := make([]string, len(routers))
		for i, r := range routers {
			weights[i] = fmt.Sprintf("%s=%d", r, n.Weights[r])
		}
		fmt.Fprintf(&b, " weights: %s", strings.Join(weights, ","))
	}
	return b.String()
}

// TreeJSON writes the trie as indented JSON
func TreeJSON(w io.Writer, root *trie.NodeView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(root)
}
