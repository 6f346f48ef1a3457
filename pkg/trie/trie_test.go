package trie

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/util"
)

func static(router string) model.SourceRecord {
	return model.SourceRecord{Type: model.SourceStaticRoute, Router: router}
}

func TestInsert_CreatesPath(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Insert("10.0.0.0/8", static("r1")))

	node, err := tr.Search("10.0.0.0/8")
	require.NoError(t, err)
	assert.True(t, node.IsTerminal)
	assert.Equal(t, 8, node.BitPosition)
	assert.Equal(t, "10.0.0.0/8", node.Prefix)
	assert.Equal(t, "r1", node.Origin)
	assert.Equal(t, 1, tr.PrefixCount())

	// root + 8 path nodes
	assert.Equal(t, Stats{TotalPrefixes: 1, TotalNodes: 9}, tr.Stats())

	// every node on the path records its depth
	depth := 0
	tr.Walk(func(n *Node, path addr.Bits) {
		assert.Equal(t, len(path), n.BitPosition)
		depth++
	})
	assert.Equal(t, 9, depth)
}

func TestInsert_DuplicatePrefixAppendsSource(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Insert("10.0.0.0/8", static("r1")))
	require.NoError(t, tr.Insert("10.0.0.0/8", model.SourceRecord{Type: model.SourceBGP, Router: "r2"}))

	node, err := tr.Search("10.0.0.0/8")
	require.NoError(t, err)
	require.Len(t, node.Sources, 2)
	assert.Equal(t, model.SourceStaticRoute, node.Sources[0].Type)
	assert.Equal(t, model.SourceBGP, node.Sources[1].Type)
	assert.Equal(t, "r2", node.Origin, "latest router wins")
	assert.Equal(t, 2, tr.PrefixCount())
	assert.Equal(t, 9, tr.Stats().TotalNodes)
}

func TestInsert_OriginKeptWhenRouterMissing(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Insert("10.0.0.0/8", static("r1")))
	require.NoError(t, tr.Insert("10.0.0.0/8", model.SourceRecord{Type: model.SourcePrefixList, ListName: "PL"}))

	node, err := tr.Search("10.0.0.0/8")
	require.NoError(t, err)
	assert.Equal(t, "r1", node.Origin)
}

func TestInsert_InvalidPrefixLeavesTrieUntouched(t *testing.T) {
	tr := New()
	for _, bad := range []string{"10.0.0.0", "10.0.0.0/33", "300.0.0.0/8", "x/8"} {
		err := tr.Insert(bad, static("r1"))
		assert.ErrorIs(t, err, util.ErrInvalidPrefixFormat, bad)
	}
	assert.Equal(t, 0, tr.PrefixCount())
	assert.Equal(t, 1, tr.Stats().TotalNodes)
}

func TestInsert_DefaultRoute(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Insert("0.0.0.0/0", static("r1")))
	assert.True(t, tr.Root().IsTerminal)

	node, err := tr.LongestMatch("203.0.113.9")
	require.NoError(t, err)
	assert.Same(t, tr.Root(), node)
}

func TestWeights(t *testing.T) {
	tr := New()
	tr.SetTopology(Topology{
		"r1": {"r2": 10, "r3": 20},
		"r2": {"r1": 10, "r3": 5},
		"r3": {},
	})
	require.NoError(t, tr.Insert("10.0.0.0/8", static("r1")))

	node, err := tr.Search("10.0.0.0/8")
	require.NoError(t, err)
	// r2 mean is 7.5 which rounds up
	assert.Equal(t, map[string]int{"r1": 15, "r2": 8, "r3": DefaultWeight}, node.Weights)
}

func TestWeights_EmptyTopologyIsNoop(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Insert("10.0.0.0/8", static("r1")))
	node, _ := tr.Search("10.0.0.0/8")
	assert.Empty(t, node.Weights)
	assert.NotNil(t, node.Weights)

	// weights given under a topology survive a later insert once the
	// topology is cleared
	tr.SetTopology(Topology{"r1": {"r2": 4}})
	require.NoError(t, tr.Insert("10.0.0.0/8", static("r1")))
	tr.SetTopology(nil)
	require.NoError(t, tr.Insert("10.0.0.0/8", static("r1")))
	assert.Equal(t, map[string]int{"r1": 4}, node.Weights)
}

func TestWeights_EarlierInsertsKeepWeights(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Insert("10.0.0.0/8", static("r1")))
	tr.SetTopology(Topology{"r1": {"r2": 4}})
	require.NoError(t, tr.Insert("172.16.0.0/12", static("r1")))

	early, _ := tr.Search("10.0.0.0/8")
	late, _ := tr.Search("172.16.0.0/12")
	assert.Empty(t, early.Weights)
	assert.Equal(t, map[string]int{"r1": 4}, late.Weights)
}

func TestSearch(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Insert("10.1.0.0/16", static("r1")))

	tests := []struct {
		name    string
		prefix  string
		wantErr error
	}{
		{"exact", "10.1.0.0/16", nil},
		{"host bits ignored", "10.1.255.255/16", nil},
		{"ancestor is not terminal", "10.0.0.0/8", util.ErrNotFound},
		{"missing path", "192.168.0.0/16", util.ErrNotFound},
		{"longer than stored", "10.1.2.0/24", util.ErrNotFound},
		{"malformed", "10.1.0.0", util.ErrInvalidPrefixFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := tr.Search(tt.prefix)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, node)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "10.1.0.0/16", node.Prefix)
		})
	}
}

func TestLongestMatch(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Insert("10.0.0.0/8", static("r1")))
	require.NoError(t, tr.Insert("10.1.0.0/16", static("r2")))

	tests := []struct {
		ip      string
		want    string
		wantErr error
	}{
		{"10.1.2.3", "10.1.0.0/16", nil},
		{"10.2.0.0", "10.0.0.0/8", nil},
		{"10.1.0.0", "10.1.0.0/16", nil},
		{"11.0.0.1", "", util.ErrNotFound},
		{"10.1.2", "", util.ErrInvalidAddressFormat},
	}
	for _, tt := range tests {
		node, err := tr.LongestMatch(tt.ip)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, tt.ip)
			continue
		}
		require.NoError(t, err, tt.ip)
		assert.Equal(t, tt.want, node.Prefix, tt.ip)
	}
}

func TestTraverse_Order(t *testing.T) {
	tr := New()
	// inserted out of order on purpose
	for _, p := range []string{"192.168.1.0/24", "10.1.0.0/16", "128.0.0.0/1", "10.0.0.0/8", "0.0.0.0/1"} {
		require.NoError(t, tr.Insert(p, static("r1")))
	}

	var got []string
	tr.Traverse(func(n *Node, path addr.Bits) {
		bits, err := addr.PrefixToBits(n.Prefix)
		require.NoError(t, err)
		assert.Equal(t, bits.String(), path.String(), "path matches prefix bits")
		got = append(got, n.Prefix)
	})
	assert.Equal(t, []string{"0.0.0.0/1", "10.0.0.0/8", "10.1.0.0/16", "128.0.0.0/1", "192.168.1.0/24"}, got)

	prefixes := tr.Prefixes()
	require.Len(t, prefixes, 5)
	assert.Equal(t, "10.1.0.0/16", prefixes[2].Prefix)
	assert.Equal(t, 16, prefixes[2].BitPosition)
}

func TestWalk_PathsAreIndependent(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Insert("0.0.0.0/2", static("r1")))
	require.NoError(t, tr.Insert("64.0.0.0/2", static("r1")))

	var paths []addr.Bits
	tr.Walk(func(_ *Node, path addr.Bits) {
		paths = append(paths, path)
	})
	var rendered []string
	for _, p := range paths {
		rendered = append(rendered, p.String())
	}
	assert.Equal(t, []string{"", "0", "00", "01"}, rendered)
}

func TestSnapshot(t *testing.T) {
	tr := New()
	tr.SetTopology(Topology{"r1": {"r2": 10}})
	require.NoError(t, tr.Insert("128.0.0.0/1", static("r1")))

	view := tr.Snapshot()
	assert.Equal(t, 2, view.Count())
	require.Len(t, view.Children, 1)
	assert.Equal(t, addr.Bit(1), view.Children[0].Bit)
	child := view.Children[0].Node
	assert.True(t, child.IsTerminal)
	assert.Equal(t, "128.0.0.0/1", child.Prefix)
	assert.Equal(t, map[string]int{"r1": 10}, child.Weights)

	// mutating the view must not reach the trie
	child.Weights["r9"] = 1
	child.Sources[0].Router = "changed"
	node, _ := tr.Search("128.0.0.0/1")
	assert.NotContains(t, node.Weights, "r9")
	assert.Equal(t, "r1", node.Sources[0].Router)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bit":1`)
	assert.Contains(t, string(data), `"children":[]`)
}

func TestLongestMatchProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("LongestMatch agrees with a linear scan", prop.ForAll(
		func(values []uint32, probe uint32) bool {
			tr := New()
			best := -1
			ip := addr.FormatIP(probe)
			for _, v := range values {
				prefix := addr.FormatIP(v) + "/" + strconv.Itoa(int(v%33))
				if err := tr.Insert(prefix, static("r1")); err != nil {
					return false
				}
				if ok, _ := addr.Contains(prefix, ip); ok && int(v%33) > best {
					best = int(v % 33)
				}
			}

			node, err := tr.LongestMatch(ip)
			if best < 0 {
				return errors.Is(err, util.ErrNotFound)
			}
			return err == nil && node.BitPosition == best
		},
		gen.SliceOf(gen.UInt32()),
		gen.UInt32(),
	))

	properties.TestingRun(t)
}
