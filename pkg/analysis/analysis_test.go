package analysis

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/netpec/pkg/metrics"
	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/pec"
	"github.com/newtron-network/netpec/pkg/topology"
	"github.com/newtron-network/netpec/pkg/util"
)

const edgeConfig = `version 15.2
hostname edge
!
interface GigabitEthernet0/0
 ip address 192.168.10.1 255.255.255.0
!
ip route 192.168.20.0 255.255.255.0 192.168.10.2
ip prefix-list PL_OUT seq 5 permit 192.168.20.0/24
!
route-map RM_OUT permit 10
 match ip address prefix-list PL_OUT
!
end
`

func newTestAnalyzer(t *testing.T, topo *topology.File) *Analyzer {
	t.Helper()
	cache, err := NewCache(4)
	require.NoError(t, err)
	return &Analyzer{Topology: topo, Metrics: metrics.NewRegistry(), Cache: cache}
}

func TestAnalyzeFiles_Fixture(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	result, err := a.AnalyzeFiles("../parser/testdata/r1.cfg")
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID.String())
	assert.Len(t, result.Fingerprint, 16)
	assert.Equal(t, []string{"r1"}, result.Hostnames)
	assert.True(t, result.Validation.Valid, "validation errors: %v", result.Validation.Errors)
	assert.NotEmpty(t, result.PECs)
	assert.Equal(t, len(result.PECs), result.PECStats.TotalPECs)
	assert.GreaterOrEqual(t, result.PECStats.CollectedPECs, result.PECStats.TotalPECs)
	assert.Equal(t, result.TrieStats.TotalNodes, result.Tree.Count())

	// the pending host in UNUSED and the bad wildcard in PERMIT_TRUSTED_IN
	assert.Equal(t, map[string]int{ReasonUnresolvedAddress: 2}, result.SkippedBy())

	t.Run("interface subnet", func(t *testing.T) {
		lookup, err := result.LookupIP("10.0.12.5")
		require.NoError(t, err)
		assert.Equal(t, "10.0.12.0/24", lookup.Prefix)
		assert.Equal(t, "r1", lookup.Origin)
		require.NotNil(t, lookup.PEC)

		var types []model.SourceType
		for _, s := range lookup.Sources {
			types = append(types, s.Type)
		}
		assert.ElementsMatch(t, []model.SourceType{model.SourceInterface, model.SourceOSPF}, types)
	})

	t.Run("host entry", func(t *testing.T) {
		lookup, err := result.LookupIP("10.0.12.2")
		require.NoError(t, err)
		assert.Equal(t, "10.0.12.2/32", lookup.Prefix)
		assert.Equal(t, model.SourceAccessList, lookup.Sources[0].Type)
	})

	t.Run("default weights", func(t *testing.T) {
		node, err := result.Trie().Search("10.0.12.0/24")
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"r0": 10, "r1": 10, "r2": 10, "r3": 10}, node.Weights)
	})

	t.Run("route-map sources", func(t *testing.T) {
		node, err := result.Trie().Search("192.168.0.0/16")
		require.NoError(t, err)
		var found bool
		for _, s := range node.Sources {
			if s.Type == model.SourceRouteMap && s.ListName == "RM_EXPORT" && s.Action == model.ActionPermit {
				found = true
			}
		}
		assert.True(t, found, "route-map source missing from %v", node.Sources)
	})
}

func TestAnalyze_SkipsBadRecords(t *testing.T) {
	reg := metrics.NewRegistry()
	a := &Analyzer{Metrics: reg}

	cfg := model.NewConfig("r9")
	cfg.StaticRoutes = append(cfg.StaticRoutes,
		&model.StaticRoute{Prefix: "10.0.0.0/255.0.x.0"},
		&model.StaticRoute{Prefix: "10.1.0.0/16", NextHop: "not-an-ip"},
		&model.StaticRoute{Prefix: "10.2.0.0/16", NextHop: "10.9.9.9"},
	)

	result, err := a.Analyze(cfg)
	require.NoError(t, err)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, ReasonInvalidPrefix, result.Skipped[0].Reason)
	assert.Equal(t, "10.0.0.0/255.0.x.0", result.Skipped[0].Value)
	assert.Equal(t, ReasonInvalidRecord, result.Skipped[1].Reason)
	assert.Contains(t, result.Skipped[1].Error, "NextHop")
	assert.Equal(t, 1, result.TrieStats.TotalPrefixes)

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.InsertErrors.WithLabelValues(ReasonInvalidPrefix)))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.InsertErrors.WithLabelValues(ReasonInvalidRecord)))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.PrefixesInserted.WithLabelValues(string(model.SourceStaticRoute))))
}

func TestAnalyze_NoConfigs(t *testing.T) {
	_, err := (&Analyzer{}).Analyze()
	assert.True(t, errors.Is(err, ErrNoConfigs))

	_, err = (&Analyzer{}).AnalyzeText()
	assert.True(t, errors.Is(err, ErrNoConfigs))
}

func TestAnalyze_MultipleRouters(t *testing.T) {
	topo, err := topology.Parse([]byte("links:\n  - endpoints: [edge, r1]\n    cost: 6\n"))
	require.NoError(t, err)
	a := newTestAnalyzer(t, topo)

	r1 := model.NewConfig("r1")
	r1.BGPNetworks = append(r1.BGPNetworks, &model.BGPNetwork{Prefix: "172.16.0.0/16", Mask: "255.255.0.0"})
	edge := model.NewConfig("edge")
	edge.BGPNetworks = append(edge.BGPNetworks, &model.BGPNetwork{Prefix: "172.16.0.0/16", Mask: "255.255.0.0"})

	result, err := a.Analyze(r1, edge, r1)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "edge"}, result.Hostnames)

	node, err := result.Trie().Search("172.16.0.0/16")
	require.NoError(t, err)
	assert.Len(t, node.Sources, 3, "every insert appends a source")
	assert.Equal(t, "r1", node.Origin, "last inserted router wins")
	assert.Equal(t, map[string]int{"edge": 6, "r1": 6}, node.Weights)
}

func TestAnalyzeText_Cache(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	first, err := a.AnalyzeText(edgeConfig)
	require.NoError(t, err)
	second, err := a.AnalyzeText(edgeConfig)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, a.Cache.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(a.Metrics.CacheRequests.WithLabelValues(metrics.CacheHit)))
	assert.Equal(t, float64(1), testutil.ToFloat64(a.Metrics.CacheRequests.WithLabelValues(metrics.CacheMiss)))

	// a different topology is a different input
	a.Topology = topology.Default("edge")
	third, err := a.AnalyzeText(edgeConfig)
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
	assert.Equal(t, 2, a.Cache.Len())
}

func TestAnalyzeText_RouteMap(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	result, err := a.AnalyzeText(edgeConfig)
	require.NoError(t, err)
	assert.Empty(t, result.Skipped)

	node, err := result.Trie().Search("192.168.20.0/24")
	require.NoError(t, err)
	require.Len(t, node.Sources, 3)
	assert.Equal(t, model.SourceStaticRoute, node.Sources[0].Type)
	assert.Equal(t, model.SourcePrefixList, node.Sources[1].Type)
	assert.Equal(t, model.SourceRouteMap, node.Sources[2].Type)
	assert.Equal(t, "seq 10", node.Sources[2].Description)

	lookup, err := result.LookupIP("192.168.20.9")
	require.NoError(t, err)
	assert.Equal(t, []string{"PL_OUT"}, lookup.PEC.Characteristics.RoutingPolicies.PrefixLists)
	assert.Equal(t, []string{"RM_OUT"}, lookup.PEC.Characteristics.RoutingPolicies.RouteMaps)
}

func TestLookupIP_Errors(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	result, err := a.AnalyzeText(edgeConfig)
	require.NoError(t, err)

	_, err = result.LookupIP("300.1.1.1")
	assert.True(t, errors.Is(err, util.ErrInvalidAddressFormat))

	var decoded Result
	data, err := json.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.ID, decoded.ID)
	assert.Len(t, decoded.PECs, len(result.PECs))

	_, err = decoded.LookupIP("192.168.20.1")
	assert.Error(t, err, "decoded results carry no trie")
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint([]byte("ab"), []byte("c"))
	require.NoError(t, err)
	b, err := Fingerprint([]byte("a"), []byte("bc"))
	require.NoError(t, err)
	again, err := Fingerprint([]byte("ab"), []byte("c"))
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
}

func TestCache_Eviction(t *testing.T) {
	c, err := NewCache(2)
	require.NoError(t, err)
	for _, fp := range []string{"a", "b", "c"} {
		c.Add(&Result{Fingerprint: fp})
	}
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
	r, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, "c", r.Fingerprint)

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestResult_KindsRecorded(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	result, err := a.AnalyzeText(edgeConfig)
	require.NoError(t, err)

	for kind, n := range result.PECStats.TypeDistribution {
		assert.Equal(t, float64(n), testutil.ToFloat64(a.Metrics.PECs.WithLabelValues(string(kind))), "kind %s", kind)
	}
	assert.Equal(t, float64(result.TrieStats.TotalNodes), testutil.ToFloat64(a.Metrics.TrieNodes))
	assert.Contains(t, result.PECStats.TypeDistribution, pec.KindExact)
}
