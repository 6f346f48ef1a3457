//go:build integration

package testutil

import (
	"path/filepath"
	"testing"

	"github.com/newtron-network/netpec/pkg/analysis"
	"github.com/newtron-network/netpec/pkg/metrics"
)

// FixturePath returns the path of a parser fixture under pkg/parser/testdata.
func FixturePath(name string) string {
	return filepath.Join(ProjectRoot(), "pkg", "parser", "testdata", name)
}

// AnalyzedFixture analyzes the r1 fixture with the default topology.
func AnalyzedFixture(t *testing.T) *analysis.Result {
	t.Helper()
	a := &analysis.Analyzer{Metrics: metrics.NewRegistry()}
	result, err := a.AnalyzeFiles(FixturePath("r1.cfg"))
	if err != nil {
		t.Fatalf("analyzing fixture: %v", err)
	}
	return result
}
