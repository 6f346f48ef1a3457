package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netpec/pkg/analysis"
	"github.com/newtron-network/netpec/pkg/cli"
)

var statsCmd = &cobra.Command{
	Use:   "stats <config|dir>...",
	Short: "Show trie and PEC statistics",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := analyzeArgs(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if app.jsonOutput {
			return writeJSON(out, map[string]any{
				"id":         result.ID,
				"hostnames":  result.Hostnames,
				"trieStats":  result.TrieStats,
				"pecStats":   result.PECStats,
				"skipped":    result.SkippedBy(),
				"durationMs": result.Duration.Milliseconds(),
			})
		}
		printStats(out, result)
		return nil
	},
}

func printStats(w io.Writer, r *analysis.Result) {
	line := func(name string, value any) {
		fmt.Fprintf(w, "%s %v\n", cli.DotPad(name, 20), value)
	}
	line("Routers", len(r.Hostnames))
	line("Prefixes", r.TrieStats.TotalPrefixes)
	line("Trie nodes", r.TrieStats.TotalNodes)
	line("PECs collected", r.PECStats.CollectedPECs)
	line("PECs after merge", r.PECStats.TotalPECs)
	line("Records skipped", len(r.Skipped))
	line("Duration", r.Duration.Round(time.Microsecond))

	section := func(title string, counts map[string]int) {
		if len(counts) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s\n", cli.Bold(title))
		t := cli.NewTableTo(w, "VALUE", "COUNT").WithPrefix("  ")
		for _, k := range sortedCountKeys(counts) {
			t.Row(k, strconv.Itoa(counts[k]))
		}
		t.Flush()
	}

	kinds := map[string]int{}
	for k, n := range r.PECStats.TypeDistribution {
		kinds[string(k)] = n
	}
	lengths := map[string]int{}
	for l, n := range r.PECStats.PrefixLengthDistribution {
		lengths[fmt.Sprintf("/%02d", l)] = n
	}

	section("PEC types", kinds)
	section("Prefix lengths", lengths)
	section("Source types", r.PECStats.SourceTypeDistribution)
	section("Origin routers", r.PECStats.RouterDistribution)
	section("OSPF origins", r.PECStats.OSPFConfigDistribution)
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
