package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netpec/pkg/analysis"
	"github.com/newtron-network/netpec/pkg/audit"
	"github.com/newtron-network/netpec/pkg/cli"
	"github.com/newtron-network/netpec/pkg/export"
	"github.com/newtron-network/netpec/pkg/metrics"
)

var (
	analyzeFormat      string
	analyzeOutput      string
	analyzeTree        bool
	analyzeResultFile  string
	analyzePublish     bool
	analyzeMetricsFile string
	analyzeShowSkipped bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <config|dir>...",
	Short: "Extract PECs from router configurations",
	Long: `Analyze one or more router configurations together and print their
packet equivalence classes.

Directories are expanded to the .cfg, .conf and .txt files they contain.

Formats:
  table  aligned columns (default, or default_format from settings)
  json   array of PEC objects
  csv    every field quoted, source types joined with ';'
  txt    plain text report

Examples:
  netpec analyze configs/
  netpec analyze r1.cfg r2.cfg --format csv -o pecs.csv
  netpec analyze r1.cfg --tree
  netpec analyze r1.cfg -t lab.yaml --publish
  netpec analyze r1.cfg --result analysis.json --metrics-file netpec.prom`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := analyzeFormat
		if format == "" {
			format = app.settings.GetFormat()
		}
		if _, err := export.ParseFormat(format); err != nil {
			return err
		}

		result, err := analyzeArgs(args)
		if err != nil {
			return err
		}

		w, closeOut, err := createOutput(analyzeOutput, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := export.Write(w, format, result.PECs); err != nil {
			closeOut()
			return fmt.Errorf("writing %s: %w", format, err)
		}
		if err := closeOut(); err != nil {
			return err
		}

		stderr := cmd.ErrOrStderr()
		if analyzeOutput != "" {
			fmt.Fprintf(stderr, "Wrote %d PECs to %s\n", len(result.PECs), analyzeOutput)
		}
		if analyzeTree {
			if err := export.DumpTree(cmd.OutOrStdout(), result.Tree); err != nil {
				return err
			}
		}
		if analyzeResultFile != "" {
			if err := writeResultFile(analyzeResultFile, result); err != nil {
				return err
			}
		}
		if analyzeMetricsFile != "" {
			if err := metrics.DefaultRegistry().WriteTextfile(analyzeMetricsFile); err != nil {
				return fmt.Errorf("writing metrics: %w", err)
			}
		}

		printSkipped(stderr, result, analyzeShowSkipped)
		if !result.Validation.Valid {
			fmt.Fprintln(stderr, cli.Yellow(fmt.Sprintf("warning: %d PEC validation errors (run 'netpec validate')", len(result.Validation.Errors))))
		}

		if analyzePublish {
			return publish(cmd.Context(), stderr, result)
		}
		return nil
	},
}

func writeResultFile(path string, result *analysis.Result) error {
	w, closeOut, err := createOutput(path, nil)
	if err != nil {
		return err
	}
	if err := writeJSON(w, result); err != nil {
		closeOut()
		return fmt.Errorf("writing result: %w", err)
	}
	return closeOut()
}

// printSkipped prints a one-line summary of skipped records, or every
// record when all is set
func printSkipped(w io.Writer, result *analysis.Result, all bool) {
	if len(result.Skipped) == 0 {
		return
	}
	if !all {
		fmt.Fprintf(w, "%d records skipped %v (use --skipped to list)\n", len(result.Skipped), result.SkippedBy())
		return
	}
	t := cli.NewTableTo(w, "ROUTER", "TYPE", "VALUE", "REASON", "ERROR")
	for _, s := range result.Skipped {
		t.Row(s.Router, string(s.Type), s.Value, s.Reason, cli.OrNA(s.Error))
	}
	t.Flush()
}

func publish(ctx context.Context, w io.Writer, result *analysis.Result) error {
	if ctx == nil {
		ctx = context.Background()
	}
	event := audit.NewEvent(currentUser(), audit.EventTypePublish).
		WithRouters(result.Hostnames...).
		WithSource(app.settings.GetRedisAddr()).
		WithAnalysis(result.ID.String(), result.Fingerprint, result.TrieStats.TotalPrefixes, len(result.PECs), len(result.Skipped))

	err := func() error {
		s, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		return s.Publish(ctx, result)
	}()
	logAudit(event.Finish(err))
	if err != nil {
		return fmt.Errorf("publishing: %w", err)
	}
	fmt.Fprintf(w, "Published analysis %s\n", cli.Bold(result.ID.String()))
	return nil
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "", "Output format: table, json, csv, txt")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Write PECs to file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeTree, "tree", false, "Also print the trie")
	analyzeCmd.Flags().StringVar(&analyzeResultFile, "result", "", "Write the full analysis (trie, PECs, stats) as JSON")
	analyzeCmd.Flags().BoolVar(&analyzePublish, "publish", false, "Publish the analysis to Redis")
	analyzeCmd.Flags().StringVar(&analyzeMetricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format")
	analyzeCmd.Flags().BoolVar(&analyzeShowSkipped, "skipped", false, "List records that could not be inserted")
}
