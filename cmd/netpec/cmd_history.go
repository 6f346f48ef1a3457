package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netpec/pkg/audit"
	"github.com/newtron-network/netpec/pkg/cli"
)

var (
	historyRouter    string
	historyUser      string
	historyOperation string
	historyLast      string
	historyLimit     int
	historyFailures  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past analyses, fetches and publishes",
	Long: `Show the audit history kept in audit_log (default ~/.netpec/audit.log).

Every analyze, fetch, publish and delete is recorded with:
  - Timestamp and user
  - Routers involved
  - Prefix and PEC counts
  - Success/failure status

Examples:
  netpec history --router r1
  netpec history --last 24h
  netpec history --operation publish --failures`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			Router:      historyRouter,
			User:        historyUser,
			Operation:   audit.EventType(historyOperation),
			FailureOnly: historyFailures,
		}
		if historyLast != "" {
			since, err := parseSince(historyLast, time.Now())
			if err != nil {
				return err
			}
			filter.StartTime = since
		}

		events, err := audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}
		// newest last; keep the most recent
		if historyLimit > 0 && len(events) > historyLimit {
			events = events[len(events)-historyLimit:]
		}

		out := cmd.OutOrStdout()
		if app.jsonOutput {
			return writeJSON(out, events)
		}
		if len(events) == 0 {
			fmt.Fprintln(out, "No history found")
			return nil
		}

		t := cli.NewTableTo(out, "TIMESTAMP", "USER", "OPERATION", "ROUTERS", "PREFIXES", "PECS", "STATUS")
		for _, event := range events {
			status := cli.Green("ok")
			if !event.Success {
				status = cli.Red("failed")
			}
			t.Row(
				event.Timestamp.Local().Format("2006-01-02 15:04:05"),
				event.User,
				string(event.Operation),
				cli.OrNA(strings.Join(event.Routers, ",")),
				strconv.Itoa(event.PrefixCount),
				strconv.Itoa(event.PECCount),
				status,
			)
		}
		t.Flush()
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyRouter, "router", "", "Filter by router")
	historyCmd.Flags().StringVar(&historyUser, "user", "", "Filter by user")
	historyCmd.Flags().StringVar(&historyOperation, "operation", "", "Filter by operation (analyze, fetch, publish, delete)")
	historyCmd.Flags().StringVar(&historyLast, "last", "", "Show events from last duration (e.g., 24h, 7d)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 100, "Maximum events to show")
	historyCmd.Flags().BoolVar(&historyFailures, "failures", false, "Show only failed operations")
}
