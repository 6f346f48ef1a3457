package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netpec/pkg/audit"
	"github.com/newtron-network/netpec/pkg/cli"
	"github.com/newtron-network/netpec/pkg/export"
	"github.com/newtron-network/netpec/pkg/store"
)

var publishedCmd = &cobra.Command{
	Use:   "published",
	Short: "Browse analyses published to Redis",
	Long: `Browse analyses stored with 'netpec analyze --publish'.

Redis is reached at redis_addr (database redis_db). When redis_ssh_host is
set, the connection is tunneled through that host.

Examples:
  netpec published list
  netpec published show 6f1c2a7e-3b1f-4c52-9a51-0d3c2b1f9e11
  netpec published tree 6f1c2a7e-3b1f-4c52-9a51-0d3c2b1f9e11
  netpec published delete 6f1c2a7e-3b1f-4c52-9a51-0d3c2b1f9e11`,
}

// withStore runs fn with a connected store
func withStore(cmd *cobra.Command, fn func(ctx context.Context, s *store.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(ctx, s)
}

var publishedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published analyses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			summaries, err := s.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if app.jsonOutput {
				return writeJSON(out, summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No published analyses")
				return nil
			}
			t := cli.NewTableTo(out, "ID", "CREATED", "ROUTERS", "PREFIXES", "PECS", "SKIPPED", "STATUS")
			for _, sum := range summaries {
				t.Row(sum.ID,
					sum.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					strings.Join(sum.Hostnames, ","),
					strconv.Itoa(sum.Prefixes),
					strconv.Itoa(sum.PECs),
					strconv.Itoa(sum.Skipped),
					cli.Status(sum.Valid),
				)
			}
			t.Flush()
			return nil
		})
	},
}

var publishedShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the PECs of a published analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			p, err := s.Get(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if app.jsonOutput {
				return writeJSON(out, p)
			}

			fmt.Fprintf(out, "%s %s\n", cli.DotPad("Analysis", 14), cli.Bold(p.ID))
			fmt.Fprintf(out, "%s %s\n", cli.DotPad("Routers", 14), strings.Join(p.Hostnames, ", "))
			fmt.Fprintf(out, "%s %s\n", cli.DotPad("Created", 14), p.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "%s %s\n", cli.DotPad("Fingerprint", 14), cli.OrNA(p.Fingerprint))
			fmt.Fprintf(out, "%s %d (%d before merge)\n\n", cli.DotPad("PECs", 14), p.PECs, p.Collected)

			t := cli.NewTableTo(out, "ID", "PREFIX", "TYPE", "LEN", "SOURCES", "ORIGIN", "RANGE")
			for _, e := range p.Entries {
				t.Row(strconv.Itoa(e.ID), e.Prefix, cli.Kind(string(e.Kind)), strconv.Itoa(e.PrefixLength),
					strings.Join(e.SourceTypes, ","), cli.OrNA(e.Origin), e.Range)
			}
			t.Flush()
			return nil
		})
	},
}

var publishedTreeCmd = &cobra.Command{
	Use:   "tree <id>",
	Short: "Print the trie of a published analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			tree, err := s.Tree(ctx, args[0])
			if err != nil {
				return err
			}
			return export.DumpTree(cmd.OutOrStdout(), tree)
		})
	},
}

var publishedDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a published analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		event := audit.NewEvent(currentUser(), audit.EventTypeDelete).WithSource(app.settings.GetRedisAddr())
		event.AnalysisID = args[0]

		err := withStore(cmd, func(ctx context.Context, s *store.Store) error {
			return s.Delete(ctx, args[0])
		})
		logAudit(event.Finish(err))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted analysis %s\n", args[0])
		return nil
	},
}

func init() {
	publishedCmd.AddCommand(publishedListCmd)
	publishedCmd.AddCommand(publishedShowCmd)
	publishedCmd.AddCommand(publishedTreeCmd)
	publishedCmd.AddCommand(publishedDeleteCmd)
}
