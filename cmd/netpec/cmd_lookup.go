package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netpec/pkg/cli"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <ip> <config|dir>...",
	Short: "Show the PEC and longest matching prefix of an address",
	Example: `  netpec lookup 10.0.12.5 configs/r1.cfg
  netpec lookup 192.168.20.9 configs/ --json`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := analyzeArgs(args[1:])
		if err != nil {
			return err
		}
		lookup, err := result.LookupIP(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if app.jsonOutput {
			return writeJSON(out, lookup)
		}

		fmt.Fprintf(out, "%s %s\n", cli.DotPad("Address", 16), cli.Bold(lookup.IP))
		fmt.Fprintf(out, "%s %s\n", cli.DotPad("Longest match", 16), lookup.Prefix)
		fmt.Fprintf(out, "%s %s\n", cli.DotPad("Origin", 16), cli.OrNA(lookup.Origin))
		if p := lookup.PEC; p != nil {
			fmt.Fprintf(out, "%s PEC %d %s (%s)\n", cli.DotPad("Class", 16), p.ID, p.Prefix, cli.Kind(string(p.Kind)))
			fmt.Fprintf(out, "%s %s - %s\n", cli.DotPad("Range", 16), p.IPRange.Start, p.IPRange.End)
			if pl := p.Characteristics.RoutingPolicies.PrefixLists; len(pl) > 0 {
				fmt.Fprintf(out, "%s %s\n", cli.DotPad("Prefix lists", 16), strings.Join(pl, ", "))
			}
			if rm := p.Characteristics.RoutingPolicies.RouteMaps; len(rm) > 0 {
				fmt.Fprintf(out, "%s %s\n", cli.DotPad("Route-maps", 16), strings.Join(rm, ", "))
			}
		}

		if len(lookup.Sources) == 0 {
			return nil
		}
		fmt.Fprintln(out)
		t := cli.NewTableTo(out, "ROUTER", "TYPE", "DETAIL")
		for _, s := range lookup.Sources {
			t.Row(s.Router, string(s.Type), sourceDetail(s.Interface, s.PolicyName(), s.NextHop, s.Action))
		}
		t.Flush()
		return nil
	},
}

// sourceDetail joins the non-empty identifying fields of a source record
func sourceDetail(fields ...string) string {
	var parts []string
	for _, f := range fields {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return cli.OrNA(strings.Join(parts, " "))
}
