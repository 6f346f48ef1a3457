// Netpec - Packet Equivalence Class analyzer for router configurations
//
// Reads Cisco-style running configurations, inserts every prefix they
// mention (static routes, ACLs, prefix lists, interface subnets, BGP and
// OSPF networks, route-maps) into a binary prefix trie, and reports the
// packet equivalence classes the trie induces.
//
// Examples:
//
//	netpec analyze configs/r1.cfg configs/r2.cfg            # PEC table
//	netpec analyze configs/*.cfg --format csv -o pecs.csv   # export
//	netpec analyze configs/*.cfg --publish                  # store in Redis
//	netpec lookup 10.0.12.5 configs/r1.cfg                  # class of an address
//	netpec tree configs/r1.cfg                              # trie dump
//	netpec fetch r1 r2 -o configs/ --analyze                # SSH + analyze
//	netpec published list
//	netpec history --last 24h
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newtron-network/netpec/pkg/audit"
	"github.com/newtron-network/netpec/pkg/cli"
	"github.com/newtron-network/netpec/pkg/settings"
	"github.com/newtron-network/netpec/pkg/util"
	"github.com/newtron-network/netpec/pkg/version"
)

// App holds global flags and state shared by every command
type App struct {
	topologyPath string
	verbose      bool
	logJSON      bool
	jsonOutput   bool
	noColor      bool

	settings *settings.Settings
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.Red("Error:"), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "netpec",
	Short:             "Packet Equivalence Class analyzer",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Netpec computes packet equivalence classes (PECs) from router
configurations.

Every prefix a configuration mentions is inserted into a binary prefix trie;
addresses that reach the same trie node are treated alike by every router
and form one class. Classes one bit apart are merged in a single left to
right pass when their routing policies and OSPF summaries are equal.

  netpec analyze <config>... [--format table|json|csv|txt] [-o file]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if app.logJSON {
			util.SetJSONFormat()
		}
		cli.SetColor(!app.noColor && os.Getenv("NO_COLOR") == "")

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			app.settings = &settings.Settings{}
			app.settings.ApplyEnv()
		}

		if isSettingsOrHelp(cmd) {
			return nil
		}

		if app.topologyPath == "" {
			app.topologyPath = app.settings.DefaultTopology
		}

		auditLogger, err := audit.NewFileLogger(app.settings.GetAuditLog(), audit.DefaultRotation)
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.topologyPath, "topology", "t", "", "Topology YAML with link costs (default: r0-r3 plus every analyzed router, cost 10)")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&app.logJSON, "log-json", false, "Log in JSON format")
	rootCmd.PersistentFlags().BoolVar(&app.noColor, "no-color", false, "Disable colored output")

	for _, cmd := range []*cobra.Command{lookupCmd, statsCmd, validateCmd, publishedListCmd, publishedShowCmd, historyCmd, versionCmd} {
		addOutputFlags(cmd)
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "analysis", Title: "Analysis:"},
		&cobra.Group{ID: "device", Title: "Devices & Storage:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{analyzeCmd, lookupCmd, treeCmd, statsCmd, validateCmd} {
		cmd.GroupID = "analysis"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{fetchCmd, publishedCmd} {
		cmd.GroupID = "device"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, historyCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if app.jsonOutput {
			return writeJSON(out, version.Map())
		}
		if version.Version == "dev" {
			fmt.Fprintln(out, "netpec dev build (use 'make build' for version info)")
		} else {
			fmt.Fprintf(out, "netpec %s\n", version.Info())
		}
		return nil
	},
}

// isSettingsOrHelp checks whether cmd (or any ancestor) is a settings, help, or version command.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings":
			return true
		}
	}
	return false
}

// addOutputFlags registers --json as a local flag.
// For group parent commands, this is a PersistentFlag so subcommands inherit.
func addOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if cmd.HasSubCommands() {
		flags = cmd.PersistentFlags()
	}
	flags.BoolVar(&app.jsonOutput, "json", false, "JSON output")
}
