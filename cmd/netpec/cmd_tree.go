package main

import (
	"github.com/spf13/cobra"

	"github.com/newtron-network/netpec/pkg/export"
)

var treeJSON bool

var treeCmd = &cobra.Command{
	Use:   "tree <config|dir>...",
	Short: "Print the prefix trie",
	Long: `Print the prefix trie built from the configurations.

Only the root, branching nodes and nodes holding a prefix are printed;
single-child chains are collapsed. --json prints every node.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := analyzeArgs(args)
		if err != nil {
			return err
		}
		if treeJSON {
			return export.TreeJSON(cmd.OutOrStdout(), result.Tree)
		}
		return export.DumpTree(cmd.OutOrStdout(), result.Tree)
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "Print the full trie as JSON")
}
