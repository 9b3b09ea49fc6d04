// Package main provides the entry point for the cvemirror CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for cvemirror.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cvemirror",
		Short: "Local mirror of the NVD vulnerability database",
		Long: `cvemirror maintains a local mirror of the NVD vulnerability database.

It crawls the paginated API once to catch up, then keeps the mirror
current with periodic incremental updates. Records are stored as plain
JSON files in a year-sharded directory tree, and external reference
documents are archived alongside the records that cite them.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewMirrorCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
