// Package cli defines the metricmuse command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the root command with its subcommands.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "metricmuse",
		Short:         "Writing metrics API: grammar, readability, repetition and filler scores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./metricmuse.yaml)")

	root.AddCommand(newServeCommand(&cfgFile), newAnalyzeCommand())
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}
