// Package cmd provides the command-line interface for clinmatch.
// It implements the export pipeline and its supporting commands using the
// Cobra CLI framework. The package handles command parsing, configuration
// resolution, and terminal output; the pipeline itself lives under internal/.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	showVersion bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "clinmatch",
	Short:         "Export clinical studies from an AACT database to a remote ingest function",
	Long:          `clinmatch reads clinical-study records from an AACT-style PostgreSQL database, renders them into a single plain-text document, and dispatches the document to a named remote function.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("clinmatch %s\n", Version)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
}
