package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/codex-stevenh/clinmatch-AACT/internal/config"
	"github.com/codex-stevenh/clinmatch-AACT/internal/render"
	"github.com/codex-stevenh/clinmatch-AACT/internal/study"
)

var previewDSN string

// previewCmd renders the export document without dispatching it.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the export document to stdout without dispatching",
	Long: `The preview command runs the fetch and render stages only: it connects to
the configured AACT database, fetches every study, renders the document, and
writes it to stdout. Nothing is sent to the remote function.

Useful for inspecting the document a subsequent export would dispatch.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if previewDSN != "" {
			cfg.DB.DSN = previewDSN
		}

		ctx := cmd.Context()
		reader, err := study.Connect(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer reader.Close(ctx)

		records, err := reader.Fetch(ctx)
		if err != nil {
			return err
		}

		doc := render.RenderAll(records)
		fmt.Print(doc.Text)
		pterm.Println()
		pterm.Info.Printfln("%d records, %d bytes", doc.RecordCount, len(doc.Text))
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewDSN, "dsn", "", "PostgreSQL connection string (overrides config and env)")
	rootCmd.AddCommand(previewCmd)
}
