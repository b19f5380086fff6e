package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/codex-stevenh/clinmatch-AACT/internal/config"
	"github.com/codex-stevenh/clinmatch-AACT/internal/logging"
	"github.com/codex-stevenh/clinmatch-AACT/internal/pipeline"
)

var (
	exportDSN      string
	exportFunction string
	exportRegion   string
)

// exportCmd runs the full pipeline: connect, fetch, render, dispatch.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export studies and dispatch them to the remote ingest function",
	Long: `The export command connects to the configured AACT database, fetches every
study with its narrative fields and mesh terms, renders them into one
plain-text document, and invokes the configured remote function with the
document and the record count.

A failure at any stage aborts the run; the database connection is always
released before the command exits.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyExportFlags(&cfg)

		if cfg.Function.Name == "" {
			pterm.Println("⚠️  No remote function configured.")
			pterm.Println("   Set CLINMATCH_FUNCTION_NAME or pass --function.")
			return fmt.Errorf("missing function name")
		}

		connString, err := cfg.DB.ResolveDSN()
		if err != nil {
			return err
		}
		pterm.Println()
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Database: ") + pterm.NewStyle(pterm.FgLightBlue).Sprint(logging.Mask(connString)))
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Function: ") + pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(cfg.Function.Name) + pterm.Sprintf(" (%s)", cfg.Function.Region))
		pterm.Println()

		p := pipeline.New(logging.Terminal())
		res, err := p.Run(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		pterm.Success.Printfln("Exported %d studies", res.RecordCount)
		if res.Response != nil {
			out, err := json.MarshalIndent(res.Response, "", "  ")
			if err == nil {
				fmt.Println(string(out))
			}
		}
		return nil
	},
}

// applyExportFlags overlays command-line flags onto the loaded configuration.
func applyExportFlags(cfg *config.Config) {
	if exportDSN != "" {
		cfg.DB.DSN = exportDSN
	}
	if exportFunction != "" {
		cfg.Function.Name = exportFunction
	}
	if exportRegion != "" {
		cfg.Function.Region = exportRegion
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportDSN, "dsn", "", "PostgreSQL connection string (overrides config and env)")
	exportCmd.Flags().StringVar(&exportFunction, "function", "", "Remote function name (overrides config and env)")
	exportCmd.Flags().StringVar(&exportRegion, "region", "", "Remote function region (overrides config and env)")
	rootCmd.AddCommand(exportCmd)
}
