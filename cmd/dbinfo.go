package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/codex-stevenh/clinmatch-AACT/internal/config"
	"github.com/codex-stevenh/clinmatch-AACT/internal/logging"
)

// dbinfoCmd displays the database connection currently in effect with the
// credentials masked, so operators can verify which store an export would
// read without exposing secrets.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the resolved database connection string (masked)",
	Long: `The dbinfo command resolves the database connection the same way export
does (config file, then environment variables) and displays it with the
username and password masked.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		connString, err := cfg.DB.ResolveDSN()
		if err != nil {
			pterm.Println("⚠️  No usable database connection configured")
			pterm.Println("   Set CLINMATCH_DB_* variables, DATABASE_URL, or edit the config file.")
			return err
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithTopPadding(1).
		WithBottomPadding(1).
		WithLeftPadding(1).
		WithRightPadding(1).
			Println(logging.Mask(connString))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
