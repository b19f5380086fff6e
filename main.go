// Package main is the entry point for the clinmatch CLI.
// It exports clinical-study records from an AACT PostgreSQL database and
// dispatches them to a remote ingest function.
package main

import (
	"github.com/codex-stevenh/clinmatch-AACT/cmd"
)

// main is the entry point for the clinmatch CLI.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
