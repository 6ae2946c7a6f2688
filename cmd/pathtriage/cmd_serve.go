package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrelops/pathtriage/internal/httpapi"
)

var serveFlags struct {
	addr    string
	db      string
	catalog string
	rules   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for incident intake and approvals",
	Long: `Starts the triage HTTP server. Incidents are submitted as JSON, drive
through diagnosis and ranking, and pause at the approval gates until an
operator decides via the approve endpoints. State survives restarts in the
SQLite checkpoint database.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", envOr("PATHTRIAGE_ADDR", "127.0.0.1:8713"), "listen address")
	serveCmd.Flags().StringVar(&serveFlags.db, "db", envOr("PATHTRIAGE_DB", "pathtriage.db"), "SQLite database path")
	serveCmd.Flags().StringVar(&serveFlags.catalog, "catalog", os.Getenv("PATHTRIAGE_CATALOG"), "playbook catalog YAML (default: builtin)")
	serveCmd.Flags().StringVar(&serveFlags.rules, "rules", os.Getenv("PATHTRIAGE_RULES"), "extra policy rules YAML")
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := buildRuntime(serveFlags.db, serveFlags.catalog, serveFlags.rules, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := httpapi.NewServer(rt.engine, httpapi.ServerConfig{
		Addr:   serveFlags.addr,
		Lister: rt.checkpoints,
		Trail:  rt.trail,
	})
	return srv.ListenAndServe()
}
