package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/server"
	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/store"
)

var (
	serveAddr    string
	serveDataDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for submitting and watching runs",
	Long: `Starts an HTTP server exposing PR-SGD runs under /api/v1/runs:
submit runs, poll their state, read histories, and stream per-round
progress over SSE.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Base directory for run persistence (empty disables)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	var runStore store.Store
	if serveDataDir != "" {
		fs, err := store.NewFSStore(serveDataDir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		runStore = fs
	}

	srv := server.NewServer(serveAddr, runStore)
	return srv.Start()
}
