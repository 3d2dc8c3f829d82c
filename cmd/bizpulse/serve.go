package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bizpulse/bizpulse/api"
)

var serveSeedFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the agent pipeline over HTTP",
	Long: `Starts the HTTP API: POST /api/v1/queries to run queries,
GET /api/v1/queries/{id} to fetch results and
GET /api/v1/queries/{id}/stream for WebSocket execution-log streaming.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := buildLogger(cfg)

		system, store, err := buildSystem(cfg, logger)
		if err != nil {
			return err
		}
		if serveSeedFile != "" {
			if store == nil {
				return fmt.Errorf("--seed requires vector.mode=embedded")
			}
			if _, err := seedStore(cmd.Context(), store, serveSeedFile); err != nil {
				return err
			}
		}

		color.New(color.FgCyan).Printf("bizpulse API listening on %s\n", cfg.API.Addr)
		return api.NewServer(cfg.API.Addr, system, logger).Start()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveSeedFile, "seed", "", "JSONL file to load into the embedded store at startup")
	rootCmd.AddCommand(serveCmd)
}
