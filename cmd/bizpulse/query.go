package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	querySeedFile string
	queryVerbose  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Run one query through the agent pipeline",
	Long: `Runs a single question through search, analysis and response
synthesis and prints the final answer. With --seed, a JSONL dataset is
loaded into the embedded vector store first.`,
	Args: cobra.MinimumNArgs(1),
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
		if querySeedFile != "" {
			if store == nil {
				return fmt.Errorf("--seed requires vector.mode=embedded")
			}
			if _, err := seedStore(cmd.Context(), store, querySeedFile); err != nil {
				return err
			}
		}

		result, err := system.ProcessQuery(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		if result.Success {
			color.New(color.FgGreen, color.Bold).Println("✓ Query completed")
			fmt.Println()
			fmt.Println(result.FinalResponse)
		} else {
			color.New(color.FgRed, color.Bold).Println("✗ Query failed")
		}

		fmt.Println()
		fmt.Printf("Records found: %d, metrics computed: %d, log entries: %d\n",
			len(result.SearchResults), len(result.AnalysisResults), len(result.ExecutionLog))

		if queryVerbose {
			fmt.Println()
			color.New(color.Bold).Println("Execution log:")
			for _, e := range result.ExecutionLog {
				line := fmt.Sprintf("  [%s] %s/%s", e.Outcome, e.Agent, e.Action)
				if e.Detail != "" {
					line += ": " + e.Detail
				}
				if e.Error != "" {
					line += ": " + e.Error
				}
				fmt.Println(line)
			}
		}

		if !result.Success {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&querySeedFile, "seed", "", "JSONL file to load into the embedded store before querying")
	queryCmd.Flags().BoolVarP(&queryVerbose, "verbose", "v", false, "print the execution log")
	rootCmd.AddCommand(queryCmd)
}
