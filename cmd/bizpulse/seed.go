package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bizpulse/bizpulse/config"
	"github.com/bizpulse/bizpulse/core"
	"github.com/bizpulse/bizpulse/gateway"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file.jsonl]",
	Short: "Load a review and business dataset into the vector store",
	Long: `Reads JSON lines of the form
  {"kind": "review", "review": {"review_id": ..., "business_id": ..., "text": ..., "stars": ..., "date": ...}}
  {"kind": "business", "business": {"business_id": ..., "name": ..., "categories": ..., "stars": ..., "city": ...}}
and ingests them into the embedded vector store. Set vector.path in the
config to persist the collections on disk; without it the command only
validates the dataset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Vector.Mode != config.VectorModeEmbedded {
			return fmt.Errorf("seeding requires vector.mode=embedded, got %q", cfg.Vector.Mode)
		}

		embed := buildEmbedding(cfg)
		var store *gateway.EmbeddedVectorStore
		if cfg.Vector.Path != "" {
			store, err = gateway.NewPersistentVectorStore(cfg.Vector.Path, embed)
		} else {
			color.New(color.FgYellow).Println("vector.path not set: validating dataset without persisting")
			store, err = gateway.NewEmbeddedVectorStore(embed)
		}
		if err != nil {
			return err
		}

		n, err := seedStore(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Printf("✓ Ingested %d documents (%d reviews, %d businesses)\n",
			n, store.Count(core.CollectionReviews), store.Count(core.CollectionBusinesses))
		return nil
	},
}

func seedStore(ctx context.Context, store *gateway.EmbeddedVectorStore, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	n, err := store.SeedFromReader(ctx, f)
	if err != nil {
		return n, fmt.Errorf("seeding from %s: %w", path, err)
	}
	return n, nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
