package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chat-lens/internal/progress"
	"github.com/ziadkadry99/chat-lens/internal/semantic"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the semantic message index",
	Long: `Embeds every message in the archive and stores the vectors under the
cache directory, enabling 'chatlens ask' and the viewer's
ask-the-archive endpoint.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	arc, res, err := openArchive(cfg)
	if err != nil {
		return err
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	vstore, err := semantic.NewStore(embedder, cfg.MaxConcurrency)
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}

	dir := vectorDir(cfg)
	if err := vstore.Load(ctx, dir); err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "No existing index found (fresh build): %v\n", err)
		}
	}

	ix := semantic.NewIndexer(vstore, res)
	ix.SetReporter(progress.NewReporter())

	n, err := ix.Index(ctx, arc)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if err := vstore.Persist(ctx, dir); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}

	fmt.Println()
	fmt.Println("Semantic index built!")
	fmt.Printf("  Messages indexed: %d\n", n)
	fmt.Printf("  Documents stored: %d\n", vstore.Count())
	fmt.Printf("  Index location:   %s\n", dir)
	fmt.Printf("  Duration:         %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
