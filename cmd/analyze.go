package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chat-lens/internal/analysis"
	"github.com/ziadkadry99/chat-lens/internal/progress"
	"github.com/ziadkadry99/chat-lens/internal/report"
	"github.com/ziadkadry99/chat-lens/internal/search"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <kind>",
	Short: "Run an LLM or embedding analysis over the archive",
	Long: `Runs one analysis over the messages that pass the filters:

  sentiment  per-chat mood with a short rationale
  topics     recurring topics with example messages
  entities   people, places and organizations mentioned
  clusters   k-means groups over message embeddings`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"sentiment", "topics", "entities", "clusters"},
	RunE:      runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("chat", "", "only chats whose name contains this text")
	analyzeCmd.Flags().String("sender", "", "only senders whose name contains this text")
	analyzeCmd.Flags().String("after", "", "only messages on or after this date (YYYY-MM-DD)")
	analyzeCmd.Flags().String("before", "", "only messages on or before this date (YYYY-MM-DD)")
	analyzeCmd.Flags().Int("k", 0, "topic or cluster count (0 picks automatically)")
	analyzeCmd.Flags().Bool("json", false, "output as JSON")
	analyzeCmd.Flags().String("output", "", "also export the report under output_dir, using this base name")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()
	kind := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	arc, res, err := openArchive(cfg)
	if err != nil {
		return err
	}

	chat, _ := cmd.Flags().GetString("chat")
	sender, _ := cmd.Flags().GetString("sender")
	after, _ := cmd.Flags().GetString("after")
	before, _ := cmd.Flags().GetString("before")
	k, _ := cmd.Flags().GetInt("k")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	msgs, err := search.Extract(arc, res, search.Filters{
		Chat:      chat,
		Sender:    sender,
		StartDate: after,
		EndDate:   before,
	})
	if err != nil {
		return fmt.Errorf("extracting messages: %w", err)
	}
	if len(msgs) == 0 {
		fmt.Println("No messages matched the filters.")
		return nil
	}

	reporter := progress.NewReporter()
	if jsonOutput {
		reporter = progress.Silent()
	}

	rep := &report.AnalysisReport{
		Title:       "Analysis: " + kind,
		GeneratedAt: time.Now(),
	}
	var payload any

	switch kind {
	case "sentiment", "topics", "entities":
		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}
		analyzer := analysis.NewAnalyzer(provider, cfg.Model)
		analyzer.SetReporter(reporter)

		switch kind {
		case "sentiment":
			rep.Sentiment, err = analyzer.Sentiment(ctx, msgs)
			payload = rep.Sentiment
		case "topics":
			rep.Topics, err = analyzer.Topics(ctx, msgs, k)
			payload = rep.Topics
		case "entities":
			rep.Entities, err = analyzer.Entities(ctx, msgs)
			payload = rep.Entities
		}
		if err != nil {
			return fmt.Errorf("%s analysis failed: %w", kind, err)
		}
	case "clusters":
		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
		clusters, err := analysis.ClusterMessages(ctx, embedder, msgs, k)
		if err != nil {
			return fmt.Errorf("clustering failed: %w", err)
		}
		rep.Clusters = clusters
		payload = clusters
	default:
		return fmt.Errorf("unknown analysis %q (valid: sentiment, topics, entities, clusters)", kind)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return err
		}
	} else {
		printAnalysis(os.Stdout, rep)
		fmt.Printf("\nAnalyzed %d messages in %s\n", len(msgs), time.Since(start).Round(time.Millisecond))
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		exporter := report.NewExporter(cfg.OutputDir)
		mdPath, err := exporter.WriteAnalysisMarkdown(output+".md", rep)
		if err != nil {
			return fmt.Errorf("writing markdown report: %w", err)
		}
		jsonPath, err := exporter.WriteJSON(output+".json", payload)
		if err != nil {
			return fmt.Errorf("writing JSON report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Reports written: %s, %s\n", mdPath, jsonPath)
	}

	return nil
}

func printAnalysis(w io.Writer, rep *report.AnalysisReport) {
	switch {
	case rep.Sentiment != nil:
		report.PrintSentiment(w, rep.Sentiment)
	case rep.Topics != nil:
		report.PrintTopics(w, rep.Topics)
	case rep.Entities != nil:
		report.PrintEntities(w, rep.Entities)
	case len(rep.Clusters) > 0:
		report.PrintClusters(w, rep.Clusters)
	}
}
