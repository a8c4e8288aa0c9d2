package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chat-lens/internal/progress"
	"github.com/ziadkadry99/chat-lens/internal/report"
	"github.com/ziadkadry99/chat-lens/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>...",
	Short: "Search messages by keyword",
	Long: `Searches every message in the archive for the given keywords, scores
the hits by relevance and prints them with resolved contact names.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("chat", "", "only chats whose name contains this text")
	searchCmd.Flags().String("sender", "", "only senders whose name contains this text")
	searchCmd.Flags().String("phone", "", "only senders whose raw id contains this text")
	searchCmd.Flags().String("after", "", "only messages on or after this date (YYYY-MM-DD)")
	searchCmd.Flags().String("before", "", "only messages on or before this date (YYYY-MM-DD)")
	searchCmd.Flags().Int("context", 0, "surrounding messages to show per hit (defaults to config)")
	searchCmd.Flags().StringSlice("sort", nil, "up to 3 sort criteria: relevance, date_asc, date_desc, sender, chat, length_asc, length_desc, keyword_density, keyword_count")
	searchCmd.Flags().Int("limit", 20, "maximum number of results")
	searchCmd.Flags().Float64("min-score", 0, "drop hits scoring below this")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("output", "", "also export the report under output_dir, using this base name")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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
	phone, _ := cmd.Flags().GetString("phone")
	after, _ := cmd.Flags().GetString("after")
	before, _ := cmd.Flags().GetString("before")
	sortBy, _ := cmd.Flags().GetStringSlice("sort")
	limit, _ := cmd.Flags().GetInt("limit")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	contextSize, _ := cmd.Flags().GetInt("context")
	if !cmd.Flags().Changed("context") {
		contextSize = cfg.ContextSize
	}

	reporter := progress.NewReporter()
	if jsonOutput {
		reporter = progress.Silent()
	}

	results, err := search.Search(arc, res, search.Options{
		Keywords:    args,
		MinScore:    minScore,
		MaxResults:  limit,
		ContextSize: contextSize,
		SortBy:      sortBy,
		Filters: search.Filters{
			Chat:      chat,
			Sender:    sender,
			Phone:     phone,
			StartDate: after,
			EndDate:   before,
		},
		Reporter: reporter,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		report.PrintResults(os.Stdout, results, contextSize > 0)
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		exporter := report.NewExporter(cfg.OutputDir)
		rep := &report.SearchReport{
			Title:       "Search: " + strings.Join(args, " "),
			Keywords:    args,
			GeneratedAt: time.Now(),
			Results:     results,
		}
		mdPath, err := exporter.WriteSearchMarkdown(output+".md", rep)
		if err != nil {
			return fmt.Errorf("writing markdown report: %w", err)
		}
		jsonPath, err := exporter.WriteJSON(output+".json", results)
		if err != nil {
			return fmt.Errorf("writing JSON report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Reports written: %s, %s\n", mdPath, jsonPath)
	}

	return nil
}
