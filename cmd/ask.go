package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chat-lens/internal/llm"
	"github.com/ziadkadry99/chat-lens/internal/semantic"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the archive a question",
	Long: `Searches the semantic index for messages related to the question and
asks the configured LLM for an answer grounded in them.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Int("limit", 8, "messages to retrieve for context")
	askCmd.Flags().String("chat", "", "only search within this chat id")
	askCmd.Flags().Bool("sources", false, "print the retrieved messages before the answer")
	askCmd.Flags().Bool("json", false, "output the retrieved messages as JSON and skip the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := args[0]

	cfg, err := loadConfig()
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
		return fmt.Errorf("loading index from %s: %w\nRun `chatlens index` first to build it", dir, err)
	}
	if vstore.Count() == 0 {
		fmt.Println("Semantic index is empty. Run `chatlens index` first.")
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	var filter *semantic.SearchFilter
	if chat, _ := cmd.Flags().GetString("chat"); chat != "" {
		filter = &semantic.SearchFilter{ChatID: &chat}
	}

	results, err := vstore.Search(ctx, question, limit, filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No matching messages found.")
		return nil
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printAskJSON(results)
	}

	if sources, _ := cmd.Flags().GetBool("sources"); sources {
		fmt.Print(semantic.FormatResults(results))
	}

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}

	answer, err := answerFromMessages(ctx, provider, cfg.Model, question, results)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	fmt.Println(answer)
	return nil
}

type askResultJSON struct {
	Rank       int     `json:"rank"`
	Similarity float64 `json:"similarity"`
	Chat       string  `json:"chat"`
	Sender     string  `json:"sender"`
	Date       string  `json:"date,omitempty"`
	Message    string  `json:"message"`
}

func printAskJSON(results []semantic.SearchResult) error {
	out := make([]askResultJSON, 0, len(results))
	for i, r := range results {
		m := r.Document.Metadata
		out = append(out, askResultJSON{
			Rank:       i + 1,
			Similarity: float64(r.Similarity),
			Chat:       m.ChatName,
			Sender:     m.Sender,
			Date:       m.Date,
			Message:    r.Document.Content,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func answerFromMessages(ctx context.Context, provider llm.Provider, model, question string, results []semantic.SearchResult) (string, error) {
	prompt := fmt.Sprintf(`Question about a personal chat archive: %q

Most relevant messages from the archive:

%s

Answer using only these messages. Name who said what and when where it
matters. If they do not contain the answer, say so instead of guessing.`,
		question, semantic.BuildContext(results))

	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You answer questions about a personal chat archive, grounded strictly in the messages provided. Name the chat and sender when citing one, and say plainly when the messages do not answer the question."},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   2048,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
