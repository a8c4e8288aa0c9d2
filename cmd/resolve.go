package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chat-lens/internal/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <identifier>",
	Short: "Resolve an identifier to a contact name",
	Long: `Resolves a phone number, JID or free-text sender to a display name,
reporting the confidence and the strategy that matched. Passing the
chat the identifier appeared in unlocks the contextual strategies.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("chat", "", "chat id used as resolution context")
	resolveCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, res, err := openArchive(cfg)
	if err != nil {
		return err
	}

	chatID, _ := cmd.Flags().GetString("chat")
	result := res.Resolve(args[0], resolver.Context{ChatID: chatID})

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResolution(os.Stdout, result)
	return nil
}

// printResolution writes one resolution result in the key: value layout
// shared with interactive mode.
func printResolution(w io.Writer, result resolver.Result) {
	fmt.Fprintf(w, "Name:       %s\n", result.DisplayName)
	if result.Phone != "" {
		fmt.Fprintf(w, "Phone:      %s\n", result.Phone)
	}
	fmt.Fprintf(w, "Confidence: %d\n", result.Confidence)
	if result.Source != "" {
		fmt.Fprintf(w, "Source:     %s\n", result.Source)
	}
}
