package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List chats with resolved names",
	Long:  `Lists every chat in the archive with its resolved display name, type and message count, most active first.`,
	RunE:  runChats,
}

func init() {
	chatsCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(chatsCmd)
}

type chatRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Messages   int    `json:"messages"`
	Confidence int    `json:"confidence"`
}

func chatRows(arc *archive.Archive, res *resolver.Resolver) []chatRow {
	rows := make([]chatRow, 0, arc.Len())
	for _, id := range arc.ChatIDs() {
		chat, ok := arc.Chat(id)
		if !ok {
			continue
		}
		info := res.ResolveChatInfo(id)
		rows = append(rows, chatRow{
			ID:         id,
			Name:       info.DisplayName,
			Type:       string(info.Type),
			Messages:   chat.Len(),
			Confidence: info.Confidence,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Messages != rows[j].Messages {
			return rows[i].Messages > rows[j].Messages
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}

func printChatTable(w io.Writer, rows []chatRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tMESSAGES\tCONFIDENCE\tID")
	for _, r := range rows {
		name := r.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", name, r.Type, r.Messages, r.Confidence, r.ID)
	}
	tw.Flush()
}

func runChats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	arc, res, err := openArchive(cfg)
	if err != nil {
		return err
	}

	rows := chatRows(arc, res)
	if len(rows) == 0 {
		fmt.Println("No chats in the archive.")
		return nil
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	printChatTable(os.Stdout, rows)
	fmt.Printf("\n%d chats, %d messages\n", arc.Len(), arc.TotalMessages())
	return nil
}
