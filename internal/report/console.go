package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ziadkadry99/chat-lens/internal/analysis"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
	"github.com/ziadkadry99/chat-lens/internal/search"
)

const (
	maxRelevanceRows = 10
	exampleMaxRunes  = 100
	resultSeparator  = "--------------------------------------------------------------------------------"
)

// PrintResults writes search results in the classic console layout:
// numbered hits with optional context, then the contact and chat
// relevance rollups.
func PrintResults(w io.Writer, res *search.Results, showContext bool) {
	if res == nil || len(res.Messages) == 0 {
		fmt.Fprintln(w, "No matching messages found.")
		return
	}

	fmt.Fprintf(w, "\nFound %d matching messages:\n\n", len(res.Messages))

	for i, r := range res.Messages {
		fmt.Fprintf(w, "Result %d (score: %.1f):\n", i+1, r.Score)

		if r.ChatName != "" && r.ChatName != r.ChatID && !strings.HasPrefix(r.ChatID, r.ChatName) {
			fmt.Fprintf(w, "Chat: %s (%s)\n", r.ChatName, r.ChatID)
		} else {
			fmt.Fprintf(w, "Chat: %s\n", r.ChatID)
		}

		fmt.Fprintf(w, "From: %s\n", senderLine(r))
		fmt.Fprintf(w, "Date: %s\n", r.Date)
		if len(r.MatchedKeywords) > 0 {
			fmt.Fprintf(w, "Matched keywords: %s\n", strings.Join(r.MatchedKeywords, ", "))
		}
		fmt.Fprintf(w, "Message: %s\n", r.Message)

		if showContext && len(r.Context) > 0 {
			fmt.Fprintln(w, "\nContext:")
			for _, ctx := range r.Context {
				prefix := "↓ "
				if ctx.Type == "previous" {
					prefix = "↑ "
				}
				fmt.Fprintf(w, "  %s[%s] %s: %s\n", prefix, ctx.Date, contextSender(ctx), ctx.Message)
			}
		}

		fmt.Fprintf(w, "\n%s\n\n", resultSeparator)
	}

	printContactRelevance(w, res.Contacts)
	printChatRelevance(w, res.Chats)
}

// senderLine renders a hit's sender: own messages as the self label,
// named contacts as "Name (phone)", everyone else by number.
func senderLine(r search.Result) string {
	if r.FromMe {
		return resolver.SelfLabel
	}
	if r.Sender != r.Phone && r.Sender != resolver.DefaultFallback && r.Sender != r.SenderID {
		return fmt.Sprintf("%s (%s)", r.Sender, r.Phone)
	}
	return r.Phone
}

func contextSender(ctx search.ContextMessage) string {
	if ctx.FromMe {
		return resolver.SelfLabel
	}
	if ctx.Sender != ctx.Phone && ctx.Sender != resolver.DefaultFallback {
		return fmt.Sprintf("%s (%s)", ctx.Sender, ctx.Phone)
	}
	return ctx.Phone
}

func printContactRelevance(w io.Writer, contacts []search.ContactRelevance) {
	if len(contacts) == 0 {
		return
	}

	fmt.Fprintf(w, "\n=== CONTACT RELEVANCE ===\n\n")
	fmt.Fprintf(w, "The contacts most relevant to the searched keywords:\n\n")

	for i, c := range contacts {
		if i == maxRelevanceRows {
			break
		}
		label := c.DisplayName
		if label != "" && c.Phone != "" && label != c.Phone {
			label = fmt.Sprintf("%s (%s)", label, c.Phone)
		} else if c.Phone != "" {
			label = c.Phone
		}
		fmt.Fprintf(w, "%d. %s (score: %.1f, avg: %.1f)\n", i+1, label, c.Score, c.AvgScore)
		printKeywordCounts(w, c.KeywordCounts)
		fmt.Fprintln(w)
	}
}

func printChatRelevance(w io.Writer, chats []search.ChatRelevance) {
	if len(chats) == 0 {
		return
	}

	fmt.Fprintf(w, "\n=== CHAT RELEVANCE ===\n\n")
	fmt.Fprintf(w, "The chats most relevant to the searched keywords:\n\n")

	for i, c := range chats {
		if i == maxRelevanceRows {
			break
		}
		label := c.DisplayName
		if label == "" || label == c.ID {
			label = c.ID
		} else {
			label = fmt.Sprintf("%s (%s)", label, c.ID)
		}
		fmt.Fprintf(w, "%d. %s (score: %.1f, avg: %.1f)\n", i+1, label, c.Score, c.AvgScore)
		printKeywordCounts(w, c.KeywordCounts)
		fmt.Fprintln(w)
	}
}

// printKeywordCounts lists keyword hit counts, most frequent first.
func printKeywordCounts(w io.Writer, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	keywords := make([]string, 0, len(counts))
	for kw := range counts {
		keywords = append(keywords, kw)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})

	fmt.Fprintln(w, "   Keywords found:")
	for _, kw := range keywords {
		fmt.Fprintf(w, "   - %s: %d times\n", kw, counts[kw])
	}
}

// PrintSentiment writes the sentiment report with aggregate percentages
// followed by the per-chat breakdown.
func PrintSentiment(w io.Writer, rep *analysis.SentimentReport) {
	if rep == nil || len(rep.Chats) == 0 {
		fmt.Fprintln(w, "No chats analyzed.")
		return
	}

	total := len(rep.Chats)
	fmt.Fprintln(w, "\nSentiment Analysis Results:")
	for _, label := range []string{"positive", "negative", "neutral", "mixed"} {
		count := rep.Counts[label]
		if label == "mixed" && count == 0 {
			continue
		}
		name := strings.ToUpper(label[:1]) + label[1:]
		fmt.Fprintf(w, "%s: %d (%.1f%%)\n", name, count, float64(count)/float64(total)*100)
	}

	fmt.Fprintln(w, "\nSentiment by chat:")
	for i, c := range rep.Chats {
		fmt.Fprintf(w, "%d. %s: %s (polarity %+.2f)\n", i+1, c.ChatName, c.Sentiment, c.Polarity)
		if c.Rationale != "" {
			fmt.Fprintf(w, "   %s\n", c.Rationale)
		}
	}

	printUsage(w, rep.Usage)
}

// PrintTopics writes the merged topic list with example messages.
func PrintTopics(w io.Writer, rep *analysis.TopicsReport) {
	if rep == nil || len(rep.Topics) == 0 {
		fmt.Fprintln(w, "No topics found.")
		return
	}

	fmt.Fprintln(w, "\nMain Topics:")
	for i, t := range rep.Topics {
		noun := "chats"
		if t.Chats == 1 {
			noun = "chat"
		}
		fmt.Fprintf(w, "Topic %d: %s (%d %s)\n", i+1, t.Label, t.Chats, noun)
		for _, ex := range t.Examples {
			fmt.Fprintf(w, "  - %s\n", truncate(ex, exampleMaxRunes))
		}
	}

	printUsage(w, rep.Usage)
}

// PrintEntities writes the entity groups with unique and total counts.
func PrintEntities(w io.Writer, rep *analysis.EntitiesReport) {
	if rep == nil {
		fmt.Fprintln(w, "No entities found.")
		return
	}

	fmt.Fprintln(w, "\nEntities Found:")
	printEntityGroup(w, "People", rep.People)
	printEntityGroup(w, "Places", rep.Places)
	printEntityGroup(w, "Organizations", rep.Organizations)
	printUsage(w, rep.Usage)
}

func printEntityGroup(w io.Writer, label string, entities []analysis.EntityCount) {
	total := 0
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		total += e.Count
		names = append(names, e.Name)
	}
	fmt.Fprintf(w, "%s: %d unique, %d total\n", label, len(entities), total)
	if len(names) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(names, ", "))
	}
}

// PrintClusters writes per-cluster statistics and example messages.
func PrintClusters(w io.Writer, clusters []analysis.Cluster) {
	if len(clusters) == 0 {
		fmt.Fprintln(w, "No clusters found.")
		return
	}

	fmt.Fprintln(w, "\nCluster Statistics:")
	for _, c := range clusters {
		fmt.Fprintf(w, "Cluster %d: %d messages (cohesion %.2f)\n", c.ID, c.Size, c.Cohesion)
		if len(c.Examples) > 0 {
			fmt.Fprintln(w, "Examples:")
			for _, ex := range c.Examples {
				fmt.Fprintf(w, "  - %s\n", truncate(ex, exampleMaxRunes))
			}
		}
		fmt.Fprintln(w)
	}
}

func printUsage(w io.Writer, u analysis.Usage) {
	if u.InputTokens == 0 && u.OutputTokens == 0 {
		return
	}
	fmt.Fprintf(w, "\nTokens: %d in / %d out", u.InputTokens, u.OutputTokens)
	if u.EstimatedCost > 0 {
		fmt.Fprintf(w, " (estimated cost $%.4f)", u.EstimatedCost)
	}
	fmt.Fprintln(w)
}

// truncate shortens s to at most n runes, marking the cut with an
// ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
