package semantic

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as human-readable text.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("--- Result %d (similarity: %.4f) ---\n", i+1, r.Similarity))

		m := r.Document.Metadata
		if m.ChatName != "" {
			sb.WriteString(fmt.Sprintf("Chat: %s\n", m.ChatName))
		}
		if m.Sender != "" {
			sb.WriteString(fmt.Sprintf("From: %s\n", m.Sender))
		}
		if m.Date != "" {
			sb.WriteString(fmt.Sprintf("Date: %s\n", m.Date))
		}

		sb.WriteString("\n")
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// BuildContext flattens results into a numbered context block for a
// language model prompt.
func BuildContext(results []SearchResult) string {
	var sb strings.Builder
	for i, r := range results {
		m := r.Document.Metadata
		header := strings.TrimSpace(strings.Join(nonEmpty(m.ChatName, m.Sender, m.Date), " | "))
		if header != "" {
			sb.WriteString(fmt.Sprintf("[%d] %s\n", i+1, header))
		} else {
			sb.WriteString(fmt.Sprintf("[%d]\n", i+1))
		}
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
