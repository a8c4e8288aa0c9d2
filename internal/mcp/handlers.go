package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/chat-lens/internal/resolver"
	"github.com/ziadkadry99/chat-lens/internal/search"
)

// handleSearchMessages runs a keyword search over the archive.
func (s *Server) handleSearchMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	keywords := strings.Fields(query)
	if len(keywords) == 0 {
		return mcp.NewToolResultError("query must contain at least one keyword"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	results, err := search.Search(s.arc, s.res, search.Options{
		Keywords:   keywords,
		MaxResults: limit,
		Filters:    search.Filters{Chat: request.GetString("chat", "")},
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results.Messages) == 0 {
		return mcp.NewToolResultText("No matching messages found."), nil
	}

	return mcp.NewToolResultText(formatMessages(results.Messages)), nil
}

// handleResolveContact resolves one identifier, optionally in a chat context.
func (s *Server) handleResolveContact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, err := request.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: identifier"), nil
	}

	res := s.res.Resolve(identifier, resolver.Context{ChatID: request.GetString("chat_id", "")})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name: %s\n", res.DisplayName))
	if res.Phone != "" {
		sb.WriteString(fmt.Sprintf("Phone: %s\n", res.Phone))
	}
	sb.WriteString(fmt.Sprintf("Confidence: %d\n", res.Confidence))
	if res.Source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n", res.Source))
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetChatInfo describes a chat and its participants.
func (s *Server) handleGetChatInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chatID, err := request.RequireString("chat_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: chat_id"), nil
	}

	info := s.res.ResolveChatInfo(chatID)
	if info.Type == resolver.ChatUnknown {
		return mcp.NewToolResultError(fmt.Sprintf("chat %q not found in the archive", chatID)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Chat: %s\n", info.DisplayName))
	sb.WriteString(fmt.Sprintf("ID: %s\n", info.ChatID))
	sb.WriteString(fmt.Sprintf("Type: %s\n", info.Type))
	sb.WriteString(fmt.Sprintf("Confidence: %d\n", info.Confidence))
	if len(info.Participants) > 0 {
		sb.WriteString(fmt.Sprintf("Participants (%d):\n", len(info.Participants)))
		for _, p := range info.Participants {
			line := "- " + p.Name
			if p.Phone != "" && p.Phone != p.Name {
				line += fmt.Sprintf(" (%s)", p.Phone)
			}
			sb.WriteString(line + "\n")
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleSuggestChatName proposes a display name for a chat.
func (s *Server) handleSuggestChatName(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chatID, err := request.RequireString("chat_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: chat_id"), nil
	}

	suggestion := s.res.SuggestChatName(chatID)
	if suggestion == resolver.UnknownChatLabel {
		return mcp.NewToolResultError(fmt.Sprintf("chat %q not found in the archive", chatID)), nil
	}

	return mcp.NewToolResultText(suggestion), nil
}

// formatMessages converts search hits into a text block for agent consumption.
func formatMessages(msgs []search.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(msgs)))

	for i, m := range msgs {
		sb.WriteString(fmt.Sprintf("\n--- Result %d (score %.1f) ---\n", i+1, m.Score))

		chat := m.ChatName
		if chat == "" {
			chat = m.ChatID
		}
		sb.WriteString(fmt.Sprintf("Chat: %s\n", chat))
		sb.WriteString(fmt.Sprintf("From: %s\n", m.Sender))
		if m.Date != "" {
			sb.WriteString(fmt.Sprintf("Date: %s\n", m.Date))
		}
		if len(m.MatchedKeywords) > 0 {
			sb.WriteString(fmt.Sprintf("Keywords: %s\n", strings.Join(m.MatchedKeywords, ", ")))
		}

		sb.WriteString("\n")
		sb.WriteString(m.Message)
		sb.WriteString("\n")
	}

	return sb.String()
}
