package site

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/chat-lens/internal/llm"
	"github.com/ziadkadry99/chat-lens/internal/semantic"
)

const (
	askResultLimit  = 8
	excerptMaxRunes = 200
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// askRequest is the incoming WebSocket message format.
type askRequest struct {
	Type    string `json:"type"` // "ask"
	Content string `json:"content"`
}

// askResponse is the outgoing WebSocket message format.
type askResponse struct {
	Type    string      `json:"type"` // "answer" or "error"
	Content string      `json:"content"`
	Sources []askSource `json:"sources,omitempty"`
}

// askSource is one archive excerpt an answer was grounded on.
type askSource struct {
	Chat       string  `json:"chat"`
	Sender     string  `json:"sender"`
	Date       string  `json:"date"`
	Similarity float64 `json:"similarity"`
	Excerpt    string  `json:"excerpt"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("site: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("site: websocket read: %v", err)
			}
			return
		}

		var req askRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError(conn, "invalid message format")
			continue
		}

		if req.Content == "" {
			s.sendError(conn, "content is required")
			continue
		}

		switch req.Type {
		case "ask":
			s.handleAsk(conn, r, req)
		default:
			s.sendError(conn, "unknown message type: "+req.Type)
		}
	}
}

func (s *Server) handleAsk(conn *websocket.Conn, r *http.Request, req askRequest) {
	if s.store == nil {
		s.sendError(conn, "semantic index not loaded")
		return
	}
	if s.provider == nil {
		s.sendError(conn, "LLM provider not configured")
		return
	}

	ctx := r.Context()
	results, err := s.store.Search(ctx, req.Content, askResultLimit, nil)
	if err != nil {
		s.sendError(conn, "search failed: "+err.Error())
		return
	}
	if len(results) == 0 {
		s.sendResponse(conn, askResponse{Type: "answer", Content: "No matching messages found in the archive."})
		return
	}

	answer, err := s.answer(ctx, req.Content, results)
	if err != nil {
		s.sendError(conn, "answer failed: "+err.Error())
		return
	}

	sources := make([]askSource, len(results))
	for i, res := range results {
		m := res.Document.Metadata
		sources[i] = askSource{
			Chat:       m.ChatName,
			Sender:     m.Sender,
			Date:       m.Date,
			Similarity: float64(res.Similarity),
			Excerpt:    clip(res.Document.Content, excerptMaxRunes),
		}
	}

	s.sendResponse(conn, askResponse{Type: "answer", Content: answer, Sources: sources})
}

// answer sends the question and the retrieved messages to the LLM for a
// grounded answer.
func (s *Server) answer(ctx context.Context, question string, results []semantic.SearchResult) (string, error) {
	prompt := fmt.Sprintf(`Someone is exploring their personal chat archive and asked: %q

Here are the most relevant messages found via semantic search:

%s

Answer the question using only these messages. Mention who said what and
when where it matters. If the messages do not contain the answer, say so
instead of guessing.`, question, semantic.BuildContext(results))

	systemMsg := "You answer questions about a personal chat archive. Ground every statement in the provided messages, name the chat and sender when citing one, and say plainly when the messages do not answer the question."

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemMsg},
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

func (s *Server) sendResponse(conn *websocket.Conn, resp askResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("site: websocket write: %v", err)
	}
}

func (s *Server) sendError(conn *websocket.Conn, message string) {
	s.sendResponse(conn, askResponse{Type: "error", Content: message})
}

// clip shortens an excerpt to at most n runes.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
