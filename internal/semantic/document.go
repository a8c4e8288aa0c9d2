// Package semantic maintains a vector index over archive messages so
// they can be searched by meaning rather than by keyword.
package semantic

// Direction values for indexed messages.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// Document is one indexed message.
type Document struct {
	ID       string // "chatID/msgID", unique across the archive
	Content  string
	Metadata Metadata
}

// Metadata holds the resolved context of an indexed message.
type Metadata struct {
	ChatID    string
	ChatName  string
	SenderID  string
	Sender    string // resolved display name, or "Yo" for own messages
	Date      string // "2006-01-02 15:04:05"
	Direction string // DirectionSent or DirectionReceived
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows search results by exact metadata match.
type SearchFilter struct {
	ChatID    *string
	Sender    *string
	Direction *string
}
