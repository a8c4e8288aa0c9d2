package semantic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/progress"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
)

// Indexer fills a vector store with the text messages of an archive.
// Media-only messages carry no text and are skipped.
type Indexer struct {
	store    VectorStore
	resolver *resolver.Resolver
	reporter progress.Reporter
}

// NewIndexer creates an Indexer writing to store. Names in document
// metadata come from res so searches read like the repaired archive.
func NewIndexer(store VectorStore, res *resolver.Resolver) *Indexer {
	return &Indexer{store: store, resolver: res}
}

// SetReporter sets the progress reporter used during indexing.
func (ix *Indexer) SetReporter(rep progress.Reporter) {
	ix.reporter = rep
}

// Index walks every chat and adds one document per text message.
// It returns the number of messages indexed.
func (ix *Indexer) Index(ctx context.Context, arc *archive.Archive) (int, error) {
	rep := ix.reporter
	if rep == nil {
		rep = progress.Silent()
	}
	rep.Start(arc.TotalMessages(), "Indexing messages")
	defer rep.Finish()

	indexed, seen := 0, 0
	for _, chatID := range arc.ChatIDs() {
		chat, ok := arc.Chat(chatID)
		if !ok {
			continue
		}
		info := ix.resolver.ResolveChatInfo(chatID)

		docs := make([]Document, 0, chat.Len())
		for _, msgID := range chat.MessageIDs() {
			msg, ok := chat.Message(msgID)
			if !ok {
				continue
			}
			seen++

			text := strings.TrimSpace(msg.Text())
			if text == "" {
				continue
			}

			docs = append(docs, Document{
				ID:      chatID + "/" + msgID,
				Content: text,
				Metadata: Metadata{
					ChatID:    chatID,
					ChatName:  info.DisplayName,
					SenderID:  senderIdentifier(msg, ix.resolver.Fallback()),
					Sender:    ix.senderLabel(msg, chatID),
					Date:      messageDate(msg),
					Direction: direction(msg),
				},
			})
		}

		if err := ix.store.Add(ctx, docs); err != nil {
			return indexed, fmt.Errorf("indexing chat %s: %w", chatID, err)
		}
		indexed += len(docs)
		rep.Update(seen, info.DisplayName)
	}

	return indexed, nil
}

// senderLabel mirrors the display rules of keyword search: own messages
// show the self label, then the resolved name, then the raw export
// name, then the formatted identifier.
func (ix *Indexer) senderLabel(msg *archive.Message, chatID string) string {
	if msg.FromMe {
		return resolver.SelfLabel
	}

	fallback := ix.resolver.Fallback()
	id := senderIdentifier(msg, fallback)
	if id == "" {
		return fallback
	}

	r := ix.resolver.Resolve(id, resolver.Context{ChatID: chatID})
	switch {
	case r.Confidence > 0 && r.DisplayName != fallback:
		return r.DisplayName
	case msg.Sender != "" && msg.Sender != fallback:
		return msg.Sender
	default:
		return ix.resolver.Normalizer().FormatForDisplay(id)
	}
}

func senderIdentifier(msg *archive.Message, fallback string) string {
	if msg.SenderID != "" {
		return msg.SenderID
	}
	if msg.Sender != "" && msg.Sender != fallback {
		return msg.Sender
	}
	return ""
}

func messageDate(msg *archive.Message) string {
	if msg.Timestamp > 0 {
		return time.Unix(int64(msg.Timestamp), 0).Format(time.DateTime)
	}
	return msg.Time
}

func direction(msg *archive.Message) string {
	if msg.FromMe {
		return DirectionSent
	}
	return DirectionReceived
}
