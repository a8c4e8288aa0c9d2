package semantic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/chat-lens/internal/embeddings"
)

const (
	collectionName = "messages"
	indexFileName  = "chromem.gob.gz"
)

// Store implements VectorStore using chromem-go.
type Store struct {
	db          *chromem.DB
	collection  *chromem.Collection
	embedder    embeddings.Embedder
	embedFunc   chromem.EmbeddingFunc
	concurrency int
}

// NewStore creates a new in-memory Store. concurrency bounds parallel
// embedding calls while adding documents.
func NewStore(embedder embeddings.Embedder, concurrency int) (*Store, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Store{
		db:          db,
		collection:  col,
		embedder:    embedder,
		embedFunc:   ef,
		concurrency: concurrency,
	}, nil
}

func (s *Store) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: metadataToMap(doc.Metadata),
		}
	}

	return s.collection.AddDocuments(ctx, chromDocs, s.concurrency)
}

func (s *Store) Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	if count := s.collection.Count(); limit > count && count > 0 {
		limit = count
	} else if count == 0 {
		return nil, nil
	}

	where := buildWhereClause(filter)

	results, err := s.collection.Query(ctx, query, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}

	return searchResults, nil
}

func (s *Store) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	return s.db.ExportToFile(filepath.Join(dir, indexFileName), true, "")
}

func (s *Store) Load(ctx context.Context, dir string) error {
	if err := s.db.ImportFromFile(filepath.Join(dir, indexFileName), ""); err != nil {
		return fmt.Errorf("loading index: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found in index", collectionName)
	}
	s.collection = col
	return nil
}

func (s *Store) Count() int {
	return s.collection.Count()
}

// metadataToMap converts Metadata to a flat map[string]string for chromem.
func metadataToMap(m Metadata) map[string]string {
	return map[string]string{
		"chat_id":   m.ChatID,
		"chat_name": m.ChatName,
		"sender_id": m.SenderID,
		"sender":    m.Sender,
		"date":      m.Date,
		"direction": m.Direction,
	}
}

// mapToMetadata converts a flat map[string]string back to Metadata.
func mapToMetadata(m map[string]string) Metadata {
	return Metadata{
		ChatID:    m["chat_id"],
		ChatName:  m["chat_name"],
		SenderID:  m["sender_id"],
		Sender:    m["sender"],
		Date:      m["date"],
		Direction: m["direction"],
	}
}

// buildWhereClause converts a SearchFilter to a chromem where clause.
func buildWhereClause(filter *SearchFilter) map[string]string {
	if filter == nil {
		return nil
	}

	where := make(map[string]string)
	if filter.ChatID != nil {
		where["chat_id"] = *filter.ChatID
	}
	if filter.Sender != nil {
		where["sender"] = *filter.Sender
	}
	if filter.Direction != nil {
		where["direction"] = *filter.Direction
	}

	if len(where) == 0 {
		return nil
	}
	return where
}
