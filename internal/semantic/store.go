package semantic

import "context"

// VectorStore defines the interface for storing and searching messages by embedding.
type VectorStore interface {
	// Add adds or updates message documents in the index.
	Add(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text.
	Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error)

	// Persist saves the index to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the index from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the number of indexed messages.
	Count() int
}
