// Package embeddings turns message text into vectors for the semantic
// index. Backends exist for OpenAI and for a local Ollama instance.
package embeddings

import "context"

// Embedder produces one vector per input text. Implementations batch
// as they see fit; the returned slice always matches the input length.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector width the model emits.
	Dimensions() int

	// Name identifies the backing model in errors and logs.
	Name() string
}
