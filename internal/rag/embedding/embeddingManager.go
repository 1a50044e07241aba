package embedding

import "context"

// Embedder turns text into vectors. Implementations wrap transport failures with ErrService.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	// BatchEmbedding returns one vector per input text, in input order.
	BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
