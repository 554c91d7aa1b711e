package embedding

import "context"

// Embedder turns text into fixed-length vectors. Queries and documents may be
// embedded with different task hints, so a query vector is only comparable with
// document vectors from the same Embedder.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
}
