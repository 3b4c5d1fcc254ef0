package pipeline

import "context"

// Embedder turns texts into fixed-dimension vectors. Implementations must
// return one vector per input text, in input order, all with Dimension()
// entries.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
