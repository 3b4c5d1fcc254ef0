package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pharmaintellect/ragengine/model"
)

const embedMaxRetries = 2

// EmbedWithRetry calls the embedder with exponential backoff, up to three
// attempts in total. Cancellation stops retrying immediately and returns
// the context error; exhausted retries surface as
// model.ErrEmbeddingUnavailable.
func EmbedWithRetry(ctx context.Context, embedder Embedder, texts []string) ([][]float32, error) {
	var out [][]float32
	operation := func() error {
		vecs, err := embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		out = vecs
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, embedMaxRetries), ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", model.ErrEmbeddingUnavailable, err)
	}
	return out, nil
}
