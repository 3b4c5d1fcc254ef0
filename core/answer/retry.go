package answer

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pharmaintellect/ragengine/model"
)

const generateMaxRetries = 2

// GenerateWithRetry calls the generator with exponential backoff, up to
// three attempts in total. Cancellation stops retrying immediately and
// returns the context error; exhausted retries surface as
// model.ErrGenerationUnavailable.
func GenerateWithRetry(ctx context.Context, generator Generator, system, user string) (string, error) {
	var out string
	operation := func() error {
		answer, err := generator.Generate(ctx, system, user)
		if err != nil {
			return err
		}
		out = answer
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, generateMaxRetries), ctx))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", model.ErrGenerationUnavailable, err)
	}
	return out, nil
}
