package inventory

import (
	"context"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
)

// withRetry repite fn mientras falle por modificación concurrente, hasta maxRetries reintentos.
func withRetry(ctx context.Context, maxRetries int, fn func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn()
		if err == nil || !domain.IsRetryable(err) {
			return err
		}
	}
	return err
}
