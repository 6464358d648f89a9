package fits

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/format-analysis/internal/resilience"
)

type retrying struct {
	Characterizer
	cfg resilience.RetryConfig
}

// WithRetry retries failed per-file characterizations. Tool load failures
// and whole-tree runs are never retried.
func WithRetry(c Characterizer, cfg resilience.RetryConfig) Characterizer {
	if cfg.MaxAttempts <= 1 {
		return c
	}
	return &retrying{Characterizer: c, cfg: cfg}
}

func (r *retrying) CharacterizeFile(ctx context.Context, path, outPath string) error {
	cfg := r.cfg
	cfg.OnRetry = resilience.RetryLogger("fits: characterize file", zap.String("path", path))
	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		err := r.Characterizer.CharacterizeFile(ctx, path, outPath)
		if errors.Is(err, ErrToolLoad) {
			return resilience.Permanent(err)
		}
		return err
	})
}
