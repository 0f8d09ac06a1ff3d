package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"

	"studyplan/internal/fn"
)

// Loader loads a dataset into memory.
type Loader interface {
	Load(ctx context.Context) error
}

// Warmer loads the in-memory dataset at startup so the first search does
// not pay for the download.
type Warmer struct {
	loader Loader
	retry  fn.RetryOpts
	logger *slog.Logger
}

// NewWarmer creates a dataset warmer.
func NewWarmer(loader Loader, logger *slog.Logger) *Warmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Warmer{
		loader: loader,
		retry: fn.RetryOpts{
			MaxAttempts: 5,
			InitialWait: 2 * time.Second,
			MaxWait:     time.Minute,
			Jitter:      true,
		},
		logger: logger,
	}
}

// Serve loads the dataset, retrying with backoff. After a successful load
// the service asks not to be restarted; a failed round returns the error
// and the supervisor schedules another.
func (w *Warmer) Serve(ctx context.Context) error {
	start := time.Now()
	res := fn.Retry(ctx, w.retry, func(ctx context.Context) fn.Result[struct{}] {
		if err := w.loader.Load(ctx); err != nil {
			w.logger.Warn("dataset warm-up attempt failed", "error", err)
			return fn.Err[struct{}](err)
		}
		return fn.Ok(struct{}{})
	})
	if err := res.Error(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	w.logger.Info("dataset warmed", "elapsed", time.Since(start))
	return suture.ErrDoNotRestart
}

// String names the service in supervisor logs.
func (w *Warmer) String() string {
	return "dataset-warmer"
}
