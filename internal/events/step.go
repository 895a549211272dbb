package events

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Step runs the named steps of one function invocation. A failing step is
// retried with exponential backoff; return backoff.Permanent to stop early.
type Step struct {
	attempts int
	initial  time.Duration
	logger   *zap.Logger
}

// Run executes fn until it succeeds, returns a permanent error, the attempts
// are spent or ctx is done.
func (s *Step) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	attempts := s.attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(s.initial),
		backoff.WithMaxElapsedTime(0),
	), uint64(attempts-1))

	logger := s.logger.With(zap.String("step", name))
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		logger.Debug("running step", zap.Int("attempt", attempt))
		return fn(ctx)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		logger.Warn("step failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil {
		logger.Error("step failed", zap.Int("attempts", attempt), zap.Error(err))
	}
	return err
}
