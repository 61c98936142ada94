package service

import (
	"context"
	"errors"
	"time"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/logger"
)

type ReturnSettings struct {
	UpstreamTimeout time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
}

func (s ReturnSettings) withDefaults() ReturnSettings {
	if s.UpstreamTimeout <= 0 {
		s.UpstreamTimeout = 5 * time.Second
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	if s.RetryBackoff <= 0 {
		s.RetryBackoff = 50 * time.Millisecond
	}
	return s
}

// withTimeout bounds a single upstream call and maps an expired deadline to
// domain.ErrUpstreamTimeout.
func (s ReturnSettings) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.UpstreamTimeout)
	defer cancel()
	err := fn(callCtx)
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrUpstreamTimeout) {
		err = errors.Join(domain.ErrUpstreamTimeout, err)
	}
	return err
}

// retry runs fn until it succeeds, fails with a non-transient error, or
// MaxRetries extra attempts are spent. Backoff doubles per attempt.
func (s ReturnSettings) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := s.RetryBackoff
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil || !domain.IsTransient(err) || attempt >= s.MaxRetries {
			return err
		}
		logger.Warn("Retrying after transient error", "operation", op, "attempt", attempt+1, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		backoff *= 2
	}
}
