// Package retry re-runs optimistic read-modify-write operations that lost a
// version race.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/vytor/lingoprogress/internal/logger"
)

// ErrExhausted is joined with the last conflict when every attempt lost.
var ErrExhausted = errors.New("retry attempts exhausted")

// Config bounds the retry loop.
type Config struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig suits a single-row update racing a sweep or a parallel request.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
	}
}

// OnConflict calls fn until it returns nil, returns an error for which
// isConflict is false, or MaxAttempts calls have all conflicted. Non-conflict
// errors are returned as is. Running out of attempts returns an error that
// matches both ErrExhausted and the last conflict.
func OnConflict(ctx context.Context, cfg Config, isConflict func(error) bool, fn func(ctx context.Context) error) error {
	log := logger.FromContext(ctx).WithPrefix("retry")
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}

	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		err := fn(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if !isConflict(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Debug("attempt %d conflicted, retrying in %v: %v", attempt, wait, err)
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	if err != nil && isConflict(err) {
		log.Warn("giving up after %d attempts: %v", attempt, err)
		return fmt.Errorf("%w: %w", ErrExhausted, err)
	}
	return err
}
