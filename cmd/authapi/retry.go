package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

const (
	connectAttempts   = 5
	connectBaseDelay  = 500 * time.Millisecond
	connectMaxBackoff = 5 * time.Second
)

// connectBackoff is replaced in tests.
var connectBackoff = func() retry.Backoff {
	b := retry.NewExponential(connectBaseDelay)
	b = retry.WithCappedDuration(connectMaxBackoff, b)
	return retry.WithMaxRetries(connectAttempts, b)
}

// withRetry calls connect until it succeeds, the attempts run out or ctx ends.
func withRetry[T any](ctx context.Context, log zerolog.Logger, dependency string, connect func(context.Context) (T, error)) (T, error) {
	var out T
	attempt := 0
	err := retry.Do(ctx, connectBackoff(), func(ctx context.Context) error {
		attempt++
		v, err := connect(ctx)
		if err != nil {
			log.Warn().Err(err).Str("dependency", dependency).Int("attempt", attempt).Msg("connection attempt failed")
			return retry.RetryableError(err)
		}
		out = v
		return nil
	})
	return out, err
}
