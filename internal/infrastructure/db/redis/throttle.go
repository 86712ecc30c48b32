package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/auth-api/internal/core/ports"
)

var _ ports.LoginThrottle = (*LoginThrottle)(nil)

// Client is the subset of redis commands the throttle uses. *redis.Client
// satisfies it.
type Client interface {
	redis.Scripter
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// recordFailure increments the counter and starts the window on the first
// failure only, atomically.
var recordFailure = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// LoginThrottle counts failed logins per username in a fixed window.
// Key format: login_failures:<username>
type LoginThrottle struct {
	client      Client
	maxFailures int64
	window      time.Duration
}

// NewLoginThrottle blocks a username once maxFailures failures happen within window.
func NewLoginThrottle(client Client, maxFailures int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, maxFailures: int64(maxFailures), window: window}
}

// Blocked reports whether the username has reached the failure limit.
func (t *LoginThrottle) Blocked(ctx context.Context, username string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(username)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n >= t.maxFailures, nil
}

// Failed records one failure. The window starts at the first failure.
func (t *LoginThrottle) Failed(ctx context.Context, username string) error {
	err := recordFailure.Run(ctx, t.client, []string{t.key(username)}, t.window.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("throttle record: %w", err)
	}
	return nil
}

// Reset clears the failure count after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, username string) error {
	if err := t.client.Del(ctx, t.key(username)).Err(); err != nil {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}

func (t *LoginThrottle) key(username string) string {
	return "login_failures:" + username
}
