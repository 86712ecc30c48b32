package redis

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient keeps counters in memory and runs the failure script natively.
type fakeClient struct {
	counts map[string]int64
	ttls   map[string]time.Duration
	err    error
}

var _ Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	n, ok := f.counts[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(strconv.FormatInt(n, 10), nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.counts[k]; ok {
			n++
		}
		delete(f.counts, k)
		delete(f.ttls, k)
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeClient) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}
	key := keys[0]
	f.counts[key]++
	if f.counts[key] == 1 {
		f.ttls[key] = time.Duration(args[0].(int64)) * time.Millisecond
	}
	return redis.NewCmdResult(f.counts[key], nil)
}

func (f *fakeClient) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.EvalSha(ctx, "", keys, args...)
}

func (f *fakeClient) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.Eval(ctx, script, keys, args...)
}

func (f *fakeClient) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.EvalSha(ctx, sha1, keys, args...)
}

func (f *fakeClient) ScriptExists(_ context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeClient) ScriptLoad(_ context.Context, _ string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func TestLoginThrottle_BlocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	throttle := NewLoginThrottle(client, 3, time.Minute)

	blocked, err := throttle.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, blocked, "unknown username starts unblocked")

	for i := 0; i < 2; i++ {
		require.NoError(t, throttle.Failed(ctx, "alice"))
	}
	blocked, err = throttle.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, throttle.Failed(ctx, "alice"))
	blocked, err = throttle.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = throttle.Blocked(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, blocked, "counters are per username")
}

func TestLoginThrottle_WindowStartsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	throttle := NewLoginThrottle(client, 5, 15*time.Minute)

	require.NoError(t, throttle.Failed(ctx, "alice"))
	client.ttls[throttle.key("alice")] = time.Minute
	require.NoError(t, throttle.Failed(ctx, "alice"))

	assert.Equal(t, int64(2), client.counts["login_failures:alice"])
	assert.Equal(t, time.Minute, client.ttls["login_failures:alice"], "later failures keep the running window")
}

func TestLoginThrottle_Reset(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	throttle := NewLoginThrottle(client, 1, time.Minute)

	require.NoError(t, throttle.Failed(ctx, "alice"))
	blocked, err := throttle.Blocked(ctx, "alice")
	require.NoError(t, err)
	require.True(t, blocked)

	require.NoError(t, throttle.Reset(ctx, "alice"))
	blocked, err = throttle.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLoginThrottle_Errors(t *testing.T) {
	ctx := context.Background()
	down := errors.New("dial tcp: connection refused")
	client := newFakeClient()
	client.err = down
	throttle := NewLoginThrottle(client, 3, time.Minute)

	_, err := throttle.Blocked(ctx, "alice")
	assert.ErrorIs(t, err, down)
	assert.ErrorIs(t, throttle.Failed(ctx, "alice"), down)
	assert.ErrorIs(t, throttle.Reset(ctx, "alice"), down)
}
