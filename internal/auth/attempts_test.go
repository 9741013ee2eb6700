package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeHarness lets one test body run against both stores.
type storeHarness struct {
	store   AttemptStore
	advance func(time.Duration)
}

func memoryHarness(t *testing.T) storeHarness {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryAttemptStore()
	s.now = func() time.Time { return now }
	return storeHarness{store: s, advance: func(d time.Duration) { now = now.Add(d) }}
}

func redisHarness(t *testing.T) storeHarness {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return storeHarness{
		store:   NewRedisAttemptStore(client, "login:"),
		advance: mr.FastForward,
	}
}

var storeHarnesses = map[string]func(*testing.T) storeHarness{
	"memory": memoryHarness,
	"redis":  redisHarness,
}

func TestAttemptStores(t *testing.T) {
	for name, mk := range storeHarnesses {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h := mk(t)

			for i := 1; i <= 3; i++ {
				n, remaining, err := h.store.Fail(ctx, "1.2.3.4", 15*time.Minute)
				require.NoError(t, err)
				assert.Equal(t, i, n)
				assert.InDelta(t, (15 * time.Minute).Seconds(), remaining.Seconds(), 1)
			}

			h.advance(5 * time.Minute)
			n, remaining, err := h.store.Fail(ctx, "1.2.3.4", 15*time.Minute)
			require.NoError(t, err)
			assert.Equal(t, 4, n)
			assert.InDelta(t, (10 * time.Minute).Seconds(), remaining.Seconds(), 1, "window starts at the first failure")

			n, _, err = h.store.Fail(ctx, "5.6.7.8", 15*time.Minute)
			require.NoError(t, err)
			assert.Equal(t, 1, n, "keys are independent")

			h.advance(11 * time.Minute)
			n, remaining, err = h.store.Fail(ctx, "1.2.3.4", 15*time.Minute)
			require.NoError(t, err)
			assert.Equal(t, 1, n, "window closed")
			assert.InDelta(t, (15 * time.Minute).Seconds(), remaining.Seconds(), 1)

			require.NoError(t, h.store.Reset(ctx, "1.2.3.4"))
			n, _, err = h.store.Fail(ctx, "1.2.3.4", 15*time.Minute)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestMemoryAttemptStoreSweep(t *testing.T) {
	h := memoryHarness(t)
	s := h.store.(*MemoryAttemptStore)
	ctx := context.Background()

	_, _, _ = s.Fail(ctx, "a", time.Minute)
	_, _, _ = s.Fail(ctx, "b", time.Hour)
	h.advance(2 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	n, _, _ := s.Fail(ctx, "b", time.Hour)
	assert.Equal(t, 2, n)
}

func TestLimiterLocksOutAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	h := memoryHarness(t)
	l := NewLimiter(h.store, 3, 15*time.Minute)

	for i := 0; i < 3; i++ {
		left, err := l.Reserve(ctx, "ip")
		require.NoError(t, err)
		assert.Equal(t, 2-i, left)
	}

	_, err := l.Reserve(ctx, "ip")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockedOut))
	var locked *LockedOutError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 15*time.Minute, locked.RetryAfter)

	h.advance(15 * time.Minute)
	_, err = l.Reserve(ctx, "ip")
	assert.NoError(t, err, "lockout ends with the window")
}

func TestLimiterResetReturnsAttempts(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter(memoryHarness(t).store, 2, time.Minute)

	_, err := l.Reserve(ctx, "ip")
	require.NoError(t, err)
	require.NoError(t, l.Reset(ctx, "ip"))

	left, err := l.Reserve(ctx, "ip")
	require.NoError(t, err)
	assert.Equal(t, 1, left)
}

// slowStore delays every call, like a network round trip to a shared store.
type slowStore struct {
	AttemptStore
	delay time.Duration
}

func (s slowStore) Fail(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	n, remaining, err := s.AttemptStore.Fail(ctx, key, window)
	time.Sleep(s.delay)
	return n, remaining, err
}

func TestLimiterHoldsUnderParallelGuesses(t *testing.T) {
	for name, mk := range storeHarnesses {
		t.Run(name, func(t *testing.T) {
			const maxAttempts = 5
			g, err := NewGate(Options{
				Password:      "summit-2025",
				SessionSecret: "test-secret",
				Limiter:       NewLimiter(slowStore{AttemptStore: mk(t).store, delay: 5 * time.Millisecond}, maxAttempts, time.Hour),
			})
			require.NoError(t, err)

			var (
				wg      sync.WaitGroup
				checked int32
				locked  int32
			)
			for i := 0; i < 100; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _, err := g.Login(context.Background(), "10.0.0.9", "guess")
					switch {
					case errors.Is(err, ErrInvalidPassword):
						atomic.AddInt32(&checked, 1)
					case errors.Is(err, ErrLockedOut):
						atomic.AddInt32(&locked, 1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(maxAttempts), checked, "password compared only for reserved attempts")
			assert.Equal(t, int32(100-maxAttempts), locked)
		})
	}
}

func TestLimiterDefaults(t *testing.T) {
	l := NewLimiter(NewMemoryAttemptStore(), 0, 0)
	assert.Equal(t, DefaultMaxAttempts, l.max)
	assert.Equal(t, DefaultAttemptWindow, l.window)
}
