package source

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/summit-insights/internal/pkg/distlock"
)

func newLockedSource(t *testing.T, src Source, wait time.Duration) (*CachedSource, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cached := NewCachedSource(src, NewRedisCache(client, "summit:"), time.Hour)
	cached.SetFillLock(distlock.Factory(client, time.Minute), wait)
	return cached, client, mr
}

func TestFillLockReleasedAfterFetch(t *testing.T) {
	src := &countingSource{data: "fresh"}
	cached, _, mr := newLockedSource(t, src, time.Second)

	data, err := cached.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
	assert.False(t, mr.Exists("lock:export:counting"))
}

func TestFillLockWaitsForPeer(t *testing.T) {
	src := &countingSource{data: "ours"}
	cached, client, _ := newLockedSource(t, src, 2*time.Second)
	ctx := context.Background()

	peer := distlock.NewRedisLock(client, "export:counting", time.Minute)
	ok, err := peer.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	go func() {
		time.Sleep(50 * time.Millisecond)
		client.Set(ctx, "summit:export:counting", "from peer", time.Hour)
		peer.Release(ctx)
	}()

	data, err := cached.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from peer", string(data))
	assert.Equal(t, int32(0), atomic.LoadInt32(&src.calls))
}

func TestFillLockGivesUpOnSilentPeer(t *testing.T) {
	src := &countingSource{data: "ours"}
	cached, client, _ := newLockedSource(t, src, 50*time.Millisecond)
	ctx := context.Background()

	peer := distlock.NewRedisLock(client, "export:counting", time.Minute)
	ok, err := peer.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	data, err := cached.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ours", string(data))
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
}

func TestRefreshIgnoresFillLock(t *testing.T) {
	src := &countingSource{data: "refreshed"}
	cached, client, _ := newLockedSource(t, src, time.Hour)
	ctx := context.Background()

	peer := distlock.NewRedisLock(client, "export:counting", time.Minute)
	_, err := peer.Acquire(ctx)
	require.NoError(t, err)

	data, err := cached.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refreshed", string(data))
}
