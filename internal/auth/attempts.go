package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptStore counts failed logins per client key. The window opens on the first failure
// and the counter resets when it closes.
type AttemptStore interface {
	// Fail atomically records one attempt and returns the count in the current window and
	// how long until it closes.
	Fail(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)
	// Reset forgets key.
	Reset(ctx context.Context, key string) error
}

type attemptWindow struct {
	count   int
	expires time.Time
}

// MemoryAttemptStore keeps counters in process. Suitable for a single instance.
type MemoryAttemptStore struct {
	mu      sync.Mutex
	windows map[string]attemptWindow
	now     func() time.Time
}

// NewMemoryAttemptStore creates an empty store.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{windows: make(map[string]attemptWindow), now: time.Now}
}

func (m *MemoryAttemptStore) Fail(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.expires) {
		w = attemptWindow{expires: now.Add(window)}
	}
	w.count++
	m.windows[key] = w
	return w.count, w.expires.Sub(now), nil
}

func (m *MemoryAttemptStore) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.windows, key)
	m.mu.Unlock()
	return nil
}

// Sweep drops closed windows. The server calls it periodically.
func (m *MemoryAttemptStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for k, w := range m.windows {
		if !now.Before(w.expires) {
			delete(m.windows, k)
			removed++
		}
	}
	return removed
}

// failScript increments the counter, starts the window on the first failure only and
// returns {count, remaining ms}.
var failScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RedisAttemptStore shares counters between server instances.
type RedisAttemptStore struct {
	client *redis.Client
	prefix string
}

// NewRedisAttemptStore wraps client; keys are "<prefix><client key>".
func NewRedisAttemptStore(client *redis.Client, prefix string) *RedisAttemptStore {
	return &RedisAttemptStore{client: client, prefix: prefix}
}

func (r *RedisAttemptStore) Fail(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	res, err := failScript.Run(ctx, r.client, []string{r.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("recording failed login: %w", err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("recording failed login: unexpected reply %v", res)
	}
	remaining := time.Duration(res[1]) * time.Millisecond
	if remaining < 0 {
		remaining = 0
	}
	return int(res[0]), remaining, nil
}

func (r *RedisAttemptStore) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// LockedOutError is returned while a client is locked out.
type LockedOutError struct {
	RetryAfter time.Duration
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

// Is lets callers match with errors.Is(err, ErrLockedOut).
func (e *LockedOutError) Is(target error) bool { return target == ErrLockedOut }

// Limiter locks a client key out once it reaches max failures inside the window.
type Limiter struct {
	store  AttemptStore
	max    int
	window time.Duration
}

// NewLimiter creates a limiter. Non-positive values fall back to 5 failures per 15 minutes.
func NewLimiter(store AttemptStore, max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultAttemptWindow
	}
	return &Limiter{store: store, max: max, window: window}
}

// Reserve takes one attempt for key before the password is compared. The count is
// incremented atomically, so parallel guesses cannot all slip under the limit. It returns
// the attempts left, or a *LockedOutError once key is over max. A successful login gives
// the attempt back through Reset.
func (l *Limiter) Reserve(ctx context.Context, key string) (int, error) {
	n, remaining, err := l.store.Fail(ctx, key, l.window)
	if err != nil {
		return 0, err
	}
	if n > l.max {
		return 0, &LockedOutError{RetryAfter: remaining}
	}
	return l.max - n, nil
}

// Reset clears key after a successful login.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, key)
}
