package httpretry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Options{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func TestRetriesUntilSuccess(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := New(srv.Client(), fast).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := New(srv.Client(), fast).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestLastRetryableResponseIsReturned(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := New(srv.Client(), fast).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

type failingDoer struct{ calls int }

func (f *failingDoer) Do(*http.Request) (*http.Response, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestNetworkErrorsExhaustRetries(t *testing.T) {
	doer := &failingDoer{}
	req, _ := http.NewRequest(http.MethodGet, "http://exports.invalid/guests.csv", nil)

	_, err := New(doer, fast).Do(req)
	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 4, doer.calls)
}

func TestCanceledContextStopsRetrying(t *testing.T) {
	doer := &failingDoer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://exports.invalid/guests.csv", nil)

	_, err := New(doer, Options{BaseDelay: time.Hour}).Do(req)
	assert.Error(t, err)
	assert.LessOrEqual(t, doer.calls, 1)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, retryAfter("2", time.Minute))
	assert.Equal(t, time.Minute, retryAfter("600", time.Minute))
	assert.Zero(t, retryAfter("", time.Minute))
	assert.Zero(t, retryAfter("Wed, 21 Oct 2026 07:28:00 GMT", time.Minute))
}

func TestBackoffBounds(t *testing.T) {
	c := New(nil, Options{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond})
	for attempt := 1; attempt <= 6; attempt++ {
		d := c.backoff(attempt)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}
