// Package httpretry retries idempotent HTTP requests on transient failures with
// exponential backoff and full jitter.
package httpretry

import (
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// HTTPDoer is satisfied by *http.Client and *Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options tune the retry schedule. Zero values fall back to the defaults.
type Options struct {
	MaxRetries int           // retries after the first attempt, default 3
	BaseDelay  time.Duration // default 1s
	MaxDelay   time.Duration // default 30s
}

// Client wraps an HTTPDoer with retries.
type Client struct {
	doer       HTTPDoer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// New wraps doer. A nil doer gets an http.Client with a 30s timeout.
func New(doer HTTPDoer, opts Options) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	return &Client{
		doer:       doer,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		maxDelay:   opts.MaxDelay,
	}
}

// Do sends req, retrying network errors and 429/5xx gateway statuses. Client errors are
// returned immediately. The last retryable response is handed back untouched so the
// caller can report its status.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var lastErr error
	var wait time.Duration

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: reset body: %w", err)
				}
				req.Body = body
			}
			if wait <= 0 {
				wait = c.backoff(attempt)
			}
			log.Printf("[httpretry] retry %d/%d for %s %s in %s", attempt, c.maxRetries, req.Method, req.URL.Host, wait)

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, ctx.Err()
			}
		}

		resp, err := c.doer.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			wait = 0
			continue
		}
		if !retryable(resp.StatusCode) || attempt == c.maxRetries {
			return resp, nil
		}

		wait = retryAfter(resp.Header.Get("Retry-After"), c.maxDelay)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: %s returned %d", req.URL.Host, resp.StatusCode)
	}
	return nil, lastErr
}

// backoff is random(0, min(maxDelay, base*2^(attempt-1))) with a 10ms floor.
func (c *Client) backoff(attempt int) time.Duration {
	d := float64(c.baseDelay) * math.Pow(2, float64(attempt-1))
	if d > float64(c.maxDelay) {
		d = float64(c.maxDelay)
	}
	jittered := time.Duration(rand.Float64() * d)
	if jittered < 10*time.Millisecond {
		jittered = 10 * time.Millisecond
	}
	return jittered
}

// retryAfter reads a delay-seconds Retry-After value. HTTP dates and junk give zero.
func retryAfter(v string, ceiling time.Duration) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > ceiling {
		return ceiling
	}
	return d
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
