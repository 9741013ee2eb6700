package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/summit-insights/internal/pkg/httputil"
	"github.com/ignite/summit-insights/internal/pkg/logger"
	"github.com/ignite/summit-insights/internal/source"
)

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

type healthCheck struct {
	name     string
	critical bool
	timeout  time.Duration
	slow     time.Duration
	run      func(ctx context.Context) (string, error)
}

// HealthChecker reports liveness and the readiness of the export source and Redis.
type HealthChecker struct {
	mu        sync.RWMutex
	checks    []healthCheck
	startTime time.Time
}

// NewHealthChecker creates a HealthChecker with no dependency checks.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{startTime: time.Now()}
}

const healthVersion = "1.0.0"

// AddSource checks that the export can be read. A missing export is still "up": the
// dashboard is simply empty.
func (hc *HealthChecker) AddSource(src source.Source) {
	hc.add(healthCheck{
		name:     "source",
		critical: true,
		timeout:  5 * time.Second,
		slow:     2 * time.Second,
		run: func(ctx context.Context) (string, error) {
			data, err := src.Fetch(ctx)
			if errors.Is(err, source.ErrNotFound) {
				return fmt.Sprintf("%s: no export yet", src.Name()), nil
			}
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s: %d bytes", src.Name(), len(data)), nil
		},
	})
}

// AddRedis pings a Redis client. Redis only backs the cache and the attempt store, so an
// outage degrades the service rather than taking it down.
func (hc *HealthChecker) AddRedis(name string, client *redis.Client) {
	hc.add(healthCheck{
		name:    name,
		timeout: 2 * time.Second,
		slow:    500 * time.Millisecond,
		run: func(ctx context.Context) (string, error) {
			if err := client.Ping(ctx).Err(); err != nil {
				return "", err
			}
			return "connected", nil
		},
	})
}

func (hc *HealthChecker) add(c healthCheck) {
	hc.mu.Lock()
	hc.checks = append(hc.checks, c)
	hc.mu.Unlock()
}

// HandleHealth is the liveness probe: 200 whenever the process is serving.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status":  "ok",
		"version": healthVersion,
		"uptime":  formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness runs every dependency check and returns 503 when a critical one is down.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks, critical := hc.runAllChecks(r.Context())
	overall := determineOverallStatus(checks, critical)

	status := http.StatusOK
	if overall == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	httputil.JSON(w, status, map[string]interface{}{
		"ready":  overall != "unhealthy",
		"status": overall,
		"checks": checks,
	})
}

// runAllChecks runs the checks concurrently and returns the results plus the names of
// the critical ones.
func (hc *HealthChecker) runAllChecks(ctx context.Context) (map[string]ComponentCheck, map[string]bool) {
	hc.mu.RLock()
	checks := append([]healthCheck(nil), hc.checks...)
	hc.mu.RUnlock()

	type result struct {
		name  string
		check ComponentCheck
	}
	ch := make(chan result, len(checks))
	critical := make(map[string]bool, len(checks))
	for _, c := range checks {
		critical[c.name] = c.critical
		go func(c healthCheck) { ch <- result{c.name, runCheck(ctx, c)} }(c)
	}

	out := make(map[string]ComponentCheck, len(checks))
	for range checks {
		r := <-ch
		out[r.name] = r.check
	}
	return out, critical
}

func runCheck(ctx context.Context, c healthCheck) ComponentCheck {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	msg, err := c.run(checkCtx)
	latency := time.Since(start)

	if err != nil {
		// The probe is unauthenticated; keep bucket names and addresses in the log only.
		logger.Warn("health check failed", "check", c.name, "err", err)
		return ComponentCheck{Status: "down", Latency: latency.String(), Message: "check failed"}
	}
	if latency > c.slow {
		return ComponentCheck{Status: "degraded", Latency: latency.String(), Message: fmt.Sprintf("slow response (%s)", latency)}
	}
	return ComponentCheck{Status: "up", Latency: latency.String(), Message: msg}
}

// determineOverallStatus is "unhealthy" when a critical check is down, "degraded" when any
// other check is down or slow, and "healthy" otherwise.
func determineOverallStatus(checks map[string]ComponentCheck, critical map[string]bool) string {
	overall := "healthy"
	for name, c := range checks {
		switch {
		case c.Status == "down" && critical[name]:
			return "unhealthy"
		case c.Status != "up":
			overall = "degraded"
		}
	}
	return overall
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
