// Package dashboard turns the current registration export into dashboard statistics.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/summit-insights/internal/analytics"
	"github.com/ignite/summit-insights/internal/pkg/logger"
	"github.com/ignite/summit-insights/internal/registrations"
	"github.com/ignite/summit-insights/internal/source"
)

// Service loads, parses and aggregates the export on every call. It holds no mutable state.
type Service struct {
	src      source.Source
	builder  *registrations.Builder
	location *time.Location
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLocation sets the time zone used for weekly buckets.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithClock replaces time.Now for lastUpdated and fallback timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.builder.Now = now
	}
}

// NewService creates a Service reading from src.
func NewService(src source.Source, opts ...Option) *Service {
	s := &Service{
		src:      src,
		builder:  registrations.NewBuilder(),
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats builds the dashboard. With refresh set, a cached source is bypassed. A missing
// export yields zero-valued stats; any other fetch failure is returned as an error.
func (s *Service) Stats(ctx context.Context, refresh bool) (analytics.DashboardStats, error) {
	data, err := s.fetch(ctx, refresh)
	if err != nil {
		if !errors.Is(err, source.ErrNotFound) {
			return analytics.DashboardStats{}, fmt.Errorf("loading registrations from %s: %w", s.src.Name(), err)
		}
		logger.Info("registration export not found, serving empty dashboard", "source", s.src.Name())
		data = nil
	}

	result := s.builder.Build(string(data))
	if result.Skipped.Total() > 0 {
		logger.Warn("skipped registration rows",
			"source", s.src.Name(),
			"rows", result.TotalRows,
			"blank", result.Skipped.Blank,
			"malformed", result.Skipped.Malformed,
		)
	}

	return analytics.Compute(result.Registrations, analytics.Options{
		Location:    s.location,
		Now:         s.now,
		SkippedRows: result.Skipped.Total(),
	}), nil
}

func (s *Service) fetch(ctx context.Context, refresh bool) ([]byte, error) {
	if refresh {
		if r, ok := s.src.(source.Refresher); ok {
			return r.Refresh(ctx)
		}
	}
	return s.src.Fetch(ctx)
}
