package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/summit-insights/internal/analytics"
	"github.com/ignite/summit-insights/internal/pkg/httputil"
)

const dashboardLoadError = "Failed to load dashboard data"

// StatsProvider builds the dashboard statistics; dashboard.Service implements it.
type StatsProvider interface {
	Stats(ctx context.Context, refresh bool) (analytics.DashboardStats, error)
}

// Handlers contains the HTTP handlers for the dashboard API.
type Handlers struct {
	stats StatsProvider
}

// NewHandlers creates the API handlers.
func NewHandlers(stats StatsProvider) *Handlers {
	return &Handlers{stats: stats}
}

// GetDashboard returns every dashboard statistic in one response. The data changes as
// registrations arrive, so nothing along the way may cache it.
//
//	GET /api/dashboard[?refresh=true]
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	httputil.NoStore(w)

	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	stats, err := h.stats.Stats(r.Context(), refresh)
	if err != nil {
		respondSafeError(w, r, http.StatusInternalServerError, err, dashboardLoadError)
		return
	}
	httputil.OK(w, stats)
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
