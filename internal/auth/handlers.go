package auth

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/ignite/summit-insights/internal/pkg/httputil"
	"github.com/ignite/summit-insights/internal/pkg/logger"
)

type loginRequest struct {
	Password string `json:"password"`
}

// HandleLogin exchanges the shared password for a session cookie.
//
//	POST /api/auth/login {"password": "..."}
func (g *Gate) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	token, expires, err := g.Login(r.Context(), ClientKey(r), req.Password)
	var locked *LockedOutError
	switch {
	case err == nil:
		g.setSessionCookie(w, token, expires)
		httputil.OK(w, map[string]interface{}{"success": true, "expiresAt": expires.UTC()})
	case errors.As(err, &locked):
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(locked.RetryAfter.Seconds()))))
		httputil.Error(w, http.StatusTooManyRequests, "Too many failed attempts. Try again later.")
	case errors.Is(err, ErrInvalidPassword):
		httputil.Error(w, http.StatusUnauthorized, "Invalid password")
	default:
		logger.Error("login failed", "err", err)
		httputil.Error(w, http.StatusInternalServerError, "Authentication unavailable")
	}
}

// HandleLogout clears the session cookie.
//
//	POST /api/auth/logout
func (g *Gate) HandleLogout(w http.ResponseWriter, r *http.Request) {
	g.clearSessionCookie(w)
	httputil.OK(w, map[string]bool{"success": true})
}

// HandleSession reports whether the caller holds a valid session.
//
//	GET /api/auth/session
func (g *Gate) HandleSession(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]bool{"authenticated": g.IsAuthenticated(r)})
}
