package api

import (
	"net/http"

	"github.com/ignite/summit-insights/internal/pkg/httputil"
	"github.com/ignite/summit-insights/internal/pkg/logger"
)

// Internal errors (bucket names, file paths, Redis addresses) never reach API consumers.
// The full error is logged server-side and the client gets a fixed public message.

// sanitizedError logs the full internal error and returns a public-safe message.
func sanitizedError(r *http.Request, code int, internalErr error, publicMsg string) string {
	if internalErr != nil {
		logger.Error(publicMsg,
			"status", code,
			"path", r.URL.Path,
			"request_id", requestID(r),
			"err", internalErr,
		)
	}
	return publicMsg
}

// respondSafeError logs the internal error and sends a sanitized JSON error response.
func respondSafeError(w http.ResponseWriter, r *http.Request, code int, internalErr error, publicMsg string) {
	httputil.Error(w, code, sanitizedError(r, code, internalErr, publicMsg))
}
