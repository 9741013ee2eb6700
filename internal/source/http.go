package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ignite/summit-insights/internal/pkg/httpretry"
)

// maxExportBytes caps a downloaded export.
const maxExportBytes = 64 << 20

// HTTPSource downloads the export from a URL, for example a published sheet's CSV link.
type HTTPSource struct {
	client httpretry.HTTPDoer
	url    string
	token  string
	name   string
}

// NewHTTPSource fetches rawURL through client. A non-empty token is sent as a bearer
// credential.
func NewHTTPSource(client httpretry.HTTPDoer, rawURL, token string) (*HTTPSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid export url %q", rawURL)
	}
	if client == nil {
		client = httpretry.New(nil, httpretry.Options{})
	}
	// Query strings often carry access keys, keep them out of logs.
	return &HTTPSource{client: client, url: rawURL, token: token, name: "url:" + u.Host + u.Path}, nil
}

// Fetch downloads the body. 404 and 410 yield ErrNotFound.
func (h *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", h.name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("downloading %s: status %d", h.name, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", h.name, err)
	}
	if len(data) > maxExportBytes {
		return nil, fmt.Errorf("export at %s exceeds %d bytes", h.name, maxExportBytes)
	}
	return data, nil
}

func (h *HTTPSource) Name() string { return h.name }
