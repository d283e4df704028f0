package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/chainstate-go/internal/core/domain"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxDocumentSize    = 8 << 20
)

// HTTP fetches chain metadata from a registry endpoint returning a JSON
// object that maps chain names to metadata.
type HTTP struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// HTTPOption configures an HTTP source.
type HTTPOption func(*HTTP)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = c
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.client = &http.Client{Timeout: d}
	}
}

// WithRateLimit throttles fetches. Callers wait for a token; a context
// that ends first aborts the fetch.
func WithRateLimit(r rate.Limit, burst int) HTTPOption {
	return func(h *HTTP) {
		h.limiter = rate.NewLimiter(r, burst)
	}
}

// WithHTTPLogger sets the logger.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTP) {
		h.logger = logger
	}
}

// NewHTTP creates an HTTP source fetching url.
func NewHTTP(url string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		url:    url,
		client: &http.Client{Timeout: defaultHTTPTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "registry")
	return h
}

// GetMetadata fetches and decodes the registry document.
func (h *HTTP) GetMetadata(ctx context.Context) (domain.ChainMap, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("registry rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch registry: unexpected status %d", resp.StatusCode)
	}

	var chains domain.ChainMap
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentSize))
	if err := dec.Decode(&chains); err != nil {
		return nil, fmt.Errorf("decode registry document: %w", err)
	}

	h.logger.Debug("registry fetched",
		"chain_count", len(chains),
		"elapsed", time.Since(start))
	return normalize(chains), nil
}
