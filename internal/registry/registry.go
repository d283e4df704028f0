package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/chainstate-go/internal/core/domain"
	"github.com/yndnr/chainstate-go/internal/infra/tlsroots"
)

// Source kinds accepted by Open.
const (
	KindStatic = "static"
	KindFile   = "file"
	KindHTTP   = "http"
)

// Source returns a snapshot of chain metadata keyed by chain name.
type Source interface {
	GetMetadata(ctx context.Context) (domain.ChainMap, error)
}

// Config selects and configures a Source.
type Config struct {
	Kind    string
	Path    string
	URL     string
	Timeout time.Duration
	// Rate caps fetches per second against an HTTP registry. Zero disables
	// the limit.
	Rate float64
	// CAFile adds a PEM bundle to the trusted roots of an HTTPS registry.
	CAFile string
}

// Open creates the Source described by cfg.
func Open(cfg Config, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Kind {
	case "", KindStatic:
		return NewStatic(nil), nil
	case KindFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("registry: file source requires a path")
		}
		return NewFile(cfg.Path, logger), nil
	case KindHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("registry: http source requires a url")
		}
		opts := []HTTPOption{WithHTTPLogger(logger)}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.CAFile != "" {
			tlsCfg, err := tlsroots.ClientConfig(cfg.CAFile)
			if err != nil {
				return nil, fmt.Errorf("registry: %w", err)
			}
			timeout := cfg.Timeout
			if timeout <= 0 {
				timeout = defaultHTTPTimeout
			}
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.TLSClientConfig = tlsCfg
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: timeout, Transport: transport}))
		}
		if cfg.Rate > 0 {
			opts = append(opts, WithRateLimit(rate.Limit(cfg.Rate), 1))
		}
		return NewHTTP(cfg.URL, opts...), nil
	default:
		return nil, fmt.Errorf("registry: unknown kind %q", cfg.Kind)
	}
}

// normalize fills empty names from their keys.
func normalize(chains domain.ChainMap) domain.ChainMap {
	out := make(domain.ChainMap, len(chains))
	for name, m := range chains {
		if m.Name == "" {
			m.Name = name
		}
		out[name] = m
	}
	return out
}
