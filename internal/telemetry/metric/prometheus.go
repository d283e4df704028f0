package metric

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/chainstate-go/internal/core/domain"
)

const namespace = "chainstate"

// Rebuild results recorded in chainstate_rebuilds_total.
const (
	ResultSuccess    = "success"
	ResultFetchError = "fetch_error"
	ResultBuildError = "build_error"
	ResultSuperseded = "superseded"
	ResultError      = "error"
)

// Registry holds the application metrics.
type Registry struct {
	reg *prometheus.Registry

	RebuildsTotal   *prometheus.CounterVec
	RebuildDuration *prometheus.HistogramVec
	KnownChains     prometheus.Gauge
	Overrides       prometheus.Gauge
	Ready           prometheus.Gauge
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a Registry with the application metrics and the Go
// runtime and process collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		RebuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Connectivity handle rebuilds by trigger path and result.",
		}, []string{"path", "result"}),
		RebuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Time spent fetching metadata and building the connectivity handle.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"path"}),
		KnownChains: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "known_chains",
			Help:      "Number of chains known to the current connectivity handle.",
		}),
		Overrides: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overrides",
			Help:      "Number of chain overrides in the current state.",
		}),
		Ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ready",
			Help:      "1 when the connectivity handle knows at least one chain.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RebuildsTotal,
		r.RebuildDuration,
		r.KnownChains,
		r.Overrides,
		r.Ready,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// Registerer returns the underlying registerer for components that
// register their own metrics.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the HTTP handler serving the registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveRebuild records a rebuild attempt.
func (r *Registry) ObserveRebuild(path string, elapsed time.Duration, err error) {
	r.RebuildsTotal.WithLabelValues(path, rebuildResult(err)).Inc()
	r.RebuildDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// ObserveState records the state after a commit.
func (r *Registry) ObserveState(overrides, chains int, ready bool) {
	r.Overrides.Set(float64(overrides))
	r.KnownChains.Set(float64(chains))
	if ready {
		r.Ready.Set(1)
	} else {
		r.Ready.Set(0)
	}
}

// ObserveRequest records a served HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func rebuildResult(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, domain.ErrFetch):
		return ResultFetchError
	case errors.Is(err, domain.ErrBuild):
		return ResultBuildError
	case errors.Is(err, domain.ErrEditSuperseded):
		return ResultSuperseded
	default:
		return ResultError
	}
}
