// Package metrics exposes the daemon's ambient Prometheus counters and an
// optional HTTP exporter (spec §9 invites operational instrumentation;
// nothing in spec.md's core modules depends on it).
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's counters. A nil *Metrics is valid: every
// method on it is a no-op, so callers needn't guard every call site when
// metrics are disabled.
type Metrics struct {
	connections prometheus.Counter
	queries     *prometheus.CounterVec
	kvErrors    prometheus.Counter
}

// New registers the daemon's counters against reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		connections: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "consulns_connections_total",
			Help: "Total UNIX socket connections accepted by the backend server.",
		}),
		queries: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "consulns_queries_total",
			Help: "Total protocol queries dispatched, by method.",
		}, []string{"method"}),
		kvErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "consulns_kv_errors_total",
			Help: "Total errors reported by the Consul KV adapter.",
		}),
	}
}

// ObserveConnection records one accepted connection.
func (m *Metrics) ObserveConnection() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

// ObserveQuery records one dispatched query for method.
func (m *Metrics) ObserveQuery(method string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(method).Inc()
}

// ObserveKVError records one failed KV adapter call.
func (m *Metrics) ObserveKVError() {
	if m == nil {
		return
	}
	m.kvErrors.Inc()
}

// Exporter serves /metrics over HTTP for an external Prometheus scraper.
type Exporter struct {
	srv *http.Server
}

// NewExporter builds an Exporter bound to addr, scraping reg.
func NewExporter(addr string, reg *prometheus.Registry) *Exporter {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &Exporter{srv: &http.Server{Addr: addr, Handler: mux}}
}

// Run blocks serving /metrics until ctx is cancelled.
func (e *Exporter) Run(ctx context.Context, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics exporter listening", "addr", e.srv.Addr)
		if err := e.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
