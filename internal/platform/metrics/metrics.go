// Package metrics exports process counters in Prometheus format. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flux"

type Metrics struct {
	Registry *prometheus.Registry

	EventsAppended     *prometheus.CounterVec
	CheckIns           *prometheus.CounterVec
	ProviderCalls      *prometheus.CounterVec
	ReplicationPushes  *prometheus.CounterVec
	ReplicationDropped prometheus.Counter
	ReplicationQueue   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		EventsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "events_appended_total",
			Help:      "Events appended to the analytics log, by type.",
		}, []string{"type"}),
		CheckIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "check_ins_total",
			Help:      "Energy check-ins by resolved mode and classification source.",
		}, []string{"mode", "source"}),
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "provider_calls_total",
			Help:      "Analysis provider calls by operation and status.",
		}, []string{"op", "status"}),
		ReplicationPushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "pushes_total",
			Help:      "Replication batch pushes by status.",
		}, []string{"status"}),
		ReplicationDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "dropped_total",
			Help:      "Events dropped because the replication queue was full or retries ran out.",
		}),
		ReplicationQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "queue_depth",
			Help:      "Events waiting to be replicated.",
		}),
	}
	m.Registry.MustRegister(
		m.EventsAppended,
		m.CheckIns,
		m.ProviderCalls,
		m.ReplicationPushes,
		m.ReplicationDropped,
		m.ReplicationQueue,
	)
	return m
}

func (m *Metrics) EventAppended(eventType string) {
	if m == nil {
		return
	}
	m.EventsAppended.WithLabelValues(eventType).Inc()
}

func (m *Metrics) CheckIn(mode, source string) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(mode, source).Inc()
}

func (m *Metrics) ProviderCall(op, status string) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(op, status).Inc()
}

func (m *Metrics) ReplicationPush(status string) {
	if m == nil {
		return
	}
	m.ReplicationPushes.WithLabelValues(status).Inc()
}

func (m *Metrics) ReplicationDrop(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ReplicationDropped.Add(float64(n))
}

func (m *Metrics) SetReplicationQueue(depth int) {
	if m == nil {
		return
	}
	m.ReplicationQueue.Set(float64(depth))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
