package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics — Prometheus метрики диспетчера.
//
// Все методы безопасны для nil-получателя: метрики опциональны.
type Metrics struct {
	outcomes       *prometheus.CounterVec
	activeWorkers  prometheus.Gauge
	workerDuration *prometheus.HistogramVec
	existsRetries  prometheus.Counter
}

// NewMetrics создаёт и регистрирует метрики в reg.
// Если reg == nil, используется prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chunkplan_species_total",
			Help: "Species processed by the dispatcher, by chunk kind and outcome",
		}, []string{"chunk_kind", "outcome"}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chunkplan_active_workers",
			Help: "Workers currently holding a concurrency permit",
		}),
		workerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chunkplan_worker_duration_seconds",
			Help:    "Wall time of isolated worker runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"chunk_kind"}),
		existsRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chunkplan_exists_retries_total",
			Help: "Retried remote existence checks",
		}),
	}

	reg.MustRegister(m.outcomes, m.activeWorkers, m.workerDuration, m.existsRetries)
	return m
}

// ObserveOutcome учитывает итог обработки вида.
func (m *Metrics) ObserveOutcome(kind, outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(kind, outcome).Inc()
}

// WorkerStarted увеличивает число активных worker'ов.
func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.activeWorkers.Inc()
}

// WorkerFinished уменьшает число активных worker'ов и пишет длительность.
func (m *Metrics) WorkerFinished(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.activeWorkers.Dec()
	m.workerDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ExistsRetried учитывает повторную проверку существования.
func (m *Metrics) ExistsRetried() {
	if m == nil {
		return
	}
	m.existsRetries.Inc()
}

// ServeMetrics поднимает /metrics и /healthz на addr до отмены ctx.
// Если g == nil, отдаются метрики prometheus.DefaultGatherer.
func ServeMetrics(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) {
	if g == nil {
		g = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
}
