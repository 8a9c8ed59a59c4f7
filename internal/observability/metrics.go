package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

const namespace = "ground"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge
	apiErrors   *prometheus.CounterVec

	txTotal   *prometheus.CounterVec
	txLatency *prometheus.HistogramVec

	pingUp       *prometheus.GaugeVec
	pingLatency  *prometheus.GaugeVec
	pingInterval time.Duration
}

// MetricsConfig switches metrics on and sets how often dependencies are pinged.
type MetricsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	PingInterval time.Duration `yaml:"ping_interval"`
}

const defaultPingInterval = 10 * time.Second

// Init builds a Metrics when cfg.Enabled is set; nil otherwise. A nil Metrics is inert.
func Init(log *logger.Logger, cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	m := NewMetrics()
	if cfg.PingInterval > 0 {
		m.pingInterval = cfg.PingInterval
	}
	if log != nil {
		log.Info("metrics enabled", "namespace", namespace, "ping_interval", m.pingInterval)
	}
	return m
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry:     prometheus.NewRegistry(),
		pingInterval: defaultPingInterval,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_inflight_requests",
			Help:      "In-flight API requests.",
		}),
		apiErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_catalog_errors_total",
			Help:      "Failed API requests by route and catalog error code.",
		}, []string{"route", "code"}),
		txTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_transactions_total",
			Help:      "Backend connections by backend kind and outcome.",
		}, []string{"backend", "outcome"}),
		txLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_transaction_duration_seconds",
			Help:      "Time from begin to commit or abort.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "outcome"}),
		pingUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dependency_up",
			Help:      "1 when the last ping of a dependency succeeded.",
		}, []string{"dependency"}),
		pingLatency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dependency_ping_seconds",
			Help:      "Latency of the last successful ping.",
		}, []string{"dependency"}),
	}
	m.registry.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.txTotal, m.txLatency,
		m.pingUp, m.pingLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on a separate listener until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ObserveCatalogError(route, code string) {
	if m == nil || code == "" {
		return
	}
	m.apiErrors.WithLabelValues(route, code).Inc()
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveTx has the storage.TxObserver signature.
func (m *Metrics) ObserveTx(kind storage.Kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.txTotal.WithLabelValues(string(kind), outcome).Inc()
	m.txLatency.WithLabelValues(string(kind), outcome).Observe(elapsed.Seconds())
}

// TxObserver returns nil when m is nil so the runner skips observation entirely.
func (m *Metrics) TxObserver() storage.TxObserver {
	if m == nil {
		return nil
	}
	return m.ObserveTx
}

// RegisterSQLStats exports the connection pool stats of a relational backend.
func (m *Metrics) RegisterSQLStats(log *logger.Logger, db *gorm.DB, name string) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: sql stats unavailable", "error", err)
		}
		return
	}
	if err := m.registry.Register(collectors.NewDBStatsCollector(sqlDB, name)); err != nil && log != nil {
		log.Warn("metrics: sql stats collector not registered", "error", err)
	}
}

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StartPingCollector pings p on the scrape interval until ctx is done.
func (m *Metrics) StartPingCollector(ctx context.Context, log *logger.Logger, name string, p Pinger) {
	if m == nil || p == nil {
		return
	}
	interval := m.pingInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.ping(ctx, log, name, p)
			}
		}
	}()
}

func (m *Metrics) ping(ctx context.Context, log *logger.Logger, name string, p Pinger) {
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		m.pingUp.WithLabelValues(name).Set(0)
		if log != nil {
			log.Warn("metrics: ping failed", "dependency", name, "error", err)
		}
		return
	}
	m.pingUp.WithLabelValues(name).Set(1)
	m.pingLatency.WithLabelValues(name).Set(time.Since(start).Seconds())
}
