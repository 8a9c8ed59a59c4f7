package app

import (
	"context"
	"fmt"

	"github.com/yungbote/ground-catalog/internal/catalog"
	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/data/storage/relational"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/http"
	httpH "github.com/yungbote/ground-catalog/internal/http/handlers"
	"github.com/yungbote/ground-catalog/internal/idgen"
	"github.com/yungbote/ground-catalog/internal/observability"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

type App struct {
	Log     *logger.Logger
	Cfg     Config
	Backend storage.Backend
	Catalog *catalog.Catalog
	Metrics *observability.Metrics
	Server  *http.Server

	seq          *idgen.Sequence
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{
		Log:          log,
		Cfg:          cfg,
		Metrics:      observability.Init(log, cfg.Metrics),
		otelShutdown: observability.InitOTel(ctx, log, cfg.Otel),
	}

	// every failure below releases whatever was opened before it
	a.Backend, err = OpenBackend(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	var ids idgen.Generator
	ids, a.seq, err = OpenIDGenerator(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Catalog, err = catalog.New(storage.NewTxRunner(a.Backend, log, a.Metrics.TxObserver()), ids, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	routerCfg, err := wireRouter(cfg, log, a.Metrics, a.Backend, a.Catalog)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Server = http.NewServer(routerCfg)
	return a, nil
}

func wireRouter(cfg Config, log *logger.Logger, metrics *observability.Metrics, backend storage.Backend, cat *catalog.Catalog) (http.RouterConfig, error) {
	log.Info("Wiring handlers...")
	rc := http.RouterConfig{
		CORSOrigins:    cfg.CORSOrigins,
		Log:            log.With("component", "http"),
		Metrics:        metrics,
		VersionHandler: httpH.NewVersionHandler(cat),
		HealthHandler:  httpH.NewHealthHandler(string(backend.Kind())),
	}
	if cfg.Otel.Enabled {
		rc.ServiceName = cfg.Otel.ServiceName
	}
	for _, k := range domain.Kinds {
		h, err := httpH.NewItemHandler(cat, k)
		if err != nil {
			return http.RouterConfig{}, err
		}
		rc.ItemHandlers = append(rc.ItemHandlers, h)
	}
	return rc, nil
}

// Start launches the background collectors.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Metrics == nil {
		return
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	if rb, ok := a.Backend.(*relational.Backend); ok {
		a.Metrics.RegisterSQLStats(a.Log, rb.DB(), a.Cfg.Backend)
	}
	if a.seq != nil {
		a.Metrics.StartPingCollector(ctx, a.Log, "redis", a.seq)
	}
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	ctx := context.Background()
	if a.seq != nil {
		if err := a.seq.Close(); err != nil {
			a.Log.Warn("redis close failed", "error", err)
		}
		a.seq = nil
	}
	if a.Backend != nil {
		if err := a.Backend.Close(ctx); err != nil {
			a.Log.Warn("backend close failed", "error", err)
		}
		a.Backend = nil
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		a.otelShutdown = nil
	}
	a.Log.Sync()
}
