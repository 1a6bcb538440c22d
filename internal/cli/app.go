package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/shaiso/chunkplan/internal/catalog"
	"github.com/shaiso/chunkplan/internal/config"
	"github.com/shaiso/chunkplan/internal/dispatcher"
	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/isolation"
	"github.com/shaiso/chunkplan/internal/layout"
	"github.com/shaiso/chunkplan/internal/mq"
	"github.com/shaiso/chunkplan/internal/store"
	"github.com/shaiso/chunkplan/internal/telemetry"
	"github.com/shaiso/chunkplan/internal/worker"
)

// App — настройки и лениво открываемые зависимости команд.
type App struct {
	Config config.Config
	Logger *slog.Logger

	mu       sync.Mutex
	store    store.Store
	pool     *pgxpool.Pool
	mqConn   *mq.Connection
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
}

// NewApp создаёт App.
func NewApp(cfg config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{Config: cfg, Logger: logger}
}

// Store возвращает хранилище для удалённого корня базы.
func (a *App) Store() (store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return a.store, nil
	}
	if a.Config.MidasDB.RemoteRoot == "" {
		return nil, config.ErrNoRemoteRoot
	}
	s, err := store.New(a.Config.MidasDB.RemoteRoot)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// Catalog открывает каталог: PostgreSQL при заданном database_url, иначе genomes.tsv.
func (a *App) Catalog(ctx context.Context, db domain.DBSpec) (*catalog.Catalog, error) {
	s, err := a.Store()
	if err != nil {
		return nil, err
	}
	l := layout.FromDB(db)

	a.mu.Lock()
	defer a.mu.Unlock()

	var source catalog.RepresentativeSource
	if dsn := a.Config.Catalog.DatabaseURL; dsn != "" {
		if a.pool == nil {
			pool, err := catalog.NewPool(ctx, dsn)
			if err != nil {
				return nil, fmt.Errorf("open catalog db: %w", err)
			}
			a.pool = pool
		}
		source = catalog.NewPGSource(a.pool, db.Name)
	} else {
		source = catalog.NewTSVSource(s, l)
	}
	return catalog.New(source, s, l), nil
}

// Metrics возвращает метрики App и их реестр.
func (a *App) Metrics() (*telemetry.Metrics, *prometheus.Registry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.metrics == nil {
		a.registry = prometheus.NewRegistry()
		a.metrics = telemetry.NewMetrics(a.registry)
	}
	return a.metrics, a.registry
}

// MQ подключается к RabbitMQ и объявляет топологию.
func (a *App) MQ(ctx context.Context) (*mq.Connection, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mqConn != nil {
		return a.mqConn, nil
	}
	url := a.Config.RabbitMQ.URL
	if url == "" {
		url = mq.DefaultURL()
	}
	conn, err := mq.NewConnection(url, "chunkplan", a.Logger)
	if err != nil {
		return nil, err
	}
	if err := mq.SetupTopology(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	a.mqConn = conn
	return conn, nil
}

// Notifier возвращает публикатор artifact.ready или nil, если RabbitMQ
// не настроен или недоступен. Уведомления необязательны.
func (a *App) Notifier(ctx context.Context) dispatcher.Notifier {
	if a.Config.RabbitMQ.URL == "" {
		return nil
	}
	conn, err := a.MQ(ctx)
	if err != nil {
		a.Logger.Warn("RabbitMQ not available, artifact notifications disabled", "error", err)
		return nil
	}
	return mq.NewPublisher(conn, a.Logger)
}

// Runner возвращает способ изоляции worker'а.
func (a *App) Runner() (isolation.Runner, error) {
	if a.Config.Worker.InProcess {
		s, err := a.Store()
		if err != nil {
			return nil, err
		}
		dsn := a.Config.Catalog.DatabaseURL
		return isolation.NewInProcessRunner(func(ctx context.Context, desc domain.JobDescriptor, logger *slog.Logger) error {
			return worker.Main(ctx, desc, worker.Deps{Store: s, CatalogDSN: dsn, Logger: logger})
		}), nil
	}

	var env []string
	if dsn := a.Config.Catalog.DatabaseURL; dsn != "" {
		env = append(env, config.EnvCatalogDBURL+"="+dsn)
	}
	return isolation.NewProcessRunner(isolation.ProcessConfig{
		Binary: a.Config.Worker.Binary,
		Env:    env,
		Grace:  a.Config.Worker.Grace,
	}), nil
}

// Close закрывает открытые соединения.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var err error
	if a.mqConn != nil {
		err = multierr.Append(err, a.mqConn.Close())
		a.mqConn = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return err
}
