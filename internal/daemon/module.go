package daemon

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/guestfeed/internal/api"
	"github.com/matheus3301/guestfeed/internal/bus"
	"github.com/matheus3301/guestfeed/internal/config"
	"github.com/matheus3301/guestfeed/internal/feed"
	"github.com/matheus3301/guestfeed/internal/ingest"
	"github.com/matheus3301/guestfeed/internal/lock"
	"github.com/matheus3301/guestfeed/internal/logging"
	"github.com/matheus3301/guestfeed/internal/metrics"
	"github.com/matheus3301/guestfeed/internal/store"
	intsync "github.com/matheus3301/guestfeed/internal/sync"
	"github.com/matheus3301/guestfeed/internal/workspace"
)

// Params holds the resolved workspace configuration passed to the fx module.
type Params struct {
	Workspace  string
	Layout     workspace.Layout
	ConfigPath string // empty = Layout.ConfigPath()
	SocketPath string // optional override for testing; empty = use default
	LogLevel   string
}

func (p Params) socketPath() string {
	if p.SocketPath != "" {
		return p.SocketPath
	}
	return p.Layout.SocketPath(p.Workspace)
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideMetrics,
			provideLock,
			provideStore,
			provideController,
			provideSyncEngine,
			provideConsumer,
			provideMetricsServer,
			provideFeedService,
			provideServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = p.Layout.ConfigPath()
	}
	return config.LoadOrDefault(path)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(p.Layout.LogPath(p.Workspace), p.Workspace, logging.ParseLevel(p.LogLevel))
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideMetrics() *metrics.Feed {
	return metrics.New(prometheus.NewRegistry())
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := p.Layout.EnsureDir(p.Workspace); err != nil {
		return nil, err
	}
	logger.Info("acquiring workspace lock", zap.String("workspace", p.Workspace))
	l, err := lock.Acquire(p.Layout.Dir(p.Workspace), p.Workspace)
	if err != nil {
		return nil, err
	}
	logger.Info("workspace lock acquired")
	return l, nil
}

// provideStore opens the database only once the workspace lock is held.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := p.Layout.DBPath(p.Workspace)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideController(cfg *config.Config, db *store.DB, b *bus.Bus, m *metrics.Feed, logger *zap.Logger) (*feed.Controller, error) {
	loc, err := cfg.Feed.Location()
	if err != nil {
		return nil, fmt.Errorf("feed timezone: %w", err)
	}
	return feed.NewController(db, db,
		feed.WithLogger(logger.Named("feed")),
		feed.WithMetrics(m),
		feed.WithNormalizer(feed.NewNormalizer(loc, cfg.Feed.DateLayouts...)),
		feed.WithPageLength(cfg.Feed.PageLength),
		feed.WithMinStoreVersion(cfg.Feed.MinStoreVersion),
		feed.WithThreadObserver(func(u feed.ThreadUpdate) {
			b.Publish(bus.Event{Kind: bus.KindThreadUpdated, Payload: u})
		}),
	), nil
}

func provideSyncEngine(db *store.DB, b *bus.Bus, m *metrics.Feed, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(db, b, logger.Named("sync"), m)
}

func provideConsumer(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *ingest.Consumer {
	return ingest.NewConsumer(ingest.Config{
		URL:               cfg.Ingest.AMQPURL,
		Exchange:          cfg.Ingest.Exchange,
		Queue:             cfg.Ingest.Queue,
		RoutingKey:        cfg.Ingest.RoutingKey,
		BookingRoutingKey: cfg.Ingest.BookingRoutingKey,
		Prefetch:          cfg.Ingest.Prefetch,
	}, b, logger.Named("ingest"))
}

func provideMetricsServer(cfg *config.Config, m *metrics.Feed, logger *zap.Logger) *metrics.Server {
	return metrics.NewServer(cfg.Metrics.ListenAddr, m, logger)
}

func provideFeedService(p Params, cfg *config.Config, c *feed.Controller, b *bus.Bus, logger *zap.Logger) *api.FeedService {
	return api.NewFeedService(c, b, p.Workspace, cfg.Feed.WatchInterval.Duration, logger.Named("api"))
}

// provideServer replaces a stale socket only once the workspace lock is held.
func provideServer(p Params, _ *lock.Lock, logger *zap.Logger, svc *api.FeedService, m *metrics.Feed) (*Server, error) {
	return NewServer(p.socketPath(), logger, svc, m)
}

type lifecycleParams struct {
	fx.In

	Server        *Server
	Lock          *lock.Lock
	DB            *store.DB
	Engine        *intsync.Engine
	Consumer      *ingest.Consumer
	MetricsServer *metrics.Server
	Logger        *zap.Logger
}

func registerLifecycle(lc fx.Lifecycle, lp lifecycleParams) {
	logger := lp.Logger
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Engine first so nothing the consumer publishes is missed.
			lp.Engine.Start(context.Background())

			if err := lp.Consumer.Start(ctx); err != nil {
				// The feed stays readable without ingestion.
				logger.Error("ingest consumer failed to start", zap.Error(err))
			}

			if err := lp.MetricsServer.Start(); err != nil {
				return fmt.Errorf("metrics listener: %w", err)
			}

			go func() {
				if err := lp.Server.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			lp.Server.Stop(ctx)
			if err := lp.Consumer.Stop(); err != nil {
				logger.Warn("error stopping ingest consumer", zap.Error(err))
			}
			lp.Engine.Stop()
			if err := lp.MetricsServer.Stop(ctx); err != nil {
				logger.Warn("error stopping metrics listener", zap.Error(err))
			}
			if err := lp.DB.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lp.Lock.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
