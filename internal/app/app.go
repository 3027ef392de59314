package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/qrlink/internal/config"
	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver"
	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/maintenance"
	"github.com/MrSnakeDoc/qrlink/internal/qr"
	"github.com/MrSnakeDoc/qrlink/internal/redis"
	"github.com/MrSnakeDoc/qrlink/internal/store"
	"github.com/MrSnakeDoc/qrlink/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/qrlink/internal/store/redis"
	"github.com/MrSnakeDoc/qrlink/internal/store/sqlite"
	"github.com/MrSnakeDoc/qrlink/internal/utils"
	"github.com/MrSnakeDoc/qrlink/internal/version"
)

// App owns every long-lived resource. Build it with New and release it with
// Close.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	store       store.Store
	cache       store.Cache
	redisClient *goredis.Client
	links       *links.Service
}

// New opens the store and, depending on configuration, the link cache.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: log}

	st, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	a.store = st

	if err := a.openCache(ctx); err != nil {
		a.Close()
		return nil, err
	}

	opts := []links.Option{
		links.WithMaxAttempts(cfg.ShortIDAttempts),
		links.WithDisplayLocation(cfg.Location()),
		links.WithRenderer(qr.NewRenderer()),
	}
	if a.cache != nil {
		opts = append(opts, links.WithCache(a.cache))
	}
	a.links = links.NewService(a.store, domain.NewNanoIDAllocator(cfg.ShortIDLength), log.Named("links"), opts...)

	return a, nil
}

func openStore(cfg *config.Config, log logger.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn("using the in-memory store, links are lost on restart")
		return memory.NewStore(), nil
	default:
		st, err := sqlite.Open(cfg.SQLiteFile)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite store opened", logger.String("file", cfg.SQLiteFile))
		return st, nil
	}
}

func (a *App) openCache(ctx context.Context) error {
	switch a.cfg.CacheDriver {
	case config.CacheRedis:
		client, err := redis.Connect(ctx, a.cfg.Redis, a.logger.Named("redis"))
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redisClient = client
		a.cache = redisstore.NewLinkCache(client, a.cfg.CacheTTL)
	case config.CacheMemory:
		a.cache = memory.NewCache(a.cfg.CacheTTL)
	default:
		a.logger.Info("link cache disabled")
	}
	return nil
}

// Links returns the link service.
func (a *App) Links() *links.Service { return a.links }

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// within ShutdownTimeout.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Infof("🚀 Starting qrlink %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	checks := map[string]deps.Pinger{"store": a.store}
	if a.redisClient != nil {
		checks["redis"] = redisPinger{a.redisClient}
	}

	d := deps.Deps{
		Logger:         a.logger,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		Links:          a.links,
		Checks:         checks,
		PublicBaseURL:  a.cfg.PublicBaseURL,
		DefaultRender:  a.cfg.QR,
		MaxBodyBytes:   a.cfg.MaxBodyBytes,
		RequestTimeout: a.cfg.RequestTimeout,
		AllowedHosts:   a.cfg.AllowedHosts,
		AllowedCIDRS:   a.cfg.AllowedCIDRS,
		TrustProxy:     a.cfg.TrustProxy,
	}

	server := httpserver.New(a.cfg.ListenPort, d)

	if repairer, ok := a.store.(store.ExpirationRepairer); ok && a.cfg.RepairInterval > 0 {
		sched := maintenance.NewScheduler(
			maintenance.NewRepairer(repairer, a.cache, a.logger.Named("repair")),
			a.cfg.RepairInterval,
			a.logger.Named("repair"),
		)
		sched.Start(ctx)
		defer sched.Stop()
		a.logger.Info("expiration repair scheduled",
			logger.Duration("interval", a.cfg.RepairInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}

// Repair runs the expiration repair pass once.
func (a *App) Repair(ctx context.Context, dryRun bool) (maintenance.Report, error) {
	repairer, ok := a.store.(store.ExpirationRepairer)
	if !ok {
		return maintenance.Report{}, errors.New("store does not support expiration repair")
	}
	return maintenance.NewRepairer(repairer, a.cache, a.logger.Named("repair")).Run(ctx, dryRun)
}

// Close releases the store and the Redis client.
func (a *App) Close() {
	if a.store != nil {
		utils.MustClose(a.store, "store", a.logger)
	}
	if a.redisClient != nil {
		utils.MustClose(a.redisClient, "redis", a.logger)
	}
	a.logger.Info("✅ qrlink stopped cleanly")
}

type redisPinger struct{ client *goredis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }
