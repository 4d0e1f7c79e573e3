package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	apiv1 "github.com/beam-cloud/mailsync/pkg/api/v1"
	"github.com/beam-cloud/mailsync/pkg/auth"
	"github.com/beam-cloud/mailsync/pkg/cache"
	"github.com/beam-cloud/mailsync/pkg/clients"
	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/mailbox"
	"github.com/beam-cloud/mailsync/pkg/repository"
	"github.com/beam-cloud/mailsync/pkg/scheduler"
	"github.com/beam-cloud/mailsync/pkg/syncer"
	"github.com/beam-cloud/mailsync/pkg/types"
)

const migrationLockTtlS = 60

type Gateway struct {
	Config      types.AppConfig
	RedisClient *common.RedisClient
	BackendRepo *repository.SQLBackend
	httpServer  *http.Server
	echo        *echo.Echo
	ctx         context.Context
	cancelFunc  context.CancelFunc

	baseRouteGroup *echo.Group

	readCache cache.ReadCache
	archive   *clients.ArchiveClient
	syncer    *syncer.Service
	scheduler *scheduler.Scheduler
}

func NewGateway() (*Gateway, error) {
	configManager, err := common.NewConfigManager[types.AppConfig]()
	if err != nil {
		return nil, err
	}
	config := configManager.GetConfig()

	// Setup logging
	if config.PrettyLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	if config.DebugMode {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	secrets, err := common.NewSecretBox(config.Sync.EncryptionKey)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	gateway := &Gateway{
		Config:     config,
		ctx:        ctx,
		cancelFunc: cancel,
	}

	// Local mode: SQLite and in-process cache, no Redis
	if config.IsLocalMode() {
		log.Info().Str("path", config.Database.SQLite.Path).Msg("running in local mode - Redis and Postgres disabled")

		gateway.BackendRepo, err = repository.NewSQLiteBackend(config.Database.SQLite, secrets)
		if err != nil {
			cancel()
			return nil, err
		}
	} else {
		gateway.RedisClient, err = common.NewRedisClient(config.Database.Redis, common.WithClientName("MailsyncGateway"))
		if err != nil {
			cancel()
			return nil, err
		}

		if config.Database.Postgres.Host == "" {
			cancel()
			return nil, fmt.Errorf("remote mode requires database.postgres.host")
		}
		gateway.BackendRepo, err = repository.NewPostgresBackend(config.Database.Postgres, secrets)
		if err != nil {
			cancel()
			return nil, err
		}
	}

	if err := gateway.migrate(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return gateway, nil
}

func (g *Gateway) initLock(name string) (func(), error) {
	// Skip locking in local mode (no Redis)
	if g.RedisClient == nil {
		return func() {}, nil
	}

	lockKey := common.Keys.GatewayInitLock(name)
	lock := common.NewRedisLock(g.RedisClient)

	if err := lock.Acquire(g.ctx, lockKey, common.RedisLockOptions{TtlS: migrationLockTtlS, Retries: 100}); err != nil {
		return nil, err
	}

	return func() {
		if err := lock.Release(lockKey); err != nil {
			log.Error().Str("lock_key", lockKey).Err(err).Msg("failed to release init lock")
		}
	}, nil
}

// migrate runs schema migrations, one replica at a time
func (g *Gateway) migrate() error {
	unlock, err := g.initLock("migrations")
	if err != nil {
		return err
	}
	defer unlock()

	return g.BackendRepo.RunMigrations()
}

func (g *Gateway) initServices() error {
	g.readCache = cache.New(g.Config.Cache, g.RedisClient)

	opts := []syncer.ServiceOption{syncer.WithCache(g.readCache)}

	if g.RedisClient != nil {
		opts = append(opts, syncer.WithLocker(common.NewRedisLock(g.RedisClient)))
	}

	if g.Config.Archive.IsConfigured() {
		archive, err := clients.NewArchiveClient(g.ctx, g.Config.Archive)
		if err != nil {
			return fmt.Errorf("failed to create archive client: %w", err)
		}
		if err := archive.EnsureBucket(g.ctx); err != nil {
			log.Warn().Err(err).Str("bucket", archive.Bucket()).Msg("archive bucket unavailable")
		}
		g.archive = archive
		opts = append(opts, syncer.WithArchiver(archive))
		log.Info().Str("bucket", archive.Bucket()).Msg("raw message archive enabled")
	}

	g.syncer = syncer.NewService(g.BackendRepo, mailbox.NewIMAPDialer(), g.Config.Sync, opts...)

	if g.Config.Scheduler.Enabled {
		g.scheduler = scheduler.NewScheduler(g.ctx, g.Config.Scheduler, g.RedisClient, g.syncer)
		if err := g.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	return nil
}

func (g *Gateway) initHTTP() error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())

	// Configure logging middleware
	if g.Config.Gateway.HTTP.EnablePrettyLogs {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${method} ${uri} ${status} ${latency_human}\n",
		}))
	}

	// CORS
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: g.Config.Gateway.HTTP.CORS.AllowedOrigins,
		AllowHeaders: g.Config.Gateway.HTTP.CORS.AllowedHeaders,
		AllowMethods: g.Config.Gateway.HTTP.CORS.AllowedMethods,
	}))

	e.Use(middleware.Recover())

	validator := auth.NewCompositeValidator(g.Config.Gateway.AuthToken, auth.NewJWTValidator(g.Config.Auth))
	e.Use(auth.HTTPMiddleware(validator))

	g.echo = e
	g.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", g.Config.Gateway.HTTP.Host, g.Config.Gateway.HTTP.Port),
		Handler: e,
	}

	g.baseRouteGroup = e.Group(apiv1.HttpServerBaseRoute)

	apiv1.NewHealthGroup(g.baseRouteGroup.Group("/health"), g.BackendRepo, g.RedisClient)
	apiv1.NewSyncGroup(g.baseRouteGroup.Group("/sync"), g.BackendRepo, g.syncer)
	apiv1.NewAccountsGroup(g.baseRouteGroup.Group("/accounts"), g.BackendRepo, g.syncer, g.readCache)
	apiv1.NewMessagesGroup(g.baseRouteGroup.Group("/messages"), g.BackendRepo, g.syncer)
	apiv1.NewJobsGroup(g.baseRouteGroup.Group("/jobs"), g.BackendRepo, g.syncer)

	return nil
}

// StartAsync starts the gateway without blocking.
func (g *Gateway) StartAsync() error {
	if err := g.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := g.initHTTP(); err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}

	lis, err := net.Listen("tcp", g.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on http: %w", err)
	}

	go func() {
		if err := g.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	log.Info().
		Str("host", g.Config.Gateway.HTTP.Host).
		Int("port", g.Config.Gateway.HTTP.Port).
		Str("mode", g.Config.Mode).
		Bool("scheduler", g.scheduler != nil).
		Msg("gateway http server running")

	return nil
}

// Shutdown gracefully shuts down the gateway (exported for external use)
func (g *Gateway) Shutdown() {
	g.shutdown()
}

func (g *Gateway) Start() error {
	if err := g.StartAsync(); err != nil {
		return err
	}

	terminationSignal := make(chan os.Signal, 1)
	signal.Notify(terminationSignal, os.Interrupt, syscall.SIGTERM)
	<-terminationSignal

	log.Info().Msg("termination signal received. shutting down...")
	g.shutdown()

	return nil
}

// shutdown gracefully shuts down the gateway
func (g *Gateway) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), g.Config.Gateway.ShutdownTimeout)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	// Stop HTTP server
	if g.httpServer != nil {
		eg.Go(func() error {
			return g.httpServer.Shutdown(ctx)
		})
	}

	// Stop scheduler
	if g.scheduler != nil {
		eg.Go(func() error {
			return g.scheduler.Stop()
		})
	}

	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("failed to shutdown gateway gracefully")
	}

	// The store outlives in-flight requests
	if err := g.BackendRepo.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close store")
	}
	if g.RedisClient != nil {
		if err := g.RedisClient.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis")
		}
	}

	g.cancelFunc()
	log.Info().Msg("gateway stopped")
}

// Syncer returns the sync service
func (g *Gateway) Syncer() *syncer.Service {
	return g.syncer
}

// Echo returns the HTTP router, available after StartAsync
func (g *Gateway) Echo() *echo.Echo {
	return g.echo
}
