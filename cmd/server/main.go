// Command server runs the permission resolution API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mydetailarea/access/internal/app"
	"github.com/mydetailarea/access/internal/config"
	infrahttp "github.com/mydetailarea/access/internal/infra/http"
	"github.com/mydetailarea/access/internal/infra/http/handler"
	"github.com/mydetailarea/access/internal/infra/http/routes"
	"github.com/mydetailarea/access/internal/infra/memory"
	"github.com/mydetailarea/access/internal/infra/postgres"
	"github.com/mydetailarea/access/internal/infra/redis"
	"github.com/mydetailarea/access/pkg/domain/access"
	"github.com/mydetailarea/access/pkg/logger"
	"github.com/mydetailarea/access/pkg/validator"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault().Error("failed to load configuration", "error", err)
		return 1
	}

	log := initLogger(cfg)
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env)

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return 1
	}
	defer closeWithLog(db, "database", log)
	log.Info("database connected")

	redisClient, err := redis.New(&cfg.Redis, log)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return 1
	}
	defer closeWithLog(redisClient, "redis", log)
	log.Info("redis connected")

	dealershipRepo := postgres.NewDealershipRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	setCache, err := redis.NewCache[access.EffectiveSet](
		redisClient, "perms:"+cfg.Cache.SchemaVersion, cfg.Cache.EffectiveTTL,
	)
	if err != nil {
		log.Error("failed to create redis cache", "error", err)
		return 1
	}
	memCache := memory.NewCache(cfg.Cache.MemorySize, cfg.Cache.EffectiveTTL, cfg.Cache.SchemaVersion)

	catalogSvc := app.NewCatalogService(catalogRepo, cfg.Cache.CatalogTTL, log)
	resolverSvc := app.NewResolverService(
		dealershipRepo, roleRepo, catalogSvc,
		memCache, setCache, cfg.Cache.LayerFetchTimeout, log,
	)
	accessSvc := app.NewAccessService(dealershipRepo, roleRepo, catalogSvc, resolverSvc, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm the catalog so the first request does not pay the load. A
	// failure here is not fatal; resolution retries and fails closed.
	if _, err := catalogSvc.Catalog(ctx); err != nil {
		log.Warn("catalog warm-up failed", "error", err)
	}

	v := validator.New()
	router := routes.New(cfg, log, routes.Handlers{
		Health: handler.NewHealthHandler(db, redisClient),
		Access: handler.NewAccessHandler(resolverSvc, catalogSvc, log),
		Admin:  handler.NewAdminHandler(accessSvc, resolverSvc, v, log),
	})
	server := infrahttp.NewServer(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
			return 1
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error("shutdown error", "error", err)
			return 1
		}
	}

	log.Info("application stopped")
	return 0
}

func initLogger(cfg *config.Config) *logger.Logger {
	if cfg.App.Debug {
		return logger.NewDevelopment()
	}
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	log.SetDefault()
	return log
}

func closeWithLog(c interface{ Close() error }, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
