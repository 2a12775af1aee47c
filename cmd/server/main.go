package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/nft-bank-marketplace/internal/address"
	"github.com/iliyamo/nft-bank-marketplace/internal/catalog"
	"github.com/iliyamo/nft-bank-marketplace/internal/config"
	"github.com/iliyamo/nft-bank-marketplace/internal/database"
	"github.com/iliyamo/nft-bank-marketplace/internal/handler"
	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
	"github.com/iliyamo/nft-bank-marketplace/internal/metrics"
	"github.com/iliyamo/nft-bank-marketplace/internal/middleware"
	"github.com/iliyamo/nft-bank-marketplace/internal/model"
	"github.com/iliyamo/nft-bank-marketplace/internal/notify"
	"github.com/iliyamo/nft-bank-marketplace/internal/queue"
	"github.com/iliyamo/nft-bank-marketplace/internal/repository"
	"github.com/iliyamo/nft-bank-marketplace/internal/router"
	"github.com/iliyamo/nft-bank-marketplace/internal/service"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	nftCfg := config.LoadNFTConfig()

	log, err := logger.New(cfg.Dev())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.ParamsFrom(cfg))
	if err != nil {
		log.Fatalw("open database", "err", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalw("migrate", "err", err)
		}
	}

	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		log.Warnw("redis unavailable, cache and rate limit disabled", "err", err)
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher
	if qc := config.LoadQueueConfig(); qc.Enabled {
		events = queue.NewPublisher(qc.URL, qc.QueueName, log)
		consumer := queue.NewConsumer(qc.URL, qc.QueueName, log, notify.Handler(newNotifier(log)))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorw("transfer consumer stopped", "err", err)
			}
		}()
	}

	assets := os.DirFS(nftCfg.AssetRoot)
	images := catalog.ImagePicker{
		FS: assets,
		Dirs: map[model.CollectionKind]string{
			model.KindA: nftCfg.AssetDirA,
			model.KindB: nftCfg.AssetDirB,
		},
		FallbackPrefix: nftCfg.FallbackImagePrefix,
	}
	catalogSvc := service.NewCatalogService(db, nftCfg, images, events, log)
	addrs := address.Generator{
		Salt: nftCfg.AddressSalt,
		OnFallback: func(kind address.Kind, userID uint64, err error) {
			log.Warnw("address derivation fell back to random", "kind", kind, "user_id", userID, "err", err)
		},
	}
	accounts := service.NewAccountService(repository.NewCardRepo(db), addrs, nftCfg.StartingBalanceCents, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(metrics.Middleware())

	cacheCfg := config.LoadCacheConfig()
	deps := router.NFTDeps{
		NFT:         handler.NewNFTHandler(catalogSvc, log, invalidator(rdb, cacheCfg, log)),
		Marketplace: handler.NewMarketplaceHandler(catalogSvc, log),
		Status:      handler.NewStatusHandler(nftCfg),
		Assets:      handler.NewAssetHandler(assets, nftCfg.ProxyDirs),
		JWTSecret:   cfg.JWTSecret,
	}
	if rdb != nil {
		deps.Cache = middleware.NewRedisCache(cacheCfg, rdb)
		deps.RateLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	}

	router.RegisterRoutes(e, handler.Ready(db, rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, db, repository.NewUserRepo(db), repository.NewTokenRepo(db), accounts, log), cfg.JWTSecret)
	router.RegisterNFT(e, deps)
	router.RegisterAdmin(e, handler.NewAdminHandler(catalogSvc, accounts, log), cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.Infow("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutdown", "err", err)
	}
}

func newNotifier(log *logger.Logger) notify.Notifier {
	tc := config.LoadTelegramConfig()
	if !tc.Enabled() {
		return notify.LogNotifier{Log: log}
	}
	n, err := notify.NewTelegramNotifier(log, tc.Token, tc.ChatID)
	if err != nil {
		log.Warnw("telegram notifier disabled", "err", err)
		return notify.LogNotifier{Log: log}
	}
	return n
}

// invalidator drops cached marketplace pages after a write.
func invalidator(rdb *redis.Client, cc config.CacheConfig, log *logger.Logger) func(ctx context.Context) {
	if rdb == nil || !cc.Enabled {
		return nil
	}
	return func(ctx context.Context) {
		if err := middleware.PurgeCache(ctx, rdb, cc.Prefix); err != nil {
			log.Warnw("purge marketplace cache", "err", err)
		}
	}
}
