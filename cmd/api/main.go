package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"communitylog/internal/auditlog"
	"communitylog/internal/auth"
	"communitylog/internal/config"
	"communitylog/internal/events"
	"communitylog/internal/httpapi"
	"communitylog/internal/invites"
	"communitylog/internal/journal"
	"communitylog/internal/platform"
	"communitylog/internal/settings"
	"communitylog/pkg/logger"
	"communitylog/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

const eventQueueSize = 1024

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Settings backend strategy is fixed at startup.
	var store settings.Store
	switch cfg.Settings.Backend {
	case config.SettingsBackendRemote:
		store = settings.NewRemoteStore(cfg.Settings)
	default:
		store = settings.NewPostgresStore(db)
	}
	cache := settings.NewCache(store, cfg.Settings.CacheTTL)

	provider := platform.NewRESTClient(cfg.Platform)
	vanity := invites.NewVanityCache(rdb, 0, logger.Component(log, "vanity_cache"))
	ledger := invites.NewLedger(provider, vanity, logger.Component(log, "invite_ledger"))
	correlator := auditlog.NewCorrelator(provider, logger.Component(log, "audit_correlator"))
	journalSvc := journal.NewService(journal.NewPostgresRepo(db))

	queue := make(chan events.Event, eventQueueSize)

	router := events.NewRouter(cache, ledger, correlator, events.NewLogSink(logger.Component(log, "sink")))
	router.Dedupe = redisDeduper{rdb: rdb}
	router.Journals = journalSvc
	router.Channels = provider
	router.DefaultChannelID = cfg.Settings.DefaultLogChannelID
	router.CallTimeout = cfg.Platform.CallTimeout
	router.Log = logger.Component(log, "router")

	routerDone := make(chan struct{})
	go func() {
		defer close(routerDone)
		router.Run(rootCtx, queue)
	}()

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Auth:     authManager,
		Settings: cache,
		Journal:  journalSvc,
		Ingest:   queue,
	}
	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "settings_backend", cfg.Settings.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// Let in-flight event handlers drain before the process exits.
	select {
	case <-routerDone:
	case <-shutdownCtx.Done():
		log.Warn("router drain timed out")
	}
}

// redisDeduper adapts the shared redis claim helper to the router's
// dedupe contract.
type redisDeduper struct {
	rdb *redis.Client
}

func (d redisDeduper) ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return utils.ClaimOnce(ctx, d.rdb, key, ttl)
}

func (d redisDeduper) ReleaseClaim(ctx context.Context, key string) error {
	return utils.ReleaseClaim(ctx, d.rdb, key)
}
