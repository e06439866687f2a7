package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"investcore/internal/auth"
	"investcore/internal/clock"
	"investcore/internal/config"
	cronrunner "investcore/internal/cron"
	"investcore/internal/db"
	"investcore/internal/handler"
	"investcore/internal/lock"
	"investcore/internal/logger"
	"investcore/internal/notifier"
	gormrepository "investcore/internal/repository/gorm"
	"investcore/internal/service"
)

func main() {
	cfgPath := os.Getenv("IC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("IC_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	notify := &notifier.StoreNotifier{Repo: store, Logger: logger}
	clk := clock.System()

	sweepLock := lock.Noop()
	if cfg.SweepLock.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.SweepLock.RedisAddr,
			DB:   cfg.SweepLock.RedisDB,
		})
		defer rdb.Close()
		sweepLock = lock.NewRedisLock(rdb, "investcore:sweep:maturity", cfg.SweepLock.TTL)
	}

	sweeper := &service.Sweeper{
		Repo:     store,
		Notifier: notify,
		Clock:    clk,
		Lock:     sweepLock,
		Config:   cfg.Accrual,
		Logger:   logger,
	}
	lifecycle := &service.LifecycleService{
		Repo:     store,
		Notifier: notify,
		Clock:    clk,
		Config:   cfg.Accrual,
		Logger:   logger,
	}
	purchases := &service.PurchaseService{
		Repo:     store,
		Notifier: notify,
		Clock:    clk,
		Config:   cfg.Accrual,
		Logger:   logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(handler.Metrics())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwt := auth.JWT{Secret: []byte(cfg.Auth.JWTSecret)}
	api := engine.Group("/api/v1", auth.Middleware(jwt))

	investmentHandler := &handler.InvestmentHandler{Repo: store, Purchases: purchases, Lifecycle: lifecycle}
	investmentHandler.Register(api)
	profileHandler := &handler.ProfileHandler{Repo: store}
	profileHandler.Register(api)

	admin := api.Group("/admin", auth.RequireAdmin())
	adminHandler := &handler.AdminHandler{Repo: store, Lifecycle: lifecycle, Sweeper: sweeper}
	adminHandler.Register(admin)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.Sweep, func(ctx context.Context) {
			if _, err := sweeper.RunOnce(ctx); err != nil {
				logger.Warn("scheduled sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Fatal("register sweep job failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
