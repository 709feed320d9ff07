package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/DemoMacro/jumpstats/config"
	appmodel "github.com/DemoMacro/jumpstats/internal/app/model"
	apprepository "github.com/DemoMacro/jumpstats/internal/app/repository"
	appserver "github.com/DemoMacro/jumpstats/internal/app/server"
	appservice "github.com/DemoMacro/jumpstats/internal/app/service"
	infraClickHouse "github.com/DemoMacro/jumpstats/internal/infra/clickhouse"
	"github.com/DemoMacro/jumpstats/internal/infra/logger"
	infraNATS "github.com/DemoMacro/jumpstats/internal/infra/nats"
	infraPostgres "github.com/DemoMacro/jumpstats/internal/infra/postgres"
	infraPrometheus "github.com/DemoMacro/jumpstats/internal/infra/prometheus"
	infraRedis "github.com/DemoMacro/jumpstats/internal/infra/redis"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded",
		zap.String("default_host", cfg.Server.DefaultHost),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.String("clickhouse_host", cfg.ClickHouse.Host),
		zap.String("redis_host", cfg.Redis.Host),
		zap.String("nats_host", cfg.NATS.Host),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.Link{},
		&appmodel.Domain{},
		&appmodel.Member{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres")

	clickhouseDB, err := infraClickHouse.NewGorm(cfg.ClickHouse)
	if err != nil {
		log.Fatal("Failed to connect to ClickHouse", zap.Error(err))
	}
	if err := infraClickHouse.EnsureSchema(ctx, clickhouseDB); err != nil {
		log.Fatal("Failed to ensure ClickHouse schema", zap.Error(err))
	}
	log.Info("Connected to ClickHouse")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS")

	events := apprepository.NewClickEventRepository(clickhouseDB)
	consumer := appservice.NewClickConsumer(js, log, events)
	if err := consumer.Start(); err != nil {
		log.Fatal("Failed to start click consumer", zap.Error(err))
	}
	log.Info("Click consumer started")

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	server := appserver.New(appserver.Dependencies{
		Logger:     log,
		Config:     cfg,
		Postgres:   gormDB,
		Pool:       pool,
		ClickHouse: clickhouseDB,
		Redis:      redisClient,
		JetStream:  js,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting HTTP server", zap.String("addr", addr))
	if err := server.Listen(addr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
