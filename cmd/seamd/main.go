package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/seamfix/internal/cache"
	"github.com/mohammed-shakir/seamfix/internal/cache/redisstore"
	"github.com/mohammed-shakir/seamfix/internal/cache/tiered"
	"github.com/mohammed-shakir/seamfix/internal/core/config"
	"github.com/mohammed-shakir/seamfix/internal/core/observability"
	"github.com/mohammed-shakir/seamfix/internal/core/server"
	"github.com/mohammed-shakir/seamfix/internal/logger"
	"github.com/mohammed-shakir/seamfix/internal/metrics"
	"github.com/mohammed-shakir/seamfix/internal/service"
	"github.com/mohammed-shakir/seamfix/internal/stream/kafkaconsumer"
	"github.com/mohammed-shakir/seamfix/pkg/crs"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	// a missing .env is fine; the environment may already be set
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("load env file", "file", *envFile, "err", err)
		return 1
	}

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "seamd",
		Component: "main",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting seamd",
		"addr", cfg.Addr,
		"version", Version,
		"cache", cfg.Cache.Enabled,
		"kafka", cfg.Kafka.Enabled)

	if cfg.CRSDefinitions != "" {
		n, err := crs.LoadDefinitionsFile(cfg.CRSDefinitions)
		if err != nil {
			appLog.Error("load crs definitions", "file", cfg.CRSDefinitions, "err", err)
			return 1
		}
		appLog.Info("crs definitions loaded", "file", cfg.CRSDefinitions, "count", n)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := metrics.Init(metrics.Config{
		Enabled: cfg.Metrics.Enabled,
		Addr:    cfg.Metrics.Addr,
		Path:    cfg.Metrics.Path,
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	if err := observability.Init(p.Registerer(), cfg.Metrics.Enabled); err != nil {
		appLog.Error("register metrics", "err", err)
		return 1
	}

	deps := server.Deps{}
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Addr != "" {
			go func() {
				if err := p.Serve(ctx, cfg.Metrics.Addr, appLog); err != nil {
					appLog.Error("metrics server exited", "err", err)
				}
			}()
		} else {
			deps.Metrics = p.Handler()
		}
	}

	var store cache.Interface = cache.Noop{}
	if cfg.Cache.Enabled {
		var shared cache.Interface
		if cfg.Cache.RedisAddr != "" {
			rc, err := redisstore.New(ctx, cfg.Cache.RedisAddr)
			if err != nil {
				appLog.Error("redis client", "addr", cfg.Cache.RedisAddr, "err", err)
				return 1
			}
			defer func() { _ = rc.Close() }()
			shared = rc
			deps.Ready.Redis = rc
		}
		store = tiered.New(shared, tiered.Options{
			Size:      cfg.Cache.LRUSize,
			TTL:       cfg.Cache.TTL,
			OpTimeout: cfg.Cache.OpTimeout,
		})
	}

	svc := service.New(service.Options{
		Cache:  store,
		TTL:    cfg.Cache.TTL,
		Datum:  cfg.UTMDatum,
		H3Res:  cfg.H3Res,
		Logger: appLog,
	})
	deps.Operator = svc

	if cfg.Kafka.Enabled {
		kzl := logger.Build(logger.Config{
			Level:     cfg.LogLevel,
			Console:   cfg.LogConsole,
			SampleN:   cfg.LogSampleN,
			Service:   "seamd",
			Component: "kafka_consumer",
		}, os.Stdout)
		kc := kafkaconsumer.New(kafkaconsumer.FromConfig(cfg.Kafka), svc, nil, kafkaconsumer.Options{
			Logger:  appLog,
			ZeroLog: &kzl,
		})
		if err := kc.Start(ctx); err != nil {
			appLog.Error("kafka consumer setup failed", "err", err)
			return 1
		}
		defer kc.Stop()
		deps.Ready.Worker = kc
	}

	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
