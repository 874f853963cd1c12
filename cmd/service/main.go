package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/helloiam/internal/app"
	"github.com/dropDatabas3/helloiam/internal/config"
	httpserver "github.com/dropDatabas3/helloiam/internal/http"
	"github.com/dropDatabas3/helloiam/internal/observability/logger"
)

func main() {
	configPath := flag.String("config", "", "ruta a config.yaml (opcional; env pisa yaml)")
	flag.Parse()

	// .env local, best-effort
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:         string(cfg.App.Env),
		Level:       cfg.Log.Level,
		ServiceName: "helloiam",
	})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := app.New(ctx, cfg)
	defer c.Store.Close()

	metricsHandler, err := httpserver.RegisterMetrics(nil)
	if err != nil {
		logger.L().Error("metrics_register_failed", logger.Err(err))
		os.Exit(1)
	}

	h := httpserver.NewAuthHandler(c.Auth, c.Store, cfg.App.Env)
	router := httpserver.NewRouter(h, c.Limiter, metricsHandler)

	logger.L().Info("service_start",
		logger.String("addr", cfg.Server.Addr),
		logger.Backend(c.Backend),
		logger.String("env", string(cfg.App.Env)))

	if err := httpserver.Serve(ctx, cfg.Server.Addr, router); err != nil {
		logger.L().Error("service_exit", logger.Err(err))
		os.Exit(1)
	}
}
