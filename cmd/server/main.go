package main

import (
	"context"
	"flag"

	"github.com/lintang-b-s/brouter-client/pkg/brouter"
	"github.com/lintang-b-s/brouter-client/pkg/http"
	http_server "github.com/lintang-b-s/brouter-client/pkg/http/server"
	"github.com/lintang-b-s/brouter-client/pkg/http/usecases"
	"github.com/lintang-b-s/brouter-client/pkg/logger"
	"github.com/lintang-b-s/brouter-client/pkg/metrics"
	"github.com/lintang-b-s/brouter-client/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var (
	configDir = flag.String("config", ".", "directory containing config.yaml")
	warmup    = flag.Bool("warmup", true, "acquire the local engine bundle before serving")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := util.ReadConfig(*configDir)
	if err != nil {
		logger.Fatal("read config", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metric, err := metrics.NewMetric(reg)
	if err != nil {
		logger.Fatal("register metrics", zap.Error(err))
	}

	router, err := brouter.NewRouterFromConfig(cfg, logger, brouter.WithMetric(metric))
	if err != nil {
		logger.Fatal("create router", zap.Error(err))
	}

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if local, ok := router.Backend().(*brouter.LocalBackend); ok && *warmup {
		if _, err := local.Acquire(ctx); err != nil {
			// routes retry acquisition, so a missing bundle is not fatal here
			logger.Warn("engine bundle not ready", zap.Error(err))
		}
	}

	api := http.NewServer(logger)
	routingService := usecases.NewRoutingService(logger, router)
	api.Use(ctx, cfg, routingService, reg)

	logger.Info("brouter client server started", zap.Int("port", cfg.APIPort), zap.String("backend", router.Backend().Name()))

	errc := make(chan error, 1)
	go func() { errc <- api.Wait() }()

	sigc := make(chan string, 1)
	go func() { sigc <- http_server.GracefulShutdown().String() }()

	select {
	case sig := <-sigc:
		logger.Info("brouter client server stopped", zap.String("signal", sig))
		cleanup()
		if err := <-errc; err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errc:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}
