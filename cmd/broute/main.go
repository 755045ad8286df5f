// broute plans a route on a remote brouter server.
//
//	broute [flags] lon,lat lon,lat [lon,lat ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/brouter-client/pkg/brouter"
	"github.com/lintang-b-s/brouter-client/pkg/cli"
	"github.com/lintang-b-s/brouter-client/pkg/logger"
	"github.com/lintang-b-s/brouter-client/pkg/util"
	"go.uber.org/zap"
)

var (
	serverURL = flag.String("url", "", "brouter server base url (default from config or https://brouter.de)")
)

func main() {
	var opts cli.Options
	opts.Register(flag.CommandLine)
	flag.Parse()

	log, err := logger.NewConsole(opts.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := run(log, opts)
	_ = log.Sync()
	os.Exit(code)
}

func run(log *zap.Logger, opts cli.Options) int {
	points, err := cli.ParsePoints(flag.Args())
	if err != nil {
		log.Error("bad arguments", zap.Error(err))
		return 2
	}

	cfg, err := util.ReadConfig(".")
	if err != nil {
		log.Error("read config", zap.Error(err))
		return 1
	}
	cfg.Backend = util.BackendRemote
	if *serverURL != "" {
		cfg.RemoteURL = *serverURL
	}

	opts.ApplyConfig(&cfg)

	router, err := brouter.NewRouterFromConfig(cfg, log)
	if err != nil {
		log.Error("create router", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, router, points, opts, os.Stdout, log); err != nil {
		log.Error("routing failed", zap.String("kind", util.KindName(err)), zap.Error(err))
		return cli.ExitCode(err)
	}
	return 0
}
