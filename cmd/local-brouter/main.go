// local-brouter plans a route with a brouter engine bundle extracted into
// the local cache, without any network access unless -download-segments is set.
//
//	local-brouter [flags] lon,lat lon,lat [lon,lat ...]
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
	archive          = flag.String("archive", "", "engine bundle archive (.zip, .tar.gz, .tgz, .tar.bz2)")
	cacheDir         = flag.String("cache-dir", "", "engine cache root (default: user cache dir)")
	executable       = flag.String("executable", "", "engine launcher relative to the bundle, instead of java -cp <jar>")
	segmentsDir      = flag.String("segments-dir", "", "directory with *.rd5 routing data")
	downloadSegments = flag.Bool("download-segments", false, "fetch missing *.rd5 segments before routing")
	profileFile      = flag.String("upload-profile", "", "store this .brf file as a custom profile and route with it")
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
	cfg.Backend = util.BackendLocal
	if *archive != "" {
		cfg.BundleArchive = *archive
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}
	if *executable != "" {
		cfg.EngineExecutable = *executable
	}
	if *segmentsDir != "" {
		cfg.SegmentsDir = *segmentsDir
	}
	cfg.DownloadSegments = cfg.DownloadSegments || *downloadSegments

	opts.ApplyConfig(&cfg)

	router, err := brouter.NewRouterFromConfig(cfg, log)
	if err != nil {
		log.Error("create router", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *profileFile != "" {
		data, err := os.ReadFile(*profileFile)
		if err != nil {
			log.Error("read profile", zap.Error(err))
			return 2
		}
		id, err := router.UploadProfile(ctx, data)
		if err != nil {
			log.Error("profile upload failed", zap.Error(err))
			return cli.ExitCode(err)
		}
		log.Info("custom profile stored", zap.String("profile", id))
		opts.Profile = id
	}

	if err := cli.Run(ctx, router, points, opts, os.Stdout, log); err != nil {
		log.Error("routing failed", zap.String("kind", util.KindName(err)), zap.Error(err))
		return cli.ExitCode(err)
	}
	return 0
}
