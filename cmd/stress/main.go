// Package main wires the stress CLI entrypoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"thread-stress/internal/buildinfo"
	"thread-stress/pkg/cpustat"
	metricshttp "thread-stress/pkg/http/metrics"
	"thread-stress/pkg/stress"
)

const (
	defaultConfigPath = "/etc/thread-stress/config.yaml"
	defaultLogLevel   = "info"
	usageLine         = "Arguments: [worker_num] [duration (seconds)]"

	httpShutdownTimeout = 5 * time.Second

	exitCodeSuccess      = 0
	exitCodeUsageError   = 1
	exitCodeRuntimeError = 1
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], defaultRunDeps(), os.Stdout, os.Stderr)

	stop()

	if code != 0 {
		exitProcess(code)
	}
}

var exitProcess = os.Exit //nolint:gochecknoglobals // replaceable for tests

type runDeps struct {
	newLogger        func(cfg logConfig) (*zap.Logger, error)
	loadConfig       func(path string) (runtimeConfig, error)
	currentBuildInfo func() buildinfo.Info
	newRunID         func() string
	newExporter      func() *metricshttp.Exporter
	startHTTPServer  func(
		bind string,
		handler http.Handler,
		logger *zap.Logger,
	) (func(context.Context) error, error)
	newSampler  func(cfg samplerConfig) *cpustat.Sampler
	poolOptions []stress.Option
}

func defaultRunDeps() runDeps {
	return runDeps{
		newLogger:        newLogger,
		loadConfig:       loadConfig,
		currentBuildInfo: buildinfo.Current,
		newRunID:         uuid.NewString,
		newExporter:      metricshttp.NewExporter,
		startHTTPServer:  startHTTPServer,
		newSampler: func(cfg samplerConfig) *cpustat.Sampler {
			return cpustat.NewSampler(cpustat.FileSource{Path: cfg.Path}, cfg.Interval)
		},
		poolOptions: nil,
	}
}

//nolint:funlen // linear wiring of the run phases
func run(ctx context.Context, args []string, deps runDeps, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args)
	if err != nil {
		return writeUsage(stderr, err)
	}

	if opts.showVersion {
		_, _ = fmt.Fprintln(stdout, deps.currentBuildInfo().String())

		return exitCodeSuccess
	}

	cfg, err := deps.loadConfig(opts.configPath)
	if err != nil {
		return writeError(stderr, fmt.Errorf("failed to load configuration: %w", err), exitCodeRuntimeError)
	}

	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, err := deps.newLogger(cfg.Log)
	if err != nil {
		return writeError(stderr, fmt.Errorf("failed to configure logger: %w", err), exitCodeRuntimeError)
	}

	defer func() {
		_ = logger.Sync()
	}()

	logger = logger.With(zap.String("runID", deps.newRunID()))
	logger.Info(
		"starting thread-stress",
		append(
			deps.currentBuildInfo().Fields(),
			zap.Int("workers", opts.workers),
			zap.Int("durationSeconds", opts.duration),
			zap.String("loadMode", cfg.Load.Mode.String()),
			zap.Bool("parallelShutdown", cfg.Pool.ParallelShutdown),
			zap.String("configPath", opts.configPath),
		)...,
	)

	exporter := deps.newExporter()

	poolOpts := append([]stress.Option{
		stress.WithSink(stress.Tee(stress.NewConsoleSink(stdout), stress.NewLogSink(logger), exporter)),
		stress.WithLoadMode(cfg.Load.Mode),
		stress.WithParallelShutdown(cfg.Pool.ParallelShutdown),
	}, deps.poolOptions...)

	pool, err := stress.NewPool(opts.workers, poolOpts...)
	if err != nil {
		logger.Error("failed to build worker pool", zap.Error(err))

		return exitCodeRuntimeError
	}

	err = exporter.TrackIterations(pool.Iterations)
	if err != nil {
		logger.Warn("iteration metric unavailable", zap.Error(err))
	}

	if cfg.HTTP.Bind != "" {
		stopServer, serverErr := deps.startHTTPServer(cfg.HTTP.Bind, newMux(exporter, pool), logger)
		if serverErr != nil {
			logger.Error("failed to start http server", zap.Error(serverErr))

			return exitCodeRuntimeError
		}

		defer stopHTTPServer(stopServer, logger)
	}

	samplingCtx, cancelSampling := context.WithCancel(ctx)
	defer cancelSampling()

	samplingDone := startSampling(samplingCtx, deps, cfg.Sampler, exporter, logger)

	err = pool.Start()
	if err != nil {
		logger.Error("failed to start workers", zap.Error(err))

		return exitCodeRuntimeError
	}

	runErr := pool.RunFor(ctx, opts.duration)
	if runErr != nil {
		logger.Info("load phase interrupted", zap.Error(runErr))
	}

	err = pool.Shutdown()
	if err != nil {
		logger.Error("failed to shut down workers", zap.Error(err))

		return exitCodeRuntimeError
	}

	cancelSampling()
	<-samplingDone

	logger.Info("all workers terminated", zap.Uint64("iterations", pool.Iterations()))

	return exitCodeSuccess
}

func startSampling(
	ctx context.Context,
	deps runDeps,
	cfg samplerConfig,
	exporter *metricshttp.Exporter,
	logger *zap.Logger,
) <-chan struct{} {
	done := make(chan struct{})

	if !cfg.Enabled || deps.newSampler == nil {
		close(done)

		return done
	}

	sampler := deps.newSampler(cfg)
	logger.Info("host cpu sampling started", zap.Duration("interval", sampler.Interval()))

	observations := sampler.Run(ctx)

	go func() {
		defer close(done)

		for obs := range observations {
			if obs.Err != nil {
				logger.Debug("host cpu sample failed", zap.Error(obs.Err))

				continue
			}

			exporter.ObserveHostCPU(obs.Ratio)
			logger.Debug("host cpu sample", zap.Float64("ratio", obs.Ratio))
		}
	}()

	return done
}

func stopHTTPServer(stop func(context.Context) error, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()

	err := stop(ctx)
	if err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}
}

func writeUsage(dst io.Writer, err error) int {
	if errors.Is(err, errArgumentCount) {
		_, _ = fmt.Fprintln(dst, usageLine)

		return exitCodeUsageError
	}

	_, _ = fmt.Fprintf(dst, "%v; %s\n", err, usageLine)

	return exitCodeUsageError
}

func writeError(dst io.Writer, err error, code int) int {
	if err == nil {
		return code
	}

	_, _ = fmt.Fprintf(dst, "%v\n", err)

	return code
}

type options struct {
	configPath  string
	logLevel    string
	showVersion bool
	workers     int
	duration    int
}

var (
	errArgumentCount   = errors.New("expected worker count and duration")
	errInvalidWorkers  = errors.New("worker count must be a positive integer")
	errInvalidDuration = errors.New("duration must be a non-negative integer")
)

func parseArgs(args []string) (options, error) {
	var opts options

	flagSet := flag.NewFlagSet("stress", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(
		&opts.configPath,
		"config",
		defaultConfigPath,
		"Path to the stress configuration file",
	)
	flagSet.StringVar(
		&opts.logLevel,
		"log-level",
		"",
		"Structured log level (debug, info, warn, error); overrides the config file",
	)
	flagSet.BoolVar(&opts.showVersion, "version", false, "Print build information and exit")

	err := flagSet.Parse(args)
	if err != nil {
		return options{}, fmt.Errorf("parse CLI arguments: %w", err)
	}

	if opts.showVersion {
		return opts, nil
	}

	positional := flagSet.Args()
	if len(positional) != 2 {
		return options{}, fmt.Errorf("%w: got %d", errArgumentCount, len(positional))
	}

	opts.workers, err = strconv.Atoi(strings.TrimSpace(positional[0]))
	if err != nil || opts.workers <= 0 {
		return options{}, fmt.Errorf("%w: %q", errInvalidWorkers, positional[0])
	}

	opts.duration, err = strconv.Atoi(strings.TrimSpace(positional[1]))
	if err != nil || opts.duration < 0 {
		return options{}, fmt.Errorf("%w: %q", errInvalidDuration, positional[1])
	}

	opts.logLevel = strings.TrimSpace(opts.logLevel)

	opts.configPath = strings.TrimSpace(opts.configPath)
	if opts.configPath == "" {
		opts.configPath = defaultConfigPath
	}

	return opts, nil
}
