package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"tradeplot/internal/app"
	"tradeplot/internal/config"
	"tradeplot/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run returns the process exit status: 0 on success, 1 on any failure.
func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("tradeplot", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "internal/config/config.yaml", "path to config file")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		fmt.Fprintf(stderr, "failed to create output dir: %v\n", err)
		return 1
	}
	// the log file is recreated each run, so drop it before the logger opens it
	logRemoved, err := app.RemoveOutput(cfg.Log.File)
	if err != nil {
		fmt.Fprintf(stderr, "failed to remove old log: %v\n", err)
		return 1
	}

	runID := uuid.NewString()
	log := logging.New(cfg.Log).With(zap.String("run_id", runID))
	defer func() { _ = log.Sync() }()
	app.LogRemoval(log, cfg.Log.File, logRemoved)
	log.Info("config loaded", zap.String("path", *configPath))

	application, err := app.New(cfg, log, runID)
	if err != nil {
		return fail(log, "failed to initialize app", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		return fail(log, "run failed", err)
	}
	log.Info("run complete")
	return 0
}

func fail(log *zap.Logger, msg string, err error) int {
	log.Error(msg, zap.String("kind", app.Kind(err)), zap.Error(err))
	return 1
}
