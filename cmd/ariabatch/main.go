// Command ariabatch runs the continuation generator over every prompt file
// of a MIDI corpus, one job at a time.
//
// It loads .env, parses the config file and flags, validates configuration,
// and either runs system diagnostics (--check) or the batch pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/backmassage/ariabatch/internal/check"
	"github.com/backmassage/ariabatch/internal/config"
	"github.com/backmassage/ariabatch/internal/display"
	"github.com/backmassage/ariabatch/internal/generate"
	"github.com/backmassage/ariabatch/internal/logging"
	"github.com/backmassage/ariabatch/internal/pipeline"
	"github.com/backmassage/ariabatch/internal/telemetry"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "0.1.0"
	commit  = "unknown"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	// Bootstrap: no logger yet, errors go straight to stderr.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "ariabatch: .env: %v\n", err)
		return exitFailure
	}

	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ariabatch: %v\n", err)
		return exitFailure
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ariabatch: %v\n", err)
		return exitFailure
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ariabatch: %v\n", err)
		return exitFailure
	}
	defer log.Close()

	display.PrintBanner(os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.CheckOnly {
		if !check.RunCheck(ctx, &cfg, log) {
			return exitFailure
		}
		return exitOK
	}

	log.Info("=== ariabatch v%s (%s) ===", version, commit)
	if cfg.ConfigFile != "" {
		log.Info("Config: %s", cfg.ConfigFile)
	}

	if !cfg.DryRun {
		if err := check.CheckDeps(&cfg); err != nil {
			log.Error("%v", err)
			log.Error("Run with --check for details")
			return exitFailure
		}
	}

	sink, err := telemetry.New(telemetry.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     version,
	})
	if err != nil {
		log.Warn("Telemetry disabled: %v", err)
	}
	defer sink.Flush()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go watchSignals(sigCh, cancel, log, func() {
		sink.Flush()
		log.Close()
	}, os.Exit)

	var fs pipeline.FailureSink
	if sink != nil {
		fs = sink
	}
	summary, err := pipeline.Run(ctx, &cfg, log, generate.NewInvoker(&cfg), fs)
	if err != nil {
		log.Error("%v", err)
		return exitFailure
	}

	switch {
	case !summary.OK():
		return exitFailure
	case summary.Interrupted:
		return exitInterrupted
	}
	return exitOK
}

// warner is the part of the logger watchSignals needs.
type warner interface {
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// watchSignals stops the walk on the first signal and lets the current job
// finish. A second signal runs cleanup (telemetry flush, log close) and
// exits with exitInterrupted.
func watchSignals(sigCh <-chan os.Signal, cancel context.CancelFunc, log warner, cleanup func(), exit func(int)) {
	if _, ok := <-sigCh; !ok {
		return
	}
	log.Warn("Received interrupt, finishing current job (again to abort)")
	cancel()
	if _, ok := <-sigCh; !ok {
		return
	}
	log.Error("Aborted")
	cleanup()
	exit(exitInterrupted)
}
