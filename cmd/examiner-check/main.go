package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/rgra/examiner-check/internal/examiner/events"
	"github.com/rgra/examiner-check/internal/examiner/metrics"
	"github.com/rgra/examiner-check/internal/examiner/ocr"
	"github.com/rgra/examiner-check/internal/examiner/registry"
	"github.com/rgra/examiner-check/internal/examiner/report"
	"github.com/rgra/examiner-check/internal/examiner/repository"
	"github.com/rgra/examiner-check/internal/examiner/scanner"
	"github.com/rgra/examiner-check/internal/examiner/service"
	"github.com/rgra/examiner-check/pkg/config"
	"github.com/rgra/examiner-check/pkg/database"
	"github.com/rgra/examiner-check/pkg/logger"
	"github.com/rgra/examiner-check/pkg/messaging"
)

const serviceName = "examiner-check"

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := config.Flags(serviceName)
	flags.SetOutput(stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	cfg, err := config.Load(serviceName, flags)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return exitConfig
	}

	log := logger.NewWithWriter(stderr, serviceName, cfg.Run.Environment, cfg.Log.Level)
	log.Info().Str("root", cfg.Run.RootDir).Str("pattern", cfg.Run.Pattern).Msg("starting examiner check")

	sc, err := scanner.New(cfg.Run.Pattern, log)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return exitConfig
	}

	sinks, closeSinks, err := buildSinks(ctx, cfg, log)
	defer closeSinks()
	if err != nil {
		log.Error().Err(err).Msg("failed to set up outputs")
		fmt.Fprintf(stderr, "output error: %v\n", err)
		return exitFailed
	}

	pipeline := service.NewPipeline(
		sc,
		ocr.NewClient(cfg.OCR, log),
		registry.NewClient(cfg.Registry, log),
		service.Options{LineThreshold: cfg.Match.LineThreshold, MaxPages: cfg.OCR.MaxPages},
		log,
		sinks...,
	)

	r, sinkErr := pipeline.Run(ctx, cfg.Run.RootDir)

	// the report ends with a blank line plus the newline added here
	if _, err := fmt.Fprintln(stdout, report.Text(r, cfg.Run.Diagnostic)); err != nil {
		log.Error().Err(err).Msg("failed to write report")
		return exitFailed
	}

	if sinkErr != nil {
		fmt.Fprintf(stderr, "output error: %v\n", sinkErr)
		return exitFailed
	}
	if r.Failed() {
		return exitFailed
	}
	return exitOK
}

// buildSinks wires the optional outputs. The returned close function is
// always safe to call.
func buildSinks(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]service.Sink, func(), error) {
	var sinks []service.Sink
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Database.Enabled() {
		target, _ := cfg.Database.Target()
		db, err := database.New(ctx, &cfg.Database, log)
		if err != nil {
			return nil, closeAll, fmt.Errorf("record store %s: %w", target.Redacted(), err)
		}
		closers = append(closers, func() { db.Close() })

		repo := repository.NewLineRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			return nil, closeAll, err
		}
		sinks = append(sinks, repository.NewSink(repo))
		log.Info().Str("database", target.Redacted()).Msg("record store enabled")
	}

	if cfg.RabbitMQ.Enabled() {
		rmq, err := messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() { rmq.Close() })

		exchange := cfg.RabbitMQ.Exchange
		if exchange == "" {
			exchange = messaging.ExchangeExaminerEvents
		}
		publisher, err := messaging.NewPublisher(rmq, exchange, serviceName, log)
		if err != nil {
			return nil, closeAll, err
		}
		sinks = append(sinks, events.NewSink(publisher))
		log.Info().Str("exchange", exchange).Msg("event publishing enabled")
	}

	if cfg.Output.CSVPath != "" {
		sinks = append(sinks, &report.CSVFile{Path: cfg.Output.CSVPath})
	}
	if cfg.Output.XLSXPath != "" {
		sinks = append(sinks, &report.XLSXFile{Path: cfg.Output.XLSXPath})
	}
	if cfg.Output.MetricsPath != "" {
		sinks = append(sinks, metrics.New(cfg.Output.MetricsPath))
	}

	return sinks, closeAll, nil
}
