// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/srtcheck/internal/analysis"
	"github.com/ManuGH/srtcheck/internal/config"
	"github.com/ManuGH/srtcheck/internal/infra/ffmpeg"
	srtlog "github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/pipeline"
	platformnet "github.com/ManuGH/srtcheck/internal/platform/net"
	"github.com/ManuGH/srtcheck/internal/report"
	"github.com/ManuGH/srtcheck/internal/telemetry"
	"github.com/ManuGH/srtcheck/internal/validation"
	"github.com/ManuGH/srtcheck/internal/version"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// newFlagSet returns a flag set with the shared --config flag.
func newFlagSet(c *cli, name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("srtcheck "+name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	configPath := fs.String("config", os.Getenv("SRT_CONFIG"), "path to config file (YAML)")
	return fs, configPath
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// loadConfig loads the configuration and reconfigures logging from it.
func loadConfig(configPath string) (config.AppConfig, error) {
	path := strings.TrimSpace(configPath)
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load configuration: %w", err)
	}

	srtlog.Configure(srtlog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger := srtlog.WithComponent("cli")
	logger.Debug().
		Str(srtlog.FieldEvent, "config.loaded").
		Str(srtlog.FieldSource, source).
		Str(srtlog.FieldPath, path).
		Str(srtlog.FieldBaseURL, platformnet.SanitizeURL(cfg.APIBaseURL)).
		Msg("configuration loaded")
	return cfg, nil
}

// app is the wired client for one command invocation.
type app struct {
	cfg     config.AppConfig
	cli     *cli
	client  *analysis.Client
	cache   *report.Cache
	archive *report.Archive // nil when no archive is configured
	poller  *pipeline.Poller
	flow    *pipeline.CaptureFlow
	view    *pipeline.ReportView
}

func newApp(ctx context.Context, c *cli, cfg config.AppConfig) (*app, error) {
	a := &app{
		cfg:   cfg,
		cli:   c,
		cache: report.NewCache(),
		client: analysis.NewClient(cfg.APIBaseURL, analysis.Options{
			Timeout:   cfg.HTTPTimeout,
			UserAgent: version.UserAgent(),
		}),
	}

	if cfg.ArchivePath != "" {
		archive, err := report.OpenArchive(ctx, cfg.ArchivePath)
		if err != nil {
			return nil, fmt.Errorf("open report archive: %w", err)
		}
		a.archive = archive
	}

	var pollOpts []pipeline.PollOption
	if a.archive != nil {
		pollOpts = append(pollOpts, pipeline.WithResolvedHook(a.archiveRecord))
	}
	a.poller = pipeline.NewPoller(a.client, a.cache, pollOpts...)
	a.flow = pipeline.NewCaptureFlow(
		validation.New(ffmpeg.NewProber(cfg.FFprobeBin)),
		pipeline.NewSubmitter(a.client),
		a.poller,
	)
	a.view = pipeline.NewReportView(a.cache, a.poller)
	return a, nil
}

func (a *app) archiveRecord(ctx context.Context, rec report.Record) {
	if err := a.archive.Put(ctx, rec); err != nil {
		logger := srtlog.WithComponentFromContext(ctx, "cli")
		logger.Warn().Err(err).
			Str(srtlog.FieldEvent, "archive.put_failed").
			Str(srtlog.FieldReportID, rec.ReportID).
			Msg("failed to archive report")
	}
}

func (a *app) close() {
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			logger := srtlog.WithComponent("cli")
			logger.Warn().Err(err).Msg("failed to close report archive")
		}
	}
}

// withApp loads the configuration, wires the client and runs fn next to
// the optional metrics server. Tracing and the archive are shut down
// before it returns.
func withApp(ctx context.Context, c *cli, configPath string, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := srtlog.WithComponent("cli")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    "cli",
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	a, err := newApp(ctx, c, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	// One correlation id per invocation, sent as X-Request-ID.
	ctx = srtlog.ContextWithRequestID(ctx, uuid.NewString())

	g, gctx := errgroup.WithContext(ctx)
	cmdCtx, cmdDone := context.WithCancel(gctx)
	if cfg.MetricsListen != "" {
		g.Go(func() error { return serveMetrics(cmdCtx, cfg.MetricsListen) })
	}
	g.Go(func() error {
		defer cmdDone()
		return fn(cmdCtx, a)
	})
	return g.Wait()
}

// progress prints job snapshots for the user.
func (a *app) progress(s pipeline.Snapshot) {
	w := a.cli.stderr
	switch s.Status {
	case pipeline.StatusSubmitted:
		fmt.Fprintf(w, "Submitted for analysis (report %s)\n", s.ReportID)
	case pipeline.StatusPolling:
		fmt.Fprintf(w, "Waiting for analysis results (attempt %d/%d)\n", s.Attempt, pipeline.DefaultMaxAttempts)
	case pipeline.StatusResolved:
		fmt.Fprintln(w, "Analysis complete")
	}
}

// present prints rec and optionally exports it.
func (a *app) present(rec report.Record, exportPath string, asJSON bool) error {
	if asJSON {
		if err := writeJSON(a.cli.stdout, rec); err != nil {
			return err
		}
	} else if err := report.WriteSummary(a.cli.stdout, rec); err != nil {
		return err
	}
	if exportPath != "" {
		if err := report.Export(exportPath, rec); err != nil {
			return err
		}
		fmt.Fprintf(a.cli.stderr, "Report saved to %s\n", exportPath)
	}
	return nil
}
