// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command srtmock serves an in-memory analysis service for local use of
// srtcheck without the real backend.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/srtcheck/internal/analysis"
	"github.com/ManuGH/srtcheck/internal/config"
	srtlog "github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/version"
)

func main() {
	// Safe defaults until flags are parsed.
	srtlog.Configure(srtlog.Config{Level: "info", Service: "srtmock", Version: version.Version})

	listen := flag.String("listen", config.ParseString("SRT_MOCK_LISTEN", "127.0.0.1:3000"), "listen address")
	pending := flag.Int("pending", config.ParseInt("SRT_MOCK_PENDING", 2), "empty report responses served before scores appear")
	scoresFile := flag.String("scores", "", "JSON file with the report data to serve")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	srtlog.Configure(srtlog.Config{Level: *logLevel, Service: "srtmock", Version: version.Version})
	logger := srtlog.WithComponent("mock")

	mock, err := newMock(*pending, *scoresFile)
	if err != nil {
		logger.Fatal().Err(err).Str(srtlog.FieldEvent, "mock.config_failed").Msg("invalid mock configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              *listen,
		Handler:           mock.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info().Str(srtlog.FieldEvent, "mock.listening").Str("addr", *listen).Int("pending_polls", *pending).Msg("mock analysis service listening")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Str(srtlog.FieldEvent, "mock.serve_failed").Msg("mock server failed")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("mock shutdown incomplete")
		}
		logger.Info().Str(srtlog.FieldEvent, "mock.stopped").Msg("mock analysis service stopped")
	}
}

func newMock(pending int, scoresFile string) (*analysis.Mock, error) {
	m := analysis.NewMock()
	m.SetPendingPolls(pending)
	if scoresFile == "" {
		return m, nil
	}
	raw, err := os.ReadFile(scoresFile) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s is not valid JSON", scoresFile)
	}
	m.SetScores(raw)
	return m, nil
}
