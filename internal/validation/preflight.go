// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validation

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ManuGH/srtcheck/internal/config"
	"github.com/ManuGH/srtcheck/internal/log"
	platformnet "github.com/ManuGH/srtcheck/internal/platform/net"
	"github.com/rs/zerolog"
)

// Check is the outcome of one preflight step.
type Check struct {
	Name string
	Err  error
}

// PerformStartupChecks verifies the local environment the client depends on:
// the ffmpeg tools, the configured analysis URL and the archive location.
// Every check runs; the joined error is non-nil if any failed.
func PerformStartupChecks(cfg config.AppConfig) ([]Check, error) {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running preflight checks")

	checks := []Check{
		{Name: "ffprobe", Err: checkBinary(logger, cfg.FFprobeBin)},
		{Name: "ffmpeg", Err: checkBinary(logger, cfg.FFmpegBin)},
		{Name: "analysis url", Err: checkBaseURL(cfg.APIBaseURL)},
	}
	if cfg.ArchivePath != "" {
		checks = append(checks, Check{Name: "archive dir", Err: checkDataDir(logger, filepath.Dir(cfg.ArchivePath))})
	}

	var errs []error
	for _, c := range checks {
		if c.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, c.Err))
		}
	}
	return checks, errors.Join(errs...)
}

func checkBinary(logger zerolog.Logger, bin string) error {
	if bin == "" {
		return errors.New("not configured")
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return err
	}
	logger.Info().Str(log.FieldPath, path).Msg("binary found")
	return nil
}

func checkBaseURL(raw string) error {
	_, err := platformnet.ParseBaseURL(raw)
	return err
}

func checkDataDir(logger zerolog.Logger, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Check write permissions by creating a temp file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str(log.FieldPath, path).Msg("archive directory is writable")
	return nil
}
