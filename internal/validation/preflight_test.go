// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validation

import (
	"path/filepath"
	"testing"

	"github.com/ManuGH/srtcheck/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformStartupChecks(t *testing.T) {
	cfg := config.AppConfig{
		APIBaseURL:  "ftp://example.invalid",
		FFmpegBin:   "srtcheck-definitely-missing-ffmpeg",
		FFprobeBin:  "sh",
		ArchivePath: filepath.Join(t.TempDir(), "reports.db"),
	}

	checks, err := PerformStartupChecks(cfg)
	require.Error(t, err)
	require.Len(t, checks, 4)

	byName := map[string]error{}
	for _, c := range checks {
		byName[c.Name] = c.Err
	}
	assert.NoError(t, byName["ffprobe"])
	assert.Error(t, byName["ffmpeg"])
	assert.ErrorContains(t, byName["analysis url"], "scheme must be http or https")
	assert.NoError(t, byName["archive dir"])
}

func TestPerformStartupChecks_AllGood(t *testing.T) {
	cfg := config.AppConfig{
		APIBaseURL: config.DefaultAPIBaseURL,
		FFmpegBin:  "sh",
		FFprobeBin: "sh",
	}

	checks, err := PerformStartupChecks(cfg)
	require.NoError(t, err)
	assert.Len(t, checks, 3)
}
