// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/srtcheck/internal/clip"
	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/rs/zerolog"
)

// DefaultProbeTimeout bounds a single ffprobe invocation.
const DefaultProbeTimeout = 10 * time.Second

// ErrNoDuration is returned when neither the container nor the packets carry
// a usable timestamp.
var ErrNoDuration = errors.New("ffprobe: no duration found")

// ProbeDuration returns the container duration of the file at path. Streamed
// WebM carries no duration header, so it falls back to the last video packet
// timestamp.
func ProbeDuration(ctx context.Context, bin, path string) (time.Duration, error) {
	if bin == "" {
		bin = "ffprobe"
	}

	// ffprobe -v error -show_entries format=duration -of default=noprint_wrappers=1:nokey=1 <file>
	out, err := run(ctx, bin, "-v", "error", "-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)
	if err != nil {
		return 0, err
	}

	val := strings.TrimSpace(string(out))
	if val != "" && val != "N/A" {
		secs, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("ffprobe: parse duration %q: %w", val, err)
		}
		return seconds(secs), nil
	}

	return lastPacketTime(ctx, bin, path)
}

func lastPacketTime(ctx context.Context, bin, path string) (time.Duration, error) {
	out, err := run(ctx, bin, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "packet=pts_time", "-of", "csv=p=0", path)
	if err != nil {
		return 0, err
	}

	found := false
	var last float64
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(scanner.Text(), ",")), 64)
		if err != nil {
			continue
		}
		if !found || v > last {
			last = v
			found = true
		}
	}
	if !found {
		return 0, ErrNoDuration
	}
	return seconds(last), nil
}

func run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	// #nosec G204 - binary comes from config; args are fixed and path is opaque
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		errStr := stderr.String()
		if len(errStr) > 4096 {
			errStr = errStr[:4096] + "..."
		}
		return nil, fmt.Errorf("ffprobe failed: %w (stderr: %s)", err, errStr)
	}
	return out, nil
}

func seconds(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

// Prober measures clip durations with ffprobe.
type Prober struct {
	Bin     string
	Timeout time.Duration
	TempDir string // for live clips that have no file on disk yet
	Logger  zerolog.Logger
}

// NewProber returns a Prober for the given ffprobe binary.
func NewProber(bin string) *Prober {
	return &Prober{
		Bin:     bin,
		Timeout: DefaultProbeTimeout,
		Logger:  log.WithComponent("ffprobe"),
	}
}

// Probe returns the duration of c. Clips without a path are spooled to a
// temporary file first.
func (p *Prober) Probe(ctx context.Context, c clip.Clip) (time.Duration, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	path := c.Path
	if path == "" {
		tmp, err := spool(p.TempDir, c)
		if err != nil {
			return 0, err
		}
		defer func() { _ = os.Remove(tmp) }()
		path = tmp
	}

	start := time.Now()
	d, err := ProbeDuration(ctx, p.Bin, path)
	if err != nil {
		p.Logger.Debug().Err(err).Str(log.FieldPath, path).Msg("duration probe failed")
		return 0, err
	}
	p.Logger.Debug().
		Str(log.FieldPath, path).
		Dur(log.FieldDuration, d).
		Dur("probe_ms", time.Since(start)).
		Msg("duration probed")
	return d, nil
}

func spool(dir string, c clip.Clip) (string, error) {
	f, err := os.CreateTemp(dir, "srtcheck-probe-*"+clip.Extension(c.MimeType))
	if err != nil {
		return "", fmt.Errorf("ffprobe: create spool file: %w", err)
	}
	if _, err := f.Write(c.Bytes()); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("ffprobe: write spool file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("ffprobe: close spool file: %w", err)
	}
	return f.Name(), nil
}
