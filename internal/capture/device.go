// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/srtcheck/internal/infra/ffmpeg"
	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/srterr"
	"github.com/rs/zerolog"
)

const (
	defaultGrace          = 2 * time.Second
	defaultStartupTimeout = 5 * time.Second

	opStartLive = "capture.StartLive"
)

// DeviceConfig configures an ffmpeg backed camera.
type DeviceConfig struct {
	FFmpegBin      string
	Format         string
	Device         string
	Grace          time.Duration // SIGTERM to SIGKILL on release
	StartupTimeout time.Duration // wait for the first output before handing the stream out
}

// Device is a camera captured through ffmpeg.
type Device struct {
	cfg    DeviceConfig
	exec   *ffmpeg.Executor
	logger zerolog.Logger
}

// NewDevice returns a Source for the configured camera.
func NewDevice(cfg DeviceConfig) *Device {
	if cfg.Grace <= 0 {
		cfg.Grace = defaultGrace
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	logger := log.WithComponent("capture")
	return &Device{
		cfg:    cfg,
		exec:   ffmpeg.NewExecutor(cfg.FFmpegBin, logger),
		logger: logger,
	}
}

// StartLive acquires the camera. The device must exist, ffmpeg must start,
// and ffmpeg must not exit before producing output.
func (d *Device) StartLive(ctx context.Context) (LiveHandle, error) {
	logger := d.logger.With().Str(log.FieldDevice, d.cfg.Device).Logger()

	// Device nodes are checked up front; other inputs (avfoundation indices,
	// dshow names) are left to ffmpeg.
	if strings.HasPrefix(d.cfg.Device, "/") {
		if _, err := os.Stat(d.cfg.Device); err != nil {
			logger.Warn().Err(err).Str(log.FieldEvent, "capture.device_missing").Msg("capture device not found")
			return nil, srterr.New(srterr.KindDeviceUnavailable, opStartLive, "", err)
		}
	}

	c, err := d.exec.StartCapture(ffmpeg.CaptureSpec{Format: d.cfg.Format, Device: d.cfg.Device})
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "capture.start_failed").Msg("failed to start ffmpeg")
		return nil, srterr.New(srterr.KindDeviceUnavailable, opStartLive, "", err)
	}

	timer := time.NewTimer(d.cfg.StartupTimeout)
	defer timer.Stop()

	select {
	case <-c.Started():
		if !c.ProducedData() {
			exitErr := c.Close(d.cfg.Grace)
			diag := c.Diagnostics()
			logger.Error().
				Err(exitErr).
				Strs("stderr", diag).
				Str(log.FieldEvent, "capture.early_exit").
				Msg("ffmpeg exited before producing output")
			return nil, srterr.New(srterr.KindDeviceUnavailable, opStartLive, "", &ExitError{Err: exitErr, Stderr: diag})
		}
	case <-ctx.Done():
		_ = c.Close(d.cfg.Grace)
		return nil, srterr.New(srterr.KindCancelled, opStartLive, "", ctx.Err())
	case <-timer.C:
		logger.Warn().Dur("startup_timeout", d.cfg.StartupTimeout).Msg("no capture output yet, continuing")
	}

	logger.Info().Str(log.FieldEvent, "capture.acquired").Msg("camera acquired")
	return &liveHandle{capture: c, grace: d.cfg.Grace}, nil
}

// ExitError carries ffmpeg diagnostics for a capture that never produced data.
type ExitError struct {
	Err    error
	Stderr []string
}

func (e *ExitError) Error() string {
	msg := "ffmpeg exited before producing output"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if n := len(e.Stderr); n > 0 {
		msg += ": " + e.Stderr[n-1]
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

type liveHandle struct {
	capture *ffmpeg.Capture
	grace   time.Duration
}

func (h *liveHandle) Fragments() <-chan []byte { return h.capture.Chunks() }

func (h *liveHandle) MimeType() string { return ffmpeg.CaptureMimeType }

func (h *liveHandle) Stop() {
	if err := h.capture.Finish(); err != nil {
		logger := log.WithComponent("capture")
		logger.Debug().Err(err).Msg("finalise request failed")
	}
}

func (h *liveHandle) Close() error {
	return h.capture.Close(h.grace)
}
