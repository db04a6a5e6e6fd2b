// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/procgroup"
	"github.com/rs/zerolog"
)

const (
	chunkSize        = 64 * 1024
	diagnosticsLines = 50
)

// Executor starts ffmpeg capture processes.
type Executor struct {
	BinaryPath string
	Logger     zerolog.Logger
}

func NewExecutor(binaryPath string, logger zerolog.Logger) *Executor {
	if binaryPath == "" {
		binaryPath = "ffmpeg"
	}
	return &Executor{
		BinaryPath: binaryPath,
		Logger:     logger,
	}
}

// StartCapture launches ffmpeg in its own process group with the encoded
// stream on stdout. The caller owns the returned Capture and must Close it.
func (e *Executor) StartCapture(spec CaptureSpec) (*Capture, error) {
	// #nosec G204 - binary comes from config; args are built by captureArgs
	cmd := exec.Command(e.BinaryPath, captureArgs(spec)...)
	procgroup.Set(cmd)

	ring := NewRingBuffer(diagnosticsLines)
	cmd.Stderr = ring

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to pipe stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to pipe stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("exec start failed: %w", err)
	}

	c := &Capture{
		cmd:     cmd,
		stdin:   stdin,
		chunks:  make(chan []byte, 16),
		done:    make(chan error, 1),
		quit:    make(chan struct{}),
		started: make(chan struct{}),
		ring:    ring,
		logger:  e.Logger.With().Int("pid", cmd.Process.Pid).Logger(),
	}
	go c.pump(stdout)

	c.logger.Debug().Str(log.FieldEvent, "capture.started").Str(log.FieldDevice, spec.Device).Msg("ffmpeg capture started")
	return c, nil
}

// Capture is a running ffmpeg capture.
type Capture struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	chunks  chan []byte
	done    chan error // receives the Wait result exactly once
	quit    chan struct{}
	started chan struct{}
	gotData atomic.Bool
	ring    *RingBuffer
	logger  zerolog.Logger

	finishOnce sync.Once
	closeOnce  sync.Once
	closeErr   error
}

// Chunks delivers stdout in arrival order and closes when ffmpeg closes its
// output or the capture is closed.
func (c *Capture) Chunks() <-chan []byte { return c.chunks }

// Started is closed once the first read from stdout has returned.
func (c *Capture) Started() <-chan struct{} { return c.started }

// ProducedData reports whether any output has been read. Only meaningful
// after Started is closed.
func (c *Capture) ProducedData() bool { return c.gotData.Load() }

// Diagnostics returns the last stderr lines.
func (c *Capture) Diagnostics() []string { return c.ring.GetAll() }

// Finish asks ffmpeg to write the trailer and exit.
func (c *Capture) Finish() error {
	var err error
	c.finishOnce.Do(func() {
		if _, werr := io.WriteString(c.stdin, "q\n"); werr != nil {
			// stdin closed already; fall back to an interrupt.
			err = c.cmd.Process.Signal(os.Interrupt)
		}
		_ = c.stdin.Close()
	})
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Close releases the process group: SIGTERM, then SIGKILL after grace.
// It is idempotent.
func (c *Capture) Close(grace time.Duration) error {
	c.closeOnce.Do(func() {
		close(c.quit)
		_ = c.stdin.Close()
		c.closeErr = procgroup.Terminate(c.cmd, c.done, grace)
		c.logger.Debug().Str(log.FieldEvent, "capture.closed").Err(c.closeErr).Msg("ffmpeg capture released")
	})
	return c.closeErr
}

func (c *Capture) pump(stdout io.Reader) {
	defer func() { c.done <- c.cmd.Wait() }()
	defer close(c.chunks)

	first := true
	for {
		buf := make([]byte, chunkSize)
		n, err := stdout.Read(buf)
		if n > 0 {
			c.gotData.Store(true)
		}
		if first {
			first = false
			close(c.started)
		}
		if n > 0 {
			select {
			case c.chunks <- buf[:n]:
			case <-c.quit:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.logger.Debug().Err(err).Msg("capture stdout read ended")
			}
			return
		}
	}
}
