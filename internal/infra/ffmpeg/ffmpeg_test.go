// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/srtcheck/internal/clip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes an executable shell script standing in for ffmpeg or
// ffprobe.
func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestProbeDuration_FormatDuration(t *testing.T) {
	bin := fakeBinary(t, `echo 12.5`)

	d, err := ProbeDuration(context.Background(), bin, "/tmp/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, d)
}

func TestProbeDuration_FallsBackToLastPacket(t *testing.T) {
	bin := fakeBinary(t, `case "$*" in
*packet=pts_time*) printf '0.000000\n1.500000\nN/A\n29.960000\n' ;;
*) echo N/A ;;
esac`)

	d, err := ProbeDuration(context.Background(), bin, "/tmp/clip.webm")
	require.NoError(t, err)
	assert.Equal(t, 29960*time.Millisecond, d)
}

func TestProbeDuration_NoTimestamps(t *testing.T) {
	bin := fakeBinary(t, `echo N/A`)

	_, err := ProbeDuration(context.Background(), bin, "/tmp/clip.webm")
	assert.ErrorIs(t, err, ErrNoDuration)
}

func TestProbeDuration_ProcessFailure(t *testing.T) {
	bin := fakeBinary(t, `echo "moov atom not found" >&2; exit 1`)

	_, err := ProbeDuration(context.Background(), bin, "/tmp/clip.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moov atom not found")
}

func TestProber_SpoolsClipWithoutPath(t *testing.T) {
	bin := fakeBinary(t, `for a; do f=$a; done
[ "$(cat "$f")" = "payload" ] && echo 3.0 || exit 3`)
	spoolDir := t.TempDir()

	p := NewProber(bin)
	p.TempDir = spoolDir
	d, err := p.Probe(context.Background(), clip.New([]byte("payload"), clip.MimeWebM, clip.SourceLive))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	left, err := os.ReadDir(spoolDir)
	require.NoError(t, err)
	assert.Empty(t, left, "spool file must be removed")
}

func TestProber_UsesClipPath(t *testing.T) {
	bin := fakeBinary(t, `for a; do f=$a; done
[ "$f" = "/data/sit.mp4" ] && echo 7.25 || exit 3`)

	c := clip.New([]byte("x"), clip.MimeMP4, clip.SourceFileUpload).WithPath("/data/sit.mp4", "sit.mp4")
	d, err := NewProber(bin).Probe(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 7250*time.Millisecond, d)
}

func drain(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	var sb strings.Builder
	timeout := time.After(5 * time.Second)
	for {
		select {
		case b, ok := <-ch:
			if !ok {
				return sb.String()
			}
			sb.Write(b)
		case <-timeout:
			t.Fatal("chunks channel did not close")
		}
	}
}

func TestCapture_FinishFlushesTrailer(t *testing.T) {
	bin := fakeBinary(t, `printf 'head'; read line; printf 'tail'`)
	e := NewExecutor(bin, zerolog.Nop())

	c, err := e.StartCapture(CaptureSpec{Format: "v4l2", Device: "/dev/null"})
	require.NoError(t, err)
	defer func() { _ = c.Close(time.Second) }()

	<-c.Started()
	assert.True(t, c.ProducedData())

	require.NoError(t, c.Finish())
	assert.Equal(t, "headtail", drain(t, c.Chunks()))
}

func TestCapture_EarlyExitReportsDiagnostics(t *testing.T) {
	bin := fakeBinary(t, `echo "/dev/video9: No such device" >&2; exit 1`)
	e := NewExecutor(bin, zerolog.Nop())

	c, err := e.StartCapture(CaptureSpec{Format: "v4l2", Device: "/dev/video9"})
	require.NoError(t, err)

	<-c.Started()
	assert.False(t, c.ProducedData())

	require.Error(t, c.Close(time.Second))
	assert.Contains(t, strings.Join(c.Diagnostics(), "\n"), "No such device")
}

func TestCapture_CloseKillsStubbornProcess(t *testing.T) {
	bin := fakeBinary(t, `trap "" TERM INT
while :; do printf x; sleep 0.05; done`)
	e := NewExecutor(bin, zerolog.Nop())

	c, err := e.StartCapture(CaptureSpec{Format: "v4l2", Device: "/dev/null"})
	require.NoError(t, err)
	<-c.Started()

	err = c.Close(100 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "killed")

	// Idempotent.
	assert.Equal(t, err, c.Close(time.Second))
	drain(t, c.Chunks())
}

func TestRingBuffer_KeepsTail(t *testing.T) {
	r := NewRingBuffer(2)
	_, _ = r.Write([]byte("one\ntwo\nthr"))
	_, _ = r.Write([]byte("ee\nfour"))

	assert.Equal(t, []string{"two", "three", "four"}, r.GetAll())
}
