// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"strconv"
	"time"

	"github.com/ManuGH/srtcheck/internal/clip"
)

// CaptureSpec describes a live camera capture.
type CaptureSpec struct {
	Format string // ffmpeg input format, e.g. v4l2, avfoundation, dshow
	Device string
}

// CaptureMimeType is the container produced by captureArgs.
const CaptureMimeType = clip.MimeWebM

// captureArgs builds the ffmpeg flags for a camera capture streamed as WebM
// on stdout, never longer than clip.MaxDuration. "q" on stdin finalises the
// container.
func captureArgs(spec CaptureSpec) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", spec.Format,
		"-i", spec.Device,
		"-t", strconv.Itoa(int(clip.MaxDuration / time.Second)),
		"-an",
		"-c:v", "libvpx", "-deadline", "realtime", "-cpu-used", "8", "-b:v", "1M",
		"-f", "webm",
		"pipe:1",
	}
}
