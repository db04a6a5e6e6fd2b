// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package capture acquires clips: live from a camera device through ffmpeg,
// or from a file chosen by the user.
package capture

import (
	"context"
)

// Source acquires a live camera stream.
type Source interface {
	StartLive(ctx context.Context) (LiveHandle, error)
}

// LiveHandle is an acquired camera stream.
//
// Fragments are delivered in capture order. After Stop the channel closes
// once the container trailer has been flushed. Close releases the device and
// must be called on every exit path; it is idempotent.
type LiveHandle interface {
	Fragments() <-chan []byte
	MimeType() string
	Stop()
	Close() error
}
