// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package validation checks candidate clips against the fixed type, size and
// duration constraints before anything is uploaded.
package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/srtcheck/internal/clip"
	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/metrics"
	"github.com/ManuGH/srtcheck/internal/srterr"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

const opValidate = "validation.Validate"

// Prober measures the playback duration of a clip.
type Prober interface {
	Probe(ctx context.Context, c clip.Clip) (time.Duration, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, c clip.Clip) (time.Duration, error)

func (f ProberFunc) Probe(ctx context.Context, c clip.Clip) (time.Duration, error) {
	return f(ctx, c)
}

// Result is either an accepted clip or a rejection with a reason.
type Result struct {
	Clip    clip.Clip   // accepted clip, carrying the probed duration
	Reason  srterr.Kind // empty when accepted
	Message string
	cause   error
}

// Accepted reports whether the clip passed every check.
func (r Result) Accepted() bool { return r.Reason == "" }

// Err returns the rejection as an *srterr.Error, or nil when accepted.
func (r Result) Err() error {
	if r.Accepted() {
		return nil
	}
	return srterr.New(r.Reason, opValidate, r.Message, r.cause)
}

func accepted(c clip.Clip) Result { return Result{Clip: c} }

func rejected(reason srterr.Kind, message string, cause error) Result {
	return Result{Reason: reason, Message: message, cause: cause}
}

// Validator applies the same checks to live and uploaded clips.
type Validator struct {
	prober Prober
	logger zerolog.Logger
}

// New returns a Validator that measures durations with prober.
func New(prober Prober) *Validator {
	return &Validator{prober: prober, logger: log.WithComponent("validation")}
}

// Validate checks type, then size, then duration, stopping at the first
// failure. The prober only runs for clips of an accepted type and size.
func (v *Validator) Validate(ctx context.Context, c clip.Clip) Result {
	res := v.validate(ctx, c)

	outcome := "accepted"
	if !res.Accepted() {
		outcome = string(res.Reason)
	}
	metrics.IncValidation(string(c.Source), outcome)

	evt := v.logger.Info()
	if !res.Accepted() {
		evt = v.logger.Warn().Err(res.cause)
	}
	evt.Str(log.FieldEvent, "clip.validated").
		Str(log.FieldSource, string(c.Source)).
		Str(log.FieldMimeType, c.MimeType).
		Int64(log.FieldBytes, c.Size()).
		Dur(log.FieldDuration, res.Clip.Duration).
		Str(log.FieldReason, string(res.Reason)).
		Msg("clip validated")
	return res
}

func (v *Validator) validate(ctx context.Context, c clip.Clip) Result {
	if !clip.IsAccepted(c.MimeType) {
		return rejected(srterr.KindUnsupportedType,
			"Please upload a valid video file (MP4, WebM, or QuickTime)", nil)
	}

	if c.Size() > clip.MaxBytes {
		return rejected(srterr.KindSizeExceeded,
			fmt.Sprintf("Video must be smaller than %s (this one is %s)",
				humanize.IBytes(clip.MaxBytes), humanize.IBytes(uint64(c.Size()))), nil)
	}

	d, err := v.prober.Probe(ctx, c)
	if err != nil {
		return rejected(srterr.KindDurationProbeFailed,
			"Error validating video. Please try another file.", err)
	}
	if d > clip.MaxDuration {
		return rejected(srterr.KindDurationExceeded,
			fmt.Sprintf("Video must be shorter than %d seconds", int(clip.MaxDuration/time.Second)), nil)
	}

	return accepted(c.WithDuration(d))
}
