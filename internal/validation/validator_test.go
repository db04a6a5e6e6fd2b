// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/srtcheck/internal/clip"
	"github.com/ManuGH/srtcheck/internal/srterr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProber struct {
	calls atomic.Int64
	d     time.Duration
	err   error
}

func (p *countingProber) Probe(context.Context, clip.Clip) (time.Duration, error) {
	p.calls.Add(1)
	return p.d, p.err
}

// payload is shared read-only backing for clips of arbitrary size.
var payload = make([]byte, clip.MaxBytes+1024*1024)

func clipOf(mimeType string, size int) clip.Clip {
	return clip.Adopt(payload[:size], mimeType, clip.SourceFileUpload)
}

func TestValidate_Table(t *testing.T) {
	tests := []struct {
		name       string
		mime       string
		size       int
		duration   time.Duration
		probeErr   error
		wantReason srterr.Kind
		wantProbe  bool
	}{
		{"accepted mp4", clip.MimeMP4, 1024, 12 * time.Second, nil, "", true},
		{"accepted webm with codecs", "video/webm;codecs=vp8", 1024, 30 * time.Second, nil, "", true},
		{"exactly max size", clip.MimeQuickTime, clip.MaxBytes, time.Second, nil, "", true},
		{"unsupported type", "video/x-msvideo", 1024, time.Second, nil, srterr.KindUnsupportedType, false},
		{"empty type", "", 1024, time.Second, nil, srterr.KindUnsupportedType, false},
		{"one byte over", clip.MimeMP4, clip.MaxBytes + 1, time.Second, nil, srterr.KindSizeExceeded, false},
		{"too long", clip.MimeMP4, 1024, 30*time.Second + time.Millisecond, nil, srterr.KindDurationExceeded, true},
		{"probe failure", clip.MimeMP4, 1024, 0, errors.New("moov atom not found"), srterr.KindDurationProbeFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &countingProber{d: tt.duration, err: tt.probeErr}
			res := New(p).Validate(context.Background(), clipOf(tt.mime, tt.size))

			assert.Equal(t, tt.wantReason, res.Reason)
			assert.Equal(t, tt.wantProbe, p.calls.Load() > 0)
			if tt.wantReason == "" {
				require.True(t, res.Accepted())
				assert.NoError(t, res.Err())
				assert.Equal(t, tt.duration, res.Clip.Duration)
				return
			}
			assert.NotEmpty(t, res.Message)
			assert.Equal(t, tt.wantReason, srterr.KindOf(res.Err()))
			assert.Equal(t, srterr.ActionRetryCapture, srterr.RecoveryFor(res.Err()))
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	v := New(&countingProber{d: 31 * time.Second})

	res := v.Validate(context.Background(), clipOf(clip.MimeMP4, clip.MaxBytes+1024*1024))
	assert.Equal(t, "Video must be smaller than 50 MiB (this one is 51 MiB)", res.Message)

	res = v.Validate(context.Background(), clipOf(clip.MimeMP4, 10))
	assert.Equal(t, "Video must be shorter than 30 seconds", res.Message)

	res = v.Validate(context.Background(), clipOf("image/gif", 10))
	assert.Equal(t, "Please upload a valid video file (MP4, WebM, or QuickTime)", res.Message)
}

func TestValidate_ProbeCauseIsWrapped(t *testing.T) {
	cause := errors.New("ffprobe failed")
	res := New(&countingProber{err: cause}).Validate(context.Background(), clipOf(clip.MimeWebM, 10))

	assert.ErrorIs(t, res.Err(), srterr.ErrDurationProbeFailed)
	assert.ErrorIs(t, res.Err(), cause)
}

func TestValidate_LiveAndUploadTreatedAlike(t *testing.T) {
	p := &countingProber{d: 45 * time.Second}
	v := New(p)

	live := clip.New([]byte("x"), clip.MimeWebM, clip.SourceLive).WithDuration(29 * time.Second)
	upload := clip.New([]byte("x"), clip.MimeWebM, clip.SourceFileUpload)

	assert.Equal(t, srterr.KindDurationExceeded, v.Validate(context.Background(), live).Reason)
	assert.Equal(t, srterr.KindDurationExceeded, v.Validate(context.Background(), upload).Reason)
	assert.Equal(t, int64(2), p.calls.Load())
}

func acceptedMime() gopter.Gen {
	return gen.OneConstOf(clip.MimeMP4, clip.MimeWebM, clip.MimeQuickTime)
}

func TestValidate_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("over-long clips of valid type and size are rejected for duration", prop.ForAll(
		func(ms int64, size int, mime string) bool {
			p := &countingProber{d: time.Duration(ms) * time.Millisecond}
			res := New(p).Validate(context.Background(), clipOf(mime, size))
			return res.Reason == srterr.KindDurationExceeded
		},
		gen.Int64Range(30001, 3_600_000),
		gen.IntRange(0, clip.MaxBytes),
		acceptedMime(),
	))

	properties.Property("oversized clips of valid type are rejected for size whatever the duration", prop.ForAll(
		func(ms int64, extra int, mime string) bool {
			p := &countingProber{d: time.Duration(ms) * time.Millisecond}
			res := New(p).Validate(context.Background(), clipOf(mime, clip.MaxBytes+extra))
			return res.Reason == srterr.KindSizeExceeded && p.calls.Load() == 0
		},
		gen.Int64Range(0, 3_600_000),
		gen.IntRange(1, 1024*1024),
		acceptedMime(),
	))

	properties.Property("unsupported types are rejected without probing", prop.ForAll(
		func(mime string, size int) bool {
			p := &countingProber{d: time.Second}
			res := New(p).Validate(context.Background(), clipOf(mime, size))
			return res.Reason == srterr.KindUnsupportedType && p.calls.Load() == 0
		},
		gen.AlphaString().Map(func(s string) string { return "video/x-" + s }),
		gen.IntRange(0, clip.MaxBytes+1024*1024),
	))

	properties.Property("clips within every limit are accepted with their probed duration", prop.ForAll(
		func(ms int64, size int, mime string) bool {
			d := time.Duration(ms) * time.Millisecond
			res := New(&countingProber{d: d}).Validate(context.Background(), clipOf(mime, size))
			return res.Accepted() && res.Clip.Duration == d && res.Clip.Size() == int64(size)
		},
		gen.Int64Range(0, 30000),
		gen.IntRange(0, clip.MaxBytes),
		acceptedMime(),
	))

	properties.TestingRun(t)
}
