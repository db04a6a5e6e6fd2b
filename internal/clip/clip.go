// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package clip holds the candidate clip produced by capture and consumed by
// validation and submission.
package clip

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/renameio/v2"
)

// SourceKind tells whether a clip was recorded live or chosen from disk.
type SourceKind string

const (
	SourceLive       SourceKind = "live"
	SourceFileUpload SourceKind = "file_upload"
)

// Fixed constraints. They are not configurable.
const (
	MaxDuration = 30 * time.Second
	MaxBytes    = 50 * 1024 * 1024

	MimeMP4       = "video/mp4"
	MimeWebM      = "video/webm"
	MimeQuickTime = "video/quicktime"
)

// AcceptedTypes is the closed set of container types the service accepts.
var AcceptedTypes = []string{MimeMP4, MimeWebM, MimeQuickTime}

// Clip is an immutable candidate video payload. Use the With* helpers to
// derive a modified copy.
type Clip struct {
	data     []byte
	MimeType string
	Duration time.Duration // zero until probed for file uploads
	Source   SourceKind
	Path     string // set for file uploads
	Name     string
}

// New copies data into a new Clip.
func New(data []byte, mimeType string, source SourceKind) Clip {
	buf := make([]byte, len(data))
	copy(buf, data)
	return Clip{data: buf, MimeType: mimeType, Source: source}
}

// Adopt wraps data without copying. The caller hands over ownership and
// must not modify data afterwards.
func Adopt(data []byte, mimeType string, source SourceKind) Clip {
	return Clip{data: data, MimeType: mimeType, Source: source}
}

// FromFragments joins ordered fragments into a single clip.
func FromFragments(fragments [][]byte, mimeType string, source SourceKind) Clip {
	n := 0
	for _, f := range fragments {
		n += len(f)
	}
	buf := make([]byte, 0, n)
	for _, f := range fragments {
		buf = append(buf, f...)
	}
	return Clip{data: buf, MimeType: mimeType, Source: source}
}

// Bytes returns a read-only view of the payload. Callers must not modify it.
func (c Clip) Bytes() []byte { return c.data }

// Size is the payload length in bytes.
func (c Clip) Size() int64 { return int64(len(c.data)) }

// Empty reports whether the clip has no payload.
func (c Clip) Empty() bool { return len(c.data) == 0 }

// WithDuration returns a copy carrying d.
func (c Clip) WithDuration(d time.Duration) Clip {
	c.Duration = d
	return c
}

// WithPath returns a copy that remembers its origin on disk.
func (c Clip) WithPath(path, name string) Clip {
	c.Path = path
	c.Name = name
	return c
}

// BaseMimeType strips parameters such as ";codecs=vp8".
func BaseMimeType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// IsAccepted reports whether mimeType belongs to AcceptedTypes.
func IsAccepted(mimeType string) bool {
	base := BaseMimeType(mimeType)
	for _, t := range AcceptedTypes {
		if base == t {
			return true
		}
	}
	return false
}

// Extension is the file extension used when uploading a clip of mimeType.
func Extension(mimeType string) string {
	switch BaseMimeType(mimeType) {
	case MimeMP4:
		return ".mp4"
	case MimeQuickTime:
		return ".mov"
	default:
		return ".webm"
	}
}

// FileName is the upload name of the clip.
func (c Clip) FileName() string {
	if c.Name != "" {
		return c.Name
	}
	return "recording" + Extension(c.MimeType)
}

// Save writes the payload to path, replacing any previous file atomically.
func (c Clip) Save(path string) error {
	if c.Empty() {
		return fmt.Errorf("clip: refusing to save empty clip to %s", path)
	}
	if err := renameio.WriteFile(path, c.data, 0o644); err != nil {
		return fmt.Errorf("clip: save %s: %w", path, err)
	}
	return nil
}
