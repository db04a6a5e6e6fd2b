// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/srtcheck/internal/clip"
	"github.com/wailsapp/mimetype"
)

var extensionTypes = map[string]string{
	".mp4":  clip.MimeMP4,
	".m4v":  clip.MimeMP4,
	".webm": clip.MimeWebM,
	".mov":  clip.MimeQuickTime,
	".qt":   clip.MimeQuickTime,
}

// FromFile wraps a user-chosen file as a clip without validating it. The
// declared type comes from the extension, or from the content when the
// extension is unknown.
func FromFile(path string) (clip.Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return clip.Clip{}, fmt.Errorf("capture: read %s: %w", path, err)
	}

	mimeType, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		mimeType = mimetype.Detect(data).String()
	}

	return clip.Adopt(data, mimeType, clip.SourceFileUpload).WithPath(path, filepath.Base(path)), nil
}
