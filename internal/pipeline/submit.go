// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pipeline

import (
	"context"

	"github.com/ManuGH/srtcheck/internal/clip"
	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/srterr"
)

// Uploader sends a clip to the analysis service and returns its report id.
// *analysis.Client implements it.
type Uploader interface {
	Submit(ctx context.Context, c clip.Clip) (string, error)
}

// Submitter creates jobs from accepted clips.
type Submitter struct {
	uploader Uploader
}

// NewSubmitter returns a Submitter using u.
func NewSubmitter(u Uploader) *Submitter {
	return &Submitter{uploader: u}
}

// Submit uploads c once. Failures are returned as is; there is no retry.
func (s *Submitter) Submit(ctx context.Context, c clip.Clip) (*Job, error) {
	if c.Empty() {
		return nil, srterr.New(srterr.KindSubmissionRejected, "pipeline.Submit", "No video file provided", nil)
	}
	id, err := s.uploader.Submit(ctx, c)
	if err != nil {
		return nil, err
	}
	logger := log.WithComponentFromContext(log.ContextWithReportID(ctx, id), "pipeline")
	logger.Debug().
		Str(log.FieldEvent, "job.submitted").
		Str(log.FieldSource, string(c.Source)).
		Msg("analysis job created")
	return NewJob(id), nil
}
