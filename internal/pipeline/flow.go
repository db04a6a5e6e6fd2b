// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/ManuGH/srtcheck/internal/clip"
	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/report"
	"github.com/ManuGH/srtcheck/internal/srterr"
	"github.com/ManuGH/srtcheck/internal/validation"
)

// Validator checks a candidate clip. *validation.Validator implements it.
type Validator interface {
	Validate(ctx context.Context, c clip.Clip) validation.Result
}

// CaptureFlow holds the pending clip between capture and analysis.
type CaptureFlow struct {
	validator Validator
	submitter *Submitter
	poller    *Poller

	mu      sync.Mutex
	pending *clip.Clip
}

// NewCaptureFlow wires a flow.
func NewCaptureFlow(v Validator, s *Submitter, p *Poller) *CaptureFlow {
	return &CaptureFlow{validator: v, submitter: s, poller: p}
}

// Offer validates c. An accepted clip replaces the pending one; a rejected
// clip leaves it untouched.
func (f *CaptureFlow) Offer(ctx context.Context, c clip.Clip) (clip.Clip, error) {
	res := f.validator.Validate(ctx, c)
	if !res.Accepted() {
		return clip.Clip{}, res.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	accepted := res.Clip
	f.pending = &accepted
	return accepted, nil
}

// Pending returns the clip awaiting submission.
func (f *CaptureFlow) Pending() (clip.Clip, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return clip.Clip{}, false
	}
	return *f.pending, true
}

// Reset discards the pending clip.
func (f *CaptureFlow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = nil
}

// Analyse submits the pending clip and polls until its report resolves.
// The pending clip is kept when anything fails so it can be resubmitted;
// it is discarded once the report resolved.
func (f *CaptureFlow) Analyse(ctx context.Context, progress func(Snapshot)) (report.Record, error) {
	c, ok := f.Pending()
	if !ok {
		return report.Record{}, srterr.New(srterr.KindNoPendingClip, "pipeline.Analyse", "", nil)
	}

	job, err := f.submitter.Submit(ctx, c)
	if err != nil {
		return report.Record{}, err
	}
	if progress != nil {
		progress(job.Snapshot())
	}

	rec, err := Drain(ctx, f.poller, job, progress)
	if err != nil {
		logger := log.WithComponentFromContext(log.ContextWithReportID(ctx, job.ReportID), "pipeline")
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "analysis.failed").
			Msg("analysis did not resolve, pending clip kept")
		return report.Record{}, err
	}
	f.Reset()
	return rec, nil
}

// ReportView resolves a report by id, as when a report link is opened
// directly.
type ReportView struct {
	cache  *report.Cache
	poller *Poller
}

// NewReportView wires a view over the shared cache.
func NewReportView(cache *report.Cache, poller *Poller) *ReportView {
	return &ReportView{cache: cache, poller: poller}
}

// Open returns the report for id. A cache hit returns immediately; a miss
// polls the service without submitting anything. On failure the cache is
// cleared. Calling Open again retries.
func (v *ReportView) Open(ctx context.Context, id string, progress func(Snapshot)) (report.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return report.Record{}, srterr.New(srterr.KindInvalidReportID, "pipeline.Open", "", nil)
	}
	if rec, ok := v.cache.Read(id); ok {
		return rec, nil
	}

	rec, err := Drain(ctx, v.poller, NewJob(id), progress)
	if err != nil {
		v.cache.Clear()
		return report.Record{}, err
	}
	return rec, nil
}
