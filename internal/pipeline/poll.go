// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pipeline

import (
	"context"
	"iter"
	"time"

	"github.com/ManuGH/srtcheck/internal/analysis"
	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/metrics"
	"github.com/ManuGH/srtcheck/internal/report"
	"github.com/ManuGH/srtcheck/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
)

// Poll schedule. Neither is user configurable.
const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 10
)

// Fetcher performs a single report fetch. *analysis.Client implements it.
type Fetcher interface {
	FetchReport(ctx context.Context, reportID string) (analysis.ReportResponse, error)
}

// ResolvedHook observes every record the poller writes to the cache.
type ResolvedHook func(ctx context.Context, rec report.Record)

// Poller resolves jobs by fetching their report until it is complete.
type Poller struct {
	fetcher     Fetcher
	cache       *report.Cache
	interval    time.Duration
	maxAttempts int
	onResolved  []ResolvedHook
}

// PollOption configures a Poller.
type PollOption func(*Poller)

// WithInterval sets the pause between attempts.
func WithInterval(d time.Duration) PollOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(n int) PollOption {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithResolvedHook registers fn to run after a resolution was cached.
func WithResolvedHook(fn ResolvedHook) PollOption {
	return func(p *Poller) { p.onResolved = append(p.onResolved, fn) }
}

// NewPoller returns a Poller that writes resolved records into cache.
func NewPoller(f Fetcher, cache *report.Cache, opts ...PollOption) *Poller {
	p := &Poller{
		fetcher:     f,
		cache:       cache,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll returns the snapshots of job as it is polled. The sequence yields a
// StatusPolling snapshot after every incomplete attempt and ends with a
// terminal snapshot. It runs at most once per job; ranging over it again,
// or over another Poll of the same job, yields nothing.
//
// Stopping the range early or cancelling ctx fails the job with
// ReasonCancelled. No fetch is issued and the cache is not written after
// that point.
func (p *Poller) Poll(ctx context.Context, job *Job) iter.Seq[Snapshot] {
	return func(yield func(Snapshot) bool) {
		if !job.claim() {
			return
		}

		ctx = log.ContextWithReportID(ctx, job.ReportID)
		logger := log.WithComponentFromContext(ctx, "pipeline")
		ctx, span := telemetry.Tracer("srtcheck.pipeline").Start(ctx, "srtcheck.pipeline.poll")
		defer span.End()

		defer func() {
			snap := job.Snapshot()
			span.SetAttributes(telemetry.JobAttributes(snap.ReportID, string(snap.Status), snap.Attempt)...)
			if snap.Status == StatusResolved {
				span.SetStatus(codes.Ok, "")
			} else {
				span.SetStatus(codes.Error, string(snap.Reason))
			}
		}()

		for attempt := 1; attempt <= p.maxAttempts; attempt++ {
			if attempt > 1 {
				if err := sleepWithContext(ctx, p.interval); err != nil {
					p.abandon(logger, job)
					yield(job.Snapshot())
					return
				}
			}
			if ctx.Err() != nil {
				p.abandon(logger, job)
				yield(job.Snapshot())
				return
			}

			if err := job.beginAttempt(attempt); err != nil {
				logger.Error().Err(err).Msg("job cannot be polled")
				return
			}
			rec, complete := p.fetch(ctx, logger, job.ReportID, attempt)

			// A response that raced with cancellation is discarded.
			if ctx.Err() != nil {
				p.abandon(logger, job)
				yield(job.Snapshot())
				return
			}
			if complete {
				p.cache.Write(rec)
				_ = job.resolve(rec)
				metrics.IncJob(string(StatusResolved))
				metrics.ObserveAttemptsToResolve(attempt)
				logger.Info().
					Str(log.FieldEvent, "job.resolved").
					Int(log.FieldAttempt, attempt).
					Msg("report resolved")
				for _, fn := range p.onResolved {
					fn(ctx, rec)
				}
				yield(job.Snapshot())
				return
			}
			if !yield(job.Snapshot()) {
				p.abandon(logger, job)
				return
			}
		}

		_ = job.fail(ReasonTimeout)
		metrics.IncJob(string(ReasonTimeout))
		logger.Warn().
			Str(log.FieldEvent, "job.timeout").
			Int(log.FieldAttempt, p.maxAttempts).
			Msg("report not complete within attempt budget")
		yield(job.Snapshot())
	}
}

// fetch runs one attempt. Every failure is absorbed: the attempt simply
// does not resolve the job.
func (p *Poller) fetch(ctx context.Context, logger zerolog.Logger, reportID string, attempt int) (report.Record, bool) {
	resp, err := p.fetcher.FetchReport(ctx, reportID)
	if err != nil {
		metrics.IncPollAttempt("error")
		logger.Debug().Err(err).Int(log.FieldAttempt, attempt).Msg("poll attempt failed")
		return report.Record{}, false
	}
	data, err := report.ParsePayload(resp.Data)
	if err != nil {
		metrics.IncPollAttempt("error")
		logger.Debug().Err(err).Int(log.FieldAttempt, attempt).Msg("poll attempt returned unusable data")
		return report.Record{}, false
	}

	rec := report.Record{ReportID: reportID, Success: resp.Success, Data: data}
	if !rec.Complete() {
		metrics.IncPollAttempt("pending")
		logger.Debug().
			Int(log.FieldAttempt, attempt).
			Bool("success", resp.Success).
			Str("message", resp.Message).
			Msg("report not ready")
		return rec, false
	}
	metrics.IncPollAttempt("complete")
	return rec, true
}

func (p *Poller) abandon(logger zerolog.Logger, job *Job) {
	if err := job.fail(ReasonCancelled); err != nil {
		return
	}
	metrics.IncJob(string(ReasonCancelled))
	logger.Info().
		Str(log.FieldEvent, "job.cancelled").
		Int(log.FieldAttempt, job.Snapshot().Attempt).
		Msg("polling abandoned")
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Drain polls job to completion, passing every snapshot to progress (which
// may be nil), and returns the job result.
func Drain(ctx context.Context, p *Poller, job *Job, progress func(Snapshot)) (report.Record, error) {
	for snap := range p.Poll(ctx, job) {
		if progress != nil {
			progress(snap)
		}
	}
	return job.Result()
}
