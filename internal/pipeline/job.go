// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pipeline turns an accepted clip into a resolved report: submission,
// result polling and the two user flows built on them.
package pipeline

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/srtcheck/internal/pipeline/fsm"
	"github.com/ManuGH/srtcheck/internal/report"
	"github.com/ManuGH/srtcheck/internal/srterr"
)

// Status is the lifecycle of an analysis job.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusPolling   Status = "polling"
	StatusResolved  Status = "resolved"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusFailed
}

// Reason qualifies a failed job.
type Reason string

const (
	ReasonTimeout   Reason = "timeout"
	ReasonCancelled Reason = "cancelled"
)

type jobEvent string

const (
	evAttempt jobEvent = "attempt"
	evResolve jobEvent = "resolve"
	evTimeout jobEvent = "timeout"
	evCancel  jobEvent = "cancel"
)

var jobTransitions = []fsm.Transition[Status, jobEvent]{
	{From: StatusSubmitted, Event: evAttempt, To: StatusPolling},
	{From: StatusPolling, Event: evAttempt, To: StatusPolling},
	{From: StatusPolling, Event: evResolve, To: StatusResolved},
	{From: StatusPolling, Event: evTimeout, To: StatusFailed},
	{From: StatusSubmitted, Event: evCancel, To: StatusFailed},
	{From: StatusPolling, Event: evCancel, To: StatusFailed},
}

const opPoll = "pipeline.Poll"

// Job tracks one submitted clip until its report resolves or polling gives
// up.
type Job struct {
	ReportID string

	machine *fsm.Machine[Status, jobEvent]
	claimed atomic.Bool

	mu      sync.Mutex
	attempt int
	reason  Reason
	record  report.Record
}

// NewJob returns a job in StatusSubmitted for a report id already known to
// the service.
func NewJob(reportID string) *Job {
	return &Job{
		ReportID: reportID,
		machine:  fsm.MustNew(StatusSubmitted, jobTransitions),
	}
}

// Snapshot is a point-in-time copy of a job.
type Snapshot struct {
	ReportID string
	Status   Status
	Reason   Reason
	Attempt  int
	Record   report.Record // set once resolved
}

// Status returns the current status.
func (j *Job) Status() Status { return j.machine.State() }

// Snapshot copies the job state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ReportID: j.ReportID,
		Status:   j.machine.State(),
		Reason:   j.reason,
		Attempt:  j.attempt,
		Record:   j.record,
	}
}

// Result returns the resolved record, or the error describing why the job
// did not resolve.
func (j *Job) Result() (report.Record, error) {
	snap := j.Snapshot()
	switch snap.Status {
	case StatusResolved:
		return snap.Record, nil
	case StatusFailed:
		if snap.Reason == ReasonCancelled {
			return report.Record{}, srterr.New(srterr.KindCancelled, opPoll, "", nil)
		}
		return report.Record{}, srterr.New(srterr.KindPollTimeout, opPoll, "",
			fmt.Errorf("report %s not complete after %d attempts", j.ReportID, snap.Attempt))
	default:
		return report.Record{}, fmt.Errorf("pipeline: job %s still %s", j.ReportID, snap.Status)
	}
}

// claim marks the job as polled. Only the first caller wins.
func (j *Job) claim() bool {
	return j.claimed.CompareAndSwap(false, true)
}

func (j *Job) beginAttempt(n int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.machine.Fire(evAttempt); err != nil {
		return err
	}
	j.attempt = n
	return nil
}

func (j *Job) resolve(rec report.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.machine.Fire(evResolve); err != nil {
		return err
	}
	j.record = rec
	return nil
}

func (j *Job) fail(reason Reason) error {
	ev := evTimeout
	if reason == ReasonCancelled {
		ev = evCancel
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.machine.Fire(ev); err != nil {
		return err
	}
	j.reason = reason
	return nil
}
