// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package recorder drives a live recording session: device acquisition,
// fragment collection and the one-second countdown that stops the session
// at the maximum clip duration.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/srtcheck/internal/capture"
	"github.com/ManuGH/srtcheck/internal/clip"
	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/metrics"
	"github.com/ManuGH/srtcheck/internal/pipeline/fsm"
	"github.com/ManuGH/srtcheck/internal/srterr"
	"github.com/rs/zerolog"
)

// State of the recording session.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopped   State = "stopped"
	StateClosed    State = "closed"
)

type event string

const (
	evStart  event = "start"
	evStop   event = "stop"
	evExpire event = "expire"
	evRetake event = "retake"
	evClose  event = "close"
)

var transitions = []fsm.Transition[State, event]{
	{From: StateIdle, Event: evStart, To: StateRecording},
	{From: StateRecording, Event: evStop, To: StateStopped},
	{From: StateRecording, Event: evExpire, To: StateStopped},
	{From: StateStopped, Event: evRetake, To: StateIdle},
	{From: StateIdle, Event: evClose, To: StateClosed},
	{From: StateRecording, Event: evClose, To: StateClosed},
	{From: StateStopped, Event: evClose, To: StateClosed},
}

// ErrInvalidTransition is returned for operations not allowed in the
// current state.
var ErrInvalidTransition = fsm.ErrInvalidTransition

const (
	tickInterval        = time.Second
	maxTicks            = int64(clip.MaxDuration / tickInterval)
	defaultDrainTimeout = 3 * time.Second
)

// Stop reasons, also used as metric labels.
const (
	reasonManual      = "manual"
	reasonAuto        = "auto"
	reasonSourceEnded = "source_ended"
	reasonAbandoned   = "abandoned"
)

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock and ticker source.
func WithClock(clk Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// WithDrainTimeout bounds how long Stop waits for the trailing fragments.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *Controller) { c.drainTimeout = d }
}

// WithTickHook is called from the session loop whenever elapsed changes.
func WithTickHook(fn func(elapsed int)) Option {
	return func(c *Controller) { c.onTick = fn }
}

// Controller owns one recording session at a time.
type Controller struct {
	source       capture.Source
	clock        Clock
	drainTimeout time.Duration
	onTick       func(elapsed int)
	logger       zerolog.Logger

	ops     sync.Mutex // serialises Start, Retake and Close
	machine *fsm.Machine[State, event]
	elapsed atomic.Int64

	mu   sync.Mutex
	sess *session
}

type session struct {
	handle  capture.LiveHandle
	ticker  Ticker
	started time.Time
	frags   [][]byte

	stopReq     chan struct{}
	abandon     chan struct{}
	abandonOnce sync.Once
	done        chan struct{}

	// set by the loop before done is closed
	clip clip.Clip
	err  error
}

// New returns an idle Controller recording from source.
func New(source capture.Source, opts ...Option) *Controller {
	c := &Controller{
		source:       source,
		clock:        SystemClock,
		drainTimeout: defaultDrainTimeout,
		logger:       log.WithComponent("recorder"),
		machine:      fsm.MustNew(StateIdle, transitions),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current session state.
func (c *Controller) State() State { return c.machine.State() }

// Elapsed returns whole seconds recorded so far in the current session.
func (c *Controller) Elapsed() int { return int(c.elapsed.Load()) }

// Start acquires the device and begins recording. The ticker and the
// fragment pump start together in the session loop.
func (c *Controller) Start(ctx context.Context) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	if !c.machine.Can(evStart) {
		return fmt.Errorf("start from %s: %w", c.State(), ErrInvalidTransition)
	}
	c.clearSession()

	handle, err := c.source.StartLive(ctx)
	if err != nil {
		return err
	}

	s := &session{
		handle:  handle,
		ticker:  c.clock.NewTicker(tickInterval),
		started: c.clock.Now(),
		stopReq: make(chan struct{}),
		abandon: make(chan struct{}),
		done:    make(chan struct{}),
	}
	if _, err := c.machine.Fire(evStart); err != nil {
		s.ticker.Stop()
		_ = handle.Close()
		return err
	}
	c.elapsed.Store(0)
	c.setSession(s)

	go c.run(s)

	c.logger.Info().
		Str(log.FieldEvent, "recording.started").
		Str(log.FieldMimeType, handle.MimeType()).
		Msg("recording started")
	return nil
}

// Stop ends the session and returns the recorded clip.
func (c *Controller) Stop(ctx context.Context) (clip.Clip, error) {
	s := c.current()
	if s == nil || c.State() != StateRecording {
		return clip.Clip{}, fmt.Errorf("stop from %s: %w", c.State(), ErrInvalidTransition)
	}

	select {
	case s.stopReq <- struct{}{}:
	case <-s.done: // expired concurrently
	case <-ctx.Done():
		return clip.Clip{}, srterr.New(srterr.KindCancelled, "recorder.Stop", "", ctx.Err())
	}
	return c.await(ctx, s)
}

// Wait blocks until the current session stops, manually or on expiry, and
// returns its clip.
func (c *Controller) Wait(ctx context.Context) (clip.Clip, error) {
	s := c.current()
	if s == nil {
		return clip.Clip{}, fmt.Errorf("wait from %s: %w", c.State(), ErrInvalidTransition)
	}
	return c.await(ctx, s)
}

func (c *Controller) await(ctx context.Context, s *session) (clip.Clip, error) {
	select {
	case <-s.done:
		return s.clip, s.err
	case <-ctx.Done():
		return clip.Clip{}, srterr.New(srterr.KindCancelled, "recorder.Wait", "", ctx.Err())
	}
}

// Retake discards the recorded clip and returns to idle. The next Start
// acquires the device again.
func (c *Controller) Retake() error {
	c.ops.Lock()
	defer c.ops.Unlock()

	if _, err := c.machine.Fire(evRetake); err != nil {
		return err
	}
	c.clearSession()
	c.elapsed.Store(0)
	return nil
}

// Close abandons the controller from any state. The ticker is stopped and
// the device released; no clip is produced. Close is idempotent.
func (c *Controller) Close() error {
	c.ops.Lock()
	defer c.ops.Unlock()

	if c.State() == StateClosed {
		return nil
	}
	if _, err := c.machine.Fire(evClose); err != nil {
		return err
	}
	c.clearSession()
	c.elapsed.Store(0)
	return nil
}

func (c *Controller) current() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func (c *Controller) setSession(s *session) {
	c.mu.Lock()
	c.sess = s
	c.mu.Unlock()
}

// clearSession abandons a still running loop, waits for it, and forgets
// the session.
func (c *Controller) clearSession() {
	s := c.current()
	if s == nil {
		return
	}
	s.abandonOnce.Do(func() { close(s.abandon) })
	<-s.done
	c.setSession(nil)
}

func (c *Controller) run(s *session) {
	defer close(s.done)

	frags := s.handle.Fragments()
	for {
		select {
		case f, ok := <-frags:
			if !ok {
				c.finish(s, reasonSourceEnded, nil)
				return
			}
			s.frags = append(s.frags, f)

		case <-s.ticker.C():
			if c.elapsed.Load() >= maxTicks-1 {
				c.elapsed.Store(0)
				c.tick(0)
				c.finish(s, reasonAuto, frags)
				return
			}
			c.tick(int(c.elapsed.Add(1)))

		case <-s.stopReq:
			c.finish(s, reasonManual, frags)
			return

		case <-s.abandon:
			s.ticker.Stop()
			if err := s.handle.Close(); err != nil {
				c.logger.Debug().Err(err).Msg("capture release after abandon")
			}
			metrics.ObserveRecording(reasonAbandoned, 0)
			c.logger.Info().Str(log.FieldEvent, "recording.abandoned").Msg("recording abandoned")
			return
		}
	}
}

func (c *Controller) tick(elapsed int) {
	if c.onTick != nil {
		c.onTick(elapsed)
	}
}

// finish stops the ticker, lets the source flush, collects what is left and
// releases the device. frags is nil when the source already ended.
func (c *Controller) finish(s *session, reason string, frags <-chan []byte) {
	s.ticker.Stop()
	stoppedAt := c.clock.Now()
	s.handle.Stop()

	if frags != nil {
		timer := time.NewTimer(c.drainTimeout)
	drain:
		for {
			select {
			case f, ok := <-frags:
				if !ok {
					break drain
				}
				s.frags = append(s.frags, f)
			case <-timer.C:
				c.logger.Warn().Dur("drain_timeout", c.drainTimeout).Msg("capture did not flush in time")
				break drain
			}
		}
		timer.Stop()
	}

	if err := s.handle.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("capture release")
	}

	d := stoppedAt.Sub(s.started)
	switch {
	case d > clip.MaxDuration:
		d = clip.MaxDuration
	case d < 0:
		d = 0
	}
	s.clip = clip.FromFragments(s.frags, s.handle.MimeType(), clip.SourceLive).WithDuration(d)
	s.frags = nil

	ev := evStop
	if reason == reasonAuto {
		ev = evExpire
	}
	if _, err := c.machine.Fire(ev); err != nil {
		s.err = err
	}

	metrics.ObserveRecording(reason, d.Seconds())
	c.logger.Info().
		Str(log.FieldEvent, "recording.stopped").
		Str(log.FieldReason, reason).
		Dur(log.FieldDuration, d).
		Int64(log.FieldBytes, s.clip.Size()).
		Msg("recording stopped")
}
