// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/srtcheck/internal/capture"
	"github.com/ManuGH/srtcheck/internal/clip"
	"github.com/ManuGH/srtcheck/internal/srterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) ticker() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[len(c.tickers)-1]
}

// tick advances the clock by one second and delivers a tick.
func (c *fakeClock) tick(t *testing.T) {
	t.Helper()
	c.Advance(time.Second)
	select {
	case c.ticker().ch <- c.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("session loop did not take the tick")
	}
}

type fakeHandle struct {
	frags       chan []byte
	trailer     []byte
	closeOnStop bool
	onStop      func()
	stops       atomic.Int32
	closes      atomic.Int32
	stopOnce    sync.Once
}

func newFakeHandle(initial ...string) *fakeHandle {
	h := &fakeHandle{frags: make(chan []byte, 64), trailer: []byte("|trailer"), closeOnStop: true}
	for _, f := range initial {
		h.frags <- []byte(f)
	}
	return h
}

func (h *fakeHandle) Fragments() <-chan []byte { return h.frags }
func (h *fakeHandle) MimeType() string         { return clip.MimeWebM }

func (h *fakeHandle) Stop() {
	h.stops.Add(1)
	if h.onStop != nil {
		h.onStop()
	}
	if !h.closeOnStop {
		return
	}
	h.stopOnce.Do(func() {
		h.frags <- h.trailer
		close(h.frags)
	})
}

func (h *fakeHandle) Close() error {
	h.closes.Add(1)
	return nil
}

type fakeSource struct {
	mu      sync.Mutex
	handles []*fakeHandle
	err     error
	starts  int
}

func (s *fakeSource) StartLive(context.Context) (capture.LiveHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if s.err != nil {
		return nil, s.err
	}
	h := s.handles[0]
	s.handles = s.handles[1:]
	return h, nil
}

func newController(src capture.Source, clk *fakeClock, ticks chan int) *Controller {
	opts := []Option{WithClock(clk), WithDrainTimeout(100 * time.Millisecond)}
	if ticks != nil {
		opts = append(opts, WithTickHook(func(n int) { ticks <- n }))
	}
	return New(src, opts...)
}

func TestController_AutoStopsOnThirtiethTick(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newFakeHandle("a", "b")
	clk := newFakeClock()
	ticks := make(chan int, 64)
	c := newController(&fakeSource{handles: []*fakeHandle{h}}, clk, ticks)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateRecording, c.State())

	for i := 1; i <= 29; i++ {
		clk.tick(t)
		require.Equal(t, i, <-ticks)
	}
	assert.Equal(t, StateRecording, c.State())
	assert.Equal(t, 29, c.Elapsed())

	clk.tick(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := c.Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, <-ticks)
	assert.Equal(t, 0, c.Elapsed())
	assert.Equal(t, StateStopped, c.State())
	assert.Equal(t, clip.MaxDuration, got.Duration)
	assert.LessOrEqual(t, got.Duration, clip.MaxDuration)
	assert.Equal(t, clip.SourceLive, got.Source)
	assert.Equal(t, clip.MimeWebM, got.MimeType)
	assert.Equal(t, "ab|trailer", string(got.Bytes()))
	assert.True(t, clk.ticker().stopped.Load())
	assert.Equal(t, int32(1), h.stops.Load())
	assert.Equal(t, int32(1), h.closes.Load())

	_, err = c.Stop(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestController_ManualStopKeepsElapsed(t *testing.T) {
	for _, n := range []int{0, 1, 12, 29} {
		func() {
			defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

			clk := newFakeClock()
			ticks := make(chan int, 64)
			c := newController(&fakeSource{handles: []*fakeHandle{newFakeHandle("x")}}, clk, ticks)
			defer c.Close()

			require.NoError(t, c.Start(context.Background()))
			for i := 0; i < n; i++ {
				clk.tick(t)
				<-ticks
			}

			got, err := c.Stop(context.Background())
			require.NoError(t, err)
			assert.Equal(t, time.Duration(n)*time.Second, got.Duration)
			assert.Equal(t, n, c.Elapsed())
			assert.Equal(t, StateStopped, c.State())
		}()
	}
}

func TestController_DurationCappedAtMax(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clk := newFakeClock()
	c := newController(&fakeSource{handles: []*fakeHandle{newFakeHandle("x")}}, clk, nil)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	clk.Advance(45 * time.Second)

	got, err := c.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, clip.MaxDuration, got.Duration)
}

func TestController_FlushTimeNotRecorded(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clk := newFakeClock()
	ticks := make(chan int, 64)
	h := newFakeHandle("x")
	h.onStop = func() { clk.Advance(3 * time.Second) }
	c := newController(&fakeSource{handles: []*fakeHandle{h}}, clk, ticks)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	for i := 0; i < 5; i++ {
		clk.tick(t)
		<-ticks
	}

	got, err := c.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, got.Duration)
}

func TestController_InvalidTransitions(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clk := newFakeClock()
	c := newController(&fakeSource{handles: []*fakeHandle{newFakeHandle()}}, clk, nil)
	defer c.Close()

	_, err := c.Stop(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = c.Wait(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, c.Retake(), ErrInvalidTransition)

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrInvalidTransition)
	assert.ErrorIs(t, c.Retake(), ErrInvalidTransition)
}

func TestController_RetakeReacquiresDevice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	first, second := newFakeHandle("one"), newFakeHandle("two")
	src := &fakeSource{handles: []*fakeHandle{first, second}}
	clk := newFakeClock()
	ticks := make(chan int, 64)
	c := newController(src, clk, ticks)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	clk.tick(t)
	<-ticks
	_, err := c.Stop(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Retake())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 0, c.Elapsed())
	_, err = c.Wait(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition, "retake discards the previous clip")

	require.NoError(t, c.Start(context.Background()))
	got, err := c.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "two|trailer", string(got.Bytes()))
	assert.Equal(t, 2, src.starts)
}

func TestController_CloseWhileRecording(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newFakeHandle("partial")
	clk := newFakeClock()
	c := newController(&fakeSource{handles: []*fakeHandle{h}}, clk, nil)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.Equal(t, StateClosed, c.State())
	assert.True(t, clk.ticker().stopped.Load())
	assert.Equal(t, int32(1), h.closes.Load())
	assert.Zero(t, h.stops.Load(), "abandonment does not finalise a clip")
	assert.ErrorIs(t, c.Start(context.Background()), ErrInvalidTransition)
}

func TestController_StartFailureStaysIdle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &fakeSource{err: srterr.New(srterr.KindDeviceUnavailable, "capture.StartLive", "", nil)}
	c := newController(src, newFakeClock(), nil)
	defer c.Close()

	err := c.Start(context.Background())
	assert.ErrorIs(t, err, srterr.ErrDeviceUnavailable)
	assert.Equal(t, StateIdle, c.State())
}

func TestController_DrainTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newFakeHandle("kept")
	h.closeOnStop = false
	c := newController(&fakeSource{handles: []*fakeHandle{h}}, newFakeClock(), nil)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))

	start := time.Now()
	got, err := c.Stop(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "kept", string(got.Bytes()))
	assert.Equal(t, int32(1), h.closes.Load())
}

func TestController_SourceEndedStopsSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newFakeHandle("only")
	close(h.frags)
	h.closeOnStop = false
	c := newController(&fakeSource{handles: []*fakeHandle{h}}, newFakeClock(), nil)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := c.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "only", string(got.Bytes()))
	assert.Equal(t, StateStopped, c.State())
}

func TestController_StopHonoursContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := newController(&fakeSource{handles: []*fakeHandle{newFakeHandle()}}, newFakeClock(), nil)
	defer c.Close()
	require.NoError(t, c.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Wait(ctx)
	assert.ErrorIs(t, err, srterr.ErrCancelled)
}
