// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"strings"
	"sync"
)

// RingBuffer keeps the last lines written to it. It is used as the stderr
// sink of ffmpeg so failures can be reported with diagnostics.
type RingBuffer struct {
	lines   []string
	pos     int
	full    bool
	partial strings.Builder
	mu      sync.Mutex
}

func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{lines: make([]string, size)}
}

// Write splits p into lines. An unterminated tail is kept until the next write.
func (r *RingBuffer) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range p {
		if b == '\n' {
			r.add(strings.TrimRight(r.partial.String(), "\r"))
			r.partial.Reset()
			continue
		}
		r.partial.WriteByte(b)
	}
	return len(p), nil
}

func (r *RingBuffer) Add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(line)
}

func (r *RingBuffer) add(line string) {
	r.lines[r.pos] = line
	r.pos = (r.pos + 1) % len(r.lines)
	if r.pos == 0 {
		r.full = true
	}
}

func (r *RingBuffer) GetAll() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []string
	if !r.full {
		res = append([]string(nil), r.lines[:r.pos]...)
	} else {
		res = make([]string, len(r.lines))
		copy(res, r.lines[r.pos:])
		copy(res[len(r.lines)-r.pos:], r.lines[:r.pos])
	}
	if r.partial.Len() > 0 {
		res = append(res, r.partial.String())
	}
	return res
}
