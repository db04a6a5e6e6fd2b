// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package report

import (
	"sync/atomic"

	"github.com/ManuGH/srtcheck/internal/metrics"
)

// Cache is a single-slot holder for the most recently resolved report.
// One Cache is shared by the whole process; a write replaces the slot.
type Cache struct {
	slot atomic.Pointer[Record]
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Read returns the cached record when its id matches and its data is
// non-empty.
func (c *Cache) Read(reportID string) (Record, bool) {
	r := c.slot.Load()
	hit := r != nil && r.ReportID == reportID && !r.Data.Empty()
	metrics.IncReportCache(hit)
	if !hit {
		return Record{}, false
	}
	return *r, true
}

// Write replaces the slot.
func (c *Cache) Write(rec Record) {
	c.slot.Store(&rec)
}

// Clear empties the slot.
func (c *Cache) Clear() {
	c.slot.Store(nil)
}
