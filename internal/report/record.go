// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package report holds resolved analysis reports: the record itself, the
// process-wide cache slot, score interpretation, export and the archive.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned for a data field that is neither null nor a JSON
// object.
var ErrNotObject = errors.New("report: data is not a JSON object")

// Payload is the raw report data object. Its keys are opaque to the
// pipeline; only presentation decodes them.
type Payload map[string]json.RawMessage

// ParsePayload decodes the data field of a report response. Absent or null
// data yields an empty payload.
func ParsePayload(raw json.RawMessage) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Payload{}, nil
	}
	if trimmed[0] != '{' {
		return nil, ErrNotObject
	}
	var p Payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("report: decode data: %w", err)
	}
	return p, nil
}

// Empty reports whether the payload has no keys.
func (p Payload) Empty() bool { return len(p) == 0 }

// Scores decodes the known score fields.
func (p Payload) Scores() (Scores, error) {
	var s Scores
	raw, err := json.Marshal(p)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("report: decode scores: %w", err)
	}
	return s, nil
}

// Record is a report as returned by the analysis service.
type Record struct {
	ReportID string  `json:"reportId"`
	Success  bool    `json:"success"`
	Data     Payload `json:"data"`
}

// Complete reports whether the analysis has finished: success and a
// non-empty data object. An empty object from a successful call means the
// analysis is not ready yet.
func (r Record) Complete() bool {
	return r.Success && !r.Data.Empty()
}
