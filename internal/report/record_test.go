// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr error
	}{
		{name: "absent", raw: "", wantLen: 0},
		{name: "null", raw: "null", wantLen: 0},
		{name: "empty object", raw: " {} ", wantLen: 0},
		{name: "scored", raw: `{"score":9,"feedback":{}}`, wantLen: 2},
		{name: "array", raw: `[1,2]`, wantErr: ErrNotObject},
		{name: "string", raw: `"done"`, wantErr: ErrNotObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePayload(json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, p, tt.wantLen)
			assert.Equal(t, tt.wantLen == 0, p.Empty())
		})
	}
}

func TestParsePayload_BrokenObject(t *testing.T) {
	_, err := ParsePayload(json.RawMessage(`{"score":`))
	assert.Error(t, err)
}

func TestRecord_Complete(t *testing.T) {
	scored := Payload{"score": json.RawMessage("9")}

	assert.True(t, Record{ReportID: "r", Success: true, Data: scored}.Complete())
	assert.False(t, Record{ReportID: "r", Success: true, Data: Payload{}}.Complete(), "empty data is not ready")
	assert.False(t, Record{ReportID: "r", Success: true}.Complete())
	assert.False(t, Record{ReportID: "r", Success: false, Data: scored}.Complete())
}

func TestRecord_JSONShape(t *testing.T) {
	rec := Record{ReportID: "abc", Success: true, Data: Payload{"score": json.RawMessage("9")}}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reportId":"abc","success":true,"data":{"score":9}}`, string(raw))
}
