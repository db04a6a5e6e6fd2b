// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskFor(t *testing.T) {
	tests := []struct {
		total float64
		want  RiskLevel
	}{
		{10, RiskLow},
		{7, RiskLow},
		{6.9, RiskModerate},
		{4, RiskModerate},
		{3.9, RiskHigh},
		{0, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskFor(tt.total), "total=%v", tt.total)
	}
}

func TestScores_MissingTotalIsHigh(t *testing.T) {
	assert.Equal(t, RiskHigh, Scores{}.Risk())
}

func mustPayload(t *testing.T, raw string) Payload {
	t.Helper()
	p, err := ParsePayload(json.RawMessage(raw))
	require.NoError(t, err)
	return p
}

func TestPayload_Scores(t *testing.T) {
	p := mustPayload(t, `{"totalScore":8.5,"sitScore":4,"balance":0.75,"feedback":{"strengths":["steady"]}}`)
	s, err := p.Scores()
	require.NoError(t, err)

	require.NotNil(t, s.TotalScore)
	assert.InDelta(t, 8.5, *s.TotalScore, 1e-9)
	require.NotNil(t, s.Balance)
	assert.InDelta(t, 0.75, *s.Balance, 1e-9)
	assert.Nil(t, s.RiseScore)
	assert.Equal(t, []string{"steady"}, s.Feedback.Strengths)
	assert.Equal(t, RiskLow, s.Risk())
}

func TestPayload_ScoresWrongType(t *testing.T) {
	p := mustPayload(t, `{"totalScore":"high"}`)
	_, err := p.Scores()
	assert.Error(t, err)
}

func TestWriteSummary(t *testing.T) {
	rec := Record{
		ReportID: "rep-1",
		Success:  true,
		Data: mustPayload(t, `{
			"totalScore": 5,
			"sitScore": 2.5,
			"posturalControl": 0.62,
			"feedback": {"improvements": ["use less hand support"], "recommendations": []}
		}`),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, rec))
	out := buf.String()

	assert.Contains(t, out, "SRT Analysis Report rep-1")
	assert.Contains(t, out, "Total score:      5.0/10")
	assert.Contains(t, out, "Risk level:       Moderate")
	assert.Contains(t, out, "Sitting:          2.5/5")
	assert.Contains(t, out, "Rising:           N/A/5")
	assert.Contains(t, out, "Postural control: 6.2/10")
	assert.Contains(t, out, "Areas for improvement:\n  - use less hand support")
	assert.NotContains(t, out, "Strengths:")
	assert.NotContains(t, out, "Recommendations:")
}
