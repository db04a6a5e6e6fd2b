// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package report

import (
	"fmt"
	"io"
	"strings"
)

// Scores is the typed view of a completed report. Missing values stay nil.
type Scores struct {
	TotalScore      *float64 `json:"totalScore,omitempty"`
	SitScore        *float64 `json:"sitScore,omitempty"`
	RiseScore       *float64 `json:"riseScore,omitempty"`
	PosturalControl *float64 `json:"posturalControl,omitempty"` // fraction 0..1
	Balance         *float64 `json:"balance,omitempty"`         // fraction 0..1
	Coordination    *float64 `json:"coordination,omitempty"`    // fraction 0..1
	Feedback        Feedback `json:"feedback"`
}

// Feedback lists the qualitative findings.
type Feedback struct {
	Strengths       []string `json:"strengths,omitempty"`
	Improvements    []string `json:"improvements,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// RiskLevel classifies the total score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// RiskFor maps a total score out of 10 to a risk level.
func RiskFor(total float64) RiskLevel {
	switch {
	case total >= 7:
		return RiskLow
	case total >= 4:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// Risk classifies the total score; a missing score counts as zero.
func (s Scores) Risk() RiskLevel {
	if s.TotalScore == nil {
		return RiskFor(0)
	}
	return RiskFor(*s.TotalScore)
}

func scaled(v *float64, factor float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v*factor)
}

// WriteSummary prints a plain text report.
func WriteSummary(w io.Writer, rec Record) error {
	s, err := rec.Data.Scores()
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SRT Analysis Report %s\n\n", rec.ReportID)
	fmt.Fprintf(&b, "Total score:      %s/10\n", scaled(s.TotalScore, 1))
	fmt.Fprintf(&b, "Risk level:       %s\n", s.Risk())
	fmt.Fprintf(&b, "Sitting:          %s/5\n", scaled(s.SitScore, 1))
	fmt.Fprintf(&b, "Rising:           %s/5\n", scaled(s.RiseScore, 1))
	fmt.Fprintf(&b, "Postural control: %s/10\n", scaled(s.PosturalControl, 10))
	fmt.Fprintf(&b, "Balance:          %s/10\n", scaled(s.Balance, 10))
	fmt.Fprintf(&b, "Coordination:     %s/10\n", scaled(s.Coordination, 10))

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, it := range items {
			fmt.Fprintf(&b, "  - %s\n", it)
		}
	}
	section("Strengths", s.Feedback.Strengths)
	section("Areas for improvement", s.Feedback.Improvements)
	section("Recommendations", s.Feedback.Recommendations)

	_, err = io.WriteString(w, b.String())
	return err
}
