// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package srterr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsSentinelAndCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := New(KindTransport, "submit", "", cause)
	wrapped := fmt.Errorf("analyse: %w", err)

	assert.ErrorIs(t, wrapped, ErrTransport)
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
	assert.NotErrorIs(t, wrapped, ErrPollTimeout)
	assert.Equal(t, KindTransport, KindOf(wrapped))
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindSubmissionRejected, Operation: "submit", Status: 422, Message: "no person detected"}
	assert.Equal(t, "submit: analysis: submission rejected (HTTP 422): no person detected", err.Error())
	assert.Equal(t, "no person detected", UserMessage(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindPollTimeout, KindOf(fmt.Errorf("x: %w", ErrPollTimeout)))
}

func TestUserMessage_Defaults(t *testing.T) {
	assert.Equal(t, "Timeout waiting for analysis results", UserMessage(ErrPollTimeout))
	assert.Equal(t, "Please record or upload a video first", UserMessage(New(KindNoPendingClip, "analyse", "", nil)))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Empty(t, UserMessage(nil))
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		kind Kind
		want Action
	}{
		{KindDeviceUnavailable, ActionRetryCapture},
		{KindNoPendingClip, ActionRetryCapture},
		{KindDurationExceeded, ActionRetryCapture},
		{KindDurationProbeFailed, ActionRetryCapture},
		{KindSubmissionRejected, ActionRetrySubmit},
		{KindTransport, ActionRetrySubmit},
		{KindMalformedResponse, ActionRetryFetch},
		{KindPollTimeout, ActionRetryFetch},
		{KindInvalidReportID, ActionReturnHome},
		{KindUnknown, ActionReturnHome},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Recovery())
			assert.NotEmpty(t, tt.want.Hint())
		})
	}
}
