// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package srterr defines the error taxonomy shared by the capture, submission
// and report flows, and the recovery action the user is offered for each kind.
package srterr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for presentation and recovery.
type Kind string

const (
	KindDeviceUnavailable   Kind = "device_unavailable"
	KindNoPendingClip       Kind = "no_pending_clip"
	KindUnsupportedType     Kind = "unsupported_type"
	KindSizeExceeded        Kind = "size_exceeded"
	KindDurationExceeded    Kind = "duration_exceeded"
	KindDurationProbeFailed Kind = "duration_probe_failed"
	KindSubmissionRejected  Kind = "submission_rejected"
	KindMalformedResponse   Kind = "malformed_response"
	KindPollTimeout         Kind = "poll_timeout"
	KindTransport           Kind = "transport_error"
	KindInvalidReportID     Kind = "invalid_report_id"
	KindCancelled           Kind = "cancelled"
	KindUnknown             Kind = "unknown"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrDeviceUnavailable   = errors.New("capture: device unavailable")
	ErrNoPendingClip       = errors.New("capture: no clip recorded or chosen")
	ErrUnsupportedType     = errors.New("clip: unsupported media type")
	ErrSizeExceeded        = errors.New("clip: size limit exceeded")
	ErrDurationExceeded    = errors.New("clip: duration limit exceeded")
	ErrDurationProbeFailed = errors.New("clip: duration probe failed")
	ErrSubmissionRejected  = errors.New("analysis: submission rejected")
	ErrMalformedResponse   = errors.New("analysis: malformed response")
	ErrPollTimeout         = errors.New("analysis: timed out waiting for results")
	ErrTransport           = errors.New("analysis: transport failure")
	ErrInvalidReportID     = errors.New("report: invalid report id")
	ErrCancelled           = errors.New("operation cancelled")
)

var sentinels = map[Kind]error{
	KindDeviceUnavailable:   ErrDeviceUnavailable,
	KindNoPendingClip:       ErrNoPendingClip,
	KindUnsupportedType:     ErrUnsupportedType,
	KindSizeExceeded:        ErrSizeExceeded,
	KindDurationExceeded:    ErrDurationExceeded,
	KindDurationProbeFailed: ErrDurationProbeFailed,
	KindSubmissionRejected:  ErrSubmissionRejected,
	KindMalformedResponse:   ErrMalformedResponse,
	KindPollTimeout:         ErrPollTimeout,
	KindTransport:           ErrTransport,
	KindInvalidReportID:     ErrInvalidReportID,
	KindCancelled:           ErrCancelled,
}

// Error is a rich error that wraps a sentinel with operation context and a
// message fit for the user.
type Error struct {
	Kind      Kind
	Operation string
	Message   string // human readable, shown to the user
	Status    int    // HTTP status when the failure came from the service
	Err       error  // nested lower-level error
}

// New builds an Error of the given kind.
func New(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Operation: op, Message: message, Err: cause}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Operation, e.sentinel())
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the nested cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}

func (e *Error) sentinel() error {
	if s, ok := sentinels[e.Kind]; ok {
		return s
	}
	return errors.New(string(e.Kind))
}

// KindOf reports the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for kind, s := range sentinels {
		if errors.Is(err, s) {
			return kind
		}
	}
	return KindUnknown
}

// UserMessage returns the message the user should see for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if m, ok := defaultMessages[KindOf(err)]; ok {
		return m
	}
	return err.Error()
}

var defaultMessages = map[Kind]string{
	KindDeviceUnavailable:   "Failed to start recording. Please check your camera permissions.",
	KindNoPendingClip:       "Please record or upload a video first",
	KindUnsupportedType:     "Please upload a valid video file (MP4, WebM, or QuickTime)",
	KindDurationProbeFailed: "Error validating video. Please try another file.",
	KindSubmissionRejected:  "Failed to analyze video",
	KindMalformedResponse:   "The analysis service returned an unexpected response.",
	KindPollTimeout:         "Timeout waiting for analysis results",
	KindTransport:           "Failed to upload video. Please try again.",
	KindInvalidReportID:     "Invalid report ID",
	KindCancelled:           "Cancelled",
}
