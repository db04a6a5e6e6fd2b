// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package srterr

// Action is the recovery offered to the user after a failure.
type Action string

const (
	ActionRetryCapture Action = "retry_capture"
	ActionRetrySubmit  Action = "retry_submit"
	ActionRetryFetch   Action = "retry_fetch"
	ActionReturnHome   Action = "return_home"
)

// Recovery maps a Kind to the action that returns the flow to a stable,
// re-enterable state.
func (k Kind) Recovery() Action {
	switch k {
	case KindDeviceUnavailable, KindNoPendingClip, KindUnsupportedType, KindSizeExceeded,
		KindDurationExceeded, KindDurationProbeFailed:
		return ActionRetryCapture
	case KindSubmissionRejected, KindTransport:
		return ActionRetrySubmit
	case KindMalformedResponse, KindPollTimeout:
		return ActionRetryFetch
	default:
		return ActionReturnHome
	}
}

// RecoveryFor is a convenience for KindOf(err).Recovery().
func RecoveryFor(err error) Action {
	return KindOf(err).Recovery()
}

// Hint is the one-line instruction printed next to an error.
func (a Action) Hint() string {
	switch a {
	case ActionRetryCapture:
		return "record again or choose another file"
	case ActionRetrySubmit:
		return "submit the same clip again"
	case ActionRetryFetch:
		return "open the report again to retry"
	default:
		return "start over"
	}
}
