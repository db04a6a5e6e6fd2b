// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldReportID  = "report_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldAttempt   = "attempt"
	FieldStatus    = "status"
	FieldReason    = "reason"

	// Media fields
	FieldMimeType = "mime_type"
	FieldBytes    = "bytes"
	FieldDuration = "duration"
	FieldSource   = "source"
	FieldDevice   = "device"
	FieldPath     = "path"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Network fields
	FieldBaseURL = "base_url"
)
