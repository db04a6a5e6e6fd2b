// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the client.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Clip attributes
	ClipMimeTypeKey = "clip.mime_type"
	ClipBytesKey    = "clip.bytes"
	ClipSourceKey   = "clip.source"

	// Job attributes
	ReportIDKey   = "srt.report_id"
	JobStatusKey  = "srt.job.status"
	JobAttemptKey = "srt.job.attempt"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// ClipAttributes describes an uploaded clip.
func ClipAttributes(mimeType, source string, size int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ClipMimeTypeKey, mimeType),
		attribute.String(ClipSourceKey, source),
		attribute.Int64(ClipBytesKey, size),
	}
}

// JobAttributes describes a poll attempt for a report.
func JobAttributes(reportID, status string, attempt int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(ReportIDKey, reportID),
		attribute.Int(JobAttemptKey, attempt),
	}
	if status != "" {
		attrs = append(attrs, attribute.String(JobStatusKey, status))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
