// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package analysis

import "encoding/json"

// Endpoint paths of the analysis service.
const (
	PathAnalyse = "/api/analyse"
	PathReport  = "/api/report/{id}"

	// FieldVideo is the multipart field carrying the clip.
	FieldVideo = "video"
)

// SubmitResponse is the body of POST /api/analyse.
type SubmitResponse struct {
	Success  bool   `json:"success"`
	ReportID string `json:"reportId,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ReportResponse is the body of GET /api/report/{id}. Data stays raw; its
// interpretation belongs to the report package.
type ReportResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}
