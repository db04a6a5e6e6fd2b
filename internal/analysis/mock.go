// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package analysis

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// SampleScores is the report body served by the mock once analysis is done.
const SampleScores = `{
  "totalScore": 8.5,
  "sitScore": 4.5,
  "riseScore": 4.0,
  "posturalControl": 0.82,
  "balance": 0.76,
  "coordination": 0.88,
  "feedback": {
    "strengths": ["Controlled descent", "Symmetric weight shift"],
    "improvements": ["Hand support on rise"],
    "recommendations": ["Practice unsupported sit-to-stand three times a week"]
  }
}`

// Mock endpoint keys for SetFailures.
const (
	EndpointAnalyse = "analyse"
	EndpointReport  = "report"
)

// Upload describes the last clip received by the mock.
type Upload struct {
	Field       string
	FileName    string
	ContentType string
	Size        int
}

type mockReport struct {
	pending int
	data    json.RawMessage
}

// Mock is a configurable in-memory analysis service.
type Mock struct {
	mu           sync.Mutex
	pendingPolls int // empty data responses served before a report is ready
	scores       json.RawMessage
	rejectMsg    string
	rejectStatus int
	failures     map[string]int // endpoint -> remaining 500 responses
	reports      map[string]*mockReport
	submissions  int
	fetches      map[string]int
	lastUpload   Upload
}

// NewMock returns a Mock that answers every report immediately.
func NewMock() *Mock {
	return &Mock{
		scores:   json.RawMessage(SampleScores),
		failures: make(map[string]int),
		reports:  make(map[string]*mockReport),
		fetches:  make(map[string]int),
	}
}

// Handler routes the service endpoints.
func (m *Mock) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post(PathAnalyse, m.handleAnalyse)
	r.Get(PathReport, m.handleReport)
	return r
}

// SetPendingPolls makes newly submitted reports answer n polls with an
// empty data object before the scores appear.
func (m *Mock) SetPendingPolls(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingPolls = n
}

// SetScores replaces the data served for completed reports.
func (m *Mock) SetScores(raw json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = raw
}

// RejectSubmissions makes POST /api/analyse answer success:false with msg.
// A zero status keeps HTTP 200.
func (m *Mock) RejectSubmissions(status int, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejectStatus = status
	m.rejectMsg = msg
}

// SetFailures makes the next count requests to endpoint fail with HTTP 500.
func (m *Mock) SetFailures(endpoint string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[endpoint] = count
}

// AddReport registers a report that needs no submission.
func (m *Mock) AddReport(id string, pending int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[id] = &mockReport{pending: pending, data: m.scores}
}

// Submissions returns the number of accepted uploads.
func (m *Mock) Submissions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submissions
}

// Fetches returns how many times a report was requested.
func (m *Mock) Fetches(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[id]
}

// LastUpload returns the most recent upload.
func (m *Mock) LastUpload() Upload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUpload
}

func (m *Mock) fail(endpoint string) bool {
	if m.failures[endpoint] > 0 {
		m.failures[endpoint]--
		return true
	}
	return false
}

func (m *Mock) handleAnalyse(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponent("mock")

	file, header, err := r.FormFile(FieldVideo)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: "No video file provided"})
		return
	}
	defer func() { _ = file.Close() }()
	size, _ := io.Copy(io.Discard, file)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastUpload = Upload{
		Field:       FieldVideo,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int(size),
	}

	if m.fail(EndpointAnalyse) {
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Message: "Internal server error"})
		return
	}
	if m.rejectMsg != "" || m.rejectStatus != 0 {
		status := m.rejectStatus
		if status == 0 {
			status = http.StatusOK
		}
		writeJSON(w, status, SubmitResponse{Message: m.rejectMsg})
		return
	}

	id := uuid.NewString()
	m.reports[id] = &mockReport{pending: m.pendingPolls, data: m.scores}
	m.submissions++
	logger.Info().Str(log.FieldReportID, id).Int64(log.FieldBytes, size).Msg("mock accepted clip")
	writeJSON(w, http.StatusOK, SubmitResponse{Success: true, ReportID: id})
}

func (m *Mock) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches[id]++
	if m.fail(EndpointReport) {
		writeJSON(w, http.StatusInternalServerError, ReportResponse{Message: "Internal server error"})
		return
	}
	rep, ok := m.reports[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, ReportResponse{Message: "Report not found"})
		return
	}
	if rep.pending > 0 {
		rep.pending--
		writeJSON(w, http.StatusOK, ReportResponse{Success: true, Data: json.RawMessage(`{}`)})
		return
	}
	writeJSON(w, http.StatusOK, ReportResponse{Success: true, Data: rep.data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// MockServer serves a Mock over a local httptest server.
type MockServer struct {
	*httptest.Server
	*Mock
}

// NewMockServer starts a Mock on a loopback port. Close it when done.
func NewMockServer() *MockServer {
	m := NewMock()
	return &MockServer{Server: httptest.NewServer(m.Handler()), Mock: m}
}
