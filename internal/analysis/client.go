// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package analysis talks to the remote SRT analysis service: clip upload and
// report retrieval. It also provides an in-process mock of the service.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/srtcheck/internal/clip"
	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/metrics"
	"github.com/ManuGH/srtcheck/internal/platform/httpx"
	"github.com/ManuGH/srtcheck/internal/srterr"
	"github.com/ManuGH/srtcheck/internal/telemetry"
	"github.com/ManuGH/srtcheck/internal/version"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// DefaultSubmitMessage is shown when the service rejects a clip without
// explaining why.
const DefaultSubmitMessage = "Failed to analyze video"

const (
	defaultTimeout        = 60 * time.Second
	defaultRateLimit      = 5
	defaultRateLimitBurst = 5

	// maxResponseBytes bounds JSON bodies read from the service.
	maxResponseBytes = 8 << 20

	opSubmit = "analysis.Submit"
	opFetch  = "analysis.FetchReport"
)

// Options configures the Client.
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	RateLimit      rate.Limit
	RateLimitBurst int
}

// Client interacts with the analysis service. Requests are never retried
// automatically; retry is a user action.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client // uploads
	PollClient *http.Client // report fetches
	limiter    *rate.Limiter
	userAgent  string
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = version.UserAgent()
	}

	return &Client{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: httpx.NewTransferClient(opts.Timeout),
		PollClient: httpx.NewClient(opts.Timeout),
		limiter:    rate.NewLimiter(opts.RateLimit, opts.RateLimitBurst),
		userAgent:  opts.UserAgent,
	}
}

// Submit uploads c as the multipart field "video" and returns the report id
// assigned by the service.
func (c *Client) Submit(ctx context.Context, cl clip.Clip) (string, error) {
	logger := log.WithComponentFromContext(ctx, "analysis")

	body, contentType, err := encodeClip(cl)
	if err != nil {
		return "", srterr.New(srterr.KindTransport, opSubmit, "", err)
	}

	ctx, span := telemetry.Tracer("srtcheck.analysis").Start(ctx, "srtcheck.analysis.submit", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(telemetry.ClipAttributes(cl.MimeType, string(cl.Source), cl.Size())...)

	resp, err := c.do(ctx, c.HTTPClient, http.MethodPost, PathAnalyse, c.BaseURL+PathAnalyse, body, contentType)
	if err != nil {
		metrics.IncSubmission("transport")
		markSpan(span, err)
		return "", srterr.New(srterr.KindTransport, opSubmit, "", err)
	}
	defer func() { _ = resp.Body.Close() }()
	uploadBytes.Add(float64(cl.Size()))

	var out SubmitResponse
	decodeErr := decodeJSON(resp.Body, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.IncSubmission("rejected")
		e := srterr.New(srterr.KindSubmissionRejected, opSubmit, messageOr(out.Message, DefaultSubmitMessage), nil)
		e.Status = resp.StatusCode
		markSpan(span, e)
		return "", e
	}
	if decodeErr != nil {
		metrics.IncSubmission("malformed")
		markSpan(span, decodeErr)
		return "", srterr.New(srterr.KindMalformedResponse, opSubmit, "", decodeErr)
	}
	if !out.Success {
		metrics.IncSubmission("rejected")
		e := srterr.New(srterr.KindSubmissionRejected, opSubmit, messageOr(out.Message, DefaultSubmitMessage), nil)
		markSpan(span, e)
		return "", e
	}
	if out.ReportID == "" {
		metrics.IncSubmission("malformed")
		err := errors.New("response has no reportId")
		markSpan(span, err)
		return "", srterr.New(srterr.KindMalformedResponse, opSubmit, "", err)
	}

	metrics.IncSubmission("submitted")
	span.SetAttributes(attribute.String(telemetry.ReportIDKey, out.ReportID))
	span.SetStatus(codes.Ok, "")
	logger.Info().
		Str(log.FieldEvent, "clip.submitted").
		Str(log.FieldReportID, out.ReportID).
		Int64(log.FieldBytes, cl.Size()).
		Msg("clip submitted for analysis")
	return out.ReportID, nil
}

// FetchReport performs one GET of the report. A response that is not (yet)
// complete is returned as is; only transport, status and decoding failures
// are errors.
func (c *Client) FetchReport(ctx context.Context, reportID string) (ReportResponse, error) {
	if strings.TrimSpace(reportID) == "" {
		return ReportResponse{}, srterr.New(srterr.KindInvalidReportID, opFetch, "", nil)
	}

	rawURL := c.BaseURL + "/api/report/" + url.PathEscape(reportID)
	resp, err := c.do(ctx, c.PollClient, http.MethodGet, PathReport, rawURL, nil, "")
	if err != nil {
		return ReportResponse{}, srterr.New(srterr.KindTransport, opFetch, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out ReportResponse
	decodeErr := decodeJSON(resp.Body, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := srterr.New(srterr.KindTransport, opFetch, messageOr(out.Message, "Failed to fetch report"), nil)
		e.Status = resp.StatusCode
		return ReportResponse{}, e
	}
	if decodeErr != nil {
		return ReportResponse{}, srterr.New(srterr.KindMalformedResponse, opFetch, "", decodeErr)
	}
	return out, nil
}

// do sends one request: rate limited, traced, measured.
func (c *Client) do(ctx context.Context, client *http.Client, method, route, rawURL string, body []byte, contentType string) (*http.Response, error) {
	tracer := telemetry.Tracer("srtcheck.analysis")
	ctx, span := tracer.Start(ctx, "srtcheck.analysis.request", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			markSpan(span, err)
			return nil, err
		}
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rdr)
	if err != nil {
		markSpan(span, err)
		return nil, err
	}

	requestID := log.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	recordRequestMetrics(method, route, status, duration, err)

	span.SetAttributes(telemetry.HTTPAttributes(method, route, route, status)...)
	if err != nil {
		markSpan(span, err)
	} else if status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(status))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	logger := log.WithComponentFromContext(ctx, "analysis")
	logger.Debug().
		Str(log.FieldRequestID, requestID).
		Str("method", method).
		Str("route", route).
		Int(log.FieldStatus, status).
		Dur(log.FieldDuration, duration).
		Err(err).
		Msg("analysis request")
	return resp, err
}

func encodeClip(cl clip.Clip) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldVideo, cl.FileName()))
	h.Set("Content-Type", clip.BaseMimeType(cl.MimeType))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(cl.Bytes()); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func decodeJSON(r io.Reader, v any) error {
	if err := json.NewDecoder(io.LimitReader(r, maxResponseBytes)).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}

func markSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
