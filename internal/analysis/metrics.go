// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package analysis

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srtcheck_analysis_request_total",
			Help: "Total number of analysis service HTTP requests",
		},
		[]string{"method", "endpoint", "status_class"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "srtcheck_analysis_request_duration_seconds",
			Help:    "Duration of analysis service HTTP requests",
			Buckets: prometheus.ExponentialBuckets(0.05, 2.0, 10),
		},
		[]string{"method", "endpoint", "status_class"},
	)
	requestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srtcheck_analysis_request_errors_total",
			Help: "Number of analysis service requests that failed",
		},
		[]string{"method", "endpoint", "status_class"},
	)
	uploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "srtcheck_analysis_upload_bytes_total",
		Help: "Clip bytes sent to the analysis service",
	})
)

func statusClass(err error, status int) string {
	if err != nil {
		return "error"
	}
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case status > 0:
		return "1xx"
	}
	return "unknown"
}

func recordRequestMetrics(method, endpoint string, status int, duration time.Duration, err error) {
	class := statusClass(err, status)
	requestTotal.WithLabelValues(method, endpoint, class).Inc()
	requestDuration.WithLabelValues(method, endpoint, class).Observe(duration.Seconds())
	if class != "2xx" {
		requestErrors.WithLabelValues(method, endpoint, class).Inc()
	}
}
