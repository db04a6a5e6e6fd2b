// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srtcheck_validation_total",
		Help: "Clip validations by source and outcome",
	}, []string{"source", "outcome"}) // outcome=accepted|unsupported_type|size_exceeded|duration_exceeded|duration_probe_failed

	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srtcheck_submissions_total",
		Help: "Clip submissions by outcome",
	}, []string{"outcome"}) // outcome=submitted|rejected|malformed|transport

	pollAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srtcheck_poll_attempts_total",
		Help: "Report poll attempts by outcome",
	}, []string{"outcome"}) // outcome=complete|pending|error

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srtcheck_jobs_total",
		Help: "Analysis jobs reaching a terminal status",
	}, []string{"status"}) // status=resolved|timeout|cancelled

	attemptsToResolve = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "srtcheck_job_attempts_to_resolve",
		Help:    "Number of poll attempts a job needed before its report was complete",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	})

	reportCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srtcheck_report_cache_total",
		Help: "Report cache lookups by result",
	}, []string{"result"}) // result=hit|miss

	recordingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srtcheck_recordings_total",
		Help: "Live recordings ended, by stop reason",
	}, []string{"reason"}) // reason=manual|auto|source_ended|abandoned

	recordingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "srtcheck_recording_duration_seconds",
		Help:    "Duration of finalized live recordings",
		Buckets: prometheus.LinearBuckets(5, 5, 6),
	})
)

// IncValidation records one validator outcome.
func IncValidation(source, outcome string) {
	validationTotal.WithLabelValues(source, outcome).Inc()
}

// IncSubmission records one submission outcome.
func IncSubmission(outcome string) {
	submissionsTotal.WithLabelValues(outcome).Inc()
}

// IncPollAttempt records one poll attempt outcome.
func IncPollAttempt(outcome string) {
	pollAttemptsTotal.WithLabelValues(outcome).Inc()
}

// IncJob records a job reaching a terminal status.
func IncJob(status string) {
	jobsTotal.WithLabelValues(status).Inc()
}

// ObserveAttemptsToResolve records how many attempts a resolved job took.
func ObserveAttemptsToResolve(attempts int) {
	attemptsToResolve.Observe(float64(attempts))
}

// IncReportCache records a cache lookup.
func IncReportCache(hit bool) {
	if hit {
		reportCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	reportCacheTotal.WithLabelValues("miss").Inc()
}

// ObserveRecording records the end of a recording session.
func ObserveRecording(reason string, seconds float64) {
	recordingsTotal.WithLabelValues(reason).Inc()
	if reason != "abandoned" {
		recordingSeconds.Observe(seconds)
	}
}
