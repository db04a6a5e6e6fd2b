// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	procTerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srtcheck_proc_terminate_total",
		Help: "Signals sent to capture process groups by result",
	}, []string{"signal", "result"}) // result=sent|esrch|error

	procWaitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srtcheck_proc_wait_total",
		Help: "Capture process exits observed after termination",
	}, []string{"outcome"}) // outcome=exit0|exit_nonzero|forced_exit0|forced_error
)

// IncProcTerminate records a termination signal.
func IncProcTerminate(signal, result string) {
	procTerminateTotal.WithLabelValues(signal, result).Inc()
}

// IncProcWait records a process exit observation.
func IncProcWait(outcome string) {
	procWaitTotal.WithLabelValues(outcome).Inc()
}
