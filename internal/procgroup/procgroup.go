// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup starts capture subprocesses in their own process group
// and tears the whole group down on release.
package procgroup

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/srtcheck/internal/metrics"
)

// Set configures the command to start in a new process group.
// Mandatory for Terminate to reach children of the command.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Terminate stops a process group: SIGTERM, wait up to grace for waitCh,
// then SIGKILL and drain waitCh. It returns the error received from waitCh.
// Nil or never-started commands return nil.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	recordSignal("SIGTERM", signalGroup(cmd, syscall.SIGTERM))

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-waitCh:
		if err == nil {
			metrics.IncProcWait("exit0")
		} else {
			metrics.IncProcWait("exit_nonzero")
		}
		return err
	case <-timer.C:
		recordSignal("SIGKILL", signalGroup(cmd, syscall.SIGKILL))

		err := <-waitCh
		if err == nil {
			metrics.IncProcWait("forced_exit0")
		} else {
			metrics.IncProcWait("forced_error")
		}
		return err
	}
}

func recordSignal(name string, err error) {
	switch {
	case err == nil:
		metrics.IncProcTerminate(name, "sent")
	case errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH):
		metrics.IncProcTerminate(name, "esrch")
	default:
		metrics.IncProcTerminate(name, "error")
	}
}
