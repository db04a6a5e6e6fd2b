// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package procgroup

import (
	"os/exec"
	"syscall"
)

func set(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// signalGroup delivers sig to every process in the group led by cmd.
func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	// Setpgid makes the leader's PGID equal to its PID.
	pgid := cmd.Process.Pid
	return syscall.Kill(-pgid, sig)
}
