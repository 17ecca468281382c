// Package process provides small helpers around OS processes used by the
// supervisor: executable resolution and termination signalling.
package process

import (
	"os"
	"runtime"
	"syscall"

	"github.com/awim-deck/awimd/pkg/errors"
)

// ResolveExecutable returns the first candidate path that exists as a
// regular file.
func ResolveExecutable(candidates []string) (string, error) {
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", errors.NewNotFoundError("executable not found in any candidate path", nil).
		WithContext("candidates", candidates)
}

// SendTerminationSignal asks a process to stop gracefully.
// On Unix: SIGTERM. On Windows graceful signalling is not available, so the
// process is killed outright.
func SendTerminationSignal(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return errors.NewProcessError("failed to find process", err).WithContext("pid", pid)
	}

	if runtime.GOOS == "windows" {
		if err := proc.Kill(); err != nil {
			return errors.NewProcessError("failed to kill process", err).WithContext("pid", pid)
		}
		return nil
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return errors.NewProcessError("failed to send termination signal", err).WithContext("pid", pid)
	}
	return nil
}

// Kill forcefully terminates a process.
func Kill(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return errors.NewProcessError("failed to find process", err).WithContext("pid", pid)
	}
	if err := proc.Kill(); err != nil {
		return errors.NewProcessError("failed to kill process", err).WithContext("pid", pid)
	}
	return nil
}
