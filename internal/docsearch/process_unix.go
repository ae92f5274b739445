//go:build unix

package docsearch

import (
	"errors"
	"syscall"
)

// isProcessRunning probes pid with signal 0, which checks for existence
// without delivering anything.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, syscall.Signal(0))
	switch {
	case err == nil:
		return true
	case errors.Is(err, syscall.EPERM):
		// Exists, but owned by another user
		return true
	default:
		// ESRCH and anything else
		return false
	}
}
