package docsearch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	lockTimeout   = 5 * time.Second // Max time to wait for lock
	lockRetryWait = 500 * time.Millisecond
)

// fileLock is an inter-process lock on the data directory. The lock file
// holds the owner's PID so locks left by dead processes can be reclaimed.
type fileLock struct {
	path      string
	timeout   time.Duration
	retryWait time.Duration
	logger    *zerolog.Logger
}

func newFileLock(path string, logger *zerolog.Logger) *fileLock {
	return &fileLock{
		path:      path,
		timeout:   lockTimeout,
		retryWait: lockRetryWait,
		logger:    logger,
	}
}

// isProcessRunning is implemented in platform-specific files:
// - process_unix.go for Unix/Linux/macOS
// - process_windows.go for Windows

// cleanStale removes the lock file if the owning process is dead
func (l *fileLock) cleanStale() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No lock file, nothing to clean
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		l.logger.Warn().Msg("Corrupted lock file (invalid PID), removing...")
		return os.Remove(l.path)
	}

	if isProcessRunning(pid) {
		return fmt.Errorf("lock held by running process %d", pid)
	}

	l.logger.Info().Int("pid", pid).Msg("Stale lock detected, cleaning...")
	return os.Remove(l.path)
}

// acquire takes the lock, waiting up to timeout for another live process to release it
func (l *fileLock) acquire() error {
	ourPID := os.Getpid()

	// Check if we already have the lock
	if data, err := os.ReadFile(l.path); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid == ourPID {
			l.logger.Debug().Int("pid", ourPID).Msg("Lock already held by this process")
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	startTime := time.Now()
	for {
		if err := l.cleanStale(); err != nil {
			elapsed := time.Since(startTime)
			if elapsed >= l.timeout {
				return fmt.Errorf("timeout waiting for index lock after %v: %w", elapsed.Round(time.Millisecond), err)
			}

			l.logger.Info().Dur("elapsed", elapsed.Round(100*time.Millisecond)).Msg("Index locked by another process, waiting...")
			time.Sleep(l.retryWait)
			continue
		}

		if err := os.WriteFile(l.path, []byte(strconv.Itoa(ourPID)), 0644); err != nil {
			return fmt.Errorf("failed to create lock file: %w", err)
		}

		l.logger.Info().Int("pid", ourPID).Msg("✓ Index lock acquired")
		return nil
	}
}

// release removes the lock file if this process owns it
func (l *fileLock) release() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Lock already removed
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err == nil && pid != os.Getpid() {
		l.logger.Warn().Int("owner", pid).Int("pid", os.Getpid()).Msg("Lock file contains different PID, not removing")
		return nil
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}

	l.logger.Info().Msg("✓ Index lock released")
	return nil
}
