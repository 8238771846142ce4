/**
 * Temp resource manager for intermediate files
 *
 * Preprocessing and PDF splitting produce short-lived image files that must
 * be removed on every exit path. Deletion retries a few times with a growing
 * delay to ride out transient file-handle contention; a file that still will
 * not delete is logged and leaked rather than failing the check that
 * produced it.
 */

package tempfiles

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DEMONNN69/anvay/internal/logging"
)

const (
	maxCleanupRetries = 3
	retryBaseDelay    = 100 * time.Millisecond
)

// Manager tracks temp files created during one processing call
type Manager struct {
	dir    string
	logger *logging.Logger

	mu    sync.Mutex
	paths []string
}

// NewManager creates a manager rooted at dir (os.TempDir() when empty)
func NewManager(dir string) *Manager {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Manager{
		dir:    dir,
		logger: logging.NewLogger("TempFiles"),
	}
}

// Acquire reserves a new temp file path with the given suffix and registers
// it for cleanup. The file itself is created by the caller.
func (m *Manager) Acquire(suffix string) (string, error) {
	f, err := os.CreateTemp(m.dir, "anvay-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	f.Close()

	m.register(path)
	return path, nil
}

// AcquireDir reserves a new temp directory and registers it for cleanup.
func (m *Manager) AcquireDir(pattern string) (string, error) {
	dir, err := os.MkdirTemp(m.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	m.register(dir)
	return dir, nil
}

// Register adds an externally created path to the cleanup set.
func (m *Manager) Register(path string) {
	m.register(path)
}

func (m *Manager) register(path string) {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()
}

// Cleanup removes a single path with bounded retries. Returns true when the
// path is gone (including when it never existed — cleanup is idempotent).
func (m *Manager) Cleanup(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return true
	}

	var lastErr error
	for attempt := 1; attempt <= maxCleanupRetries; attempt++ {
		if err := removePath(path); err == nil {
			return true
		} else {
			lastErr = err
		}

		if attempt < maxCleanupRetries {
			m.logger.Debug("Retrying temp file cleanup", "path", path, "attempt", attempt)
			time.Sleep(retryBaseDelay * time.Duration(attempt))
		}
	}

	// Leak rather than fail: cleanup must never mask the primary result.
	m.logger.Warn("Could not clean up temp file, leaking it",
		"path", path, "attempts", maxCleanupRetries, "error", lastErr)
	return false
}

// ReleaseAll cleans up every registered path. Safe to call multiple times
// and from deferred contexts.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	paths := m.paths
	m.paths = nil
	m.mu.Unlock()

	for _, p := range paths {
		m.Cleanup(p)
	}
}

// Registered returns a snapshot of the currently tracked paths.
func (m *Manager) Registered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.paths))
	copy(out, m.paths)
	return out
}

func removePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PageImagePath builds a page image filename inside dir (page_001.png, ...).
func PageImagePath(dir string, page int) string {
	return filepath.Join(dir, fmt.Sprintf("page_%03d.png", page))
}
