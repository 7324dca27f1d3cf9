package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"

	"docmonitor/internal/config"
)

// LockPath returns the instance lock file under the data directory.
func LockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, "docmonitor.lock")
}

// PIDPath returns the file the running service records its pid in.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, "docmonitor.pid")
}

// AcquireLock takes the instance lock at path without blocking. Anything that
// drains the queue holds it, so the service and one-shot scans never consume
// the same entries. ErrAlreadyRunning is returned while another process
// holds it.
func AcquireLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return lock, nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
