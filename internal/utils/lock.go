package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
)

// ArchiveLock serializes writers of the snapshot archive. Only one writer,
// in this process or another, may append at a time; readers never take it.
// The flock alone does not exclude goroutines sharing one ArchiveLock, so mu
// is held from Lock or a successful TryLock until Unlock.
type ArchiveLock struct {
	mu   sync.Mutex
	lock *flock.Flock
	path string
}

// NewArchiveLock creates a lock next to the archive at dbPath.
func NewArchiveLock(dbPath string) (*ArchiveLock, error) {
	absPath, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute db path: %w", err)
	}
	lockPath := absPath + lockFileSuffix
	return &ArchiveLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the archive lock, waiting if necessary.
// It will print a message if it has to wait.
func (l *ArchiveLock) Lock() error {
	l.mu.Lock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("failed to create lock directory for %s: %w", l.path, err)
	}
	locked, err := l.lock.TryLock()
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another rulewatch process is writing to the archive, waiting for it to finish...\n")
		if err := l.lock.Lock(); err != nil {
			l.mu.Unlock()
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// TryLock acquires the lock only if it is free, both in this process and
// in others.
func (l *ArchiveLock) TryLock() (bool, error) {
	if !l.mu.TryLock() {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		l.mu.Unlock()
		return false, err
	}
	locked, err := l.lock.TryLock()
	if err != nil || !locked {
		l.mu.Unlock()
		return false, err
	}
	return true, nil
}

// Unlock releases the archive lock. It must follow a successful Lock or
// TryLock.
func (l *ArchiveLock) Unlock() error {
	defer l.mu.Unlock()
	if err := l.lock.Unlock(); err != nil {
		// Not holding the lock is not an error.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// Path is the lock file location.
func (l *ArchiveLock) Path() string { return l.path }

// GetAbsDBPath resolves the archive path. An empty path means the default
// archive in the user's config directory.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "rulewatch", "regulations.db"), nil
	}
	return filepath.Abs(dbPath)
}
