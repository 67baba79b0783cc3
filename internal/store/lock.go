package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Locker guards access to the campaign document to surface concurrent
// invocations early. Locking is advisory; the tool assumes a single
// operator and a single process.
type Locker interface {
	// TryAcquire attempts to acquire the campaign lock without blocking.
	// Returns ErrLocked immediately if the lock is unavailable.
	TryAcquire() (LockGuard, error)
}

// LockGuard represents an acquired lock that must be released when finished.
type LockGuard interface {
	Release() error
}

// filesystemLocker implements file-based advisory locking for the state directory.
type filesystemLocker struct {
	rootDir string
	logger  Logger
	mu      sync.Mutex
	held    bool
}

// NewFilesystemLocker creates a filesystem-based locker rooted at rootDir.
func NewFilesystemLocker(rootDir string, logger Logger) Locker {
	if logger == nil {
		logger = nopLogger{}
	}
	return &filesystemLocker{
		rootDir: rootDir,
		logger:  logger,
	}
}

func (fl *filesystemLocker) lockPath() string {
	return filepath.Join(fl.rootDir, ".backport.lock")
}

// TryAcquire attempts to create the lock file exclusively.
func (fl *filesystemLocker) TryAcquire() (LockGuard, error) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.held {
		return nil, fmt.Errorf("%w: already locked by this process", ErrLocked)
	}

	path := fl.lockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to create lock file %s: %w", path, err)
	}

	info := fmt.Sprintf("pid:%d\ntime:%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(info); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock info: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to close lock file: %w", err)
	}

	fl.held = true
	fl.logger.Debug("acquired campaign lock", "path", path)

	return &filesystemLockGuard{locker: fl, path: path}, nil
}

// filesystemLockGuard implements LockGuard for filesystem locks.
type filesystemLockGuard struct {
	locker   *filesystemLocker
	path     string
	released bool
	mu       sync.Mutex
}

// Release removes the lock file and clears the in-process marker.
func (lg *filesystemLockGuard) Release() error {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	if lg.released {
		return nil
	}
	lg.released = true

	if err := os.Remove(lg.path); err != nil && !os.IsNotExist(err) {
		lg.locker.logger.Error("failed to remove lock file", "path", lg.path, "error", err)
	}

	lg.locker.mu.Lock()
	lg.locker.held = false
	lg.locker.mu.Unlock()

	lg.locker.logger.Debug("released campaign lock", "path", lg.path)
	return nil
}

// nopLocker is a no-op implementation for testing and dry runs.
type nopLocker struct{}

type nopLockGuard struct{}

func (nopLocker) TryAcquire() (LockGuard, error) { return nopLockGuard{}, nil }

func (nopLockGuard) Release() error { return nil }

// NewNopLocker creates a no-op locker.
func NewNopLocker() Locker {
	return nopLocker{}
}
