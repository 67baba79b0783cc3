package store

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// documentFile is the name of the campaign document inside the state directory.
const documentFile = "backport.json"

// Storage persists the campaign document.
type Storage interface {
	Load() (*Document, error)
	Save(doc *Document) error
	Reset() error
}

// filesystemStorage implements Storage using local filesystem persistence.
type filesystemStorage struct {
	rootDir string
	logger  Logger
	mu      sync.RWMutex
}

// NewFilesystemStorage creates a filesystem-backed storage rooted at rootDir.
// Root directory resolution follows: config override -> $XDG_STATE_HOME/backport -> ~/.local/state/backport
func NewFilesystemStorage(rootDir string, logger Logger) (Storage, error) {
	if rootDir == "" {
		var err error
		rootDir, err = resolveStateDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve state directory: %w", err)
		}
	}

	if err := os.MkdirAll(rootDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", rootDir, err)
	}

	if logger == nil {
		logger = nopLogger{}
	}

	return &filesystemStorage{
		rootDir: rootDir,
		logger:  logger,
	}, nil
}

// StateDir resolves the directory holding the campaign document, honouring
// an explicit override before falling back to the environment defaults.
func StateDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return resolveStateDir()
}

// resolveStateDir determines the root directory for the campaign document.
func resolveStateDir() (string, error) {
	if dir := os.Getenv("BACKPORT_STATE_DIR"); dir != "" {
		return dir, nil
	}

	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return filepath.Join(xdgStateHome, "backport"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}

	return filepath.Join(homeDir, ".local", "state", "backport"), nil
}

func (s *filesystemStorage) documentPath() string {
	return filepath.Join(s.rootDir, documentFile)
}

// Load reads the campaign document. Returns ErrNotFound if no document has
// been saved yet so callers can start from an empty campaign.
func (s *filesystemStorage) Load() (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.documentPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read campaign document %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Error("failed to unmarshal campaign document", "path", path, "error", err)
		return nil, ErrCorrupt
	}

	s.logger.Debug("loaded campaign document", "path", path,
		"patches", len(doc.Patches), "branches", len(doc.ModifiedBranches))
	return &doc, nil
}

// Save writes the campaign document atomically using a temp file and rename,
// fully overwriting any previous document.
func (s *filesystemStorage) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.documentPath()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal campaign document: %w", err)
	}

	if err := atomicWrite(path, data, 0600); err != nil {
		return fmt.Errorf("failed to save campaign document to %s: %w", path, err)
	}

	s.logger.Debug("saved campaign document", "path", path,
		"patches", len(doc.Patches), "branches", len(doc.ModifiedBranches))
	return nil
}

// Reset removes the persisted campaign document.
func (s *filesystemStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.documentPath()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to remove campaign document %s: %w", path, err)
	}

	s.logger.Debug("reset campaign document", "path", path)
	return nil
}

// atomicWrite writes data to a file atomically using a temporary file and rename.
func atomicWrite(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tmpFile = nil // Prevent cleanup

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// memoryStorage keeps the document in memory. Used by tests and dry runs.
type memoryStorage struct {
	mu  sync.Mutex
	doc *Document
}

// NewMemoryStorage returns a Storage that never touches the filesystem.
func NewMemoryStorage() Storage {
	return &memoryStorage{}
}

func (m *memoryStorage) Load() (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, ErrNotFound
	}
	// Round-trip through JSON so callers never share memory with the store.
	data, err := json.Marshal(m.doc)
	if err != nil {
		return nil, err
	}
	var copy Document
	if err := json.Unmarshal(data, &copy); err != nil {
		return nil, ErrCorrupt
	}
	return &copy, nil
}

func (m *memoryStorage) Save(doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var copy Document
	if err := json.Unmarshal(data, &copy); err != nil {
		return err
	}
	m.doc = &copy
	return nil
}

func (m *memoryStorage) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = nil
	return nil
}
