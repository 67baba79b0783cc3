package store

import (
	"errors"
	"time"
)

// Manager describes the persistence contract for the campaign document.
type Manager interface {
	Load() (*Document, error)
	Save(doc *Document) error
	Reset() error
	Lock() (LockGuard, error)
}

// Document is the serialized form of a maintenance campaign. It is written
// as a single JSON file and fully overwritten on every save.
type Document struct {
	Patches          []PatchRecord          `json:"patches"`
	ModifiedBranches []ModifiedBranchRecord `json:"modifiedBranches"`
	SavedAt          time.Time              `json:"savedAt,omitempty"`
}

// PatchRecord is the wire form of a tracked patch.
type PatchRecord struct {
	Repo    string   `json:"repo"`
	Message string   `json:"message"`
	SHAs    []string `json:"shas"`
}

// ModifiedBranchRecord is the wire form of a release branch under
// maintenance. NeededPatches holds patch repo names; the campaign layer
// re-links them to shared patch objects on load.
type ModifiedBranchRecord struct {
	Repo                string            `json:"repo"`
	Branch              string            `json:"branch"`
	Brands              []string          `json:"brands"`
	Dependencies        map[string]string `json:"dependencies,omitempty"`
	NeededPatches       []string          `json:"neededPatches"`
	ChangedDependencies map[string]string `json:"changedDependencies"`
	Messages            []string          `json:"messages"`
	DeployedVersion     string            `json:"deployedVersion,omitempty"`
}

var (
	// ErrNotFound indicates that no campaign document has been saved yet.
	ErrNotFound = errors.New("store: not found")
	// ErrCorrupt indicates that the persisted document could not be decoded.
	ErrCorrupt = errors.New("store: corrupt data")
	// ErrLocked indicates that the campaign document is locked by another process.
	ErrLocked = errors.New("store: locked")
)

// Clock exposes time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// Logger captures the structured logging surface the store relies on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
