// Package workspace resolves the directory holding the fleet working copies.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/backport/pkg/config"
)

// Resolve returns the workspace directory using unified heuristics: an
// explicit path wins, then the configured path, then a per-user cache
// directory, then the current directory.
func Resolve(explicit string, cfg *config.Config) string {
	if explicit != "" {
		return absolute(explicit)
	}

	if cfg != nil {
		if path := strings.TrimSpace(cfg.Workspace.Path); path != "" {
			return absolute(path)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "backport", "workspace")
	}

	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}

	return "."
}

// ResolveForConfig resolves a workspace when only configuration values are
// provided.
func ResolveForConfig(cfg *config.Config) string {
	return Resolve("", cfg)
}

// Ensure verifies the workspace root is a usable directory, creating it when
// missing.
func Ensure(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}
	if err != nil {
		return fmt.Errorf("workspace: stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace: %s is not a directory", path)
	}
	return nil
}

// RepoPath returns the working copy directory for a repository inside the
// workspace root. Repository names must be bare directory names.
func RepoPath(root, repo string) (string, error) {
	if repo == "" || repo != filepath.Base(repo) || strings.HasPrefix(repo, ".") {
		return "", fmt.Errorf("workspace: invalid repository name %q", repo)
	}
	return filepath.Join(root, repo), nil
}

func absolute(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
