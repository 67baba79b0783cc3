package gitops

import (
	"context"
	"os/exec"
	"strings"
)

// defaultCommandRunner implements CommandRunner using os/exec.
type defaultCommandRunner struct{}

// NewDefaultCommandRunner creates a CommandRunner that shells out to git.
func NewDefaultCommandRunner() CommandRunner {
	return &defaultCommandRunner{}
}

// Run executes a git command in the specified directory.
func (r *defaultCommandRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	output, err := cmd.CombinedOutput()
	result := strings.TrimSpace(string(output))

	if err != nil {
		return result, &CommandError{
			Args:   args,
			Dir:    dir,
			Output: result,
			Err:    err,
		}
	}

	return result, nil
}
