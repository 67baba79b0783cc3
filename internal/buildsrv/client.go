package buildsrv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// Commands names the fleet entry points the client shells out to. Each is
// run inside the repository's working copy with BACKPORT_* variables in the
// environment.
type Commands struct {
	Refresh    string
	Build      string
	Deploy     string
	Descriptor string
}

// commandClient implements Client by invoking the fleet's build and deploy
// entry points as subprocesses.
type commandClient struct {
	workspace string
	commands  Commands
	timeout   time.Duration
	logger    Logger
}

// NewCommandClient creates a Client that shells out to the configured fleet
// commands, run from workspace/<repo>.
func NewCommandClient(workspace string, commands Commands, timeout time.Duration, logger Logger) Client {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &commandClient{
		workspace: workspace,
		commands:  commands,
		timeout:   timeout,
		logger:    logger,
	}
}

func (c *commandClient) Refresh(ctx context.Context, repo string) error {
	if c.commands.Refresh == "" {
		return nil
	}
	_, err := c.run(ctx, repo, "refresh", c.commands.Refresh, nil)
	return err
}

func (c *commandClient) Build(ctx context.Context, repo string, brands []string) error {
	_, err := c.run(ctx, repo, "build", c.commands.Build, map[string]string{
		"BACKPORT_BRANDS": strings.Join(brands, ","),
	})
	return err
}

func (c *commandClient) Deploy(ctx context.Context, repo, branch string, brands []string, message string) (string, error) {
	output, err := c.run(ctx, repo, "deploy", c.commands.Deploy, map[string]string{
		"BACKPORT_BRANCH":  branch,
		"BACKPORT_BRANDS":  strings.Join(brands, ","),
		"BACKPORT_MESSAGE": message,
	})
	if err != nil {
		return "", err
	}

	version := lastLine(output)
	if version == "" {
		return "", &PipelineError{Repo: repo, Stage: "deploy", Output: output, Err: ErrNoVersion}
	}
	return NormalizeVersion(version), nil
}

func (c *commandClient) WriteDescriptor(ctx context.Context, repo string, brands []string, message, branch string) error {
	_, err := c.run(ctx, repo, "descriptor", c.commands.Descriptor, map[string]string{
		"BACKPORT_BRANCH":  branch,
		"BACKPORT_BRANDS":  strings.Join(brands, ","),
		"BACKPORT_MESSAGE": message,
	})
	return err
}

func (c *commandClient) run(ctx context.Context, repo, stage, command string, extraEnv map[string]string) (string, error) {
	if command == "" {
		return "", &PipelineError{Repo: repo, Stage: stage, Err: fmt.Errorf("no %s command configured", stage)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	parts := strings.Fields(command)
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = filepath.Join(c.workspace, repo)
	cmd.Env = append(os.Environ(), "BACKPORT_REPO="+repo)
	for key, value := range extraEnv {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	c.logger.Debug("running pipeline command", "repo", repo, "stage", stage, "command", command)

	output, err := cmd.CombinedOutput()
	result := strings.TrimSpace(string(output))
	if err != nil {
		return result, &PipelineError{Repo: repo, Stage: stage, Output: result, Err: err}
	}
	return result, nil
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// NormalizeVersion canonicalizes a deploy version identifier when it parses
// as semver, and otherwise passes it through untouched. The fleet reports
// bare "1.2.7" style versions.
func NormalizeVersion(version string) string {
	candidate := version
	if !strings.HasPrefix(candidate, "v") {
		candidate = "v" + candidate
	}
	if semver.IsValid(candidate) {
		return strings.TrimPrefix(semver.Canonical(candidate), "v")
	}
	return version
}

// CompareVersions orders two deploy versions, newest last, falling back to
// lexical comparison for identifiers that are not semver.
func CompareVersions(a, b string) int {
	va, vb := "v"+strings.TrimPrefix(a, "v"), "v"+strings.TrimPrefix(b, "v")
	if semver.IsValid(va) && semver.IsValid(vb) {
		return semver.Compare(va, vb)
	}
	return strings.Compare(a, b)
}
