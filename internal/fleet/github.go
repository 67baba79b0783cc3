package fleet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// NewGitHubClient builds an authenticated GitHub API client. An empty
// endpoint targets github.com; enterprise installs pass their API base URL.
func NewGitHubClient(ctx context.Context, token, endpoint string) (*github.Client, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	client := github.NewClient(httpClient)
	if endpoint != "" {
		var err error
		client, err = client.WithEnterpriseURLs(endpoint, endpoint)
		if err != nil {
			return nil, fmt.Errorf("configure GitHub endpoint %q: %w", endpoint, err)
		}
	}

	return client, nil
}

// githubResolver resolves release branches through the GitHub API instead of
// local checkouts. Used when the operator has not materialized the whole
// fleet locally.
type githubResolver struct {
	client *github.Client
	org    string
	repos  []string
	logger Logger
}

// NewGitHubResolver creates a Resolver backed by the GitHub API for the
// given organization and active repositories.
func NewGitHubResolver(client *github.Client, org string, repos []string, logger Logger) Resolver {
	if logger == nil {
		logger = nopLogger{}
	}
	return &githubResolver{
		client: client,
		org:    org,
		repos:  repos,
		logger: logger,
	}
}

func (r *githubResolver) ReleaseBranches(ctx context.Context) ([]ReleaseBranch, error) {
	var out []ReleaseBranch

	for _, repo := range r.repos {
		releases, err := r.releaseBranchNames(ctx, repo)
		if err != nil {
			return nil, err
		}

		for _, branch := range releases {
			rb, err := r.resolveOne(ctx, repo, branch)
			if err != nil {
				if err == ErrNoDescriptor {
					r.logger.Debug("skipping branch without release descriptor", "repo", repo, "branch", branch)
					continue
				}
				return nil, err
			}
			out = append(out, *rb)
		}
	}

	return out, nil
}

func (r *githubResolver) Resolve(ctx context.Context, repo, branch string) (*ReleaseBranch, error) {
	if !IsReleaseBranch(branch) {
		return nil, ErrBranchNotFound
	}
	if !r.isActive(repo) {
		return nil, ErrBranchNotFound
	}

	rb, err := r.resolveOne(ctx, repo, branch)
	if err != nil {
		if err == ErrNoDescriptor {
			return nil, ErrBranchNotFound
		}
		if isNotFound(err) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	return rb, nil
}

func (r *githubResolver) releaseBranchNames(ctx context.Context, repo string) ([]string, error) {
	var names []string
	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		branches, resp, err := r.client.Repositories.ListBranches(ctx, r.org, repo, opts)
		if err != nil {
			return nil, &ResolveError{Repo: repo, Err: fmt.Errorf("list branches: %w", err)}
		}
		for _, b := range branches {
			if name := b.GetName(); IsReleaseBranch(name) {
				names = append(names, name)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	SortReleaseBranches(names)
	return names, nil
}

func (r *githubResolver) resolveOne(ctx context.Context, repo, branch string) (*ReleaseBranch, error) {
	content, _, resp, err := r.client.Repositories.GetContents(ctx, r.org, repo, DescriptorFile,
		&github.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, ErrNoDescriptor
		}
		return nil, &ResolveError{Repo: repo, Branch: branch, Err: err}
	}

	raw, err := content.GetContent()
	if err != nil {
		return nil, &ResolveError{Repo: repo, Branch: branch, Err: err}
	}

	desc, err := ParseDescriptor([]byte(raw))
	if err != nil {
		return nil, &ResolveError{Repo: repo, Branch: branch, Err: err}
	}

	return &ReleaseBranch{
		Repo:         repo,
		Branch:       branch,
		Brands:       desc.Brands,
		Dependencies: desc.Dependencies,
	}, nil
}

func (r *githubResolver) isActive(repo string) bool {
	for _, name := range r.repos {
		if name == repo {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
	}
	return strings.Contains(err.Error(), "404")
}
