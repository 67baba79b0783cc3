package fleet

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/Masterminds/semver/v3"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"gopkg.in/yaml.v3"
)

// DescriptorFile is the per-branch release descriptor committed to every
// maintained release branch.
const DescriptorFile = "release.yaml"

// Descriptor is the YAML document at a release branch's HEAD declaring the
// brands the branch ships for and the commit of each dependency repository.
type Descriptor struct {
	Brands       []string          `yaml:"brands"`
	Dependencies map[string]string `yaml:"dependencies"`
	Notes        string            `yaml:"notes,omitempty"`
}

// ParseDescriptor decodes a release descriptor and validates required fields.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode release descriptor: %w", err)
	}
	if len(d.Brands) == 0 {
		return nil, fmt.Errorf("release descriptor declares no brands")
	}
	if len(d.Dependencies) == 0 {
		return nil, fmt.Errorf("release descriptor declares no dependencies")
	}
	return &d, nil
}

// EncodeDescriptor renders a descriptor back to YAML.
func EncodeDescriptor(d *Descriptor) ([]byte, error) {
	return yaml.Marshal(d)
}

// readDescriptorAt reads the release descriptor committed at branch in the
// repository at repoPath, without touching the working copy.
func readDescriptorAt(repoPath, branch string) (*Descriptor, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repoPath, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(branch))
	if err != nil {
		hash, err = repo.ResolveRevision(plumbing.Revision("origin/" + branch))
		if err != nil {
			return nil, fmt.Errorf("resolve branch %q: %w", branch, err)
		}
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}

	file, err := commit.File(DescriptorFile)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, ErrNoDescriptor
		}
		return nil, fmt.Errorf("read %s at %s: %w", DescriptorFile, branch, err)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s contents: %w", DescriptorFile, err)
	}

	return ParseDescriptor([]byte(contents))
}

// releaseBranchPattern matches the numeric MAJOR.MINOR names the fleet uses
// for historical release branches.
var releaseBranchPattern = regexp.MustCompile(`^\d+\.\d+$`)

// IsReleaseBranch reports whether a branch name follows the fleet's release
// naming scheme.
func IsReleaseBranch(name string) bool {
	return releaseBranchPattern.MatchString(name)
}

// SortReleaseBranches orders release branch names newest first using semver
// ordering ("1.10" after "1.9", not lexically).
func SortReleaseBranches(names []string) {
	sort.Slice(names, func(i, j int) bool {
		vi, erri := semver.NewVersion(names[i])
		vj, errj := semver.NewVersion(names[j])
		if erri != nil || errj != nil {
			return names[i] > names[j]
		}
		return vi.GreaterThan(vj)
	})
}
