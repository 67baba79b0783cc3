package campaign

import (
	"errors"
	"fmt"
)

var (
	// ErrPatchExists indicates that a patch is already tracked for the repo.
	ErrPatchExists = errors.New("campaign: patch already exists")
	// ErrPatchNotFound indicates that no patch is tracked for the repo.
	ErrPatchNotFound = errors.New("campaign: patch not found")
	// ErrPatchInUse indicates that a patch is still needed by at least one
	// tracked branch and cannot be removed.
	ErrPatchInUse = errors.New("campaign: patch still needed by a branch")
	// ErrSHAExists indicates that a candidate commit is already listed.
	ErrSHAExists = errors.New("campaign: sha already listed")
	// ErrSHANotFound indicates that a candidate commit is not listed.
	ErrSHANotFound = errors.New("campaign: sha not listed")
	// ErrBranchNotTracked indicates that the branch has no link to remove.
	ErrBranchNotTracked = errors.New("campaign: branch does not need the patch")
)

// ValidationError wraps a state precondition failure with the identifiers
// involved. Validation failures never modify the campaign state.
type ValidationError struct {
	Repo   string
	Branch string
	SHA    string
	Err    error
}

func (e *ValidationError) Error() string {
	switch {
	case e.Branch != "" && e.SHA != "":
		return fmt.Sprintf("%v: repo %s branch %s sha %s", e.Err, e.Repo, e.Branch, e.SHA)
	case e.Branch != "":
		return fmt.Sprintf("%v: repo %s branch %s", e.Err, e.Repo, e.Branch)
	case e.SHA != "":
		return fmt.Sprintf("%v: repo %s sha %s", e.Err, e.Repo, e.SHA)
	default:
		return fmt.Sprintf("%v: repo %s", e.Err, e.Repo)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a state precondition failure, as
// opposed to an external git, fleet or pipeline failure.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
