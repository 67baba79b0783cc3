package campaign

// Pure in-memory state transitions. Each returns a ValidationError and
// leaves the state untouched when its precondition fails; external effects
// live in the service layer.

// CreatePatch starts tracking a patch for repo. Only one patch per repo may
// be active at a time.
func (st *State) CreatePatch(repo, message string) (*Patch, error) {
	if _, ok := st.Patches[repo]; ok {
		return nil, &ValidationError{Repo: repo, Err: ErrPatchExists}
	}
	p := &Patch{Repo: repo, Message: message}
	st.Patches[repo] = p
	return p, nil
}

// RemovePatch stops tracking the patch for repo. A patch still needed by any
// branch must be unlinked everywhere first.
func (st *State) RemovePatch(repo string) error {
	if _, ok := st.Patches[repo]; !ok {
		return &ValidationError{Repo: repo, Err: ErrPatchNotFound}
	}
	if st.patchInUse(repo) {
		return &ValidationError{Repo: repo, Err: ErrPatchInUse}
	}
	delete(st.Patches, repo)
	return nil
}

// AddPatchSHA appends a candidate commit to the patch for repo. Candidates
// are tried in insertion order, so equivalent commits go oldest-branch-first.
func (st *State) AddPatchSHA(repo, sha string) error {
	p, ok := st.Patches[repo]
	if !ok {
		return &ValidationError{Repo: repo, Err: ErrPatchNotFound}
	}
	if p.HasSHA(sha) {
		return &ValidationError{Repo: repo, SHA: sha, Err: ErrSHAExists}
	}
	p.SHAs = append(p.SHAs, sha)
	return nil
}

// RemovePatchSHA drops a candidate commit from the patch for repo.
func (st *State) RemovePatchSHA(repo, sha string) error {
	p, ok := st.Patches[repo]
	if !ok {
		return &ValidationError{Repo: repo, Err: ErrPatchNotFound}
	}
	for i, s := range p.SHAs {
		if s == sha {
			p.SHAs = append(p.SHAs[:i], p.SHAs[i+1:]...)
			return nil
		}
	}
	return &ValidationError{Repo: repo, SHA: sha, Err: ErrSHANotFound}
}

// LinkPatch marks mb as needing the patch for patchRepo, tracking mb if it
// is new. Linking twice is a no-op. Reports whether a new link was made.
func (st *State) LinkPatch(patchRepo string, mb *ModifiedBranch) (bool, error) {
	p, ok := st.Patches[patchRepo]
	if !ok {
		return false, &ValidationError{Repo: patchRepo, Err: ErrPatchNotFound}
	}
	st.track(mb)
	return mb.addNeeded(p), nil
}

// UnlinkPatch removes the needed-patch link from the tracked (repo, branch)
// and drops the branch when nothing else keeps it alive.
func (st *State) UnlinkPatch(patchRepo, repo, branch string) error {
	if _, ok := st.Patches[patchRepo]; !ok {
		return &ValidationError{Repo: patchRepo, Err: ErrPatchNotFound}
	}
	mb, ok := st.Branch(repo, branch)
	if !ok || !mb.removeNeeded(patchRepo) {
		return &ValidationError{Repo: repo, Branch: branch, Err: ErrBranchNotTracked}
	}
	st.prune(mb)
	return nil
}

// UnlinkPatchEverywhere removes the needed-patch link from every tracked
// branch, pruning branches that become unused. Returns the number of links
// removed.
func (st *State) UnlinkPatchEverywhere(patchRepo string) (int, error) {
	if _, ok := st.Patches[patchRepo]; !ok {
		return 0, &ValidationError{Repo: patchRepo, Err: ErrPatchNotFound}
	}
	removed := 0
	for _, mb := range st.SortedBranches() {
		if mb.removeNeeded(patchRepo) {
			removed++
			st.prune(mb)
		}
	}
	return removed, nil
}
