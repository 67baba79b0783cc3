package campaign

import (
	"fmt"

	"github.com/goliatone/backport/internal/fleet"
	"github.com/goliatone/backport/internal/store"
)

// encode flattens the object graph into its wire form. Needed patches are
// recorded by repo name; decode re-links them to shared objects.
func encode(st *State) *store.Document {
	doc := &store.Document{
		Patches:          make([]store.PatchRecord, 0, len(st.Patches)),
		ModifiedBranches: make([]store.ModifiedBranchRecord, 0, len(st.ModifiedBranches)),
	}

	for _, p := range st.SortedPatches() {
		doc.Patches = append(doc.Patches, store.PatchRecord{
			Repo:    p.Repo,
			Message: p.Message,
			SHAs:    append([]string(nil), p.SHAs...),
		})
	}

	for _, mb := range st.SortedBranches() {
		record := store.ModifiedBranchRecord{
			Repo:                mb.Release.Repo,
			Branch:              mb.Release.Branch,
			Brands:              append([]string(nil), mb.Release.Brands...),
			Dependencies:        copyStringMap(mb.Release.Dependencies),
			NeededPatches:       make([]string, 0, len(mb.NeededPatches)),
			ChangedDependencies: copyStringMap(mb.ChangedDependencies),
			Messages:            append([]string(nil), mb.Messages...),
			DeployedVersion:     mb.DeployedVersion,
		}
		for _, p := range mb.NeededPatches {
			record.NeededPatches = append(record.NeededPatches, p.Repo)
		}
		doc.ModifiedBranches = append(doc.ModifiedBranches, record)
	}

	return doc
}

// decode rebuilds the object graph from its wire form. Every needed-patch
// reference must resolve to a tracked patch; a dangling reference means the
// document was edited by hand or written by a buggy build.
func decode(doc *store.Document) (*State, error) {
	st := NewState()

	for _, record := range doc.Patches {
		if _, ok := st.Patches[record.Repo]; ok {
			return nil, fmt.Errorf("%w: duplicate patch for %s", store.ErrCorrupt, record.Repo)
		}
		st.Patches[record.Repo] = &Patch{
			Repo:    record.Repo,
			Message: record.Message,
			SHAs:    append([]string(nil), record.SHAs...),
		}
	}

	for _, record := range doc.ModifiedBranches {
		mb := newModifiedBranch(fleet.ReleaseBranch{
			Repo:         record.Repo,
			Branch:       record.Branch,
			Brands:       append([]string(nil), record.Brands...),
			Dependencies: copyStringMap(record.Dependencies),
		})
		mb.Messages = append([]string(nil), record.Messages...)
		mb.DeployedVersion = record.DeployedVersion
		if record.ChangedDependencies != nil {
			mb.ChangedDependencies = copyStringMap(record.ChangedDependencies)
		}

		if _, ok := st.ModifiedBranches[mb.Key()]; ok {
			return nil, fmt.Errorf("%w: duplicate branch %s", store.ErrCorrupt, mb.Key())
		}

		for _, patchRepo := range record.NeededPatches {
			p, ok := st.Patches[patchRepo]
			if !ok {
				return nil, fmt.Errorf("%w: branch %s references unknown patch %s",
					store.ErrCorrupt, mb.Key(), patchRepo)
			}
			mb.addNeeded(p)
		}

		st.track(mb)
	}

	return st, nil
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
