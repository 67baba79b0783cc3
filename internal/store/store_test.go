package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sampleDocument() *Document {
	return &Document{
		Patches: []PatchRecord{
			{Repo: "sim-a", Message: "fix crash", SHAs: []string{"deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"}},
			{Repo: "sim-b", Message: "fix rendering", SHAs: []string{"cafebabe"}},
		},
		ModifiedBranches: []ModifiedBranchRecord{
			{
				Repo:                "sim-a",
				Branch:              "1.2",
				Brands:              []string{"standard", "pro"},
				Dependencies:        map[string]string{"sim-a": "0123456", "common": "89abcde"},
				NeededPatches:       []string{"sim-a"},
				ChangedDependencies: map[string]string{"common": "fedcba9"},
				Messages:            []string{"fix crash"},
				DeployedVersion:     "1.2.7",
			},
		},
	}
}

func TestFilesystemStorage(t *testing.T) {
	tmpDir := t.TempDir()

	storage, err := NewFilesystemStorage(tmpDir, nil)
	if err != nil {
		t.Fatalf("failed to create filesystem storage: %v", err)
	}

	t.Run("Load_NotFound", func(t *testing.T) {
		doc, err := storage.Load()
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if doc != nil {
			t.Errorf("expected nil document, got %v", doc)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		want := sampleDocument()
		if err := storage.Save(want); err != nil {
			t.Fatalf("failed to save document: %v", err)
		}

		path := filepath.Join(tmpDir, documentFile)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("document file not created: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected file mode 0600, got %v", info.Mode().Perm())
		}

		got, err := storage.Load()
		if err != nil {
			t.Fatalf("failed to load document: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("document mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		next := &Document{Patches: []PatchRecord{{Repo: "sim-c", Message: "fix physics"}}}
		if err := storage.Save(next); err != nil {
			t.Fatalf("failed to save document: %v", err)
		}

		got, err := storage.Load()
		if err != nil {
			t.Fatalf("failed to load document: %v", err)
		}
		if len(got.Patches) != 1 || got.Patches[0].Repo != "sim-c" {
			t.Errorf("expected overwritten document, got %+v", got)
		}
		if len(got.ModifiedBranches) != 0 {
			t.Errorf("expected no modified branches after overwrite, got %d", len(got.ModifiedBranches))
		}
	})

	t.Run("Reset", func(t *testing.T) {
		if err := storage.Reset(); err != nil {
			t.Fatalf("failed to reset: %v", err)
		}
		if _, err := storage.Load(); err != ErrNotFound {
			t.Errorf("expected ErrNotFound after reset, got %v", err)
		}
		// Reset with no document present is not an error.
		if err := storage.Reset(); err != nil {
			t.Errorf("expected idempotent reset, got %v", err)
		}
	})

	t.Run("Load_Corrupt", func(t *testing.T) {
		path := filepath.Join(tmpDir, documentFile)
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatalf("failed to write corrupt document: %v", err)
		}
		if _, err := storage.Load(); err != ErrCorrupt {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})
}

func TestMemoryStorage(t *testing.T) {
	storage := NewMemoryStorage()

	if _, err := storage.Load(); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	want := sampleDocument()
	if err := storage.Save(want); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	got, err := storage.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}

	// Mutating the loaded copy must not leak into the store.
	got.Patches[0].Message = "mutated"
	again, err := storage.Load()
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if again.Patches[0].Message != "fix crash" {
		t.Errorf("store leaked caller mutation: %q", again.Patches[0].Message)
	}
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func TestManagerStampsSaveTime(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	mgr := NewManager(WithClock(fixedClock{at: at}))

	doc := sampleDocument()
	if err := mgr.Save(doc); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	got, err := mgr.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if !got.SavedAt.Equal(at) {
		t.Errorf("expected SavedAt %v, got %v", at, got.SavedAt)
	}

	want := sampleDocument()
	want.SavedAt = at
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestFilesystemLocker(t *testing.T) {
	tmpDir := t.TempDir()
	locker := NewFilesystemLocker(tmpDir, nil)

	guard, err := locker.TryAcquire()
	if err != nil {
		t.Fatalf("failed to acquire lock: %v", err)
	}

	if _, err := locker.TryAcquire(); err == nil {
		t.Fatal("expected second acquire to fail while lock held")
	}

	if err := guard.Release(); err != nil {
		t.Fatalf("failed to release lock: %v", err)
	}
	if err := guard.Release(); err != nil {
		t.Fatalf("expected double release to be a no-op, got %v", err)
	}

	guard2, err := locker.TryAcquire()
	if err != nil {
		t.Fatalf("failed to reacquire lock after release: %v", err)
	}
	guard2.Release()
}
