// Package testsupport holds shared helpers for golden-file tests.
package testsupport

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

var update = flag.Bool("update", false, "rewrite golden files with current output")

// GoldenPath resolves a golden name in the package testdata directory.
func GoldenPath(name string) string {
	return filepath.Join("testdata", name)
}

// AssertGoldenJSON serialises data as indented JSON and compares it against
// the golden file. Running the tests with -update rewrites the file instead.
func AssertGoldenJSON(t *testing.T, path string, data any) {
	t.Helper()

	got, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden data: %v", err)
	}
	got = append(got, '\n')

	if *update {
		if err := os.WriteFile(path, got, 0o644); err != nil {
			t.Fatalf("rewrite golden %s: %v", path, err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden %s (run with -update to create): %v", path, err)
	}

	if !bytes.Equal(got, want) {
		t.Errorf("output does not match golden %s\n--- want ---\n%s\n--- got ---\n%s", path, want, got)
	}
}

// LoadFixture reads a fixture file, failing the test on error.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}
