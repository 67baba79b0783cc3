// Package version reports build version information for the backport binary.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags at release build time; falls back to module build info.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String returns the version identifier for the running binary.
func String() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// Print writes the full version report to w.
func Print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "backport %s\n", String()); err != nil {
		return err
	}
	if Commit != "" {
		if _, err := fmt.Fprintf(w, "  commit: %s\n", Commit); err != nil {
			return err
		}
	}
	if Date != "" {
		if _, err := fmt.Fprintf(w, "  built:  %s\n", Date); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return err
}
