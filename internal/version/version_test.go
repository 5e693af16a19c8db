package version

import "testing"

func TestString(t *testing.T) {
	Commit, BuildTime = "0123456789abcdef", "2026-02-01"
	t.Cleanup(func() { Commit, BuildTime = "unknown", "unknown" })

	want := "canvas-ai " + Version + " (commit: 0123456, built: 2026-02-01)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if ShortCommit() != "0123456" {
		t.Errorf("ShortCommit() = %q", ShortCommit())
	}
}
