package tui

import (
	"strings"
	"testing"
)

func TestColorizeDiffKeepsText(t *testing.T) {
	diff := "--- a\n+++ b\n@@ -1 +1 @@\n-old\n+new\n same\n"
	got := ColorizeDiff(diff)
	for _, want := range []string{"--- a", "+++ b", "@@ -1 +1 @@", "-old", "+new", " same"} {
		if !strings.Contains(got, want) {
			t.Errorf("ColorizeDiff() lost %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("ColorizeDiff() dropped trailing newline")
	}
}

func TestColorizeDiffEmpty(t *testing.T) {
	if got := ColorizeDiff(""); got != "" {
		t.Errorf("ColorizeDiff(\"\") = %q", got)
	}
}

func TestStatus(t *testing.T) {
	for _, s := range []string{StatusWritten, StatusPending, StatusUnchanged, StatusSkipped, StatusFailed} {
		if got := Status(s); !strings.Contains(got, s) {
			t.Errorf("Status(%q) = %q", s, got)
		}
	}
}
