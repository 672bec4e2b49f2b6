// Package testutil provides golden-file helpers for tests.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// updateGolden controls whether golden files should be updated.
// Use: go test ./... -run TestGolden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// ShouldUpdate returns true if golden files should be updated.
func ShouldUpdate() bool {
	return *updateGolden
}

// CompareGolden compares got against the golden file at goldenPath, failing
// with a line diff on mismatch. With -update the golden file is rewritten
// instead.
func CompareGolden(t *testing.T, goldenPath string, got []byte) {
	t.Helper()

	if *updateGolden {
		UpdateGolden(t, goldenPath, got)
		t.Logf("Updated golden: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create:\n  go test ./... -run %s -update",
				goldenPath, string(got), t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	if diff := cmp.Diff(lines(expected), lines(got)); diff != "" {
		t.Fatalf("Golden mismatch for %s (-expected +got):\n%s\n\nRun with -update to refresh:\n  go test ./... -run %s -update",
			goldenPath, diff, t.Name())
	}
}

// UpdateGolden writes data to the golden file, creating parent directories.
func UpdateGolden(t *testing.T, goldenPath string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		t.Fatalf("Failed to create golden directory: %v", err)
	}
	if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
		t.Fatalf("Failed to write golden file: %v", err)
	}
}

// lines splits on newlines after normalising CRLF, so golden files checked
// out on Windows still compare equal.
func lines(b []byte) []string {
	return strings.Split(strings.ReplaceAll(string(b), "\r\n", "\n"), "\n")
}
