// Package paths resolves the on-disk layout of a blemap run.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// StringsSuffix is appended to an application key to name its strings side file.
	StringsSuffix = ".json"
	// FieldsSuffix is appended to an application key to name its field-read side file.
	FieldsSuffix = "_xref_read.json"
)

// Resolve joins a configured path onto baseDir unless it is already absolute.
// Empty paths stay empty so optional inputs remain disabled.
func Resolve(baseDir, p string) string {
	if p == "" {
		return ""
	}
	p = NormalizePath(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	parts := strings.Split(p, "/")
	return filepath.Join(append([]string{baseDir}, parts...)...)
}

// ResolveAll applies Resolve to every entry.
func ResolveAll(baseDir string, ps []string) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		if r := Resolve(baseDir, p); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// NormalizePath converts backslashes to forward slashes
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// StringsFile is the strings side file of an application.
func StringsFile(stringsDir, appKey string) string {
	return filepath.Join(stringsDir, appKey+StringsSuffix)
}

// FieldsFile is the field-read side file of an application.
func FieldsFile(fieldsDir, appKey string) string {
	return filepath.Join(fieldsDir, appKey+FieldsSuffix)
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
