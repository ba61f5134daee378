package safety

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CleanFilename validates and normalizes a filename taken from the manifest.
// It rejects empty names, absolute paths, and parent traversal segments so a
// hostile manifest cannot write outside the destination directory.
func CleanFilename(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("filename is empty")
	}

	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." {
		return "", fmt.Errorf("filename resolves to current directory")
	}
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute paths are not allowed: %q", name)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("parent traversal is not allowed: %q", name)
	}
	return clean, nil
}

// SafeJoinUnder joins a validated filename under root and verifies
// the final path remains inside root.
func SafeJoinUnder(root, name string) (string, error) {
	clean, err := CleanFilename(name)
	if err != nil {
		return "", err
	}
	return EnsureUnderRoot(root, filepath.Join(root, clean))
}

// EnsureUnderRoot verifies candidate resolves under root and returns
// an absolute normalized path.
func EnsureUnderRoot(root, candidate string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	candAbs, err := filepath.Abs(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve candidate: %w", err)
	}

	rel, err := filepath.Rel(rootAbs, candAbs)
	if err != nil {
		return "", fmt.Errorf("compare paths: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes root: %q", candidate)
	}
	return candAbs, nil
}
