package common

import (
	"fmt"
	"os"
	"path/filepath"
)

// DatabaseFileName is the shared analytics database all gold tables live in.
const DatabaseFileName = "product_analytics_light.db"

// ExecutableDir returns the directory holding the running binary, with symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// DefaultDatabasePath resolves the database file two directories above base.
func DefaultDatabasePath(base string) string {
	return filepath.Clean(filepath.Join(base, "..", "..", DatabaseFileName))
}

// CleanPath makes path absolute. Relative paths resolve against the working directory.
func CleanPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("invalid path: empty")
	}

	cleaned := filepath.Clean(path)
	if !filepath.IsAbs(cleaned) {
		abs, err := filepath.Abs(cleaned)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		cleaned = abs
	}

	return cleaned, nil
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
