// Package security confines file access to the configured chart
// directory. MAR charts carry resident identifiers, so every path a
// tool receives is checked against the directory boundary before any
// document is opened.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator rejects paths that escape the configured chart
// directory, including escapes through symlinks.
type PathValidator struct {
	chartDirectory string
}

// NewPathValidator creates a validator rooted at chartDirectory. The
// directory does not need to exist yet; validation is skipped until it
// does so startup can precede first use.
func NewPathValidator(chartDirectory string) (*PathValidator, error) {
	if chartDirectory == "" {
		return nil, fmt.Errorf("chart directory cannot be empty")
	}
	return &PathValidator{chartDirectory: chartDirectory}, nil
}

// ValidatePath checks that path resolves inside the chart directory.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if _, err := os.Stat(v.chartDirectory); os.IsNotExist(err) {
		return nil
	}

	within, err := v.IsPathWithinDirectory(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return fmt.Errorf("path is outside the chart directory: %s", path)
	}
	return nil
}

// IsPathWithinDirectory reports whether path, after cleaning and
// symlink resolution, stays under the chart directory.
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	if _, err := os.Stat(v.chartDirectory); os.IsNotExist(err) {
		return true, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(v.chartDirectory)
	if err != nil {
		return false, fmt.Errorf("failed to resolve chart directory: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(absDir)

	// A symlinked file inside the directory must not point outside it.
	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}
	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	return under(cleanPath, cleanDir, realDir) && under(realPath, cleanDir, realDir), nil
}

func under(path string, dirs ...string) bool {
	for _, dir := range dirs {
		withSep := dir
		if !strings.HasSuffix(withSep, string(filepath.Separator)) {
			withSep += string(filepath.Separator)
		}
		if path == dir || strings.HasPrefix(path, withSep) {
			return true
		}
	}
	return false
}

// ValidateDirectory checks that dirPath is inside the chart directory
// and, when it exists, is actually a directory.
func (v *PathValidator) ValidateDirectory(dirPath string) error {
	if err := v.ValidatePath(dirPath); err != nil {
		return err
	}

	if _, err := os.Stat(v.chartDirectory); os.IsNotExist(err) {
		return nil
	}

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return nil
}

// NormalizePath resolves path (relative paths are taken against the
// chart directory) and validates the result.
func (v *PathValidator) NormalizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	path = strings.ReplaceAll(path, "\x00", "")
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.chartDirectory, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := v.ValidatePath(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// ChartDirectory returns the configured chart directory.
func (v *PathValidator) ChartDirectory() string {
	return v.chartDirectory
}
