package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewPathValidator(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name      string
		dir       string
		wantError bool
	}{
		{
			name:      "valid directory",
			dir:       tempDir,
			wantError: false,
		},
		{
			name:      "empty directory",
			dir:       "",
			wantError: true,
		},
		{
			name: "non-existent directory",
			dir:  "/non/existent/charts",
			// Allowed so the chart directory can be created after startup.
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator, err := NewPathValidator(tt.dir)
			if tt.wantError {
				if err == nil {
					t.Error("Expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if validator == nil {
					t.Error("Expected validator but got nil")
				}
			}
		})
	}
}

func TestPathValidatorValidatePath(t *testing.T) {
	tempDir := t.TempDir()

	subDir := filepath.Join(tempDir, "september")
	if err := os.Mkdir(subDir, 0o755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	chartFile := filepath.Join(tempDir, "mercer_09-2026.pdf")
	subFile := filepath.Join(subDir, "holaday_09-2026.pdf")
	for _, p := range []string{chartFile, subFile} {
		if err := os.WriteFile(p, []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	validator, err := NewPathValidator(tempDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{
			name:      "empty path",
			path:      "",
			wantError: true,
		},
		{
			name:      "chart in root",
			path:      chartFile,
			wantError: false,
		},
		{
			name:      "chart in subdirectory",
			path:      subFile,
			wantError: false,
		},
		{
			name:      "file outside directory",
			path:      "/etc/passwd",
			wantError: true,
		},
		{
			name:      "parent directory traversal",
			path:      filepath.Join(tempDir, "..", "outside.pdf"),
			wantError: true,
		},
		{
			name:      "dot segment within directory",
			path:      filepath.Join(tempDir, ".", "mercer_09-2026.pdf"),
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidatePath(tt.path)
			if tt.wantError {
				if err == nil {
					t.Error("Expected error but got none")
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestPathValidatorIsPathWithinDirectory(t *testing.T) {
	tempDir := t.TempDir()

	validator, err := NewPathValidator(tempDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	targetFile := filepath.Join(tempDir, "target.pdf")
	symlinkFile := filepath.Join(tempDir, "symlink.pdf")
	if err := os.WriteFile(targetFile, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("Failed to create target file: %v", err)
	}
	if err := os.Symlink(targetFile, symlinkFile); err != nil {
		t.Logf("Warning: failed to create symlink (may not be supported): %v", err)
	}

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{
			name:     "path within directory",
			path:     filepath.Join(tempDir, "chart.pdf"),
			expected: true,
		},
		{
			name:     "path outside directory",
			path:     "/var/outside.pdf",
			expected: false,
		},
		{
			name:     "parent directory traversal",
			path:     filepath.Join(tempDir, "..", "outside.pdf"),
			expected: false,
		},
		{
			name:     "symlink within directory",
			path:     symlinkFile,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.IsPathWithinDirectory(tt.path)
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %v but got %v", tt.expected, result)
			}
		})
	}
}

func TestPathValidatorNormalizePath(t *testing.T) {
	tempDir := t.TempDir()

	validator, err := NewPathValidator(tempDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{
			name:      "empty path",
			path:      "",
			wantError: true,
		},
		{
			name:      "relative path",
			path:      "chart.pdf",
			wantError: false,
		},
		{
			name:      "absolute path within directory",
			path:      filepath.Join(tempDir, "chart.pdf"),
			wantError: false,
		},
		{
			name:      "null byte stripped",
			path:      "chart\x00.pdf",
			wantError: false,
		},
		{
			name:      "traversal rejected",
			path:      "../../../etc/passwd",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.NormalizePath(tt.path)
			if tt.wantError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !filepath.IsAbs(result) {
				t.Errorf("Expected absolute path but got: %s", result)
			}
			if !strings.HasPrefix(result, tempDir) {
				t.Errorf("Expected path within %s but got: %s", tempDir, result)
			}
			if strings.ContainsRune(result, '\x00') {
				t.Error("Result still contains null bytes")
			}
		})
	}
}

func TestPathValidatorValidateDirectory(t *testing.T) {
	tempDir := t.TempDir()

	subDir := filepath.Join(tempDir, "archive")
	if err := os.Mkdir(subDir, 0o755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}
	chartFile := filepath.Join(tempDir, "chart.pdf")
	if err := os.WriteFile(chartFile, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	validator, err := NewPathValidator(tempDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{
			name:      "valid subdirectory",
			path:      subDir,
			wantError: false,
		},
		{
			name:      "file instead of directory",
			path:      chartFile,
			wantError: true,
		},
		{
			name: "non-existent directory",
			path: filepath.Join(tempDir, "nonexistent"),
			// May be created later.
			wantError: false,
		},
		{
			name:      "directory outside bounds",
			path:      "/var",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateDirectory(tt.path)
			if tt.wantError {
				if err == nil {
					t.Error("Expected error but got none")
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
