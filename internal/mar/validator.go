package mar

import (
	"fmt"
	"os"
	"strings"
)

// Validator performs the cheap chart-file checks that do not require
// opening the document. Structural validation goes through the audit
// runner's backends.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator with the given size ceiling.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// CheckPath stats path and applies the file-info checks.
func (v *Validator) CheckPath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	return v.CheckInfo(path, info)
}

// CheckInfo validates already-statted file info: a regular .pdf file,
// non-empty, and under the size ceiling.
func (v *Validator) CheckInfo(path string, info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}

	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}

	if info.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			info.Size(), v.maxFileSize)
	}

	return nil
}
