// Package export writes audit results to disk: a JSON blob for
// downstream tooling and a plain-text checklist for the med cart.
// Both writers create private files (0600 in 0700 directories) and
// every checklist line passes through the identifier scrub first.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"maraudit/internal/decision"
)

// Meta identifies the run a JSON export came from.
type Meta struct {
	Date    string `json:"date,omitempty"`
	Hall    string `json:"hall,omitempty"`
	Source  string `json:"source,omitempty"`
	Day     int    `json:"day,omitempty"`
	Version string `json:"version,omitempty"`
}

type blob struct {
	Meta    Meta              `json:"meta"`
	Summary decision.Summary  `json:"summary"`
	Records []decision.Record `json:"records"`
}

// WriteJSON writes {"meta": ..., "summary": ..., "records": [...]} to
// path, creating the parent directory if needed.
func WriteJSON(path string, records []decision.Record, summary decision.Summary, meta Meta) error {
	if records == nil {
		records = []decision.Record{}
	}
	data, err := json.MarshalIndent(blob{Meta: meta, Summary: summary, Records: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	return writePrivate(path, data)
}

// FileSHA256 returns the hex SHA-256 digest of a written export, for
// the audit trail.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writePrivate(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
