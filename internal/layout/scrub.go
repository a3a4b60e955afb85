package layout

import (
	"regexp"
	"strings"
)

// Rows matching these patterns carry resident identity or print
// metadata from the page header/footer; they are dropped outright
// rather than risking identity text leaking into cells.
var scrubPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bDOB\b`),
	regexp.MustCompile(`\bAdmit Date\b`),
	regexp.MustCompile(`\bResident\b`),
	regexp.MustCompile(`\bPrinted on\b`),
	regexp.MustCompile(`\bPage:\s*\d+\s*of\s*\d+\b`),
	regexp.MustCompile(`\(\d{3,}\)`),            // MRN-like id in parens
	regexp.MustCompile(`[A-Z]{2,},\s+[A-Z][a-z]+`), // LAST, First
}

func shouldScrubRow(row Row) bool {
	var parts []string
	for _, cell := range row.Cells {
		if t := strings.TrimSpace(cell.Text); t != "" {
			parts = append(parts, t)
		}
	}
	joined := strings.Join(parts, " ")
	for _, pat := range scrubPatterns {
		if pat.MatchString(joined) {
			return true
		}
	}
	return false
}
