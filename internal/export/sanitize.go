package export

import (
	"regexp"
	"strings"

	"maraudit/internal/rooms"
)

// allowedWords are the only free-text words a checklist line may
// carry. Anything else containing a letter is assumed to be an
// identifier and dropped.
var allowedWords = map[string]bool{
	"date": true, "hall": true, "source": true, "reviewed": true,
	"hold-miss": true, "held-appropriate": true, "compliant": true, "dc'd": true,
	"hold": true, "if": true, "sbp": true, "hr": true, "bp": true,
	"given": true, "code": true, "am": true, "pm": true, "x": true,
}

var (
	sanRoom = regexp.MustCompile(`^[1-4]\d{2}-(1|2)$`)
	sanTime = regexp.MustCompile(`^(?:[01]?\d|2[0-3]):[0-5]\d$`)
	sanDate = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
)

// SanitizeLine removes unrecognized words from a checklist line,
// keeping rooms, halls, times, dates, vitals, and the fixed audit
// vocabulary. Tokens without letters pass through untouched.
func SanitizeLine(line string) string {
	halls := map[string]bool{}
	if hs, err := rooms.Halls(); err == nil {
		for _, h := range hs {
			halls[h] = true
		}
	}

	var out []string
	for _, tok := range strings.Fields(line) {
		if !hasLetter(tok) {
			out = append(out, tok)
			continue
		}
		core := strings.Trim(tok, "()[]{};:,.")
		low := strings.ToLower(core)
		if allowedWords[low] || halls[core] ||
			sanRoom.MatchString(core) || sanTime.MatchString(core) || sanDate.MatchString(core) {
			out = append(out, tok)
		}
	}
	return strings.TrimSpace(strings.Join(out, " "))
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
