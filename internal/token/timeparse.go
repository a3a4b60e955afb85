package token

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TimeNorm is the normalized reading of one schedule time token:
// either a clock time, a block range, or a named slot.
type TimeNorm struct {
	Raw        string
	Normalized string // "HH:MM" when the token is a single clock time
	Range      string // "HH:MM-HH:MM" when the token is a block range
	Slot       string // am|noon|pm|evening|hs|overnight
}

// timeBlock headers commonly printed on schedule grids. Matching is a
// prefix test on the lowercased, space-stripped token.
var timeBlocks = []struct {
	key   string
	start string
	end   string
	slot  string
}{
	{"6a-10", "06:00", "10:00", "am"},
	{"11a-", "11:00", "13:59", "noon"},
	{"12p-2", "12:00", "14:00", "noon"},
	{"4pm-7", "16:00", "19:00", "pm"},
	{"8pm-1", "20:00", "01:00", "overnight"},
	{"hs", "", "", "hs"},
	{"am", "", "", "am"},
	{"pm", "", "", "pm"},
}

var (
	clockRe    = regexp.MustCompile(`\b([01]?\d|2[0-3]):[0-5]\d\b`)
	hhmmRe     = regexp.MustCompile(`\b([01]?\d|2[0-3]):?([0-5]\d)\b`)
	twelveHrRe = regexp.MustCompile(`(?i)\b([1-9]|1[0-2])\s*(am|pm)\b`)
	rangeRe    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:[:.]?(\d{2}))?\s*([ap]m)?\s*-\s*(\d{1,2})(?:[:.]?(\d{2}))?\s*([ap]m)?\b`)
	chunkSplit = regexp.MustCompile(`[\n;,]`)
)

var slotGuesses = []string{"am", "noon", "pm", "evening", "hs", "overnight"}

// NormalizeTimeToken reads one time token: block headers first, then
// 24h clock forms, 12h forms, ranges, and finally a named-slot guess.
func NormalizeTimeToken(s string) TimeNorm {
	raw := strings.TrimSpace(s)
	key := strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	for _, b := range timeBlocks {
		if strings.HasPrefix(key, b.key) {
			tn := TimeNorm{Raw: raw, Slot: b.slot}
			if b.start != "" {
				tn.Range = b.start + "-" + b.end
			}
			return tn
		}
	}

	if m := hhmmRe.FindStringSubmatch(raw); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return TimeNorm{Raw: raw, Normalized: pad(h, mm)}
	}

	if m := twelveHrRe.FindStringSubmatch(raw); m != nil {
		h, _ := strconv.Atoi(m[1])
		ampm := strings.ToLower(m[2])
		return TimeNorm{Raw: raw, Normalized: pad(to24h(h, ampm), 0), Slot: ampm}
	}

	if m := rangeRe.FindStringSubmatch(raw); m != nil {
		sh, _ := strconv.Atoi(m[1])
		sm := optMinutes(m[2])
		sap := strings.ToLower(m[3])
		eh, _ := strconv.Atoi(m[4])
		em := optMinutes(m[5])
		eap := strings.ToLower(m[6])
		startHour, endHour := normalizeRangeHours(sh, sap, eh, eap)
		return TimeNorm{Raw: raw, Range: pad(startHour, sm) + "-" + pad(endHour, em)}
	}

	lower := strings.ToLower(raw)
	for _, guess := range slotGuesses {
		if strings.Contains(lower, guess) {
			return TimeNorm{Raw: raw, Slot: guess}
		}
	}
	return TimeNorm{Raw: raw}
}

// ParseTimeToken returns the normalized clock time of a token, or "".
func ParseTimeToken(s string) string {
	return NormalizeTimeToken(s).Normalized
}

// ExtractClock finds a well-formed HH:MM clock time in cell text. The
// whole text is tried first; failing that the text splits on newline,
// semicolon, and comma, and each chunk is scanned, skipping chunks
// that read as date ranges (dash or slash with no colon).
func ExtractClock(text string) string {
	if c := clockFromChunk(text); c != "" {
		return c
	}
	for _, chunk := range chunkSplit.Split(text, -1) {
		if c := clockFromChunk(chunk); c != "" {
			return c
		}
	}
	return ""
}

func clockFromChunk(chunk string) string {
	chunk = strings.TrimSpace(chunk)
	if chunk == "" {
		return ""
	}
	if strings.ContainsAny(chunk, "-/") && !strings.Contains(chunk, ":") {
		return ""
	}
	return clockRe.FindString(chunk)
}

func pad(h, m int) string { return fmt.Sprintf("%02d:%02d", h, m) }

func to24h(h int, ampm string) int {
	switch ampm {
	case "am":
		if h == 12 {
			return 0
		}
		return h
	case "pm":
		if h == 12 {
			return 12
		}
		return h + 12
	}
	return h
}

func optMinutes(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// normalizeRangeHours resolves am/pm carry-over for ranges where only
// the start carries a meridiem, e.g. "4pm-7" ends at 19:00.
func normalizeRangeHours(sh int, sap string, eh int, eap string) (startHour, endHour int) {
	startHour = sh
	if sap == "am" || sap == "pm" {
		startHour = to24h(sh, sap)
	}
	switch {
	case eap == "am" || eap == "pm":
		endHour = to24h(eh, eap)
	case sap == "pm":
		switch {
		case eh >= sh:
			endHour = eh + 12
		case eh <= 5:
			endHour = eh
		default:
			endHour = eh + 12
		}
	case sap == "am" && eh < sh:
		endHour = eh + 12
	default:
		endHour = eh
	}
	return startHour % 24, endHour % 24
}
