// Package token decodes the raw text of one schedule cell into
// administration facts: given marks, clock times, vitals, crossed-out
// marks, and clerical chart codes. Every matcher is independent and
// the whole pass is a pure function of the input text.
package token

import (
	"regexp"
	"strconv"
	"strings"
)

// CellTokens is the decoded content of one AM/PM/BP cell. Nil pointer
// fields mean the value was not documented in the cell.
type CellTokens struct {
	Given     bool
	Time      string
	ChartCode *int
	XMark     bool
	SBP       *int
	DBP       *int
	HR        *int
	Raw       string
}

// givenGlyphs are the check-mark variants that read as administered.
const givenGlyphs = "√✓■✔"

var (
	bpWrapFix  = regexp.MustCompile(`(\d{2,3})\s*/\s*\n\s*(\d{2,3})`)
	bpPair     = regexp.MustCompile(`\b(\d{2,3})\s*/\s*(\d{2,3})\b`)
	hrLabeled  = regexp.MustCompile(`(?i)\b(?:HR|PULSE)\s*[:\-]?\s*(\d{2,3})\b`)
	isolatedV  = regexp.MustCompile(`(?:^|\s)[Vv](?:\s|$)`)
	isolatedX  = regexp.MustCompile(`(?:^|\s)[xX](?:\s|$)`)
	digitRun   = regexp.MustCompile(`\d+`)
)

// Tokenize decodes cell text. hasHRTrack marks cells whose row track
// also carries a heart-rate reading, enabling the bare-integer HR
// heuristic; without it a lone integer reads as a chart code.
func Tokenize(cellText string, hasHRTrack bool) CellTokens {
	raw := bpWrapFix.ReplaceAllString(cellText, "$1/$2")
	t := CellTokens{Raw: raw}

	if strings.ContainsAny(raw, givenGlyphs) {
		t.Given = true
	}
	if !t.Given && isolatedV.MatchString(raw) {
		t.Given = true
	}
	if clock := ExtractClock(raw); clock != "" {
		t.Given = true
		t.Time = clock
	}

	if isolatedX.MatchString(raw) {
		t.XMark = true
	}

	if m := bpPair.FindStringSubmatch(raw); m != nil {
		t.SBP = intp(m[1])
		t.DBP = intp(m[2])
	}

	if m := hrLabeled.FindStringSubmatch(raw); m != nil {
		t.HR = intp(m[1])
	} else if hasHRTrack {
		ints := bareInts(raw)
		if len(ints) > 0 {
			last := ints[len(ints)-1]
			if last >= 40 && last <= 180 {
				t.HR = &last
			}
		}
	}

	ints := bareInts(raw)
	if len(ints) > 0 {
		code := ints[len(ints)-1]
		if !matchesInt(t.HR, code) && !matchesInt(t.SBP, code) && !matchesInt(t.DBP, code) {
			t.ChartCode = &code
		}
	}

	return t
}

// bareInts finds 1-3 digit integers standing alone: not part of a
// longer number and not adjacent to time, fraction, or decimal
// punctuation.
func bareInts(s string) []int {
	var out []int
	for _, loc := range digitRun.FindAllStringIndex(s, -1) {
		if loc[1]-loc[0] > 3 {
			continue
		}
		if loc[0] > 0 && isNumGlue(s[loc[0]-1]) {
			continue
		}
		if loc[1] < len(s) && isNumGlue(s[loc[1]]) {
			continue
		}
		n, err := strconv.Atoi(s[loc[0]:loc[1]])
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// isNumGlue marks bytes that attach a digit run to a larger numeric
// token (times, fractions, decimals) or to a word.
func isNumGlue(b byte) bool {
	switch b {
	case ':', '/', '.':
		return true
	}
	return b == '_' || (b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func intp(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func matchesInt(p *int, v int) bool { return p != nil && *p == v }
