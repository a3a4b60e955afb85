// Package rules parses hold-parameter text into strict comparator
// rules. Only unambiguous strict comparisons are accepted: a line that
// reads "at or below", "no less than", or carries an inclusive
// comparator is rejected outright rather than guessed at.
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Metric names the vital a rule compares against.
type Metric string

const (
	SBP Metric = "SBP"
	HR  Metric = "HR"
)

// Op is a strict comparator.
type Op string

const (
	Less    Op = "<"
	Greater Op = ">"
)

// Rule is one strict hold threshold, e.g. SBP < 90.
type Rule struct {
	Metric    Metric `json:"type"`
	Op        Op     `json:"op"`
	Threshold int    `json:"threshold"`
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s %d", r.Metric, r.Op, r.Threshold)
}

// Triggered reports whether a measured value crosses the threshold.
// Nil means the vital was not documented; an undocumented vital never
// triggers.
func (r Rule) Triggered(sbp, hr *int) bool {
	switch r.Metric {
	case SBP:
		if sbp == nil {
			return false
		}
		return (r.Op == Less && *sbp < r.Threshold) || (r.Op == Greater && *sbp > r.Threshold)
	case HR:
		if hr == nil {
			return false
		}
		return (r.Op == Less && *hr < r.Threshold) || (r.Op == Greater && *hr > r.Threshold)
	}
	return false
}

var disallowed = regexp.MustCompile(`(?i)(?:at or|≤|≥|no less|no more|equal|=)`)

var (
	sbpLess    = regexp.MustCompile(`(?i)\bSBP\b.*?(?:if\s+)?(?:below|less\s+than|<)\s*(\d{2,3})`)
	sbpGreater = regexp.MustCompile(`(?i)\bSBP\b.*?(?:if\s+)?(?:above|greater\s+than|>)\s*(\d{2,3})`)
	hrLess     = regexp.MustCompile(`(?i)\b(?:HR|Pulse)\b.*?(?:if\s+)?(?:below|less\s+than|<)\s*(\d{2,3})`)
	hrGreater  = regexp.MustCompile(`(?i)\b(?:HR|Pulse)\b.*?(?:if\s+)?(?:above|greater\s+than|>)\s*(\d{2,3})`)
)

// wrapTail marks a line that print layout cut mid-phrase; the
// continuation rejoins before parsing.
var wrapTail = regexp.MustCompile(`(?i)(?:less|greater|than|below|above|if|for|<|>)\s*$`)

var wrapHead = regexp.MustCompile(`(?i)^\s*(?:than\b|\d)`)

// Parse extracts every strict rule from rule text, first match wins on
// duplicates.
func Parse(text string) []Rule {
	rules, _ := ParseStrict(text)
	return rules
}

// ParseStrict extracts strict rules per line and also returns the
// lines rejected for carrying a disallowed (inclusive or equality)
// comparator, for diagnostics.
func ParseStrict(text string) (rules []Rule, rejected []string) {
	for _, line := range joinWrapped(NormalizeRuleText(text)) {
		if disallowed.MatchString(line) {
			rejected = append(rejected, line)
			continue
		}
		if m := sbpLess.FindStringSubmatch(line); m != nil {
			rules = append(rules, Rule{SBP, Less, atoi(m[1])})
		}
		if m := sbpGreater.FindStringSubmatch(line); m != nil {
			rules = append(rules, Rule{SBP, Greater, atoi(m[1])})
		}
		if m := hrLess.FindStringSubmatch(line); m != nil {
			rules = append(rules, Rule{HR, Less, atoi(m[1])})
		}
		if m := hrGreater.FindStringSubmatch(line); m != nil {
			rules = append(rules, Rule{HR, Greater, atoi(m[1])})
		}
	}

	seen := make(map[Rule]bool, len(rules))
	uniq := rules[:0]
	for _, r := range rules {
		if !seen[r] {
			seen[r] = true
			uniq = append(uniq, r)
		}
	}
	return uniq, rejected
}

// joinWrapped splits text into lines, rejoining a line with its
// successor when the break clearly fell inside a comparator phrase.
func joinWrapped(text string) []string {
	raw := strings.Split(text, "\n")
	var lines []string
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if len(lines) > 0 && (wrapTail.MatchString(lines[len(lines)-1]) || wrapHead.MatchString(l)) {
			lines[len(lines)-1] = lines[len(lines)-1] + " " + l
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
