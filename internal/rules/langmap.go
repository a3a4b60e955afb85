package rules

import "regexp"

// Spoken comparator phrases canonicalize to symbols and Pulse aliases
// to HR. The list is deliberately tight: anything not listed passes
// through untouched for the strict patterns to judge.
var phraseMap = []struct {
	pat  *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\bSBP\s+less\s+than\b`), "SBP <"},
	{regexp.MustCompile(`(?i)\bSBP\s+greater\s+than\b`), "SBP >"},
	{regexp.MustCompile(`(?i)\bPulse\s+less\s+than\b`), "HR <"},
	{regexp.MustCompile(`(?i)\bPulse\s+greater\s+than\b`), "HR >"},
}

var extraSpace = regexp.MustCompile(`[ \t]{2,}`)

// NormalizeRuleText rewrites English comparator phrases to symbols,
// leaving the rest of the string intact.
func NormalizeRuleText(text string) string {
	if text == "" {
		return text
	}
	out := text
	for _, p := range phraseMap {
		out = p.pat.ReplaceAllString(out, p.repl)
	}
	return extraSpace.ReplaceAllString(out, " ")
}
