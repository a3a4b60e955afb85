package layout

import (
	"regexp"
	"strings"
)

var checkGlyphs = map[string]bool{"√": true, "✔": true, "✓": true}

// joinPairs are check-mark + initials splits that some extractors
// produce for one signed entry; they rejoin into a single token.
var joinPairs = map[[2]string]bool{
	{"√", "bakk"}: true,
	{"√", "siba"}: true,
	{"√", "jn1"}:  true,
	{"√", "bail"}: true,
}

var holdMarkers = map[string]bool{"H": true, "hold": true, "Hold": true}

var innerSpace = regexp.MustCompile(`\s+`)

// JoinTokens normalizes a cell's glyph tokens before merging:
// check-glyph variants collapse to √, known check+initials splits
// rejoin, and hold markers canonicalize to H.
func JoinTokens(tokens []string) string {
	var toks []string
	for _, t := range tokens {
		if s := strings.TrimSpace(t); s != "" {
			toks = append(toks, s)
		}
	}

	var out []string
	for i := 0; i < len(toks); i++ {
		cur := toks[i]
		if checkGlyphs[cur] {
			cur = "√"
		}
		if i+1 < len(toks) && joinPairs[[2]string{cur, toks[i+1]}] {
			out = append(out, cur+toks[i+1])
			i++
			continue
		}
		switch {
		case checkGlyphs[cur]:
			out = append(out, "√")
		case holdMarkers[cur]:
			out = append(out, "H")
		default:
			out = append(out, innerSpace.ReplaceAllString(cur, " "))
		}
	}
	return strings.TrimSpace(strings.Join(out, " "))
}
