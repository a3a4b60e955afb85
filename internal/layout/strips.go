package layout

import (
	"regexp"
	"sort"
	"strings"

	"maraudit/internal/docsource"
	"maraudit/internal/geometry"
)

const (
	// Glyphs whose center overlaps the grid edge by up to this much
	// still count as strip text; rule lines often touch the ruling.
	stripOverlap = 2.0

	// Vertical slack when matching a glyph center to a row band.
	bandSlack = 1.5

	// Glyph lines closer than this merge into one strip line.
	lineGap = 8.0
)

// Strip is the free-text region left of the grid for one row band,
// line-joined and whitespace-normalized. Empty strips are recorded to
// preserve row alignment with the cell matrix.
type Strip struct {
	Page     int
	RowIndex int
	BBox     docsource.Rect
	Text     string
	Room     string
}

var ruleKeyword = regexp.MustCompile(`(?i)\b(SBP|HOLD|HR|PULSE)\b`)

var roomHint = regexp.MustCompile(`\b([1-4]\d{2})\s*-?\s*([12AB])\b`)

var multiSpace = regexp.MustCompile(`[ \t]+`)

// RoomHint extracts a raw room identifier from text, or "".
func RoomHint(text string) string {
	m := roomHint.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + "-" + m[2]
}

// ExtractStrips cuts the parameter strip of every row band: glyphs
// left of the grid's left ruled edge whose vertical center falls in
// the band. One Strip is emitted per band, empty or not.
func ExtractStrips(geo *geometry.PageGeometry, glyphs []docsource.Glyph) []Strip {
	bands := geo.RowBands()
	strips := make([]Strip, 0, len(bands))
	for i, band := range bands {
		var hits []docsource.Glyph
		for _, g := range glyphs {
			if g.CenterX() > geo.GridLeft+stripOverlap {
				continue
			}
			cy := g.CenterY()
			if cy < band.Start-bandSlack || cy > band.End+bandSlack {
				continue
			}
			if strings.TrimSpace(g.Text) != "" {
				hits = append(hits, g)
			}
		}
		strip := Strip{Page: geo.Page, RowIndex: i}
		if len(hits) > 0 {
			strip.Text = joinStripLines(hits)
			strip.Room = RoomHint(strip.Text)
			strip.BBox = glyphExtent(hits)
		}
		strips = append(strips, strip)
	}
	return strips
}

// FallbackStrips reconstructs parameter strips without grid geometry.
// Glyphs left of gridLeft bucket by y; a bucket containing a rule
// keyword starts a new strip and immediately-following buckets merge
// into it while they stay close, which reattaches rule text that
// wrapped across lines.
func FallbackStrips(page int, glyphs []docsource.Glyph, gridLeft float64) []Strip {
	var kept []docsource.Glyph
	for _, g := range glyphs {
		if g.CenterX() <= gridLeft+stripOverlap && strings.TrimSpace(g.Text) != "" {
			kept = append(kept, g)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	yTol := medianHeight(kept) * 0.6
	if yTol < 4.0 {
		yTol = 4.0
	}

	buckets := make(map[int][]docsource.Glyph)
	for _, g := range kept {
		b := int(g.Y0/yTol + 0.5)
		buckets[b] = append(buckets[b], g)
	}
	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	mergeGap := yTol
	if mergeGap < 18.0 {
		mergeGap = 18.0
	}

	var strips []Strip
	var current []docsource.Glyph
	var lastBottom float64

	flush := func() {
		if len(current) == 0 {
			return
		}
		text := joinStripLines(current)
		strips = append(strips, Strip{
			Page:     page,
			RowIndex: len(strips),
			BBox:     glyphExtent(current),
			Text:     text,
			Room:     RoomHint(text),
		})
		current = nil
	}

	for _, k := range keys {
		bucket := buckets[k]
		text := bucketText(bucket)
		top, bottom := bucketSpan(bucket)

		switch {
		case ruleKeyword.MatchString(text):
			flush()
			current = bucket
		case len(current) > 0 && top-lastBottom <= mergeGap:
			current = append(current, bucket...)
		default:
			flush()
		}
		lastBottom = bottom
	}
	flush()
	return strips
}

// joinStripLines groups glyphs into text lines by vertical proximity,
// joins the lines with newlines, and normalizes whitespace.
func joinStripLines(glyphs []docsource.Glyph) string {
	sorted := append([]docsource.Glyph(nil), glyphs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y0 != sorted[j].Y0 {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	var lines [][]docsource.Glyph
	for _, g := range sorted {
		if len(lines) == 0 {
			lines = append(lines, []docsource.Glyph{g})
			continue
		}
		last := lines[len(lines)-1]
		if g.Y0-last[len(last)-1].Y0 <= lineGap {
			lines[len(lines)-1] = append(last, g)
		} else {
			lines = append(lines, []docsource.Glyph{g})
		}
	}

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		sort.Slice(line, func(i, j int) bool { return line[i].X0 < line[j].X0 })
		words := make([]string, 0, len(line))
		for _, g := range line {
			words = append(words, strings.TrimSpace(g.Text))
		}
		parts = append(parts, normalizeWhitespace(strings.Join(words, " ")))
	}
	return strings.Join(parts, "\n")
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

func bucketText(glyphs []docsource.Glyph) string {
	parts := make([]string, 0, len(glyphs))
	for _, g := range glyphs {
		parts = append(parts, g.Text)
	}
	return strings.Join(parts, " ")
}

func bucketSpan(glyphs []docsource.Glyph) (top, bottom float64) {
	top, bottom = glyphs[0].Y0, glyphs[0].Y1
	for _, g := range glyphs[1:] {
		if g.Y0 < top {
			top = g.Y0
		}
		if g.Y1 > bottom {
			bottom = g.Y1
		}
	}
	return top, bottom
}

func glyphExtent(glyphs []docsource.Glyph) docsource.Rect {
	r := docsource.Rect{X0: glyphs[0].X0, Y0: glyphs[0].Y0, X1: glyphs[0].X1, Y1: glyphs[0].Y1}
	for _, g := range glyphs[1:] {
		if g.X0 < r.X0 {
			r.X0 = g.X0
		}
		if g.Y0 < r.Y0 {
			r.Y0 = g.Y0
		}
		if g.X1 > r.X1 {
			r.X1 = g.X1
		}
		if g.Y1 > r.Y1 {
			r.Y1 = g.Y1
		}
	}
	return r
}
