// Package layout turns positioned glyphs into the row/cell matrix of a
// schedule page. Two assembly paths exist: the grid path bucketing
// glyphs into detected geometry bands, and a density heuristic for
// pages without vector rulings. Both produce the same Row shape so
// downstream consumers never know which path ran.
package layout

import (
	"sort"
	"strconv"
	"strings"

	"maraudit/internal/docsource"
	"maraudit/internal/geometry"
)

// Cell is the merged text of the glyphs inside one (row, column) band.
type Cell struct {
	Text string
	X0   float64
	Y0   float64
	X1   float64
	Y1   float64
}

// Rect returns the cell bounding box.
func (c Cell) Rect() docsource.Rect {
	return docsource.Rect{X0: c.X0, Y0: c.Y0, X1: c.X1, Y1: c.Y1}
}

// CenterX returns the horizontal center of the cell box.
func (c Cell) CenterX() float64 { return (c.X0 + c.X1) / 2 }

// Row is one horizontal band of cells. Band is the index of the row
// band the row was assembled from, which parameter strips are keyed
// by; the fallback path numbers bands sequentially.
type Row struct {
	Cells []Cell
	Y0    float64
	Y1    float64
	Page  int
	Band  int
}

var headerSignature = map[string]bool{"room": true, "medication": true, "am": true, "pm": true}

var dayNames = map[string]bool{
	"SUN": true, "MON": true, "TUE": true, "WED": true,
	"THU": true, "FRI": true, "SAT": true,
}

// AssembleGrid buckets glyphs into the detected geometry bands by
// center-point containment. Bands without glyphs still emit an empty
// Cell so every row is rectangular; row bands with no text at all are
// dropped.
func AssembleGrid(geo *geometry.PageGeometry, glyphs []docsource.Glyph) []Row {
	rowBands := geo.RowBands()
	colBands := geo.ColBands()
	if len(rowBands) == 0 || len(colBands) == 0 {
		return nil
	}

	type key struct{ r, c int }
	buckets := make(map[key][]docsource.Glyph)
	for _, g := range glyphs {
		if strings.TrimSpace(g.Text) == "" {
			continue
		}
		r := geometry.FindBand(rowBands, g.CenterY())
		c := geometry.FindBand(colBands, g.CenterX())
		if r < 0 || c < 0 {
			continue
		}
		buckets[key{r, c}] = append(buckets[key{r, c}], g)
	}

	var rows []Row
	for r, rb := range rowBands {
		cells := make([]Cell, 0, len(colBands))
		hasText := false
		for c, cb := range colBands {
			bucket := buckets[key{r, c}]
			if len(bucket) == 0 {
				cells = append(cells, Cell{X0: cb.Start, Y0: rb.Start, X1: cb.End, Y1: rb.End})
				continue
			}
			hasText = true
			cells = append(cells, mergeGlyphs(bucket))
		}
		if hasText {
			rows = append(rows, Row{Cells: cells, Y0: rb.Start, Y1: rb.End, Page: geo.Page, Band: r})
		}
	}
	return rows
}

// AssembleFallback reconstructs rows from glyph density alone: glyphs
// bucket by y within a tolerance derived from the median glyph height,
// then split into cells wherever the x-gap exceeds the same scale.
func AssembleFallback(page int, glyphs []docsource.Glyph) []Row {
	var kept []docsource.Glyph
	for _, g := range glyphs {
		if strings.TrimSpace(g.Text) != "" {
			kept = append(kept, g)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	median := medianHeight(kept)
	yTol := median * 0.6
	if yTol < 1.0 {
		yTol = 1.0
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

	gapCeiling := median * 1.2
	if gapCeiling < 2.0 {
		gapCeiling = 2.0
	}

	var rows []Row
	for _, k := range keys {
		rowGlyphs := buckets[k]
		sort.Slice(rowGlyphs, func(i, j int) bool {
			if rowGlyphs[i].X0 != rowGlyphs[j].X0 {
				return rowGlyphs[i].X0 < rowGlyphs[j].X0
			}
			return rowGlyphs[i].Y0 < rowGlyphs[j].Y0
		})

		var cells []Cell
		current := []docsource.Glyph{rowGlyphs[0]}
		for _, g := range rowGlyphs[1:] {
			prev := current[len(current)-1]
			if g.X0-prev.X1 > gapCeiling {
				cells = append(cells, mergeGlyphs(current))
				current = []docsource.Glyph{g}
			} else {
				current = append(current, g)
			}
		}
		cells = append(cells, mergeGlyphs(current))

		y0, y1 := rowGlyphs[0].Y0, rowGlyphs[0].Y1
		for _, g := range rowGlyphs[1:] {
			if g.Y0 < y0 {
				y0 = g.Y0
			}
			if g.Y1 > y1 {
				y1 = g.Y1
			}
		}
		rows = append(rows, Row{Cells: cells, Y0: y0, Y1: y1, Page: page, Band: len(rows)})
	}
	return rows
}

// FilterRows drops rows that are not schedule data: column headers,
// day-number/day-name headers, scrubbed identity lines, and rows whose
// leading cells are empty.
func FilterRows(rows []Row) []Row {
	var out []Row
	for _, row := range rows {
		if len(row.Cells) < 4 {
			continue
		}
		if isHeaderRow(row) || isDayHeaderRow(row) {
			continue
		}
		if shouldScrubRow(row) {
			continue
		}
		leading := false
		for _, cell := range row.Cells[:2] {
			if strings.TrimSpace(cell.Text) != "" {
				leading = true
				break
			}
		}
		if !leading {
			continue
		}
		out = append(out, row)
	}
	return out
}

// isHeaderRow matches the canonical column header. The normalized cell
// text set must be a superset of {room, medication, am, pm}.
func isHeaderRow(row Row) bool {
	seen := make(map[string]bool)
	var normalized []string
	for _, cell := range row.Cells {
		t := strings.ToLower(strings.TrimSpace(cell.Text))
		if t != "" {
			seen[t] = true
			normalized = append(normalized, t)
		}
	}
	if len(normalized) == 0 {
		return false
	}
	all := true
	for label := range headerSignature {
		if !seen[label] {
			all = false
			break
		}
	}
	if all {
		return true
	}
	limit := 2
	if len(normalized) < limit {
		limit = len(normalized)
	}
	for _, t := range normalized[:limit] {
		if t == "room" || t == "resident" {
			return true
		}
	}
	return false
}

// isDayHeaderRow matches the calendar strip above the grid: day names
// or a run of day-of-month numerals.
func isDayHeaderRow(row Row) bool {
	var tokens []string
	for _, cell := range row.Cells {
		t := strings.ToUpper(strings.TrimSpace(cell.Text))
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return false
	}

	dayTokens, numberTokens := 0, 0
	for _, t := range tokens {
		if dayNames[t] || dayNames[strings.TrimRight(t, "0123456789")] {
			dayTokens++
		}
		if n, err := strconv.Atoi(t); err == nil && n >= 1 && n <= 31 {
			numberTokens++
		}
	}
	if dayTokens >= maxInt(3, len(tokens)/2) {
		return true
	}
	if numberTokens >= maxInt(5, len(tokens)/2) {
		return true
	}

	lead := tokens
	if len(lead) > 2 {
		lead = lead[:2]
	}
	allDigits := len(lead) > 0
	for _, t := range lead {
		if _, err := strconv.Atoi(t); err != nil {
			allDigits = false
			break
		}
	}
	return allDigits
}

// CellForBand returns the row cell whose center falls inside the x
// band, or the nearest cell when none does. Used to address the due
// cell for a specific day column.
func CellForBand(row Row, band geometry.Band) *Cell {
	if len(row.Cells) == 0 {
		return nil
	}
	best := -1
	bestDist := 0.0
	for i := range row.Cells {
		cx := row.Cells[i].CenterX()
		if band.Contains(cx) {
			return &row.Cells[i]
		}
		d := cx - band.Center()
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return &row.Cells[best]
}

func mergeGlyphs(glyphs []docsource.Glyph) Cell {
	sorted := append([]docsource.Glyph(nil), glyphs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y0 != sorted[j].Y0 {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	tokens := make([]string, 0, len(sorted))
	for _, g := range sorted {
		tokens = append(tokens, g.Text)
	}
	text := normalizeCellText(JoinTokens(tokens))

	c := Cell{Text: text, X0: sorted[0].X0, Y0: sorted[0].Y0, X1: sorted[0].X1, Y1: sorted[0].Y1}
	for _, g := range sorted[1:] {
		if g.X0 < c.X0 {
			c.X0 = g.X0
		}
		if g.Y0 < c.Y0 {
			c.Y0 = g.Y0
		}
		if g.X1 > c.X1 {
			c.X1 = g.X1
		}
		if g.Y1 > c.Y1 {
			c.Y1 = g.Y1
		}
	}
	return c
}

// normalizeCellText resolves the middle-dot glyph some print drivers
// substitute for both the check mark and the em dash: with digits
// nearby it reads as a check, alone it reads as a dash.
func normalizeCellText(raw string) string {
	const middleDot = "·"
	stripped := strings.TrimSpace(raw)
	if stripped == "" {
		return ""
	}
	if stripped == middleDot {
		return "—"
	}
	if strings.Contains(raw, middleDot) {
		if strings.ContainsAny(stripped, "0123456789") {
			return strings.ReplaceAll(raw, middleDot, "✓")
		}
		return strings.ReplaceAll(raw, middleDot, "—")
	}
	return raw
}

func medianHeight(glyphs []docsource.Glyph) float64 {
	var heights []float64
	for _, g := range glyphs {
		if h := g.Height(); h > 0 {
			heights = append(heights, h)
		}
	}
	if len(heights) == 0 {
		return 10.0
	}
	sort.Float64s(heights)
	return heights[len(heights)/2]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
