package audit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"maraudit/internal/decision"
	"maraudit/internal/docsource"
	"maraudit/internal/geometry"
	"maraudit/internal/layout"
	"maraudit/internal/rooms"
	"maraudit/internal/rules"
	"maraudit/internal/token"
)

// pageResult is everything one page contributes back to the
// coordinator: decision records, the layout for the cache, and
// per-page diagnostics.
type pageResult struct {
	page     int
	records  []decision.Record
	layout   PageLayout
	noGrid   bool
	rejected []string
	warnings []string
}

var ruleLine = regexp.MustCompile(`(?i)\b(?:SBP|HR|PULSE)\b`)

// medBlock is one resident's medication block: the rows between one
// room hint and the next, with the accumulated parameter text.
type medBlock struct {
	room     string
	ruleText []string
	rows     []layout.Row
}

// auditPage runs the full pipeline for one page: layout, block
// grouping, rule parsing, cell tokenizing, and decisions for the
// requested day column.
func auditPage(h *docsource.Handle, cached *PageLayout, page, day int, date string) pageResult {
	res := pageResult{page: page}

	glyphs, err := h.Glyphs(page)
	if err != nil {
		res.warnings = append(res.warnings, fmt.Sprintf("page %d: glyphs: %v", page+1, err))
		return res
	}
	segments, err := h.Segments(page)
	if err != nil {
		res.warnings = append(res.warnings, fmt.Sprintf("page %d: segments: %v", page+1, err))
		segments = nil
	}

	var geo *geometry.PageGeometry
	var strips []layout.Strip
	if cached != nil {
		geo = cached.Geometry
		strips = cached.Strips
	} else {
		size, sizeErr := h.Size(page)
		if sizeErr != nil {
			size = docsource.PageSize{Width: 612, Height: 792}
		}
		geo = geometry.Build(page, size, segments, glyphs)
		if geo != nil {
			strips = layout.ExtractStrips(geo, glyphs)
		} else {
			strips = layout.FallbackStrips(page, glyphs, fallbackGridLeft(glyphs, size))
		}
	}

	var rowList []layout.Row
	if geo != nil {
		rowList = layout.AssembleGrid(geo, glyphs)
	} else {
		res.noGrid = true
		rowList = layout.AssembleFallback(page, glyphs)
	}
	rowList = layout.FilterRows(rowList)
	res.layout = PageLayout{Geometry: geo, Strips: strips}

	dayBands := layout.DetectDayBands(glyphs, geo)
	band := layout.BandForDay(dayBands, day)
	if band == nil {
		return res
	}

	for _, blk := range groupBlocks(rowList, strips, geo != nil) {
		recs, rejected := auditBlock(segments, blk, band.Band, page, day, date)
		res.records = append(res.records, recs...)
		res.rejected = append(res.rejected, rejected...)
	}
	return res
}

// fallbackGridLeft estimates the grid's left edge on pages without
// vector rulings: the left edge of the first day-numeral column, or a
// fixed page fraction when no numerals are found.
func fallbackGridLeft(glyphs []docsource.Glyph, size docsource.PageSize) float64 {
	if bands := layout.DetectDayBands(glyphs, nil); len(bands) > 0 {
		return bands[0].Band.Start
	}
	return 0.45 * size.Width
}

// groupBlocks walks rows top to bottom, starting a new block whenever
// a row's strip or leading cell names a room. Strip text accumulates
// into the owning block's parameter text; rows above the first room
// hint belong to no block and are dropped.
func groupBlocks(rowList []layout.Row, strips []layout.Strip, gridPath bool) []medBlock {
	var blocks []medBlock
	for _, row := range rowList {
		text := stripTextFor(row, strips, gridPath)
		room := layout.RoomHint(text)
		if room == "" && len(row.Cells) > 0 {
			room = layout.RoomHint(row.Cells[0].Text)
		}

		if room != "" {
			blocks = append(blocks, medBlock{room: room})
		}
		if len(blocks) == 0 {
			continue
		}
		cur := &blocks[len(blocks)-1]
		cur.rows = append(cur.rows, row)
		for _, line := range strings.Split(text, "\n") {
			if ruleLine.MatchString(line) {
				cur.ruleText = append(cur.ruleText, line)
			}
		}
	}
	return blocks
}

// stripTextFor finds the parameter strip covering a row: by band index
// on the grid path, by vertical overlap on the fallback path.
func stripTextFor(row layout.Row, strips []layout.Strip, gridPath bool) string {
	if gridPath {
		if row.Band >= 0 && row.Band < len(strips) {
			return strips[row.Band].Text
		}
		return ""
	}
	best := ""
	bestOverlap := 0.0
	for _, s := range strips {
		top, bottom := s.BBox.Y0, s.BBox.Y1
		ov := minF(bottom, row.Y1) - maxF(top, row.Y0)
		if ov > bestOverlap {
			bestOverlap = ov
			best = s.Text
		}
	}
	return best
}

// auditBlock decides the AM and PM slots of one block for the day
// column. Blocks without a parseable strict rule are skipped entirely;
// they are not parametered medications.
func auditBlock(
	segments []docsource.Segment,
	blk medBlock,
	band geometry.Band,
	page, day int,
	date string,
) ([]decision.Record, []string) {
	parsed, rejected := rules.ParseStrict(strings.Join(blk.ruleText, "\n"))
	if len(parsed) == 0 {
		return nil, rejected
	}

	room, err := rooms.CanonicalRoom(blk.room)
	if err != nil {
		return nil, rejected
	}
	hall, err := rooms.HallOf(room)
	if err != nil {
		hall = ""
	}

	dueRows := map[decision.Track]*layout.Row{}
	var bpRow *layout.Row
	for i := range blk.rows {
		row := &blk.rows[i]
		if isBPRow(*row) {
			if bpRow == nil {
				bpRow = row
			}
			continue
		}
		if track, ok := trackOf(*row); ok {
			if dueRows[track] == nil {
				dueRows[track] = row
			}
		}
	}

	var bpTokens *token.CellTokens
	if bpRow != nil {
		if cell := layout.CellForBand(*bpRow, band); cell != nil {
			t := token.Tokenize(cell.Text, true)
			bpTokens = &t
		}
	}

	var out []decision.Record
	for _, track := range []decision.Track{decision.TrackAM, decision.TrackPM} {
		row := dueRows[track]
		if row == nil {
			continue
		}
		cell := layout.CellForBand(*row, band)
		if cell == nil {
			continue
		}
		due := token.Tokenize(cell.Text, false)
		if !due.XMark && geometry.HasVectorX(segments, cell.Rect()) {
			due.XMark = true
		}
		out = append(out, decision.Decide(decision.Input{
			Room: room, Hall: hall, Date: date, Track: track,
			Rules: parsed, Due: due, BP: bpTokens,
			Source: decision.Source{Page: page + 1, Col: day, Rules: parsed},
		})...)
	}
	return out, rejected
}

// isBPRow matches the vitals row of a block by its leading label.
func isBPRow(row layout.Row) bool {
	for _, cell := range leadingCells(row) {
		for _, tok := range strings.Fields(strings.ToUpper(cell)) {
			if tok == "BP" || tok == "B/P" {
				return true
			}
		}
	}
	return false
}

// trackOf classifies a row as the AM or PM dose track from its
// leading labels: literal AM/PM first, then schedule time tokens
// (block headers like "6a-10", clock times like "0800").
func trackOf(row layout.Row) (decision.Track, bool) {
	for _, cell := range leadingCells(row) {
		for _, tok := range strings.Fields(strings.ToUpper(cell)) {
			if tok == "AM" {
				return decision.TrackAM, true
			}
			if tok == "PM" || tok == "HS" {
				return decision.TrackPM, true
			}
		}
	}
	for _, cell := range leadingCells(row) {
		if cell == "" || layout.RoomHint(cell) != "" {
			continue
		}
		if track, ok := trackFromTime(cell); ok {
			return track, true
		}
	}
	return "", false
}

func trackFromTime(text string) (decision.Track, bool) {
	tn := token.NormalizeTimeToken(text)
	switch tn.Slot {
	case "am", "noon":
		return decision.TrackAM, true
	case "pm", "evening", "hs", "overnight":
		return decision.TrackPM, true
	}
	clock := tn.Normalized
	if clock == "" && tn.Range != "" {
		clock = tn.Range[:strings.Index(tn.Range, "-")]
	}
	if clock == "" {
		return "", false
	}
	hour, err := strconv.Atoi(clock[:2])
	if err != nil {
		return "", false
	}
	if hour < 12 {
		return decision.TrackAM, true
	}
	return decision.TrackPM, true
}

func leadingCells(row layout.Row) []string {
	n := 2
	if len(row.Cells) < n {
		n = len(row.Cells)
	}
	out := make([]string, 0, n)
	for _, c := range row.Cells[:n] {
		out = append(out, strings.TrimSpace(c.Text))
	}
	return out
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
