package layout

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"maraudit/internal/docsource"
	"maraudit/internal/geometry"
)

// DayBand is the x interval of one day column, tagged with its
// day-of-month numeral from the calendar header.
type DayBand struct {
	Band geometry.Band
	Day  int
}

const (
	// Provisional padding around a header numeral's span box.
	numeralPad = 14.0

	// A detected vertical ruling within this window of the numeral
	// center snaps the band edge to it.
	snapWindow = 20.0
)

// DetectDayBands builds day column x-bands from the header numerals
// (1..31), snapping band edges to vertical rulings when the geometry
// provides them, then de-duplicating near-equal bands.
func DetectDayBands(glyphs []docsource.Glyph, geo *geometry.PageGeometry) []DayBand {
	// Backends may emit one glyph per character, so "15" arrives as
	// "1","5". Coalesce digit glyphs that touch on the same baseline
	// into numerals before parsing.
	digits := make([]docsource.Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		t := strings.TrimSpace(g.Text)
		if t == "" || !isAllDigits(t) {
			continue
		}
		digits = append(digits, g)
	}
	sort.Slice(digits, func(i, j int) bool {
		if digits[i].Y0 != digits[j].Y0 {
			return digits[i].Y0 < digits[j].Y0
		}
		return digits[i].X0 < digits[j].X0
	})

	type numeral struct {
		day    int
		x0, x1 float64
	}
	var numerals []numeral
	flush := func(text string, x0, x1 float64) {
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > 31 {
			return
		}
		numerals = append(numerals, numeral{day: n, x0: x0, x1: x1})
	}
	var (
		runText   string
		rx0, rx1  float64
		runY      float64
		haveRun   bool
		digitJoin = 2.5
	)
	for _, g := range digits {
		t := strings.TrimSpace(g.Text)
		if haveRun && math.Abs(g.Y0-runY) <= 1.5 && g.X0-rx1 <= digitJoin {
			runText += t
			if g.X1 > rx1 {
				rx1 = g.X1
			}
			continue
		}
		if haveRun {
			flush(runText, rx0, rx1)
		}
		runText, rx0, rx1, runY, haveRun = t, g.X0, g.X1, g.Y0, true
	}
	if haveRun {
		flush(runText, rx0, rx1)
	}
	if len(numerals) == 0 {
		return nil
	}
	sort.Slice(numerals, func(i, j int) bool { return numerals[i].x0 < numerals[j].x0 })

	var rulings []float64
	if geo != nil {
		rulings = geo.ColEdges
	}

	var bands []DayBand
	for _, n := range numerals {
		x0 := n.x0 - numeralPad
		x1 := n.x1 + numeralPad
		center := (n.x0 + n.x1) / 2

		if len(rulings) > 0 {
			lx, rx := math.Inf(-1), math.Inf(1)
			for _, x := range rulings {
				if x <= center && x > lx {
					lx = x
				}
				if x >= center && x < rx {
					rx = x
				}
			}
			if !math.IsInf(lx, -1) && !math.IsInf(rx, 1) &&
				center-lx <= snapWindow && rx-center <= snapWindow && rx > lx+4 {
				x0, x1 = lx, rx
			}
		}
		bands = append(bands, DayBand{Band: geometry.Band{Start: x0, End: x1}, Day: n.day})
	}

	// Repeated numerals (the same day printed twice in a messy
	// header) merge; overlapping bands of different days split at the
	// midpoint so each day keeps a disjoint column.
	var merged []DayBand
	for _, b := range bands {
		if len(merged) == 0 {
			merged = append(merged, b)
			continue
		}
		prev := &merged[len(merged)-1]
		switch {
		case b.Day == prev.Day && b.Band.Start <= prev.Band.End+6:
			if b.Band.End > prev.Band.End {
				prev.Band.End = b.Band.End
			}
		case b.Band.Start < prev.Band.End:
			mid := (prev.Band.End + b.Band.Start) / 2
			prev.Band.End = mid
			b.Band.Start = mid
			merged = append(merged, b)
		default:
			merged = append(merged, b)
		}
	}
	return merged
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// BandForDay returns the day band matching a day of month, or nil.
func BandForDay(bands []DayBand, day int) *DayBand {
	for i := range bands {
		if bands[i].Day == day {
			return &bands[i]
		}
	}
	return nil
}
