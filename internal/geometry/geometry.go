// Package geometry reconstructs the day/track grid of a schedule page
// from its vector line segments. Detection is best-effort: pages whose
// drawing layer carries no usable rulings report no geometry and the
// caller falls back to a text-position heuristic.
package geometry

import (
	"math"
	"sort"

	"maraudit/internal/docsource"
)

const (
	// Segment classification thresholds.
	axisJitter  = 1.2
	minLenFloor = 48.0
	hLenFrac    = 0.35
	vLenFrac    = 0.20

	// Same-axis positions within this tolerance collapse into one edge.
	clusterTol = 1.4

	// Edges are clipped to the glyph extent with this margin, and the
	// extent itself becomes a synthetic boundary edge when needed.
	clipMargin  = 6.0
	boundaryPad = 4.0
)

// Band is a half-open interval on one axis.
type Band struct {
	Start float64
	End   float64
}

// Contains reports whether coord falls inside the band.
func (b Band) Contains(coord float64) bool {
	return coord >= b.Start && coord <= b.End
}

// Center returns the midpoint of the band.
func (b Band) Center() float64 { return (b.Start + b.End) / 2 }

// PageGeometry holds the detected grid edges of one page. GridLeft is
// the leftmost ruled vertical edge, before any synthetic boundary edge
// is inserted; everything left of it is the parameter strip region.
type PageGeometry struct {
	Page     int
	RowEdges []float64
	ColEdges []float64
	GridLeft float64
}

// RowBands returns the row intervals between consecutive row edges.
func (g *PageGeometry) RowBands() []Band { return bandsFromEdges(g.RowEdges) }

// ColBands returns the column intervals between consecutive col edges.
func (g *PageGeometry) ColBands() []Band { return bandsFromEdges(g.ColEdges) }

func bandsFromEdges(edges []float64) []Band {
	if len(edges) < 2 {
		return nil
	}
	bands := make([]Band, 0, len(edges)-1)
	for i := 0; i+1 < len(edges); i++ {
		bands = append(bands, Band{Start: edges[i], End: edges[i+1]})
	}
	return bands
}

// FindBand returns the index of the band containing coord, or -1.
func FindBand(bands []Band, coord float64) int {
	for i, b := range bands {
		if b.Contains(coord) {
			return i
		}
	}
	return -1
}

// Build derives the page grid from vector segments, anchored to the
// glyph extent. It returns nil when fewer than 2 row edges or 3 column
// edges survive, which the caller treats as "no vector grid".
func Build(page int, size docsource.PageSize, segments []docsource.Segment, glyphs []docsource.Glyph) *PageGeometry {
	if len(segments) == 0 || len(glyphs) == 0 {
		return nil
	}

	width := size.Width
	if width <= 0 {
		width = 612.0
	}
	height := size.Height
	if height <= 0 {
		height = 792.0
	}
	minHLen := math.Max(minLenFloor, width*hLenFrac)
	minVLen := math.Max(minLenFloor, height*vLenFrac)

	var horizontals, verticals []float64
	for _, s := range segments {
		switch {
		case s.DY() <= axisJitter && s.DX() >= minHLen:
			horizontals = append(horizontals, (s.Y0+s.Y1)/2)
		case s.DX() <= axisJitter && s.DY() >= minVLen:
			verticals = append(verticals, (s.X0+s.X1)/2)
		}
	}

	horizontals = clusterPositions(horizontals, clusterTol)
	verticals = clusterPositions(verticals, clusterTol)
	if len(horizontals) < 2 || len(verticals) < 3 {
		return nil
	}

	yMin, yMax := math.Inf(1), math.Inf(-1)
	xMin, xMax := math.Inf(1), math.Inf(-1)
	for _, g := range glyphs {
		yMin = math.Min(yMin, g.Y0)
		yMax = math.Max(yMax, g.Y1)
		xMin = math.Min(xMin, g.X0)
		xMax = math.Max(xMax, g.X1)
	}

	horizontals = clipToExtent(horizontals, yMin, yMax)
	verticals = clipToExtent(verticals, xMin, xMax)
	if len(verticals) == 0 {
		return nil
	}
	gridLeft := verticals[0]

	horizontals = ensureBounds(horizontals, yMin, yMax)
	verticals = ensureBounds(verticals, xMin, xMax)

	if len(horizontals) < 2 || len(verticals) < 3 {
		return nil
	}

	return &PageGeometry{Page: page, RowEdges: horizontals, ColEdges: verticals, GridLeft: gridLeft}
}

// clusterPositions merges same-axis positions within tolerance by
// iterative averaging over the sorted values.
func clusterPositions(values []float64, tol float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	clusters := []float64{sorted[0]}
	for _, v := range sorted[1:] {
		last := len(clusters) - 1
		if math.Abs(v-clusters[last]) <= tol {
			clusters[last] = (clusters[last] + v) / 2
		} else {
			clusters = append(clusters, v)
		}
	}
	return clusters
}

func clipToExtent(values []float64, minimum, maximum float64) []float64 {
	out := values[:0]
	for _, v := range values {
		if v >= minimum-clipMargin && v <= maximum+clipMargin {
			out = append(out, v)
		}
	}
	return out
}

// ensureBounds inserts the glyph extent as a synthetic boundary edge
// when no detected edge reaches it, so the first and last band always
// contain every glyph.
func ensureBounds(values []float64, minimum, maximum float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if minimum < sorted[0] {
		sorted = append([]float64{minimum - boundaryPad}, sorted...)
	}
	if maximum > sorted[len(sorted)-1] {
		sorted = append(sorted, maximum+boundaryPad)
	}

	deduped := sorted[:0]
	for _, v := range sorted {
		if len(deduped) == 0 || math.Abs(v-deduped[len(deduped)-1]) > 0.5 {
			deduped = append(deduped, v)
		}
	}
	return deduped
}

// HasVectorX reports whether rect contains a pair of crossing diagonal
// segments, the drawn form of a discontinued ("X'd out") dose cell.
func HasVectorX(segments []docsource.Segment, rect docsource.Rect) bool {
	var up, down bool
	for _, s := range segments {
		if !rect.Contains((s.X0+s.X1)/2, (s.Y0+s.Y1)/2) {
			continue
		}
		dx, dy := s.DX(), s.DY()
		if dx < 3 || dy < 3 {
			continue // axis-aligned or too short to be a stroke of an X
		}
		slope := (s.Y1 - s.Y0) / (s.X1 - s.X0)
		if slope > 0.25 {
			down = true
		} else if slope < -0.25 {
			up = true
		}
		if up && down {
			return true
		}
	}
	return up && down
}
