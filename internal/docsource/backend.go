package docsource

import (
	"sort"
	"strings"
)

// Backend is one concrete extraction library able to open documents.
type Backend interface {
	Kind() BackendKind
	OpenFile(path string) (Document, error)
}

// Document is an open document yielding positioned content per page.
// Page indices are zero-based. Implementations are not safe for
// concurrent use; each worker owns its own Document.
type Document interface {
	PageCount() int
	Size(page int) (PageSize, error)
	Glyphs(page int) ([]Glyph, error)
	Segments(page int) ([]Segment, error)
	Close() error
}

// TextInRect joins the text of all glyphs whose center falls inside
// rect, in (y, x) reading order. It is defined over Glyphs so every
// backend gets the same behavior.
func TextInRect(glyphs []Glyph, rect Rect) string {
	var hits []Glyph
	for _, g := range glyphs {
		if rect.Contains(g.CenterX(), g.CenterY()) {
			hits = append(hits, g)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Y0 != hits[j].Y0 {
			return hits[i].Y0 < hits[j].Y0
		}
		return hits[i].X0 < hits[j].X0
	})
	parts := make([]string, 0, len(hits))
	for _, g := range hits {
		t := strings.TrimSpace(g.Text)
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
