package docsource

import (
	"fmt"
)

// Factory opens documents by trying extraction backends in a fixed
// priority order. The first backend whose probe page yields any glyphs
// handles the whole document; falling through to a non-primary backend
// is recorded as a warning, not an error.
type Factory struct {
	backends []Backend
}

// NewFactory creates a factory with the default backend order:
// ledongthuc first for text, pdfcpu as fallback.
func NewFactory() *Factory {
	return &Factory{
		backends: []Backend{
			NewLedongthucBackend(),
			NewPDFCPUBackend(),
		},
	}
}

// NewFactoryWithBackends creates a factory with an explicit chain.
// Used by tests to inject fakes.
func NewFactoryWithBackends(backends ...Backend) *Factory {
	return &Factory{backends: backends}
}

// Handle is an open document bound to its selected glyph backend. When
// the glyph backend cannot serve the vector layer, segments come from a
// secondary pdfcpu handle on the same file.
type Handle struct {
	primary   Document
	vector    Document
	kind      BackendKind
	warnings  []string
	pageCount int
}

// OpenFile probes the backend chain against path and returns a Handle
// bound to the first backend that produced glyphs. Per-backend failures
// are collected; they only surface when every backend fails.
func (f *Factory) OpenFile(path string) (*Handle, error) {
	var warnings []string
	for i, b := range f.backends {
		doc, err := b.OpenFile(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: open failed: %v", b.Kind(), err))
			continue
		}
		if doc.PageCount() < 1 {
			warnings = append(warnings, fmt.Sprintf("%s: document has no pages", b.Kind()))
			_ = doc.Close()
			continue
		}
		glyphs, err := doc.Glyphs(0)
		if err != nil || len(glyphs) == 0 {
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: probe failed: %v", b.Kind(), err))
			} else {
				warnings = append(warnings, fmt.Sprintf("%s: probe page yielded no text", b.Kind()))
			}
			_ = doc.Close()
			continue
		}

		if i > 0 {
			warnings = append(warnings, fmt.Sprintf("primary backend unavailable, using %s", b.Kind()))
		}
		h := &Handle{
			primary:   doc,
			kind:      b.Kind(),
			warnings:  warnings,
			pageCount: doc.PageCount(),
		}
		h.attachVectorSource(path)
		return h, nil
	}
	return nil, fmt.Errorf("%w: %s (%v)", ErrNoBackend, path, warnings)
}

// attachVectorSource opens a pdfcpu handle for the vector layer when
// the primary backend cannot provide one. A failure here degrades grid
// detection to the text-only heuristic; it never fails the open.
func (h *Handle) attachVectorSource(path string) {
	if h.kind == BackendPDFCPU {
		h.vector = h.primary
		return
	}
	doc, err := NewPDFCPUBackend().OpenFile(path)
	if err != nil {
		h.warnings = append(h.warnings, fmt.Sprintf("vector layer unavailable: %v", err))
		return
	}
	h.vector = doc
}

// Backend reports which backend serves glyphs for this document.
func (h *Handle) Backend() BackendKind { return h.kind }

// Warnings returns backend selection warnings recorded at open time.
func (h *Handle) Warnings() []string { return h.warnings }

// PageCount returns the number of pages in the document.
func (h *Handle) PageCount() int { return h.pageCount }

// Size returns the media box dimensions of one page.
func (h *Handle) Size(page int) (PageSize, error) {
	return h.primary.Size(page)
}

// Glyphs returns the positioned text fragments of one page.
func (h *Handle) Glyphs(page int) ([]Glyph, error) {
	return h.primary.Glyphs(page)
}

// Segments returns the vector line segments of one page, or nil when
// no vector source is available.
func (h *Handle) Segments(page int) ([]Segment, error) {
	if h.vector == nil {
		return nil, nil
	}
	return h.vector.Segments(page)
}

// TextInRect returns the merged text of the glyphs inside rect on one
// page, in reading order.
func (h *Handle) TextInRect(page int, rect Rect) (string, error) {
	glyphs, err := h.primary.Glyphs(page)
	if err != nil {
		return "", err
	}
	return TextInRect(glyphs, rect), nil
}

// Close releases both underlying documents.
func (h *Handle) Close() error {
	var first error
	if h.primary != nil {
		first = h.primary.Close()
	}
	if h.vector != nil && h.vector != h.primary {
		if err := h.vector.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
