package docsource

import (
	"fmt"
)

// Coordinate convention: all positions use a top-left origin with y
// increasing downward, measured in PDF points. Backends that produce
// bottom-left coordinates flip them against the page height before
// returning anything.

// Glyph is one positioned text fragment extracted from a page.
type Glyph struct {
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	Text string  `json:"text"`
	Page int     `json:"page"`
}

// Height returns the vertical extent of the glyph box.
func (g Glyph) Height() float64 {
	if g.Y1 < g.Y0 {
		return 0
	}
	return g.Y1 - g.Y0
}

// Width returns the horizontal extent of the glyph box.
func (g Glyph) Width() float64 {
	if g.X1 < g.X0 {
		return 0
	}
	return g.X1 - g.X0
}

// CenterX returns the horizontal center of the glyph box.
func (g Glyph) CenterX() float64 { return (g.X0 + g.X1) / 2 }

// CenterY returns the vertical center of the glyph box.
func (g Glyph) CenterY() float64 { return (g.Y0 + g.Y1) / 2 }

// Segment is a straight line from the page's vector drawing layer.
type Segment struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// DX returns the absolute horizontal run of the segment.
func (s Segment) DX() float64 {
	d := s.X1 - s.X0
	if d < 0 {
		return -d
	}
	return d
}

// DY returns the absolute vertical run of the segment.
func (s Segment) DY() float64 {
	d := s.Y1 - s.Y0
	if d < 0 {
		return -d
	}
	return d
}

// Rect is an axis-aligned rectangle in page coordinates.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// PageSize holds the media box dimensions of one page in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BackendKind identifies a concrete extraction backend.
type BackendKind string

const (
	BackendLedongthuc BackendKind = "ledongthuc"
	BackendPDFCPU     BackendKind = "pdfcpu"
)

// BackendError wraps a failure inside one extraction backend.
type BackendError struct {
	Backend BackendKind
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend error in %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Common error values shared across backends.
var (
	ErrDocumentClosed = fmt.Errorf("document is closed")
	ErrInvalidPage    = fmt.Errorf("invalid page index")
	ErrNoBackend      = fmt.Errorf("no extraction backend could open the document")
)
