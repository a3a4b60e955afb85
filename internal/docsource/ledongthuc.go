package docsource

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// LedongthucBackend extracts positioned text using ledongthuc/pdf.
// It is the primary glyph backend: lightweight, pure Go, and the only
// one in the chain that reports per-fragment font metrics. It has no
// access to the vector drawing layer, so Segments always comes back
// empty and grid geometry must be sourced elsewhere.
type LedongthucBackend struct{}

// NewLedongthucBackend creates the ledongthuc/pdf backend.
func NewLedongthucBackend() *LedongthucBackend {
	return &LedongthucBackend{}
}

// Kind returns the backend identifier.
func (b *LedongthucBackend) Kind() BackendKind { return BackendLedongthuc }

// OpenFile opens a PDF from a file path.
func (b *LedongthucBackend) OpenFile(path string) (Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &BackendError{Backend: BackendLedongthuc, Op: "open_file", Err: err}
	}
	return &ledongthucDocument{file: f, reader: reader}, nil
}

type ledongthucDocument struct {
	file   *os.File
	reader *pdf.Reader
	closed bool
}

func (d *ledongthucDocument) PageCount() int {
	if d.closed {
		return 0
	}
	return d.reader.NumPage()
}

func (d *ledongthucDocument) Size(page int) (PageSize, error) {
	if d.closed {
		return PageSize{}, &BackendError{Backend: BackendLedongthuc, Op: "size", Err: ErrDocumentClosed}
	}
	if page < 0 || page >= d.reader.NumPage() {
		return PageSize{}, &BackendError{Backend: BackendLedongthuc, Op: "size", Err: ErrInvalidPage}
	}
	p := d.reader.Page(page + 1)
	return mediaBoxSize(p), nil
}

// Glyphs returns the positioned text fragments of one page, flipped to
// the top-left coordinate convention.
func (d *ledongthucDocument) Glyphs(page int) ([]Glyph, error) {
	if d.closed {
		return nil, &BackendError{Backend: BackendLedongthuc, Op: "glyphs", Err: ErrDocumentClosed}
	}
	if page < 0 || page >= d.reader.NumPage() {
		return nil, &BackendError{
			Backend: BackendLedongthuc,
			Op:      "glyphs",
			Err:     fmt.Errorf("%w: %d of %d", ErrInvalidPage, page, d.reader.NumPage()),
		}
	}

	p := d.reader.Page(page + 1)
	size := mediaBoxSize(p)
	content := p.Content()

	glyphs := make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		height := t.FontSize
		if height == 0 {
			height = 12.0
		}
		// ledongthuc reports the baseline origin in bottom-left user
		// space; convert to a top-origin box.
		glyphs = append(glyphs, Glyph{
			X0:   t.X,
			Y0:   size.Height - (t.Y + height),
			X1:   t.X + t.W,
			Y1:   size.Height - t.Y,
			Text: t.S,
			Page: page,
		})
	}
	return glyphs, nil
}

// Segments is unsupported by ledongthuc/pdf; the empty result makes
// the caller fall through to another segment source or the text-only
// geometry heuristic.
func (d *ledongthucDocument) Segments(page int) ([]Segment, error) {
	if d.closed {
		return nil, &BackendError{Backend: BackendLedongthuc, Op: "segments", Err: ErrDocumentClosed}
	}
	return nil, nil
}

func (d *ledongthucDocument) Close() error {
	d.closed = true
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

// mediaBoxSize reads the page MediaBox, defaulting to US Letter when
// the entry is missing or malformed.
func mediaBoxSize(p pdf.Page) PageSize {
	size := PageSize{Width: 612.0, Height: 792.0}
	box := p.V.Key("MediaBox")
	if box.Len() == 4 {
		x0 := box.Index(0).Float64()
		y0 := box.Index(1).Float64()
		x1 := box.Index(2).Float64()
		y1 := box.Index(3).Float64()
		if x1 > x0 && y1 > y0 {
			size.Width = x1 - x0
			size.Height = y1 - y0
		}
	}
	return size
}
