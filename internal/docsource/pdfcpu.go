package docsource

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPUBackend extracts content by decoding page content streams with
// pdfcpu. It is the only backend with access to the vector drawing
// layer, so it always serves Segments; as a glyph source it is the
// fallback, with cruder positioning than ledongthuc (glyph widths are
// approximated from the font size).
type PDFCPUBackend struct{}

// NewPDFCPUBackend creates the pdfcpu backend.
func NewPDFCPUBackend() *PDFCPUBackend {
	return &PDFCPUBackend{}
}

// Kind returns the backend identifier.
func (b *PDFCPUBackend) Kind() BackendKind { return BackendPDFCPU }

// OpenFile opens a PDF from a file path using relaxed validation.
func (b *PDFCPUBackend) OpenFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &BackendError{Backend: BackendPDFCPU, Op: "open_file", Err: err}
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, &BackendError{
			Backend: BackendPDFCPU,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &BackendError{
			Backend: BackendPDFCPU,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	return &pdfcpuDocument{ctx: ctx}, nil
}

type pdfcpuDocument struct {
	ctx    *model.Context
	closed bool

	// scanned caches the per-page content scan; content streams are
	// decoded at most once per page per handle.
	scanned map[int]*contentScanner
}

func (d *pdfcpuDocument) PageCount() int {
	if d.closed {
		return 0
	}
	return d.ctx.PageCount
}

func (d *pdfcpuDocument) Size(page int) (PageSize, error) {
	if d.closed {
		return PageSize{}, &BackendError{Backend: BackendPDFCPU, Op: "size", Err: ErrDocumentClosed}
	}
	dims, err := d.ctx.PageDims()
	if err != nil || page < 0 || page >= len(dims) {
		return PageSize{Width: 612.0, Height: 792.0}, nil
	}
	return PageSize{Width: dims[page].Width, Height: dims[page].Height}, nil
}

func (d *pdfcpuDocument) Glyphs(page int) ([]Glyph, error) {
	cs, size, err := d.scan(page)
	if err != nil {
		return nil, err
	}
	glyphs := make([]Glyph, 0, len(cs.texts))
	for _, t := range cs.texts {
		height := t.FontSize
		width := 0.5 * t.FontSize * float64(len(t.Text))
		glyphs = append(glyphs, Glyph{
			X0:   t.X,
			Y0:   size.Height - (t.Y + height),
			X1:   t.X + width,
			Y1:   size.Height - t.Y,
			Text: t.Text,
			Page: page,
		})
	}
	return glyphs, nil
}

func (d *pdfcpuDocument) Segments(page int) ([]Segment, error) {
	cs, size, err := d.scan(page)
	if err != nil {
		return nil, err
	}
	segs := make([]Segment, 0, len(cs.segments))
	for _, s := range cs.segments {
		segs = append(segs, Segment{
			X0: s.X0,
			Y0: size.Height - s.Y0,
			X1: s.X1,
			Y1: size.Height - s.Y1,
		})
	}
	return segs, nil
}

func (d *pdfcpuDocument) Close() error {
	d.closed = true
	d.scanned = nil
	return nil
}

func (d *pdfcpuDocument) scan(page int) (*contentScanner, PageSize, error) {
	if d.closed {
		return nil, PageSize{}, &BackendError{Backend: BackendPDFCPU, Op: "scan", Err: ErrDocumentClosed}
	}
	if page < 0 || page >= d.ctx.PageCount {
		return nil, PageSize{}, &BackendError{
			Backend: BackendPDFCPU,
			Op:      "scan",
			Err:     fmt.Errorf("%w: %d of %d", ErrInvalidPage, page, d.ctx.PageCount),
		}
	}

	size, _ := d.Size(page)

	if cs, ok := d.scanned[page]; ok {
		return cs, size, nil
	}

	r, err := pdfcpu.ExtractPageContent(d.ctx, page+1)
	if err != nil {
		return nil, PageSize{}, &BackendError{
			Backend: BackendPDFCPU,
			Op:      "scan",
			Err:     fmt.Errorf("failed to extract page content: %w", err),
		}
	}

	var data []byte
	if r != nil {
		data, err = io.ReadAll(r)
		if err != nil {
			return nil, PageSize{}, &BackendError{
				Backend: BackendPDFCPU,
				Op:      "scan",
				Err:     fmt.Errorf("failed to read page content: %w", err),
			}
		}
	}

	cs := newContentScanner(data)
	cs.run()
	if d.scanned == nil {
		d.scanned = make(map[int]*contentScanner)
	}
	d.scanned[page] = cs
	return cs, size, nil
}
