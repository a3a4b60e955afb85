package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maraudit/internal/decision"
	"maraudit/internal/docsource"
)

type fakeDocument struct {
	glyphs   map[int][]docsource.Glyph
	segments map[int][]docsource.Segment
	pages    int
}

func (d *fakeDocument) PageCount() int { return d.pages }

func (d *fakeDocument) Size(int) (docsource.PageSize, error) {
	return docsource.PageSize{Width: 612, Height: 792}, nil
}

func (d *fakeDocument) Glyphs(page int) ([]docsource.Glyph, error) {
	return d.glyphs[page], nil
}

func (d *fakeDocument) Segments(page int) ([]docsource.Segment, error) {
	return d.segments[page], nil
}

func (d *fakeDocument) Close() error { return nil }

// fakeBackend claims the pdfcpu kind so the factory reuses it for the
// vector layer instead of opening the path for real.
type fakeBackend struct {
	doc func() *fakeDocument
}

func (b fakeBackend) Kind() docsource.BackendKind { return docsource.BackendPDFCPU }

func (b fakeBackend) OpenFile(string) (docsource.Document, error) {
	return b.doc(), nil
}

func g(text string, x0, y0, x1, y1 float64) docsource.Glyph {
	return docsource.Glyph{Text: text, X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func hSeg(y, x0, x1 float64) docsource.Segment {
	return docsource.Segment{X0: x0, Y0: y, X1: x1, Y1: y}
}

func vSeg(x, y0, y1 float64) docsource.Segment {
	return docsource.Segment{X0: x, Y0: y0, X1: x, Y1: y1}
}

// gridPage builds one ruled schedule page: a header band of day
// numerals, an AM row given with a time, a PM row crossed out, and a
// BP row, with the room and hold rule in the parameter strip.
func gridPage() (glyphs []docsource.Glyph, segments []docsource.Segment) {
	segments = []docsource.Segment{
		hSeg(90, 180, 420), hSeg(110, 180, 420), hSeg(140, 180, 420),
		hSeg(170, 180, 420), hSeg(200, 180, 420),
		vSeg(200, 40, 210), vSeg(240, 40, 210), vSeg(280, 40, 210), vSeg(320, 40, 210),
	}
	glyphs = []docsource.Glyph{
		// day header numerals centered in the three day columns
		g("1", 217, 95, 223, 105),
		g("2", 257, 95, 263, 105),
		g("3", 297, 95, 303, 105),
		// AM row: strip with room, rule, and track label
		g("204-1", 20, 112, 50, 122),
		g("AM", 155, 112, 170, 122),
		g("Hold if SBP > 160", 20, 124, 150, 134),
		g("√", 250, 115, 256, 125),
		g("bakk", 257, 115, 270, 125),
		g("08:00", 250, 127, 270, 135),
		// PM row crossed out for day 2
		g("PM", 20, 145, 32, 155),
		g("X", 255, 145, 262, 155),
		// BP row vitals for day 2
		g("BP", 20, 175, 34, 185),
		g("165/70", 245, 175, 275, 185),
	}
	return glyphs, segments
}

// fallbackPage builds the same schedule without any vector rulings so
// the density heuristic carries the page.
func fallbackPage() []docsource.Glyph {
	return []docsource.Glyph{
		g("1", 215, 95, 221, 105),
		g("2", 253, 95, 259, 105),
		g("3", 291, 95, 297, 105),
		// AM row: room and rule share the strip line
		g("204-1", 20, 112, 50, 122),
		g("Hold if SBP > 160", 55, 112, 190, 122),
		g("AM", 210, 112, 225, 122),
		g("√bakk", 250, 112, 264, 122),
		g("X", 290, 112, 297, 122),
		// PM row
		g("PM", 20, 145, 32, 155),
		g("√", 215, 145, 221, 155),
		g("X", 253, 145, 260, 155),
		g("√", 291, 145, 297, 155),
		// BP row
		g("BP", 20, 175, 34, 185),
		g("150/80", 210, 175, 230, 185),
		g("165/70", 245, 175, 267, 185),
		g("140/72", 283, 175, 305, 185),
	}
}

func newRunner(glyphs []docsource.Glyph, segments []docsource.Segment) *Runner {
	backend := fakeBackend{doc: func() *fakeDocument {
		return &fakeDocument{
			glyphs:   map[int][]docsource.Glyph{0: glyphs},
			segments: map[int][]docsource.Segment{0: segments},
			pages:    1,
		}
	}}
	return NewRunner(docsource.NewFactoryWithBackends(backend), NewLayoutCache())
}

func TestRunGridPage(t *testing.T) {
	glyphs, segments := gridPage()
	runner := newRunner(glyphs, segments)

	res, err := runner.Run(context.Background(), "schedule.pdf", Options{Date: "08-14-2025", Day: 2})
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	byKind := map[decision.Kind]decision.Record{}
	for _, rec := range res.Records {
		byKind[rec.Decision] = rec
	}

	miss, ok := byKind[decision.HoldMiss]
	require.True(t, ok, "expected a hold-miss record")
	assert.Equal(t, "204-1", miss.Room)
	assert.Equal(t, "Holaday", miss.Hall)
	assert.Equal(t, decision.TrackAM, miss.Track)
	assert.Equal(t, "08:00", miss.Admin.Time)
	require.NotNil(t, miss.Measured.SBP)
	assert.Equal(t, 165, *miss.Measured.SBP)
	assert.Equal(t, 2, miss.Source.Col)
	assert.Equal(t, 1, miss.Source.Page)

	dcd, ok := byKind[decision.DCd]
	require.True(t, ok, "expected a dc'd record")
	assert.Equal(t, decision.TrackPM, dcd.Track)

	assert.Equal(t, decision.Summary{Reviewed: 2, HoldMiss: 1, DCd: 1}, res.Summary)
	assert.Equal(t, "Holaday", res.Hall)
	assert.Empty(t, res.Diagnostics.NoGridPages)
}

func TestRunEmptyDayColumn(t *testing.T) {
	glyphs, segments := gridPage()
	runner := newRunner(glyphs, segments)

	res, err := runner.Run(context.Background(), "schedule.pdf", Options{Date: "08-13-2025", Day: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, decision.Summary{}, res.Summary)
}

func TestRunFallbackPage(t *testing.T) {
	runner := newRunner(fallbackPage(), nil)

	res, err := runner.Run(context.Background(), "flat.pdf", Options{Date: "08-14-2025", Day: 2})
	require.NoError(t, err)

	assert.Equal(t, []int{1}, res.Diagnostics.NoGridPages)
	require.Len(t, res.Records, 2)

	byKind := map[decision.Kind]decision.Record{}
	for _, rec := range res.Records {
		byKind[rec.Decision] = rec
	}
	miss := byKind[decision.HoldMiss]
	assert.Equal(t, "204-1", miss.Room)
	require.NotNil(t, miss.Measured.SBP)
	assert.Equal(t, 165, *miss.Measured.SBP)
	assert.Equal(t, decision.TrackPM, byKind[decision.DCd].Track)
}

func TestRunPopulatesLayoutCache(t *testing.T) {
	glyphs, segments := gridPage()
	cache := NewLayoutCache()
	backend := fakeBackend{doc: func() *fakeDocument {
		return &fakeDocument{
			glyphs:   map[int][]docsource.Glyph{0: glyphs},
			segments: map[int][]docsource.Segment{0: segments},
			pages:    1,
		}
	}}
	runner := NewRunner(docsource.NewFactoryWithBackends(backend), cache)

	first, err := runner.Run(context.Background(), "schedule.pdf", Options{Date: "08-14-2025", Day: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len(CanonicalPath("schedule.pdf")))

	second, err := runner.Run(context.Background(), "schedule.pdf", Options{Date: "08-14-2025", Day: 2})
	require.NoError(t, err)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, len(first.Records), len(second.Records))
}

func TestRunProgressPanicsAreSwallowed(t *testing.T) {
	glyphs, segments := gridPage()
	runner := newRunner(glyphs, segments)

	res, err := runner.Run(context.Background(), "schedule.pdf", Options{
		Date: "08-14-2025", Day: 2,
		Progress: func(int) { panic("listener went away") },
	})
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
}

func TestRunRejectsBadDay(t *testing.T) {
	glyphs, segments := gridPage()
	runner := newRunner(glyphs, segments)

	_, err := runner.Run(context.Background(), "schedule.pdf", Options{Day: 0})
	assert.Error(t, err)
	_, err = runner.Run(context.Background(), "schedule.pdf", Options{Day: 32})
	assert.Error(t, err)
}

func TestRunCancelledContext(t *testing.T) {
	glyphs, segments := gridPage()
	runner := newRunner(glyphs, segments)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.Run(ctx, "schedule.pdf", Options{Date: "08-14-2025", Day: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate(t *testing.T) {
	glyphs, segments := gridPage()
	runner := newRunner(glyphs, segments)

	pages, warnings, err := runner.Validate("schedule.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	assert.Empty(t, warnings)
}

func TestReviewedInvariant(t *testing.T) {
	glyphs, segments := gridPage()
	runner := newRunner(glyphs, segments)

	res, err := runner.Run(context.Background(), "schedule.pdf", Options{Date: "08-14-2025", Day: 2})
	require.NoError(t, err)

	slots := map[decision.SlotKey]bool{}
	for _, rec := range res.Records {
		slots[decision.SlotKey{
			Room: rec.Room, Track: rec.Track, Date: rec.Date,
			Page: rec.Source.Page, Col: rec.Source.Col,
		}] = true
	}
	assert.Equal(t, len(slots), res.Summary.Reviewed)
}
