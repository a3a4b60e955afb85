// Package audit orchestrates a full hold-rule audit of one schedule
// document: pages fan out across a bounded worker pool, each worker
// owning its own document handle, and the coordinator merges page
// results, fills the layout cache, and derives the summary.
package audit

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"maraudit/internal/decision"
	"maraudit/internal/docsource"
)

// Opener opens documents. Satisfied by docsource.Factory; tests
// substitute fakes.
type Opener interface {
	OpenFile(path string) (*docsource.Handle, error)
}

// Options configures one audit run.
type Options struct {
	// Date is recorded verbatim on every decision record.
	Date string
	// Day selects the day-of-month column to audit.
	Day int
	// Workers bounds the page pool; 0 means max(1, NumCPU-1).
	Workers int
	// Pages restricts the run to specific 0-based pages; nil means all.
	Pages []int
	// Progress, when set, is called after each page completes. It may
	// be called concurrently from any worker; panics are swallowed.
	Progress func(page int)
}

// Diagnostics collects the non-fatal anomalies of a run.
type Diagnostics struct {
	NoGridPages   []int    `json:"no_grid_pages,omitempty"`
	RejectedRules []string `json:"rejected_rules,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Result is the complete output of one audit run.
type Result struct {
	Records     []decision.Record `json:"records"`
	Summary     decision.Summary  `json:"summary"`
	Hall        string            `json:"hall,omitempty"`
	Diagnostics Diagnostics       `json:"diagnostics"`
}

// Runner executes audits. Safe for concurrent use; the layout cache
// is shared across runs for the process lifetime.
type Runner struct {
	opener Opener
	cache  *LayoutCache
}

func NewRunner(opener Opener, cache *LayoutCache) *Runner {
	if cache == nil {
		cache = NewLayoutCache()
	}
	return &Runner{opener: opener, cache: cache}
}

// Run audits every requested page of the document at path for the
// given day column. The only unrecoverable error is failing to open
// the document (or cancellation); everything else degrades into
// Diagnostics.
func (r *Runner) Run(ctx context.Context, path string, opts Options) (*Result, error) {
	if opts.Day < 1 || opts.Day > 31 {
		return nil, fmt.Errorf("audit day must be 1-31, got %d", opts.Day)
	}

	canonical := CanonicalPath(path)

	probe, err := r.opener.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	pageCount := probe.PageCount()
	openWarnings := append([]string(nil), probe.Warnings()...)
	_ = probe.Close()

	pages := opts.Pages
	if pages == nil {
		pages = make([]int, pageCount)
		for i := range pages {
			pages[i] = i
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 1 {
			workers = 1
		}
	}
	chunks := chunkPages(pages, workers)

	results := make([][]pageResult, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	for ci, chunk := range chunks {
		g.Go(func() error {
			h, err := r.opener.OpenFile(path)
			if err != nil {
				return fmt.Errorf("worker open: %w", err)
			}
			defer h.Close()

			for _, page := range chunk {
				if err := ctx.Err(); err != nil {
					return err
				}
				var cached *PageLayout
				if pl, ok := r.cache.Get(canonical, page); ok {
					cached = &pl
				}
				res := auditPage(h, cached, page, opts.Day, opts.Date)
				results[ci] = append(results[ci], res)
				reportProgress(opts.Progress, page)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []pageResult
	for _, rs := range results {
		merged = append(merged, rs...)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].page < merged[j].page })

	agg := decision.NewAggregator()
	out := &Result{Diagnostics: Diagnostics{Warnings: openWarnings}}
	for _, pr := range merged {
		r.cache.Put(canonical, pr.page, pr.layout)
		agg.Add(pr.records...)
		if pr.noGrid {
			out.Diagnostics.NoGridPages = append(out.Diagnostics.NoGridPages, pr.page+1)
		}
		out.Diagnostics.RejectedRules = append(out.Diagnostics.RejectedRules, pr.rejected...)
		out.Diagnostics.Warnings = append(out.Diagnostics.Warnings, pr.warnings...)
	}
	out.Records = agg.Records()
	out.Summary = agg.Summary()
	out.Hall = dominantHall(out.Records)

	if len(out.Diagnostics.NoGridPages) > 0 {
		log.Printf("audit %s: no grid on pages %v, used density fallback", canonical, out.Diagnostics.NoGridPages)
	}
	return out, nil
}

// Validate opens the document and reports its page count plus any
// backend selection warnings, without running an audit.
func (r *Runner) Validate(path string) (pageCount int, warnings []string, err error) {
	h, err := r.opener.OpenFile(path)
	if err != nil {
		return 0, nil, err
	}
	defer h.Close()
	return h.PageCount(), h.Warnings(), nil
}

// chunkPages partitions pages into up to n contiguous chunks so each
// worker opens the document once and sweeps a run of pages.
func chunkPages(pages []int, n int) [][]int {
	if len(pages) == 0 {
		return nil
	}
	if n > len(pages) {
		n = len(pages)
	}
	size := (len(pages) + n - 1) / n
	var chunks [][]int
	for start := 0; start < len(pages); start += size {
		end := start + size
		if end > len(pages) {
			end = len(pages)
		}
		chunks = append(chunks, pages[start:end])
	}
	return chunks
}

// reportProgress shields page processing from misbehaving callbacks.
func reportProgress(fn func(int), page int) {
	if fn == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	fn(page)
}

// dominantHall picks the hall seen most often across the records.
func dominantHall(records []decision.Record) string {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Hall != "" {
			counts[rec.Hall]++
		}
	}
	best := ""
	bestN := 0
	for hall, n := range counts {
		if n > bestN || (n == bestN && (best == "" || hall < best)) {
			best, bestN = hall, n
		}
	}
	return best
}
