package render

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/go-fitz"

	"shelf-reader/internal/domain"
)

const baseRenderDPI = 72.0

// PaginatedRenderer renders fixed-layout documents one page at a time onto a
// raster surface at a caller-selected zoom scale. The raster is paired with
// the page's text so selections can be made without altering the raster.
// Page renders are asynchronous and cancellable: a newly requested render
// supersedes any in-flight render for the same surface.
type PaginatedRenderer struct {
	logger domain.Logger

	mu        sync.Mutex // guards doc access; go-fitz is not goroutine safe
	doc       *fitz.Document
	pageCount int

	stateMu sync.Mutex // guards page and zoom; RenderCurrent reads them off-thread
	page    int        // current 1-based page
	zoom    float64

	generation atomic.Uint64

	onRelocate func(domain.Location)

	// last successfully rendered surface
	surfaceMu   sync.Mutex
	surface     image.Image
	surfacePage int
}

func NewPaginatedRenderer(logger domain.Logger) *PaginatedRenderer {
	return &PaginatedRenderer{logger: logger, zoom: 1.0}
}

func (r *PaginatedRenderer) Format() domain.DocumentFormat { return domain.FormatPaginated }

func (r *PaginatedRenderer) Open(ctx context.Context, doc *domain.Document, settings *domain.ReadingSettings) error {
	fz, err := fitz.NewFromMemory(doc.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnrenderable, err)
	}
	r.mu.Lock()
	r.doc = fz
	r.pageCount = fz.NumPage()
	r.mu.Unlock()

	r.stateMu.Lock()
	r.page = 1
	if settings != nil && settings.Zoom > 0 {
		r.zoom = settings.Zoom
	}
	if doc.CurrentPage != nil && *doc.CurrentPage >= 1 && *doc.CurrentPage <= r.pageCount {
		r.page = *doc.CurrentPage
	}
	r.stateMu.Unlock()
	return nil
}

func (r *PaginatedRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc != nil {
		err := r.doc.Close()
		r.doc = nil
		return err
	}
	return nil
}

func (r *PaginatedRenderer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc != nil
}

func (r *PaginatedRenderer) PageCount() int { return r.pageCount }

func (r *PaginatedRenderer) Location() domain.Location {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.locationLocked()
}

func (r *PaginatedRenderer) locationLocked() domain.Location {
	return domain.Location{
		Format:    domain.FormatPaginated,
		Page:      r.page,
		PageCount: r.pageCount,
		Percent:   domain.PageToPercent(r.page, r.pageCount),
	}
}

func (r *PaginatedRenderer) OnRelocate(fn func(domain.Location)) { r.onRelocate = fn }

// SetZoom changes the raster scale for subsequent renders. Stored highlight
// rects are normalized, so no re-capture is needed after a zoom change.
func (r *PaginatedRenderer) SetZoom(zoom float64) {
	if zoom > 0 {
		r.stateMu.Lock()
		r.zoom = zoom
		r.stateMu.Unlock()
	}
}

func (r *PaginatedRenderer) Zoom() float64 {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.zoom
}

// NavigateDelta turns pages. Deltas that leave [1, pageCount] are no-ops.
func (r *PaginatedRenderer) NavigateDelta(ctx context.Context, delta int) error {
	r.stateMu.Lock()
	target := r.page + delta
	r.stateMu.Unlock()
	if target < 1 || target > r.pageCount {
		return nil
	}
	return r.goToPage(target)
}

func (r *PaginatedRenderer) NavigateTo(ctx context.Context, target domain.Location) error {
	page := target.Page
	if page == 0 && target.Percent > 0 {
		page = domain.PercentToPage(target.Percent, r.pageCount)
	}
	if page < 1 {
		page = 1
	}
	if page > r.pageCount {
		page = r.pageCount
	}
	return r.goToPage(page)
}

func (r *PaginatedRenderer) goToPage(page int) error {
	r.stateMu.Lock()
	r.page = page
	loc := r.locationLocked()
	r.stateMu.Unlock()
	if r.onRelocate != nil {
		r.onRelocate(loc)
	}
	return nil
}

// RenderCurrent rasterizes the current page at the current zoom. Starting a
// new render supersedes any in-flight render: the superseded call returns
// ErrSuperseded and its result is discarded, so a stale page can never
// overwrite the current view.
func (r *PaginatedRenderer) RenderCurrent(ctx context.Context) (image.Image, error) {
	gen := r.generation.Add(1)
	r.stateMu.Lock()
	page := r.page
	dpi := baseRenderDPI * r.zoom
	r.stateMu.Unlock()

	type result struct {
		img image.Image
		err error
	}
	ch := make(chan result, 1)
	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.doc == nil {
			ch <- result{nil, domain.ErrEngineUnavailable}
			return
		}
		if r.generation.Load() != gen {
			ch <- result{nil, ErrSuperseded}
			return
		}
		img, err := r.doc.ImageDPI(page-1, dpi)
		ch <- result{img, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		if r.generation.Load() != gen {
			// A newer render started while this one was rasterizing.
			return nil, ErrSuperseded
		}
		r.surfaceMu.Lock()
		r.surface = res.img
		r.surfacePage = page
		r.surfaceMu.Unlock()
		return res.img, nil
	}
}

// Surface returns the last successfully rendered raster and its page number.
// Used by the bookmark engine as the thumbnail source.
func (r *PaginatedRenderer) Surface() (image.Image, int) {
	r.surfaceMu.Lock()
	defer r.surfaceMu.Unlock()
	return r.surface, r.surfacePage
}

// PageText returns the text layer of a page for selection and snippets.
func (r *PaginatedRenderer) PageText(page int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc == nil {
		return "", domain.ErrEngineUnavailable
	}
	if page < 1 || page > r.pageCount {
		return "", fmt.Errorf("page %d out of range", page)
	}
	return r.doc.Text(page - 1)
}

// PageBounds returns the unscaled media box of a page, the reference frame
// that selection rectangles are normalized against.
func (r *PaginatedRenderer) PageBounds(page int) (image.Rectangle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc == nil {
		return image.Rectangle{}, domain.ErrEngineUnavailable
	}
	return r.doc.Bound(page - 1)
}
