package reader

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"math"

	"github.com/nfnt/resize"

	"shelf-reader/internal/domain"
	"shelf-reader/internal/render"
)

const (
	thumbnailWidth  = 120
	snippetMaxChars = 120
)

// BookmarkEngine captures resumable location snapshots for one open document
// and supports jump-to-bookmark. Enrichments (thumbnail, snippet) are
// best-effort and never block the bookmark itself from saving.
type BookmarkEngine struct {
	store  domain.AnnotationStore
	logger domain.Logger

	doc       *domain.Document
	renderer  render.Renderer
	bookmarks []*domain.Bookmark
}

func NewBookmarkEngine(store domain.AnnotationStore, logger domain.Logger, doc *domain.Document, renderer render.Renderer) *BookmarkEngine {
	return &BookmarkEngine{
		store:    store,
		logger:   logger,
		doc:      doc,
		renderer: renderer,
	}
}

// Load fetches the document's bookmarks, newest first.
func (e *BookmarkEngine) Load() error {
	bookmarks, err := e.store.GetBookmarksForDocument(e.doc.ID)
	if err != nil {
		return err
	}
	e.bookmarks = bookmarks
	return nil
}

// List returns the loaded bookmarks, newest first.
func (e *BookmarkEngine) List() []*domain.Bookmark { return e.bookmarks }

// Toggle captures the current location as a bookmark of the given type.
// If a bookmark of the same type already exists at that location it is
// removed instead; one of a different type is replaced (last toggle wins, one
// bookmark per location). Returns the created bookmark, or nil when toggled
// off.
func (e *BookmarkEngine) Toggle(ctx context.Context, typ domain.BookmarkType) (*domain.Bookmark, error) {
	loc := e.renderer.Location()

	existing := e.findAt(loc)
	if existing != nil {
		if err := e.delete(existing.ID); err != nil {
			return nil, err
		}
		if existing.Type == typ {
			return nil, nil
		}
		// Different type at the same location: replace.
	}

	b := &domain.Bookmark{
		DocumentID: e.doc.ID,
		Type:       typ,
		Percentage: loc.Percent,
	}

	switch e.doc.Format {
	case domain.FormatPaginated:
		page := loc.Page
		b.PageNumber = &page
		b.Preview = fmt.Sprintf("Page %d", page)
		b.Thumbnail = e.captureThumbnail()
	case domain.FormatFlowed:
		anchor := loc.Anchor
		b.Anchor = &anchor
		b.Preview = e.captureSnippet(anchor, loc.Percent)
	case domain.FormatPlainText:
		b.Preview = "Bookmark"
	}

	if err := e.store.AddBookmark(b); err != nil {
		return nil, err
	}
	e.bookmarks = append([]*domain.Bookmark{b}, e.bookmarks...)
	e.logger.Info("bookmark created", "document_id", e.doc.ID, "bookmark_id", b.ID, "type", typ)
	return b, nil
}

// Jump navigates the renderer to a bookmark's location. Plain-text bookmarks
// carry only a percentage and jump by replaying it.
func (e *BookmarkEngine) Jump(ctx context.Context, b *domain.Bookmark) error {
	target := domain.Location{Format: e.doc.Format, Percent: b.Percentage}
	if b.PageNumber != nil {
		target.Page = *b.PageNumber
	}
	if b.Anchor != nil {
		target.Anchor = *b.Anchor
	}
	return e.renderer.NavigateTo(ctx, target)
}

// Delete removes a bookmark unconditionally.
func (e *BookmarkEngine) Delete(id string) error {
	return e.delete(id)
}

func (e *BookmarkEngine) delete(id string) error {
	if err := e.store.DeleteBookmark(id); err != nil {
		return err
	}
	for i, b := range e.bookmarks {
		if b.ID == id {
			e.bookmarks = append(e.bookmarks[:i], e.bookmarks[i+1:]...)
			break
		}
	}
	return nil
}

// findAt returns the existing bookmark at the current location: same page for
// paginated, same anchor for flowed, same rounded percentage for plain text.
func (e *BookmarkEngine) findAt(loc domain.Location) *domain.Bookmark {
	for _, b := range e.bookmarks {
		switch e.doc.Format {
		case domain.FormatPaginated:
			if b.PageNumber != nil && *b.PageNumber == loc.Page {
				return b
			}
		case domain.FormatFlowed:
			if b.Anchor != nil && *b.Anchor == loc.Anchor {
				return b
			}
		case domain.FormatPlainText:
			if math.Abs(b.Percentage-loc.Percent) < 0.5 {
				return b
			}
		}
	}
	return nil
}

// captureThumbnail downscales the current raster surface. Failure is logged,
// never fatal: the bookmark saves without the thumbnail. Oversized results
// are dropped by the store before persistence.
func (e *BookmarkEngine) captureThumbnail() []byte {
	paginated, ok := e.renderer.(*render.PaginatedRenderer)
	if !ok {
		return nil
	}
	surface, _ := paginated.Surface()
	if surface == nil {
		e.logger.Debug("no rendered surface for bookmark thumbnail", "document_id", e.doc.ID)
		return nil
	}
	thumb := resize.Resize(thumbnailWidth, 0, surface, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 60}); err != nil {
		e.logger.Warn("bookmark thumbnail encoding failed", "document_id", e.doc.ID, "error", err)
		return nil
	}
	return buf.Bytes()
}

// captureSnippet extracts a short text preview at the anchor, falling back to
// a percentage label on failure.
func (e *BookmarkEngine) captureSnippet(anchor string, percent float64) string {
	if flowed, ok := e.renderer.(*render.FlowedRenderer); ok && flowed.Ready() {
		snippet, err := flowed.Engine().SnippetAt(anchor, snippetMaxChars)
		if err == nil && snippet != "" {
			return snippet
		}
		if err != nil {
			e.logger.Debug("bookmark snippet extraction failed", "document_id", e.doc.ID, "error", err)
		}
	}
	return fmt.Sprintf("At %.0f%%", percent)
}
