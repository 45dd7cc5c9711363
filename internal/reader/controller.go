package reader

import (
	"context"
	"fmt"
	"time"

	"shelf-reader/internal/domain"
	"shelf-reader/internal/render"
)

// Controller orchestrates one open document: it selects the format renderer,
// applies reading settings, wires selection capture and the annotation
// engines, persists progress on relocation, and tracks the reading session.
type Controller struct {
	store  domain.AnnotationStore
	logger domain.Logger

	// settings is injected at construction; the controller applies it per
	// renderer and persists changes through the single store boundary.
	settings *domain.ReadingSettings

	idleTimeout time.Duration
	clock       Clock

	flowedBlockChars int

	doc      *domain.Document
	renderer render.Renderer

	selection  *SelectionCapture
	highlights *HighlightEngine
	bookmarks  *BookmarkEngine
	session    *SessionTracker

	controlsVisible bool
	open            bool

	// onHighlightMenu fires when a rendered highlight is activated.
	onHighlightMenu func(h *domain.Highlight)
}

// NewController builds a controller with the given injected settings.
func NewController(store domain.AnnotationStore, logger domain.Logger, settings *domain.ReadingSettings) *Controller {
	if settings == nil {
		settings = domain.DefaultReadingSettings()
	}
	return &Controller{
		store:       store,
		logger:      logger,
		settings:    settings,
		idleTimeout: DefaultIdleTimeout,
		clock:       SystemClock(),
	}
}

// WithClock overrides the session clock, for tests.
func (c *Controller) WithClock(clock Clock) *Controller {
	c.clock = clock
	return c
}

// WithIdleTimeout overrides the idle threshold.
func (c *Controller) WithIdleTimeout(d time.Duration) *Controller {
	c.idleTimeout = d
	return c
}

// WithFlowedBlockChars sets the target block size for flowed documents.
func (c *Controller) WithFlowedBlockChars(n int) *Controller {
	c.flowedBlockChars = n
	return c
}

// OnHighlightMenu registers the callback for clicks on rendered highlights.
func (c *Controller) OnHighlightMenu(fn func(h *domain.Highlight)) {
	c.onHighlightMenu = fn
	if c.highlights != nil {
		c.highlights.OnClick(fn)
	}
}

// Open selects the renderer for the document's format, restores the resume
// location, loads annotations, and starts the session tracker. resume
// overrides the document's own stored position when non-nil.
func (c *Controller) Open(ctx context.Context, doc *domain.Document, resume *domain.Location) error {
	if c.open {
		return fmt.Errorf("controller already has an open document")
	}

	var engine render.Engine
	if doc.Format == domain.FormatFlowed {
		engine = render.NewEPUBEngine(c.logger, c.flowedBlockChars)
	}
	renderer, err := render.ForFormat(doc.Format, c.logger, engine)
	if err != nil {
		return err
	}
	if err := renderer.Open(ctx, doc, c.settings); err != nil {
		return err
	}

	c.doc = doc
	c.renderer = renderer
	c.open = true

	renderer.OnRelocate(c.persistLocation)

	c.selection = NewSelectionCapture(c.logger)
	c.highlights = NewHighlightEngine(c.store, c.logger, doc, renderer)
	if c.onHighlightMenu != nil {
		c.highlights.OnClick(c.onHighlightMenu)
	}
	c.bookmarks = NewBookmarkEngine(c.store, c.logger, doc, renderer)

	if err := c.highlights.Load(); err != nil {
		c.abortOpen()
		return fmt.Errorf("loading highlights: %w", err)
	}
	if err := c.bookmarks.Load(); err != nil {
		c.abortOpen()
		return fmt.Errorf("loading bookmarks: %w", err)
	}

	if resume != nil {
		if err := renderer.NavigateTo(ctx, *resume); err != nil && !render.IsCancel(err) {
			c.logger.Warn("resume navigation failed", "document_id", doc.ID, "error", err)
		}
	}

	c.session = NewSessionTracker(c.store, c.logger, doc.ID, c.idleTimeout, c.clock)
	c.logger.Info("document opened", "document_id", doc.ID, "format", doc.Format)
	return nil
}

// abortOpen releases a partially opened document so a later Open can succeed.
func (c *Controller) abortOpen() {
	if c.renderer != nil {
		if err := c.renderer.Close(); err != nil {
			c.logger.Warn("closing renderer after failed open", "error", err)
		}
	}
	c.doc = nil
	c.renderer = nil
	c.selection = nil
	c.highlights = nil
	c.bookmarks = nil
	c.open = false
}

// OpenAtHighlight opens a document positioned at a highlight's stored
// location, the onQuoteClick path from the quotes view.
func (c *Controller) OpenAtHighlight(ctx context.Context, doc *domain.Document, h *domain.Highlight) error {
	resume := &domain.Location{Format: doc.Format}
	switch {
	case h.PageNumber != nil:
		resume.Page = *h.PageNumber
	case h.Anchor != nil:
		resume.Anchor = *h.Anchor
	case h.StartChar != nil:
		if len(doc.ExtractedText) > 0 {
			resume.Percent = domain.ClampPercent(float64(*h.StartChar) / float64(len(doc.ExtractedText)) * 100)
		}
	}
	return c.Open(ctx, doc, resume)
}

// Close tears the view down: the session is finalized and persisted if long
// enough, and the renderer released.
func (c *Controller) Close() error {
	if !c.open {
		return nil
	}
	c.open = false
	if err := c.session.Stop(); err != nil {
		c.logger.Error("failed to log reading session", err, "document_id", c.doc.ID)
	}
	return c.renderer.Close()
}

// Document returns the open document, or nil.
func (c *Controller) Document() *domain.Document {
	if !c.open {
		return nil
	}
	return c.doc
}

// Renderer returns the active format renderer.
func (c *Controller) Renderer() render.Renderer { return c.renderer }

// Highlights returns the highlight engine for the open document.
func (c *Controller) Highlights() *HighlightEngine { return c.highlights }

// Bookmarks returns the bookmark engine for the open document.
func (c *Controller) Bookmarks() *BookmarkEngine { return c.bookmarks }

// Settings returns the injected reading settings.
func (c *Controller) Settings() *domain.ReadingSettings { return c.settings }

// ApplySettings applies changed settings to the active renderer and persists
// them through the store. Writes are last-write-wins.
func (c *Controller) ApplySettings(s *domain.ReadingSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.settings = s
	if paginated, ok := c.renderer.(*render.PaginatedRenderer); ok {
		paginated.SetZoom(s.Zoom)
	}
	return c.store.SaveSettings(s)
}

// ToggleControls flips the reader chrome visibility.
func (c *Controller) ToggleControls() bool {
	c.controlsVisible = !c.controlsVisible
	return c.controlsVisible
}

// ControlsVisible reports whether the reader chrome is shown.
func (c *Controller) ControlsVisible() bool { return c.controlsVisible }

// Activity forwards a user-activity signal to the session tracker.
func (c *Controller) Activity() {
	if c.session != nil {
		c.session.Activity()
	}
}

// Tick drives the session tracker's periodic accumulation.
func (c *Controller) Tick() {
	if c.session != nil {
		c.session.Tick()
	}
}

// Session returns the session tracker for the open view.
func (c *Controller) Session() *SessionTracker { return c.session }

// HandleSelection processes a selection-completion signal from the host
// surface and returns the normalized pending selection, or nil when cleared.
func (c *Controller) HandleSelection(raw RawSelection) *domain.Selection {
	if !c.open {
		return nil
	}
	return c.selection.Capture(c.doc, raw)
}

// PendingSelection returns the uncommitted selection, if any.
func (c *Controller) PendingSelection() *domain.Selection { return c.selection.Pending() }

// ClearSelection drops the pending selection.
func (c *Controller) ClearSelection() { c.selection.Clear() }

// CommitHighlight turns the pending selection into a persisted highlight and
// clears it.
func (c *Controller) CommitHighlight(color domain.HighlightColor) (*domain.Highlight, error) {
	sel := c.selection.Pending()
	if sel.Empty() {
		return nil, fmt.Errorf("no pending selection")
	}
	h, err := c.highlights.Create(sel, color)
	if err != nil {
		return nil, err
	}
	c.selection.Clear()
	return h, nil
}

// ToggleBookmark toggles a bookmark of the given type at the current
// location.
func (c *Controller) ToggleBookmark(ctx context.Context, typ domain.BookmarkType) (*domain.Bookmark, error) {
	return c.bookmarks.Toggle(ctx, typ)
}

// persistLocation writes the renderer's position through the annotation
// store. Calls may arrive more often than durably needed; last-write-wins is
// fine since progress is idempotent per document.
func (c *Controller) persistLocation(loc domain.Location) {
	c.doc.Progress = loc.Percent
	switch loc.Format {
	case domain.FormatPaginated:
		page := loc.Page
		c.doc.CurrentPage = &page
		if err := c.store.UpdateDocumentPage(c.doc.ID, loc.Page, loc.PageCount); err != nil {
			c.logger.Warn("failed to persist page", "document_id", c.doc.ID, "error", err)
		}
	case domain.FormatFlowed:
		anchor := loc.Anchor
		c.doc.ResumeAnchor = &anchor
		if err := c.store.UpdateDocumentProgress(c.doc.ID, loc.Percent, &anchor); err != nil {
			c.logger.Warn("failed to persist progress", "document_id", c.doc.ID, "error", err)
		}
	default:
		if err := c.store.UpdateDocumentProgress(c.doc.ID, loc.Percent, nil); err != nil {
			c.logger.Warn("failed to persist progress", "document_id", c.doc.ID, "error", err)
		}
	}
}
