package reader

import (
	"fmt"

	"shelf-reader/internal/domain"
	"shelf-reader/internal/render"
)

// Overlay is one highlight's drawable geometry for the current paginated
// page: absolutely positioned rectangles scaled to the page surface size.
// Overlays are returned in creation order, so later highlights draw on top.
type Overlay struct {
	Highlight *domain.Highlight
	Rects     []ClientRect
}

// HighlightEngine creates, recolors, annotates, deletes, and re-renders
// highlights for one open document. Flowed highlights are additionally
// registered as engine annotations so they render without a reload.
type HighlightEngine struct {
	store  domain.AnnotationStore
	logger domain.Logger

	doc        *domain.Document
	renderer   render.Renderer
	highlights []*domain.Highlight

	// onClick is invoked when a rendered highlight is activated, opening
	// its action menu instead of starting a new selection.
	onClick func(h *domain.Highlight)
}

func NewHighlightEngine(store domain.AnnotationStore, logger domain.Logger, doc *domain.Document, renderer render.Renderer) *HighlightEngine {
	return &HighlightEngine{
		store:    store,
		logger:   logger,
		doc:      doc,
		renderer: renderer,
	}
}

// OnClick registers the highlight-activation callback.
func (e *HighlightEngine) OnClick(fn func(h *domain.Highlight)) { e.onClick = fn }

// Load fetches the document's highlights and, for the flowed format,
// registers each as an engine annotation. Called once per book open.
func (e *HighlightEngine) Load() error {
	highlights, err := e.store.GetHighlightsForDocument(e.doc.ID)
	if err != nil {
		return err
	}
	e.highlights = highlights

	if flowed, ok := e.renderer.(*render.FlowedRenderer); ok && flowed.Ready() {
		for _, h := range highlights {
			if h.Anchor == nil {
				continue
			}
			hl := h
			err := flowed.Engine().AddAnnotation(*h.Anchor, styleClass(h.Color), func(string) {
				if e.onClick != nil {
					e.onClick(hl)
				}
			})
			if err != nil {
				// Stale anchors render nothing; the record survives.
				e.logger.Warn("highlight anchor did not resolve", "highlight_id", h.ID)
			}
		}
	}
	return nil
}

// List returns the loaded highlights in creation order.
func (e *HighlightEngine) List() []*domain.Highlight { return e.highlights }

// Create persists a highlight from a committed selection. For the flowed
// format it also registers the engine annotation so the highlight renders
// immediately.
func (e *HighlightEngine) Create(sel *domain.Selection, color domain.HighlightColor) (*domain.Highlight, error) {
	if sel.Empty() {
		return nil, fmt.Errorf("cannot highlight an empty selection")
	}
	if !color.Valid() {
		return nil, fmt.Errorf("invalid highlight color %q", color)
	}

	h := &domain.Highlight{
		DocumentID: e.doc.ID,
		Text:       sel.Text,
		Color:      color,
	}
	switch sel.Format {
	case domain.FormatPaginated:
		page := sel.Page
		h.PageNumber = &page
		h.Rects = sel.Rects
	case domain.FormatFlowed:
		anchor := sel.Anchor
		h.Anchor = &anchor
	case domain.FormatPlainText:
		start, end := sel.StartChar, sel.EndChar
		h.StartChar = &start
		h.EndChar = &end
	}
	if !h.MatchesFormat(e.doc.Format) {
		return nil, fmt.Errorf("selection geometry does not match document format %q", e.doc.Format)
	}

	if err := e.store.AddHighlight(h); err != nil {
		return nil, err
	}
	e.highlights = append(e.highlights, h)

	if flowed, ok := e.renderer.(*render.FlowedRenderer); ok && flowed.Ready() && h.Anchor != nil {
		hl := h
		if err := flowed.Engine().AddAnnotation(*h.Anchor, styleClass(h.Color), func(string) {
			if e.onClick != nil {
				e.onClick(hl)
			}
		}); err != nil {
			e.logger.Warn("could not register highlight annotation", "highlight_id", h.ID)
		}
	}

	e.logger.Info("highlight created", "document_id", e.doc.ID, "highlight_id", h.ID, "color", color)
	return h, nil
}

// SetColor changes a highlight's color in place; geometry is untouched.
func (e *HighlightEngine) SetColor(id string, color domain.HighlightColor) error {
	if !color.Valid() {
		return fmt.Errorf("invalid highlight color %q", color)
	}
	if err := e.store.UpdateHighlightColor(id, color); err != nil {
		return err
	}
	for _, h := range e.highlights {
		if h.ID == id {
			h.Color = color
			if flowed, ok := e.renderer.(*render.FlowedRenderer); ok && flowed.Ready() && h.Anchor != nil {
				hl := h
				_ = flowed.Engine().AddAnnotation(*h.Anchor, styleClass(color), func(string) {
					if e.onClick != nil {
						e.onClick(hl)
					}
				})
			}
			break
		}
	}
	return nil
}

// SetNote attaches or replaces a highlight's free-text note.
func (e *HighlightEngine) SetNote(id string, note string) error {
	if err := e.store.UpdateHighlightNote(id, note); err != nil {
		return err
	}
	for _, h := range e.highlights {
		if h.ID == id {
			h.Note = note
			break
		}
	}
	return nil
}

// Delete removes the persisted record and, for the flowed format, the engine
// annotation. A failed anchor lookup during removal is a silent no-op.
func (e *HighlightEngine) Delete(id string) error {
	var deleted *domain.Highlight
	for i, h := range e.highlights {
		if h.ID == id {
			deleted = h
			e.highlights = append(e.highlights[:i], e.highlights[i+1:]...)
			break
		}
	}
	if err := e.store.DeleteHighlight(id); err != nil {
		return err
	}
	if deleted != nil && deleted.Anchor != nil {
		if flowed, ok := e.renderer.(*render.FlowedRenderer); ok && flowed.Ready() {
			flowed.Engine().RemoveAnnotation(*deleted.Anchor)
		}
	}
	return nil
}

// OverlaysForPage computes the drawable overlay for every stored highlight on
// the given paginated page, with normalized rects scaled to the current page
// surface size. Creation order is preserved: later overlays draw on top.
func (e *HighlightEngine) OverlaysForPage(page int, surfaceW, surfaceH float64) []Overlay {
	var out []Overlay
	for _, h := range e.highlights {
		if h.PageNumber == nil || *h.PageNumber != page || len(h.Rects) == 0 {
			continue
		}
		rects := make([]ClientRect, 0, len(h.Rects))
		for _, r := range h.Rects {
			rects = append(rects, ClientRect{
				X: r.X * surfaceW,
				Y: r.Y * surfaceH,
				W: r.W * surfaceW,
				H: r.H * surfaceH,
			})
		}
		out = append(out, Overlay{Highlight: h, Rects: rects})
	}
	return out
}

// RangesIn returns the plain-text highlights overlapping the given byte
// range, for inline styling by the text view.
func (e *HighlightEngine) RangesIn(start, end int) []*domain.Highlight {
	var out []*domain.Highlight
	for _, h := range e.highlights {
		if h.StartChar == nil || h.EndChar == nil {
			continue
		}
		if *h.EndChar > start && *h.StartChar < end {
			out = append(out, h)
		}
	}
	return out
}

// HitTest returns the topmost overlay containing the point, or nil. Clicking
// a rendered highlight opens its action menu instead of starting a selection.
func (e *HighlightEngine) HitTest(page int, surfaceW, surfaceH float64, p domain.Point) *domain.Highlight {
	overlays := e.OverlaysForPage(page, surfaceW, surfaceH)
	for i := len(overlays) - 1; i >= 0; i-- {
		for _, r := range overlays[i].Rects {
			if float64(p.X) >= r.X && float64(p.X) <= r.X+r.W &&
				float64(p.Y) >= r.Y && float64(p.Y) <= r.Y+r.H {
				return overlays[i].Highlight
			}
		}
	}
	return nil
}

// styleClass maps a palette color to the engine annotation style class.
func styleClass(c domain.HighlightColor) string {
	return "hl-" + string(c)
}
