// Package reader wires a format renderer, the annotation engines, and the
// session tracker together for one open document.
package reader

import (
	"strings"

	"shelf-reader/internal/domain"
)

// ClientRect is a rectangle in host screen space, as reported by the UI
// surface before normalization.
type ClientRect struct {
	X float64
	Y float64
	W float64
	H float64
}

// RawSelection is the unprocessed payload the host surface delivers on a
// selection-completion signal. Exactly the fields matching the active format
// are meaningful.
type RawSelection struct {
	Text string
	// Point is the screen-space anchor for the selection action menu.
	Point domain.Point
	// InContent is false for selections on chrome/controls; those are ignored.
	InContent bool

	// Paginated: client-space selection rects plus the page surface bounds.
	ClientRects []ClientRect
	Surface     ClientRect
	Page        int

	// Flowed: the anchor-range token supplied by the layout engine.
	Anchor string

	// Plain text: byte offsets into the extracted text.
	StartChar int
	EndChar   int
}

// SelectionCapture normalizes raw host selections into format-matched
// geometry and holds the single pending selection until it is cleared or
// committed into a highlight. Selection state is never persisted.
type SelectionCapture struct {
	logger  domain.Logger
	pending *domain.Selection
}

func NewSelectionCapture(logger domain.Logger) *SelectionCapture {
	return &SelectionCapture{logger: logger}
}

// Capture processes a selection-completion signal. An empty or collapsed
// selection, or one outside the renderer's content region, clears any pending
// payload and returns nil.
func (c *SelectionCapture) Capture(doc *domain.Document, raw RawSelection) *domain.Selection {
	text := strings.TrimSpace(raw.Text)
	if text == "" || !raw.InContent {
		c.pending = nil
		return nil
	}

	sel := &domain.Selection{
		DocumentID: doc.ID,
		Format:     doc.Format,
		Text:       text,
		MenuAnchor: raw.Point,
	}

	switch doc.Format {
	case domain.FormatPaginated:
		rects := normalizeRects(raw.ClientRects, raw.Surface)
		if len(rects) == 0 {
			c.pending = nil
			return nil
		}
		sel.Page = raw.Page
		sel.Rects = rects
	case domain.FormatFlowed:
		if raw.Anchor == "" {
			c.pending = nil
			return nil
		}
		sel.Anchor = raw.Anchor
	case domain.FormatPlainText:
		if raw.EndChar <= raw.StartChar {
			c.pending = nil
			return nil
		}
		sel.StartChar = raw.StartChar
		sel.EndChar = raw.EndChar
	default:
		c.pending = nil
		return nil
	}

	c.pending = sel
	return sel
}

// Pending returns the current uncommitted selection, or nil.
func (c *SelectionCapture) Pending() *domain.Selection { return c.pending }

// Clear drops any pending selection.
func (c *SelectionCapture) Clear() { c.pending = nil }

// normalizeRects converts client-space rects to fractions of the page surface
// bounding box, so they stay valid across zoom-scale changes without
// re-capture. Rects outside the surface are clipped; degenerate rects are
// dropped.
func normalizeRects(rects []ClientRect, surface ClientRect) []domain.NormalizedRect {
	if surface.W <= 0 || surface.H <= 0 {
		return nil
	}
	out := make([]domain.NormalizedRect, 0, len(rects))
	for _, r := range rects {
		x := (r.X - surface.X) / surface.W
		y := (r.Y - surface.Y) / surface.H
		w := r.W / surface.W
		h := r.H / surface.H
		if x < 0 {
			w += x
			x = 0
		}
		if y < 0 {
			h += y
			y = 0
		}
		if x+w > 1 {
			w = 1 - x
		}
		if y+h > 1 {
			h = 1 - y
		}
		if w <= 0 || h <= 0 {
			continue
		}
		out = append(out, domain.NormalizedRect{X: x, Y: y, W: w, H: h})
	}
	return out
}
