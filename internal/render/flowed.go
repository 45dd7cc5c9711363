package render

import (
	"context"
	"fmt"

	"shelf-reader/internal/domain"
)

// FlowedRenderer renders reflowable documents by delegating pagination and
// layout to an embedded Engine. It surfaces relocation events carrying a
// fractional progress value and the opaque anchor token used for exact resume
// and highlight anchoring.
type FlowedRenderer struct {
	logger domain.Logger
	engine Engine

	loc        EngineLocation
	onRelocate func(domain.Location)
}

// NewFlowedRenderer wraps an engine. A nil or unloaded engine keeps the
// renderer in a loading state; it never falls back to another format.
func NewFlowedRenderer(logger domain.Logger, engine Engine) *FlowedRenderer {
	return &FlowedRenderer{logger: logger, engine: engine}
}

func (r *FlowedRenderer) Format() domain.DocumentFormat { return domain.FormatFlowed }

func (r *FlowedRenderer) Engine() Engine { return r.engine }

func (r *FlowedRenderer) Open(ctx context.Context, doc *domain.Document, settings *domain.ReadingSettings) error {
	if r.engine == nil {
		// Loading state; Ready stays false.
		return nil
	}
	if err := r.engine.Load(doc.Data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnrenderable, err)
	}
	resume := ""
	if doc.ResumeAnchor != nil {
		resume = *doc.ResumeAnchor
	}
	loc, err := r.engine.Display(resume)
	if err != nil {
		// A stale resume anchor falls back to the beginning.
		r.logger.Warn("resume anchor did not resolve, starting from beginning",
			"document_id", doc.ID)
		loc, err = r.engine.Display("")
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUnrenderable, err)
		}
	}
	r.loc = loc
	return nil
}

func (r *FlowedRenderer) Close() error { return nil }

func (r *FlowedRenderer) Ready() bool {
	return r.engine != nil && r.engine.Ready()
}

func (r *FlowedRenderer) Location() domain.Location {
	return domain.Location{
		Format:  domain.FormatFlowed,
		Percent: domain.FractionToPercent(r.loc.Fraction),
		Anchor:  r.loc.Anchor,
	}
}

func (r *FlowedRenderer) OnRelocate(fn func(domain.Location)) { r.onRelocate = fn }

func (r *FlowedRenderer) NavigateDelta(ctx context.Context, delta int) error {
	if !r.Ready() {
		return domain.ErrEngineUnavailable
	}
	loc, err := r.engine.Advance(delta)
	if err != nil {
		return err
	}
	r.relocate(loc)
	return nil
}

// NavigateTo displays an anchor token (exact resume, TOC target, or stored
// highlight/bookmark anchor). A location without an anchor falls back to the
// nearest block by percentage.
func (r *FlowedRenderer) NavigateTo(ctx context.Context, target domain.Location) error {
	if !r.Ready() {
		return domain.ErrEngineUnavailable
	}
	loc, err := r.engine.Display(target.Anchor)
	if err != nil {
		return err
	}
	r.relocate(loc)
	return nil
}

func (r *FlowedRenderer) relocate(loc EngineLocation) {
	r.loc = loc
	if r.onRelocate != nil {
		r.onRelocate(r.Location())
	}
}

// ViewText returns the text content at the current location.
func (r *FlowedRenderer) ViewText() string {
	if !r.Ready() {
		return ""
	}
	return r.engine.ViewText()
}
