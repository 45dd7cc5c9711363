package render

import (
	"context"
	"errors"
	"testing"

	"shelf-reader/internal/domain"
	"shelf-reader/pkg/logger"
)

func flowedDoc(t *testing.T) *domain.Document {
	t.Helper()
	chapters := []string{
		"<h1>One</h1><p>First paragraph of the opening chapter.</p><p>Second paragraph with a little more text to span blocks.</p>",
		"<h1>Two</h1><p>The second chapter begins here.</p><p>It continues at some length so pagination has work to do.</p>",
	}
	return &domain.Document{
		ID:     "doc-1",
		Format: domain.FormatFlowed,
		Data:   buildEPUB(t, "Test Book", "A. Writer", chapters),
	}
}

func TestFlowedWithoutEngineStaysLoading(t *testing.T) {
	r := NewFlowedRenderer(logger.NewNop(), nil)
	doc := flowedDoc(t)

	if err := r.Open(context.Background(), doc, domain.DefaultReadingSettings()); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if r.Ready() {
		t.Fatal("expected loading state without an engine")
	}
	if err := r.NavigateDelta(context.Background(), 1); !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
	if r.ViewText() != "" {
		t.Error("expected no content while loading")
	}
}

func TestFlowedOpenResumesFromAnchor(t *testing.T) {
	engine := NewEPUBEngine(logger.NewNop(), 60)
	r := NewFlowedRenderer(logger.NewNop(), engine)
	doc := flowedDoc(t)

	// First pass to learn a valid anchor.
	if err := r.Open(context.Background(), doc, domain.DefaultReadingSettings()); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := r.NavigateDelta(context.Background(), 2); err != nil {
		t.Fatalf("NavigateDelta returned error: %v", err)
	}
	anchor := r.Location().Anchor

	// Reopen with the anchor stored on the document.
	engine2 := NewEPUBEngine(logger.NewNop(), 60)
	r2 := NewFlowedRenderer(logger.NewNop(), engine2)
	doc.ResumeAnchor = &anchor
	if err := r2.Open(context.Background(), doc, domain.DefaultReadingSettings()); err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	if r2.Location().Anchor != anchor {
		t.Errorf("expected resume at %q, got %q", anchor, r2.Location().Anchor)
	}
}

func TestFlowedStaleAnchorFallsBackToBeginning(t *testing.T) {
	engine := NewEPUBEngine(logger.NewNop(), 60)
	r := NewFlowedRenderer(logger.NewNop(), engine)
	doc := flowedDoc(t)
	stale := "c3RhbGUtdG9rZW4"
	doc.ResumeAnchor = &stale

	if err := r.Open(context.Background(), doc, domain.DefaultReadingSettings()); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if got := r.Location().Percent; got != 0 {
		t.Errorf("expected fallback to the beginning, got %f%%", got)
	}
}

func TestFlowedRelocationCarriesPercentAndAnchor(t *testing.T) {
	engine := NewEPUBEngine(logger.NewNop(), 60)
	r := NewFlowedRenderer(logger.NewNop(), engine)
	doc := flowedDoc(t)
	if err := r.Open(context.Background(), doc, domain.DefaultReadingSettings()); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	var got []domain.Location
	r.OnRelocate(func(loc domain.Location) { got = append(got, loc) })

	if err := r.NavigateDelta(context.Background(), 1); err != nil {
		t.Fatalf("NavigateDelta returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 relocation, got %d", len(got))
	}
	if got[0].Anchor == "" {
		t.Error("relocation must carry the anchor token")
	}
	if got[0].Percent <= 0 || got[0].Percent > 100 {
		t.Errorf("unexpected percent %f", got[0].Percent)
	}

	// The anchor in the event resolves back to the same position.
	loc, err := engine.Resolve(got[0].Anchor)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if loc.Anchor != got[0].Anchor {
		t.Error("anchor did not round-trip")
	}
}

func TestForFormatSelectsRenderer(t *testing.T) {
	log := logger.NewNop()

	r, err := ForFormat(domain.FormatPlainText, log, nil)
	if err != nil {
		t.Fatalf("ForFormat returned error: %v", err)
	}
	if _, ok := r.(*PlainTextRenderer); !ok {
		t.Errorf("expected a plain text renderer, got %T", r)
	}

	r, err = ForFormat(domain.FormatFlowed, log, NewEPUBEngine(log, 0))
	if err != nil {
		t.Fatalf("ForFormat returned error: %v", err)
	}
	if _, ok := r.(*FlowedRenderer); !ok {
		t.Errorf("expected a flowed renderer, got %T", r)
	}

	if _, err := ForFormat(domain.DocumentFormat("djvu"), log, nil); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
