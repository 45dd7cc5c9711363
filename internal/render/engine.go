package render

// EngineLocation is a resolved position inside a flowed document: the opaque
// anchor token naming it exactly, plus the fractional progress through the
// whole document.
type EngineLocation struct {
	Anchor   string
	Fraction float64 // 0..1
}

// TOCEntry is a table-of-contents target exposed by a layout engine.
type TOCEntry struct {
	Title  string
	Anchor string
}

// Annotation is a visual mark registered with a layout engine, keyed by its
// anchor token. The engine surfaces click events through the registered
// callback.
type Annotation struct {
	Anchor  string
	Style   string
	OnClick func(anchor string)
}

// Engine is the embedded layout engine a flowed renderer delegates pagination
// to. Anchor tokens are opaque: the only operations on them are Capture (of
// the current location) and Resolve. Display(Capture()) must return to the
// same location.
type Engine interface {
	// Load parses the source bytes. The engine is unusable until Load
	// succeeds; Ready reports loading state.
	Load(data []byte) error
	Ready() bool

	// Display navigates to the given anchor token (empty token means the
	// beginning) and returns the resulting location.
	Display(anchor string) (EngineLocation, error)
	// Advance moves by a block delta; out-of-range deltas clamp.
	Advance(delta int) (EngineLocation, error)
	CurrentLocation() EngineLocation

	// Capture returns the opaque token of the current location.
	Capture() string
	// Resolve validates a token and returns its location without navigating.
	Resolve(anchor string) (EngineLocation, error)

	// ViewText returns the text content at the current location.
	ViewText() string
	// SnippetAt extracts up to maxChars of text at the anchored location.
	SnippetAt(anchor string, maxChars int) (string, error)

	// AddAnnotation registers a visual mark keyed by anchor token with a
	// style class and click callback; the mark renders without a reload.
	AddAnnotation(anchor, style string, onClick func(anchor string)) error
	// RemoveAnnotation deletes a registered mark. Unresolvable anchors are
	// a silent no-op.
	RemoveAnnotation(anchor string)
	// AnnotationsAt returns the marks anchored within the current view.
	AnnotationsAt(anchor string) []Annotation

	// TOC lists table-of-contents targets usable with Display.
	TOC() []TOCEntry
}
