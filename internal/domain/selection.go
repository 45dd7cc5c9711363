package domain

// Point is a screen-space coordinate, used to position the contextual action
// menu next to a completed selection.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Selection is the normalized payload of a completed user text selection.
// It is transient: it lives only until cleared or committed into a Highlight.
// Geometry fields follow the same one-of rule as Highlight anchoring.
type Selection struct {
	DocumentID string         `json:"document_id"`
	Format     DocumentFormat `json:"format"`
	Text       string         `json:"text"`

	// MenuAnchor is where the selection action menu should appear.
	MenuAnchor Point `json:"menu_anchor"`

	// Paginated: page plus rects as fractions of the page surface.
	Page  int              `json:"page,omitempty"`
	Rects []NormalizedRect `json:"rects,omitempty"`

	// Flowed: the opaque anchor-range token from the layout engine.
	Anchor string `json:"anchor,omitempty"`

	// Plain text: character offsets into the extracted text.
	StartChar int `json:"start_char,omitempty"`
	EndChar   int `json:"end_char,omitempty"`
}

// Empty reports whether the selection is collapsed or has no text.
func (s *Selection) Empty() bool {
	return s == nil || s.Text == ""
}
