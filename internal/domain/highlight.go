package domain

import "time"

// HighlightColor is one of the fixed palette tags a highlight can carry.
type HighlightColor string

const (
	ColorYellow HighlightColor = "yellow"
	ColorGreen  HighlightColor = "green"
	ColorBlue   HighlightColor = "blue"
	ColorPink   HighlightColor = "pink"
	ColorOrange HighlightColor = "orange"
)

// HighlightColors lists the palette in display order.
var HighlightColors = []HighlightColor{ColorYellow, ColorGreen, ColorBlue, ColorPink, ColorOrange}

// Valid reports whether c belongs to the palette.
func (c HighlightColor) Valid() bool {
	for _, v := range HighlightColors {
		if c == v {
			return true
		}
	}
	return false
}

// NormalizedRect is a selection rectangle expressed as fractions of the page
// surface bounding box, so it stays valid across zoom-scale changes.
type NormalizedRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Highlight represents a user's saved excerpt with format-specific anchoring:
// page number + normalized rects for paginated documents, an opaque anchor
// token for flowed documents, or a character range for plain text.
// Exactly one anchoring kind is set, matching the owning document's format.
type Highlight struct {
	ID         string         `json:"id" gorm:"primaryKey"`
	DocumentID string         `json:"document_id" gorm:"index"`
	Text       string         `json:"text"`
	Color      HighlightColor `json:"color"`
	Note       string         `json:"note,omitempty"`

	PageNumber *int             `json:"page_number,omitempty"`
	Rects      []NormalizedRect `json:"rects,omitempty" gorm:"serializer:json"`
	Anchor     *string          `json:"anchor,omitempty"`
	StartChar  *int             `json:"start_char,omitempty"`
	EndChar    *int             `json:"end_char,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// MatchesFormat reports whether the highlight's anchoring data kind matches
// the given document format.
func (h *Highlight) MatchesFormat(f DocumentFormat) bool {
	switch f {
	case FormatPaginated:
		return h.PageNumber != nil && len(h.Rects) > 0
	case FormatFlowed:
		return h.Anchor != nil && *h.Anchor != ""
	case FormatPlainText:
		return h.StartChar != nil && h.EndChar != nil
	}
	return false
}
