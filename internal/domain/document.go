package domain

import "time"

// DocumentFormat selects which renderer a document is opened with.
// Exactly one renderer exists per format; the choice is made once at open time.
type DocumentFormat string

const (
	// FormatPaginated is a fixed-layout document rendered page-by-page as a
	// raster image with a text layer for selection (PDF).
	FormatPaginated DocumentFormat = "paginated"
	// FormatFlowed is a reflowable document laid out by an embedded engine
	// supporting opaque location anchors (EPUB).
	FormatFlowed DocumentFormat = "flowed"
	// FormatPlainText is unstructured text rendered as one scrollable flow.
	FormatPlainText DocumentFormat = "text"
)

// Valid reports whether f is one of the three supported formats.
func (f DocumentFormat) Valid() bool {
	switch f {
	case FormatPaginated, FormatFlowed, FormatPlainText:
		return true
	}
	return false
}

// Document represents an imported book in the local library. The document
// exclusively owns its raw source bytes; they are immutable after import.
type Document struct {
	ID     string  `json:"id" gorm:"primaryKey"`
	Title  string  `json:"title"`
	Author *string `json:"author,omitempty"`

	Format DocumentFormat `json:"format" gorm:"index"`

	// Data holds the raw source bytes as imported, opaque to everything
	// except the matching renderer.
	Data []byte `json:"-" gorm:"type:blob"`

	// ExtractedText is the best-effort plain text of the document, used by
	// the plain-text renderer and for snippets.
	ExtractedText string `json:"-"`

	PageCount int `json:"page_count,omitempty"`
	WordCount int `json:"word_count,omitempty"`

	// Progress is the normalized reading position in [0,100].
	Progress float64 `json:"progress"`
	// CurrentPage is set for paginated documents only.
	CurrentPage *int `json:"current_page,omitempty"`
	// ResumeAnchor is an opaque renderer-specific resume location
	// (flowed-format anchor token).
	ResumeAnchor *string `json:"resume_anchor,omitempty"`

	LastAccessed time.Time `json:"last_accessed"`
	AddedAt      time.Time `json:"added_at"`
}
