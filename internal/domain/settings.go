package domain

import "time"

// ReadingSettings is the process-wide reading configuration. A single row is
// persisted; every open reader view receives the same instance at construction
// and applies it independently. Writes are last-write-wins.
type ReadingSettings struct {
	ID uint `json:"-" gorm:"primaryKey"`

	Theme       string  `json:"theme"`
	FontFamily  string  `json:"font_family"`
	FontSize    int     `json:"font_size"`
	LineHeight  float64 `json:"line_height"`
	TextAlign   string  `json:"text_align"`
	MarginWidth string  `json:"margin_width"`

	// Zoom is the paginated-format raster scale.
	Zoom float64 `json:"zoom"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the settings before they are applied or persisted.
func (s *ReadingSettings) Validate() error {
	switch s.Theme {
	case "light", "dark", "sepia":
	default:
		return &ValidationError{Field: "theme", Message: "must be light, dark, or sepia"}
	}
	if s.FontSize < 8 || s.FontSize > 72 {
		return &ValidationError{Field: "font_size", Message: "must be between 8 and 72"}
	}
	if s.LineHeight < 1.0 || s.LineHeight > 3.0 {
		return &ValidationError{Field: "line_height", Message: "must be between 1.0 and 3.0"}
	}
	if s.Zoom < 0.25 || s.Zoom > 5.0 {
		return &ValidationError{Field: "zoom", Message: "must be between 0.25 and 5.0"}
	}
	return nil
}

// DefaultReadingSettings returns the settings used when none are persisted yet.
func DefaultReadingSettings() *ReadingSettings {
	return &ReadingSettings{
		ID:          1,
		Theme:       "light",
		FontFamily:  "serif",
		FontSize:    16,
		LineHeight:  1.5,
		TextAlign:   "left",
		MarginWidth: "normal",
		Zoom:        1.0,
	}
}
