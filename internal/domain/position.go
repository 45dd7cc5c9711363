package domain

// Location is the format-agnostic current position of a renderer. Percent is
// always populated; Page and Anchor are set only when meaningful for the
// format that produced the location.
type Location struct {
	Format DocumentFormat `json:"format"`

	// Percent is the normalized progress in [0,100].
	Percent float64 `json:"percent"`

	// Page is the 1-based current page (paginated format).
	Page int `json:"page,omitempty"`
	// PageCount is the total page count when known.
	PageCount int `json:"page_count,omitempty"`

	// Anchor is the opaque engine-defined location token (flowed format).
	Anchor string `json:"anchor,omitempty"`
}

// ClampPercent forces p into the [0,100] progress range.
func ClampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// PageToPercent converts a 1-based page number to normalized progress.
// A single-page document is always at 100.
func PageToPercent(page, pageCount int) float64 {
	if pageCount <= 1 {
		return 100
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}
	return ClampPercent(float64(page-1) / float64(pageCount-1) * 100)
}

// PercentToPage converts normalized progress back to a 1-based page number.
func PercentToPage(percent float64, pageCount int) int {
	if pageCount <= 1 {
		return 1
	}
	percent = ClampPercent(percent)
	page := int(percent/100*float64(pageCount-1)+0.5) + 1
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}
	return page
}

// FractionToPercent converts a 0..1 fraction (flowed relocation events,
// plain-text scroll ratios) to the 0..100 progress value.
func FractionToPercent(f float64) float64 {
	return ClampPercent(f * 100)
}
