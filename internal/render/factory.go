package render

import (
	"shelf-reader/internal/domain"
)

// ForFormat selects the renderer strategy for a document format. The choice
// is made exactly once per open; there is no runtime fallback between formats.
func ForFormat(format domain.DocumentFormat, logger domain.Logger, engine Engine) (Renderer, error) {
	switch format {
	case domain.FormatPaginated:
		return NewPaginatedRenderer(logger), nil
	case domain.FormatFlowed:
		return NewFlowedRenderer(logger, engine), nil
	case domain.FormatPlainText:
		return NewPlainTextRenderer(logger), nil
	default:
		return nil, domain.ErrUnsupportedFormat
	}
}
