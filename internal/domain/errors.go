package domain

import "errors"

// Domain errors
var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrHighlightNotFound = errors.New("highlight not found")
	ErrBookmarkNotFound  = errors.New("bookmark not found")
	ErrInvalidFile       = errors.New("invalid file")
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrEngineUnavailable is reported while a rendering engine has not
	// finished loading; the reader stays in a loading state rather than
	// falling back to another format.
	ErrEngineUnavailable = errors.New("rendering engine unavailable")
	// ErrUnrenderable marks a document whose source bytes failed to parse.
	// It is surfaced once as a persistent error state; there is no retry.
	ErrUnrenderable = errors.New("document is unrenderable")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
