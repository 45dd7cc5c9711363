package domain

import "time"

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetDataDir() string
	GetDatabasePath() string
	GetLogLevel() string
	GetIdleTimeout() time.Duration
	GetSessionFloor() time.Duration
	GetThumbnailMaxBytes() int
	GetFlowedPageChars() int
}

// AnnotationStore is the persistence contract consumed by the reader core for
// highlights, bookmarks, progress, settings, and reading sessions. All
// mutations are atomic with respect to the underlying store.
type AnnotationStore interface {
	GetHighlightsForDocument(documentID string) ([]*Highlight, error)
	AddHighlight(h *Highlight) error
	DeleteHighlight(id string) error
	UpdateHighlightNote(id string, note string) error
	UpdateHighlightColor(id string, color HighlightColor) error

	// GetBookmarksForDocument returns bookmarks sorted by recency, newest first.
	GetBookmarksForDocument(documentID string) ([]*Bookmark, error)
	// AddBookmark persists a bookmark, dropping any thumbnail over the size cap.
	AddBookmark(b *Bookmark) error
	DeleteBookmark(id string) error

	UpdateDocumentProgress(id string, percent float64, anchor *string) error
	UpdateDocumentPage(id string, page, totalPages int) error

	// GetSettings returns the global reading settings, creating defaults on
	// first call.
	GetSettings() (*ReadingSettings, error)
	SaveSettings(s *ReadingSettings) error

	// LogReadingSession persists a completed session. Durations below the
	// session floor are silently ignored.
	LogReadingSession(documentID string, activeDuration time.Duration) error
}

// LibraryStore is the document-level persistence contract consumed by the
// import pipeline and the library listing.
type LibraryStore interface {
	CreateDocument(d *Document) error
	GetDocument(id string) (*Document, error)
	// ListDocuments returns all documents ordered by last access, newest first.
	ListDocuments() ([]*Document, error)
	// DeleteDocument removes a document and cascades to its highlights,
	// bookmarks, and sessions.
	DeleteDocument(id string) error
	TouchDocument(id string, at time.Time) error

	GetSessionsForDocument(documentID string) ([]*ReadingSession, error)
	ListSessions() ([]*ReadingSession, error)
}
