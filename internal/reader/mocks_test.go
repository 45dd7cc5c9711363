package reader

import (
	"fmt"
	"time"

	"shelf-reader/internal/domain"
)

// mockStore is an in-memory AnnotationStore used across the package tests.
type mockStore struct {
	highlights []*domain.Highlight
	bookmarks  []*domain.Bookmark
	settings   *domain.ReadingSettings

	sessions []loggedSession

	progressCalls []progressCall
	pageCalls     []pageCall

	failNext error
}

type loggedSession struct {
	documentID string
	duration   time.Duration
}

type progressCall struct {
	id      string
	percent float64
	anchor  *string
}

type pageCall struct {
	id    string
	page  int
	total int
}

func newMockStore() *mockStore {
	return &mockStore{settings: domain.DefaultReadingSettings()}
}

func (m *mockStore) takeErr() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *mockStore) GetHighlightsForDocument(documentID string) ([]*domain.Highlight, error) {
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	var out []*domain.Highlight
	for _, h := range m.highlights {
		if h.DocumentID == documentID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockStore) AddHighlight(h *domain.Highlight) error {
	if err := m.takeErr(); err != nil {
		return err
	}
	if h.ID == "" {
		h.ID = fmt.Sprintf("hl-%d", len(m.highlights)+1)
	}
	h.CreatedAt = time.Now()
	m.highlights = append(m.highlights, h)
	return nil
}

func (m *mockStore) DeleteHighlight(id string) error {
	for i, h := range m.highlights {
		if h.ID == id {
			m.highlights = append(m.highlights[:i], m.highlights[i+1:]...)
			return nil
		}
	}
	return domain.ErrHighlightNotFound
}

func (m *mockStore) UpdateHighlightNote(id string, note string) error {
	for _, h := range m.highlights {
		if h.ID == id {
			h.Note = note
			return nil
		}
	}
	return domain.ErrHighlightNotFound
}

func (m *mockStore) UpdateHighlightColor(id string, color domain.HighlightColor) error {
	for _, h := range m.highlights {
		if h.ID == id {
			h.Color = color
			return nil
		}
	}
	return domain.ErrHighlightNotFound
}

func (m *mockStore) GetBookmarksForDocument(documentID string) ([]*domain.Bookmark, error) {
	var out []*domain.Bookmark
	for i := len(m.bookmarks) - 1; i >= 0; i-- {
		if m.bookmarks[i].DocumentID == documentID {
			out = append(out, m.bookmarks[i])
		}
	}
	return out, nil
}

func (m *mockStore) AddBookmark(b *domain.Bookmark) error {
	if err := m.takeErr(); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = fmt.Sprintf("bm-%d", len(m.bookmarks)+1)
	}
	if len(b.Thumbnail) > domain.ThumbnailMaxBytes {
		b.Thumbnail = nil
	}
	b.CreatedAt = time.Now()
	m.bookmarks = append(m.bookmarks, b)
	return nil
}

func (m *mockStore) DeleteBookmark(id string) error {
	for i, b := range m.bookmarks {
		if b.ID == id {
			m.bookmarks = append(m.bookmarks[:i], m.bookmarks[i+1:]...)
			return nil
		}
	}
	return domain.ErrBookmarkNotFound
}

func (m *mockStore) UpdateDocumentProgress(id string, percent float64, anchor *string) error {
	m.progressCalls = append(m.progressCalls, progressCall{id: id, percent: percent, anchor: anchor})
	return nil
}

func (m *mockStore) UpdateDocumentPage(id string, page, totalPages int) error {
	m.pageCalls = append(m.pageCalls, pageCall{id: id, page: page, total: totalPages})
	return nil
}

func (m *mockStore) GetSettings() (*domain.ReadingSettings, error) { return m.settings, nil }

func (m *mockStore) SaveSettings(s *domain.ReadingSettings) error {
	m.settings = s
	return nil
}

func (m *mockStore) LogReadingSession(documentID string, activeDuration time.Duration) error {
	if err := m.takeErr(); err != nil {
		return err
	}
	if activeDuration < domain.SessionMinDuration {
		return nil
	}
	m.sessions = append(m.sessions, loggedSession{documentID: documentID, duration: activeDuration})
	return nil
}

// fakeClock is a manually advanced clock for session tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
