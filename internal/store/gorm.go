package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shelf-reader/internal/domain"
)

var _ Store = (*GormStore)(nil)

// GormStore implements Store on a local SQLite database.
type GormStore struct {
	db     *gorm.DB
	logger domain.Logger

	thumbnailMaxBytes int
	sessionFloor      time.Duration
}

// Option configures a GormStore.
type Option func(*GormStore)

// WithThumbnailCap overrides the bookmark thumbnail byte ceiling.
func WithThumbnailCap(maxBytes int) Option {
	return func(g *GormStore) { g.thumbnailMaxBytes = maxBytes }
}

// WithSessionFloor overrides the minimum persisted session duration.
func WithSessionFloor(floor time.Duration) Option {
	return func(g *GormStore) { g.sessionFloor = floor }
}

func NewGormStore(db *gorm.DB, logger domain.Logger, opts ...Option) *GormStore {
	g := &GormStore{
		db:                db,
		logger:            logger,
		thumbnailMaxBytes: domain.ThumbnailMaxBytes,
		sessionFloor:      domain.SessionMinDuration,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GormStore) Migrate() error {
	return Migrate(g.db)
}

func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- documents ---

func (g *GormStore) CreateDocument(d *domain.Document) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.AddedAt.IsZero() {
		d.AddedAt = time.Now()
	}
	return g.db.Create(d).Error
}

func (g *GormStore) GetDocument(id string) (*domain.Document, error) {
	var doc domain.Document
	err := g.db.Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (g *GormStore) ListDocuments() ([]*domain.Document, error) {
	var docs []*domain.Document
	err := g.db.Order("last_accessed desc, added_at desc").Find(&docs).Error
	return docs, err
}

// DeleteDocument removes the document and cascades to every dependent entity.
func (g *GormStore) DeleteDocument(id string) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&domain.Highlight{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&domain.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&domain.ReadingSession{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Document{}).Error
	})
}

func (g *GormStore) TouchDocument(id string, at time.Time) error {
	return g.db.Model(&domain.Document{}).Where("id = ?", id).
		Update("last_accessed", at).Error
}

// --- highlights ---

func (g *GormStore) GetHighlightsForDocument(documentID string) ([]*domain.Highlight, error) {
	var highlights []*domain.Highlight
	err := g.db.Where("document_id = ?", documentID).Order("created_at asc").Find(&highlights).Error
	return highlights, err
}

func (g *GormStore) AddHighlight(h *domain.Highlight) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	return g.db.Create(h).Error
}

func (g *GormStore) DeleteHighlight(id string) error {
	res := g.db.Where("id = ?", id).Delete(&domain.Highlight{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrHighlightNotFound
	}
	return nil
}

func (g *GormStore) UpdateHighlightNote(id string, note string) error {
	return g.updateHighlightColumn(id, "note", note)
}

func (g *GormStore) UpdateHighlightColor(id string, color domain.HighlightColor) error {
	return g.updateHighlightColumn(id, "color", color)
}

func (g *GormStore) updateHighlightColumn(id, column string, value interface{}) error {
	res := g.db.Model(&domain.Highlight{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrHighlightNotFound
	}
	return nil
}

// --- bookmarks ---

func (g *GormStore) GetBookmarksForDocument(documentID string) ([]*domain.Bookmark, error) {
	var bookmarks []*domain.Bookmark
	err := g.db.Where("document_id = ?", documentID).Order("created_at desc").Find(&bookmarks).Error
	return bookmarks, err
}

// AddBookmark persists a bookmark. An oversized thumbnail is dropped, never a
// reason to reject the bookmark itself.
func (g *GormStore) AddBookmark(b *domain.Bookmark) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if len(b.Thumbnail) > g.thumbnailMaxBytes {
		g.logger.Debug("dropping oversized bookmark thumbnail",
			"bookmark_id", b.ID, "size", len(b.Thumbnail), "cap", g.thumbnailMaxBytes)
		b.Thumbnail = nil
	}
	return g.db.Create(b).Error
}

func (g *GormStore) DeleteBookmark(id string) error {
	res := g.db.Where("id = ?", id).Delete(&domain.Bookmark{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrBookmarkNotFound
	}
	return nil
}

// --- progress ---

func (g *GormStore) UpdateDocumentProgress(id string, percent float64, anchor *string) error {
	updates := map[string]interface{}{
		"progress":      domain.ClampPercent(percent),
		"last_accessed": time.Now(),
	}
	if anchor != nil {
		updates["resume_anchor"] = *anchor
	}
	res := g.db.Model(&domain.Document{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (g *GormStore) UpdateDocumentPage(id string, page, totalPages int) error {
	updates := map[string]interface{}{
		"current_page":  page,
		"progress":      domain.PageToPercent(page, totalPages),
		"last_accessed": time.Now(),
	}
	if totalPages > 0 {
		updates["page_count"] = totalPages
	}
	res := g.db.Model(&domain.Document{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// --- settings ---

// GetSettings returns the single global settings row, creating defaults on
// first call.
func (g *GormStore) GetSettings() (*domain.ReadingSettings, error) {
	var settings domain.ReadingSettings
	err := g.db.First(&settings, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		defaults := domain.DefaultReadingSettings()
		defaults.UpdatedAt = time.Now()
		if err := g.db.Create(defaults).Error; err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (g *GormStore) SaveSettings(s *domain.ReadingSettings) error {
	s.ID = 1
	s.UpdatedAt = time.Now()
	return g.db.Save(s).Error
}

// --- sessions ---

// LogReadingSession persists a completed session, silently ignoring durations
// below the floor.
func (g *GormStore) LogReadingSession(documentID string, activeDuration time.Duration) error {
	if activeDuration < g.sessionFloor {
		g.logger.Debug("discarding short reading session",
			"document_id", documentID, "active_ms", activeDuration.Milliseconds())
		return nil
	}
	now := time.Now()
	session := &domain.ReadingSession{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		StartedAt:  now.Add(-activeDuration),
		EndedAt:    now,
		ActiveMs:   activeDuration.Milliseconds(),
	}
	return g.db.Create(session).Error
}

func (g *GormStore) GetSessionsForDocument(documentID string) ([]*domain.ReadingSession, error) {
	var sessions []*domain.ReadingSession
	err := g.db.Where("document_id = ?", documentID).Order("ended_at desc").Find(&sessions).Error
	return sessions, err
}

func (g *GormStore) ListSessions() ([]*domain.ReadingSession, error) {
	var sessions []*domain.ReadingSession
	err := g.db.Order("ended_at desc").Find(&sessions).Error
	return sessions, err
}
