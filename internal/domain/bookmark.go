package domain

import "time"

// BookmarkType distinguishes plain position markers from favorites.
type BookmarkType string

const (
	BookmarkStandard BookmarkType = "standard"
	BookmarkFavorite BookmarkType = "favorite"
)

// ThumbnailMaxBytes is the default ceiling for a bookmark's raster preview.
// Oversized thumbnails are dropped before persistence, never rejected outright.
const ThumbnailMaxBytes = 64 * 1024

// Bookmark is a resumable location snapshot. Percentage is always present and
// drives progress-bar placement; page number, anchor, preview text, and
// thumbnail are format-dependent enrichments.
type Bookmark struct {
	ID         string       `json:"id" gorm:"primaryKey"`
	DocumentID string       `json:"document_id" gorm:"index"`
	Type       BookmarkType `json:"type"`

	Percentage float64 `json:"percentage"`
	PageNumber *int    `json:"page_number,omitempty"`
	Anchor     *string `json:"anchor,omitempty"`

	Preview   string `json:"preview,omitempty"`
	Thumbnail []byte `json:"-" gorm:"type:blob"`

	CreatedAt time.Time `json:"created_at"`
}
