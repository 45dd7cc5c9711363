package domain

import "time"

// SessionMinDuration is the floor below which a reading session is discarded
// rather than persisted, to keep momentary open/close actions out of the
// statistics.
const SessionMinDuration = 60 * time.Second

// ReadingSession records the active reading time of one reader-view session,
// idle time excluded. Immutable once written; consumed only for aggregate
// statistics.
type ReadingSession struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	DocumentID string    `json:"document_id" gorm:"index"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	// ActiveMs is the accumulated non-idle duration in milliseconds.
	ActiveMs int64 `json:"active_ms"`
}
