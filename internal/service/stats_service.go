package service

import (
	"time"

	"shelf-reader/internal/domain"
)

// DocumentStats aggregates the persisted reading sessions of one document.
type DocumentStats struct {
	DocumentID   string        `json:"document_id"`
	Sessions     int           `json:"sessions"`
	ActiveTime   time.Duration `json:"active_time"`
	LastReadAt   time.Time     `json:"last_read_at"`
	AvgPerDay    time.Duration `json:"avg_per_day"`
	LongestSpell time.Duration `json:"longest_spell"`
}

// StatsService computes reading-time aggregates from persisted sessions.
// Sessions are immutable once written; everything here is derived.
type StatsService struct {
	library domain.LibraryStore
	logger  domain.Logger
}

func NewStatsService(library domain.LibraryStore, logger domain.Logger) *StatsService {
	return &StatsService{library: library, logger: logger}
}

// ForDocument aggregates one document's sessions.
func (s *StatsService) ForDocument(documentID string) (*DocumentStats, error) {
	sessions, err := s.library.GetSessionsForDocument(documentID)
	if err != nil {
		return nil, err
	}
	return aggregate(documentID, sessions), nil
}

// Totals aggregates across the whole library, keyed by document.
func (s *StatsService) Totals() (map[string]*DocumentStats, error) {
	sessions, err := s.library.ListSessions()
	if err != nil {
		return nil, err
	}
	byDoc := make(map[string][]*domain.ReadingSession)
	for _, session := range sessions {
		byDoc[session.DocumentID] = append(byDoc[session.DocumentID], session)
	}
	out := make(map[string]*DocumentStats, len(byDoc))
	for id, docSessions := range byDoc {
		out[id] = aggregate(id, docSessions)
	}
	return out, nil
}

func aggregate(documentID string, sessions []*domain.ReadingSession) *DocumentStats {
	stats := &DocumentStats{DocumentID: documentID, Sessions: len(sessions)}
	if len(sessions) == 0 {
		return stats
	}
	days := map[string]bool{}
	for _, session := range sessions {
		d := time.Duration(session.ActiveMs) * time.Millisecond
		stats.ActiveTime += d
		if d > stats.LongestSpell {
			stats.LongestSpell = d
		}
		if session.EndedAt.After(stats.LastReadAt) {
			stats.LastReadAt = session.EndedAt
		}
		days[session.EndedAt.Format("2006-01-02")] = true
	}
	if len(days) > 0 {
		stats.AvgPerDay = stats.ActiveTime / time.Duration(len(days))
	}
	return stats
}
