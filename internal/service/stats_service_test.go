package service

import (
	"testing"
	"time"

	"shelf-reader/internal/domain"
	"shelf-reader/pkg/logger"
)

func sessionAt(docID string, ended time.Time, active time.Duration) *domain.ReadingSession {
	return &domain.ReadingSession{
		DocumentID: docID,
		StartedAt:  ended.Add(-active),
		EndedAt:    ended,
		ActiveMs:   active.Milliseconds(),
	}
}

func TestStatsForDocument(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	library := &mockLibrary{sessions: []*domain.ReadingSession{
		sessionAt("doc-1", day1, 10*time.Minute),
		sessionAt("doc-1", day1.Add(2*time.Hour), 20*time.Minute),
		sessionAt("doc-1", day2, 30*time.Minute),
		sessionAt("doc-2", day2, 5*time.Minute),
	}}
	svc := NewStatsService(library, logger.NewNop())

	stats, err := svc.ForDocument("doc-1")
	if err != nil {
		t.Fatalf("ForDocument returned error: %v", err)
	}
	if stats.Sessions != 3 {
		t.Errorf("expected 3 sessions, got %d", stats.Sessions)
	}
	if stats.ActiveTime != 60*time.Minute {
		t.Errorf("expected 60m active, got %s", stats.ActiveTime)
	}
	if stats.LongestSpell != 30*time.Minute {
		t.Errorf("expected 30m longest spell, got %s", stats.LongestSpell)
	}
	if !stats.LastReadAt.Equal(day2) {
		t.Errorf("expected last read at %s, got %s", day2, stats.LastReadAt)
	}
	// Two distinct reading days.
	if stats.AvgPerDay != 30*time.Minute {
		t.Errorf("expected 30m per day, got %s", stats.AvgPerDay)
	}
}

func TestStatsForDocumentWithoutSessions(t *testing.T) {
	svc := NewStatsService(&mockLibrary{}, logger.NewNop())
	stats, err := svc.ForDocument("doc-1")
	if err != nil {
		t.Fatalf("ForDocument returned error: %v", err)
	}
	if stats.Sessions != 0 || stats.ActiveTime != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
}

func TestStatsTotalsGroupsByDocument(t *testing.T) {
	now := time.Now()
	library := &mockLibrary{sessions: []*domain.ReadingSession{
		sessionAt("doc-1", now, 10*time.Minute),
		sessionAt("doc-2", now, 20*time.Minute),
		sessionAt("doc-2", now.Add(time.Hour), 5*time.Minute),
	}}
	svc := NewStatsService(library, logger.NewNop())

	totals, err := svc.Totals()
	if err != nil {
		t.Fatalf("Totals returned error: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected stats for 2 documents, got %d", len(totals))
	}
	if totals["doc-2"].Sessions != 2 || totals["doc-2"].ActiveTime != 25*time.Minute {
		t.Errorf("unexpected doc-2 stats: %+v", totals["doc-2"])
	}
}
