package reader

import (
	"testing"
	"time"

	"shelf-reader/pkg/logger"
)

func TestSessionTrackerIdleGapNotCounted(t *testing.T) {
	store := newMockStore()
	clock := newFakeClock()
	tracker := NewSessionTracker(store, logger.NewNop(), "doc-1", 60*time.Second, clock)

	// 30s of activity, one signal per second.
	for i := 0; i < 30; i++ {
		clock.Advance(time.Second)
		tracker.Activity()
		tracker.Tick()
	}

	// 90s walk-away. Ticks keep arriving but no activity does; the tracker
	// goes idle at the 60s mark.
	for i := 0; i < 90; i++ {
		clock.Advance(time.Second)
		tracker.Tick()
	}
	if !tracker.Idle() {
		t.Fatal("expected tracker to be idle after 90s without activity")
	}

	// 40s of renewed activity. The first signal wakes the tracker.
	tracker.Activity()
	for i := 0; i < 40; i++ {
		clock.Advance(time.Second)
		tracker.Activity()
		tracker.Tick()
	}
	if tracker.Idle() {
		t.Fatal("expected tracker to be active again")
	}

	if err := tracker.Stop(); err != nil {
		t.Fatalf("Stop() returned error: %v", err)
	}

	if len(store.sessions) != 1 {
		t.Fatalf("expected 1 logged session, got %d", len(store.sessions))
	}
	got := store.sessions[0].duration
	if got != 70*time.Second {
		t.Errorf("expected 70s of active time, got %s", got)
	}
	if store.sessions[0].documentID != "doc-1" {
		t.Errorf("expected document doc-1, got %s", store.sessions[0].documentID)
	}
}

func TestSessionTrackerShortSessionDiscarded(t *testing.T) {
	store := newMockStore()
	clock := newFakeClock()
	tracker := NewSessionTracker(store, logger.NewNop(), "doc-1", 60*time.Second, clock)

	for i := 0; i < 30; i++ {
		clock.Advance(time.Second)
		tracker.Activity()
		tracker.Tick()
	}
	if err := tracker.Stop(); err != nil {
		t.Fatalf("Stop() returned error: %v", err)
	}

	// 30s is below the session floor; the store drops it.
	if len(store.sessions) != 0 {
		t.Fatalf("expected no logged sessions, got %d", len(store.sessions))
	}
}

func TestSessionTrackerActivityWakesFromIdle(t *testing.T) {
	store := newMockStore()
	clock := newFakeClock()
	tracker := NewSessionTracker(store, logger.NewNop(), "doc-1", 60*time.Second, clock)

	clock.Advance(90 * time.Second)
	tracker.Tick()
	if !tracker.Idle() {
		t.Fatal("expected idle after timeout")
	}

	tracker.Activity()
	if tracker.Idle() {
		t.Fatal("expected active immediately after activity signal")
	}
}

func TestSessionTrackerStopIsIdempotent(t *testing.T) {
	store := newMockStore()
	clock := newFakeClock()
	tracker := NewSessionTracker(store, logger.NewNop(), "doc-1", 60*time.Second, clock)

	clock.Advance(120 * time.Second)
	tracker.Activity()
	if err := tracker.Stop(); err != nil {
		t.Fatalf("Stop() returned error: %v", err)
	}
	if err := tracker.Stop(); err != nil {
		t.Fatalf("second Stop() returned error: %v", err)
	}
	if len(store.sessions) != 1 {
		t.Fatalf("expected 1 logged session, got %d", len(store.sessions))
	}
}
