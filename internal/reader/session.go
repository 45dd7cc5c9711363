package reader

import (
	"time"

	"shelf-reader/internal/domain"
)

// DefaultIdleTimeout is how long without an activity signal the tracker waits
// before transitioning Active to Idle.
const DefaultIdleTimeout = 60 * time.Second

// Clock abstracts time for the tracker so tests can drive it deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// SessionTracker measures active reading time for one open reader view.
// It is a two-state machine, Active and Idle: any user-activity signal makes
// it Active immediately; a fixed interval with no signal makes it Idle. Time
// is accumulated only across active stretches, measured up to the last
// observed activity when an idle transition occurs, so idle gaps never count.
type SessionTracker struct {
	store  domain.AnnotationStore
	logger domain.Logger
	clock  Clock

	documentID  string
	idleTimeout time.Duration

	active       bool
	activeSince  time.Time
	lastActivity time.Time
	accumulated  time.Duration
	startedAt    time.Time
	stopped      bool
}

func NewSessionTracker(store domain.AnnotationStore, logger domain.Logger, documentID string, idleTimeout time.Duration, clock Clock) *SessionTracker {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if clock == nil {
		clock = SystemClock()
	}
	now := clock.Now()
	return &SessionTracker{
		store:        store,
		logger:       logger,
		clock:        clock,
		documentID:   documentID,
		idleTimeout:  idleTimeout,
		active:       true,
		activeSince:  now,
		lastActivity: now,
		startedAt:    now,
	}
}

// Activity records a user-activity signal (key press, pointer move, scroll).
// It resets the idle timer and, when idle, transitions back to Active.
func (t *SessionTracker) Activity() {
	if t.stopped {
		return
	}
	now := t.clock.Now()
	if !t.active {
		t.active = true
		t.activeSince = now
	}
	t.lastActivity = now
}

// Tick drives the periodic accumulation check; the host calls it about once
// per second. When the idle timeout elapses without activity the tracker
// banks the active stretch up to the last activity and goes Idle.
func (t *SessionTracker) Tick() {
	if t.stopped || !t.active {
		return
	}
	now := t.clock.Now()
	if now.Sub(t.lastActivity) >= t.idleTimeout {
		t.accumulated += t.lastActivity.Sub(t.activeSince)
		t.active = false
	}
}

// ActiveDuration returns the accumulated active time, including the current
// active stretch.
func (t *SessionTracker) ActiveDuration() time.Duration {
	total := t.accumulated
	if t.active && !t.stopped {
		total += t.clock.Now().Sub(t.activeSince)
	}
	return total
}

// Idle reports whether the tracker is currently in the Idle state.
func (t *SessionTracker) Idle() bool { return !t.active }

// Stop ends the session on view teardown and persists it when the active
// duration clears the minimum threshold; shorter sessions are discarded
// silently by the store.
func (t *SessionTracker) Stop() error {
	if t.stopped {
		return nil
	}
	if t.active {
		t.accumulated += t.clock.Now().Sub(t.activeSince)
		t.active = false
	}
	t.stopped = true
	t.logger.Debug("reading session ended",
		"document_id", t.documentID, "active_ms", t.accumulated.Milliseconds())
	return t.store.LogReadingSession(t.documentID, t.accumulated)
}
