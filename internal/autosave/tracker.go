package autosave

import (
	"sync"
	"time"
)

const DefaultIdleGap = 2 * time.Minute

// Tracker attributes writing time to files from their change activity:
// the time between two consecutive changes counts unless it exceeds the idle gap.
type Tracker struct {
	idleGap time.Duration
	now     func() time.Time
	mu      sync.Mutex
	files   map[string]*activity
}

type activity struct {
	last        time.Time
	accumulated time.Duration
}

func NewTracker(idleGap time.Duration) *Tracker {
	if idleGap <= 0 {
		idleGap = DefaultIdleGap
	}
	return &Tracker{idleGap: idleGap, now: time.Now, files: make(map[string]*activity)}
}

// Touch registers a change of the file.
func (t *Tracker) Touch(path string) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	state, known := t.files[path]
	if !known {
		t.files[path] = &activity{last: now}
		return
	}
	if gap := now.Sub(state.last); gap > 0 && gap <= t.idleGap {
		state.accumulated += gap
	}
	state.last = now
}

// Take returns the writing time collected since the previous call and resets it.
func (t *Tracker) Take(path string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, known := t.files[path]
	if !known {
		return 0
	}
	taken := state.accumulated
	state.accumulated = 0
	return taken
}
