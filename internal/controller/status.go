package controller

import (
	"sync"
	"time"

	"github.com/crypto-dashboard/internal/types"
)

// StatusTracker follows idle -> saving -> saved|error -> idle. The return
// to idle is timer driven; a newer transition cancels a pending reset.
type StatusTracker struct {
	mu         sync.Mutex
	status     types.SaveStatus
	generation uint64
	delay      time.Duration
	timer      *time.Timer
	changedAt  time.Time
}

// NewStatusTracker creates an idle tracker that resets after delay
func NewStatusTracker(delay time.Duration) *StatusTracker {
	return &StatusTracker{
		status:    types.SaveStatusIdle,
		delay:     delay,
		changedAt: time.Now(),
	}
}

// Status returns the current status
func (t *StatusTracker) Status() types.SaveStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// ChangedAt returns when the status last changed
func (t *StatusTracker) ChangedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.changedAt
}

// Begin moves to saving
func (t *StatusTracker) Begin() {
	t.set(types.SaveStatusSaving, false)
}

// Finish moves to saved or error and schedules the return to idle
func (t *StatusTracker) Finish(ok bool) {
	if ok {
		t.set(types.SaveStatusSaved, true)
		return
	}
	t.set(types.SaveStatusError, true)
}

func (t *StatusTracker) set(status types.SaveStatus, scheduleReset bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	t.status = status
	t.changedAt = time.Now()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if !scheduleReset {
		return
	}

	gen := t.generation
	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.generation != gen {
			return
		}
		t.status = types.SaveStatusIdle
		t.changedAt = time.Now()
		t.timer = nil
	})
}

// Stop cancels a pending reset
func (t *StatusTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
