package health

import (
	"sync"
	"time"
)

// Freshness answers "is the most recent update still within its validity
// window, right now". An update makes it immediately true; a one-shot timer
// sized to the remaining window flips it to false, so there is no polling.
// With no update recorded it is always false.
type Freshness struct {
	window   time.Duration
	onChange func(fresh bool)
	now      func() time.Time

	mu    sync.Mutex
	fresh bool
	timer *time.Timer
}

// NewFreshness creates a tracker for the given validity window. onChange may
// be nil; when set it is invoked on every transition, outside the lock.
func NewFreshness(window time.Duration, onChange func(fresh bool)) *Freshness {
	return &Freshness{
		window:   window,
		onChange: onChange,
		now:      time.Now,
	}
}

// Update records a new last-update timestamp. Data that is already past its
// window still reads fresh until the zero-delay timer fires.
func (f *Freshness) Update(lastUpdated time.Time) {
	remaining := f.window - f.now().Sub(lastUpdated)
	if remaining < 0 {
		remaining = 0
	}

	f.mu.Lock()
	changed := !f.fresh
	f.fresh = true
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(remaining, f.expire)
	f.mu.Unlock()

	if changed {
		f.notify(true)
	}
}

// Clear resets the tracker to the no-update-recorded state.
func (f *Freshness) Clear() {
	f.mu.Lock()
	changed := f.fresh
	f.fresh = false
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.mu.Unlock()

	if changed {
		f.notify(false)
	}
}

func (f *Freshness) expire() {
	f.mu.Lock()
	changed := f.fresh
	f.fresh = false
	f.timer = nil
	f.mu.Unlock()

	if changed {
		f.notify(false)
	}
}

func (f *Freshness) Fresh() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fresh
}

func (f *Freshness) notify(fresh bool) {
	if f.onChange != nil {
		f.onChange(fresh)
	}
}
