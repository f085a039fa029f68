package workspace

import (
	"sync"
	"time"

	"xcsc/internal/source"
)

// Debouncer coalesces rapid change events per path: each new event restarts
// the path's timer, and the callback runs only once the path has been quiet
// for the whole delay.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// Trigger (re)starts the timer for path; fn runs on expiry on a timer
// goroutine.
func (d *Debouncer) Trigger(path string, fn func()) {
	key := source.NormalizePath(path)
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

// Cancel stops any pending timer for path.
func (d *Debouncer) Cancel(path string) {
	key := source.NormalizePath(path)
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

// CancelAll stops every pending timer.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
