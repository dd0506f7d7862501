package listview

import (
	"sync"
	"time"
)

const SearchDebounceInterval = 300 * time.Millisecond

// Debouncer runs a function after a quiet period; every new call resets
// the wait, so only the last call in a burst runs. Used to keep search
// input from recomputing the list per keystroke.
type Debouncer struct {
	mu    sync.Mutex
	d     time.Duration
	timer *time.Timer
}

func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = SearchDebounceInterval
	}

	return &Debouncer{d: d}
}

func (db *Debouncer) Do(fn func()) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(db.d, fn)
}

func (db *Debouncer) Stop() {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}
