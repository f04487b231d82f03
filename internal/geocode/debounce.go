package geocode

import (
	"context"
	"strings"
	"sync"
	"time"
)

const minQueryLen = 3

// Searcher is the part of the geocoder the debouncer wraps.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Debouncer coalesces a stream of keystroke-level queries into at most one
// geocoder call per quiet period. Queries shorter than three characters
// clear pending work and deliver nothing.
type Debouncer struct {
	searcher Searcher
	delay    time.Duration
	deliver  func(query string, results []Result, err error)

	mu    sync.Mutex
	timer *time.Timer
	seq   int
}

// NewDebouncer wraps a searcher. deliver is called from a background
// goroutine with the results of the last surviving query.
func NewDebouncer(s Searcher, delay time.Duration, deliver func(query string, results []Result, err error)) *Debouncer {
	return &Debouncer{searcher: s, delay: delay, deliver: deliver}
}

// Query schedules a search after the quiet period, replacing any search
// still pending.
func (d *Debouncer) Query(ctx context.Context, query string) {
	query = strings.TrimSpace(query)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(query) < minQueryLen {
		return
	}

	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		results, err := d.searcher.Search(ctx, query)

		d.mu.Lock()
		stale := seq != d.seq
		d.mu.Unlock()
		if stale {
			return
		}
		d.deliver(query, results, err)
	})
}

// Cancel drops any pending search.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
