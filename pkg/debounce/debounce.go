// Package debounce delays a call until its key has been quiet for a window.
// Each new Trigger for a key cancels the call scheduled before it.
//
//	d := debounce.New[int64](300 * time.Millisecond)
//	d.Trigger(specID, func() { editor.EditField(specID, value) })
//	...
//	d.Flush() // run whatever is still pending, e.g. on submit
package debounce

import (
	"sync"
	"time"
)

type entry struct {
	timer *time.Timer
	fn    func()
}

// Keyed debounces calls independently per key.
type Keyed[K comparable] struct {
	mu      sync.Mutex
	idle    *sync.Cond // signalled when firing drops to zero
	window  time.Duration
	pending map[K]*entry
	firing  int
}

// New returns a Keyed debouncer. A window <= 0 runs calls synchronously.
func New[K comparable](window time.Duration) *Keyed[K] {
	d := &Keyed[K]{window: window, pending: make(map[K]*entry)}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger schedules fn for key, replacing any call still pending for it.
func (d *Keyed[K]) Trigger(key K, fn func()) {
	if d.window <= 0 {
		d.mu.Lock()
		d.stopLocked(key)
		d.mu.Unlock()
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked(key)
	e := &entry{fn: fn}
	e.timer = time.AfterFunc(d.window, func() { d.fire(key, e) })
	d.pending[key] = e
}

func (d *Keyed[K]) fire(key K, e *entry) {
	d.mu.Lock()
	if d.pending[key] != e {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.firing++
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.firing--
		if d.firing == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}()
	e.fn()
}

func (d *Keyed[K]) stopLocked(key K) {
	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
		delete(d.pending, key)
	}
}

// Flush runs every pending call now, on the caller's goroutine, and waits
// for calls whose timer already fired to return.
func (d *Keyed[K]) Flush() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.pending))
	for key, e := range d.pending {
		e.timer.Stop()
		fns = append(fns, e.fn)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}

	d.mu.Lock()
	for d.firing > 0 {
		d.idle.Wait()
	}
	d.mu.Unlock()
}

// Cancel drops every pending call without running it.
func (d *Keyed[K]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.pending {
		d.stopLocked(key)
	}
}

// Pending reports how many keys have a call scheduled.
func (d *Keyed[K]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
