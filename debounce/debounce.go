package debounce

import (
	"sync"
	"time"
)

// Debouncer delivers the latest submitted value once no new value has arrived
// for the configured delay. Earlier values are dropped.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	deliver func(T)
	timer   *time.Timer
	latest  T
	seq     uint64
	stopped bool
}

func New[T any](delay time.Duration, deliver func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		delay:   delay,
		deliver: deliver,
	}
}

// Submit records value and restarts the quiet period. A zero or negative delay
// delivers synchronously.
func (d *Debouncer[T]) Submit(value T) {
	d.mu.Lock()

	if d.stopped {
		d.mu.Unlock()
		return
	}

	if d.delay <= 0 {
		d.seq++
		d.mu.Unlock()
		d.deliver(value)

		return
	}

	d.latest = value
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(seq)
	})

	d.mu.Unlock()
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()

	// a newer Submit superseded this timer after it had already started
	if seq != d.seq || d.stopped {
		d.mu.Unlock()
		return
	}

	value := d.latest
	d.timer = nil
	d.mu.Unlock()

	d.deliver(value)
}

// Flush delivers a pending value immediately. It reports whether there was one.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()

	if d.timer == nil || d.stopped {
		d.mu.Unlock()
		return false
	}

	d.timer.Stop()
	d.timer = nil
	d.seq++
	value := d.latest
	d.mu.Unlock()

	d.deliver(value)

	return true
}

// Stop drops any pending value. Later submissions are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.seq++

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
