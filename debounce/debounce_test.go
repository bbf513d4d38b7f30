package debounce

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	values []string
	done   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 10)}
}

func (r *recorder) deliver(value string) {
	r.mu.Lock()
	r.values = append(r.values, value)
	r.mu.Unlock()

	r.done <- struct{}{}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.values...)
}

func TestOnlyLatestValueIsDelivered(t *testing.T) {
	rec := newRecorder()
	d := New(30*time.Millisecond, rec.deliver)

	d.Submit("c")
	d.Submit("ca")
	d.Submit("cat")

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("value was never delivered")
	}

	// give a stray timer the chance to fire
	time.Sleep(60 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "cat" {
		t.Fatalf("delivered %v, want [cat]", got)
	}
}

func TestZeroDelayDeliversSynchronously(t *testing.T) {
	rec := newRecorder()
	d := New(0, rec.deliver)

	d.Submit("now")

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "now" {
		t.Fatalf("delivered %v, want [now]", got)
	}
}

func TestFlushAndStop(t *testing.T) {
	rec := newRecorder()
	d := New(time.Hour, rec.deliver)

	if d.Flush() {
		t.Fatal("Flush reported a pending value on an idle debouncer")
	}

	d.Submit("pending")

	if !d.Flush() {
		t.Fatal("Flush did not deliver the pending value")
	}

	if got := rec.snapshot(); len(got) != 1 || got[0] != "pending" {
		t.Fatalf("delivered %v, want [pending]", got)
	}

	d.Submit("dropped")
	d.Stop()
	d.Submit("ignored")

	if d.Flush() {
		t.Fatal("Flush delivered after Stop")
	}

	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("delivered %v after Stop", got)
	}
}
