package store

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCollapsesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls, last atomic.Int32
	for i := int32(1); i <= 5; i++ {
		v := i
		d.Schedule(func() { calls.Add(1); last.Store(v) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(120 * time.Millisecond)
	if calls.Load() != 1 || last.Load() != 5 {
		t.Fatalf("expected one trailing call with the last fn, got calls=%d last=%d", calls.Load(), last.Load())
	}
}

func TestDebouncerFlushAndStop(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var calls atomic.Int32
	d.Schedule(func() { calls.Add(1) })
	if !d.Pending() {
		t.Fatalf("expected pending")
	}
	d.Flush()
	if calls.Load() != 1 || d.Pending() {
		t.Fatalf("flush should run once, calls=%d", calls.Load())
	}
	d.Flush()
	if calls.Load() != 1 {
		t.Fatalf("second flush should be a no-op")
	}

	d.Schedule(func() { calls.Add(1) })
	d.Stop()
	d.Schedule(func() { calls.Add(1) })
	d.Flush()
	if calls.Load() != 1 {
		t.Fatalf("stopped debouncer ran, calls=%d", calls.Load())
	}
}
