// internal/poller/poller_test.go - Unit tests for the polling scheduler
package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// recorder captures invocation start times and detects overlap
type recorder struct {
	mu       sync.Mutex
	starts   []time.Time
	inFlight int32
	overlaps int32
}

func (r *recorder) callback(hold time.Duration) Callback {
	return func(ctx context.Context) error {
		if atomic.AddInt32(&r.inFlight, 1) > 1 {
			atomic.AddInt32(&r.overlaps, 1)
		}
		r.mu.Lock()
		r.starts = append(r.starts, time.Now())
		r.mu.Unlock()

		time.Sleep(hold)
		atomic.AddInt32(&r.inFlight, -1)
		return nil
	}
}

func (r *recorder) startTimes() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Time, len(r.starts))
	copy(out, r.starts)
	return out
}

func TestPollerSerializesExecutions(t *testing.T) {
	rec := &recorder{}
	hold := 150 * time.Millisecond

	p := New(60*time.Millisecond, rec.callback(hold))
	p.Start(true)
	time.Sleep(700 * time.Millisecond)
	p.Dispose()
	time.Sleep(200 * time.Millisecond)

	if n := atomic.LoadInt32(&rec.overlaps); n != 0 {
		t.Fatalf("observed %d overlapping executions", n)
	}

	starts := rec.startTimes()
	if len(starts) < 2 {
		t.Fatalf("expected multiple executions, got %d", len(starts))
	}
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		// Successive starts can never be closer than the callback's own
		// duration; allow a small scheduling tolerance.
		if gap < hold-20*time.Millisecond {
			t.Errorf("executions %d and %d only %v apart, callback takes %v", i-1, i, gap, hold)
		}
	}
}

func TestPollerSetIntervalMidFlight(t *testing.T) {
	release := make(chan struct{})
	var starts []time.Time
	var mu sync.Mutex

	p := New(60*time.Millisecond, func(ctx context.Context) error {
		mu.Lock()
		starts = append(starts, time.Now())
		first := len(starts) == 1
		mu.Unlock()
		if first {
			<-release
		}
		return nil
	})

	p.Start(true)
	time.Sleep(50 * time.Millisecond) // first execution is now in flight
	p.SetInterval(0.4)

	completed := time.Now()
	close(release)

	time.Sleep(600 * time.Millisecond)
	p.Dispose()

	mu.Lock()
	defer mu.Unlock()
	if len(starts) < 2 {
		t.Fatalf("expected a second execution, got %d", len(starts))
	}
	gap := starts[1].Sub(completed)
	if gap < 350*time.Millisecond {
		t.Errorf("second execution %v after completion, want the new 400ms interval", gap)
	}
}

func TestPollerStopPreventsFurtherTicks(t *testing.T) {
	var count int32
	p := New(60*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	p.Start(false)
	time.Sleep(150 * time.Millisecond)
	p.Stop()
	observed := atomic.LoadInt32(&count)

	time.Sleep(300 * time.Millisecond)
	if got := atomic.LoadInt32(&count); got != observed {
		t.Errorf("executions continued after Stop: %d -> %d", observed, got)
	}

	if p.Snapshot().Running {
		t.Error("poller still reports running after Stop")
	}
}

func TestPollerTriggerNow(t *testing.T) {
	var count int32
	p := New(10*time.Second, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	defer p.Dispose()

	p.Start(false)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&count); got != 0 {
		t.Fatalf("executed %d times before the first tick was due", got)
	}

	p.TriggerNow()
	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&count); got != 1 {
		t.Errorf("TriggerNow produced %d executions, want 1", got)
	}
}

func TestPollerTriggerNowWhileIdle(t *testing.T) {
	var count int32
	p := New(time.Second, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	defer p.Dispose()

	// Not started: must be a no-op.
	p.TriggerNow()
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&count); got != 0 {
		t.Errorf("TriggerNow executed %d times on a stopped poller", got)
	}
}

func TestPollerErrorDoesNotStopLoop(t *testing.T) {
	var count int32
	p := New(60*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return errors.New("transient failure")
	})

	p.Start(true)
	time.Sleep(300 * time.Millisecond)
	p.Dispose()

	if got := atomic.LoadInt32(&count); got < 3 {
		t.Errorf("loop made %d executions despite rescheduling on error, want at least 3", got)
	}
}

func TestPollerPanicDoesNotStopLoop(t *testing.T) {
	var count int32
	p := New(60*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		panic("render blew up")
	})

	p.Start(true)
	time.Sleep(300 * time.Millisecond)
	p.Dispose()

	if got := atomic.LoadInt32(&count); got < 3 {
		t.Errorf("loop made %d executions despite panics, want at least 3", got)
	}
}

func TestPollerIntervalClamping(t *testing.T) {
	p := New(0, func(ctx context.Context) error { return nil })
	defer p.Dispose()

	if got := p.Snapshot().Interval; got != MinInterval {
		t.Errorf("constructor interval = %v, want clamp to %v", got, MinInterval)
	}

	for _, seconds := range []float64{0, -3, -0.001} {
		p.SetInterval(seconds)
		if got := p.Snapshot().Interval; got != MinInterval {
			t.Errorf("SetInterval(%f): interval = %v, want %v", seconds, got, MinInterval)
		}
	}
}

func TestPollerDisposeIdempotent(t *testing.T) {
	var count int32
	p := New(60*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	p.Start(false)
	p.Dispose()
	p.Dispose()

	// Start after dispose is permanently disabled.
	p.Start(true)
	time.Sleep(150 * time.Millisecond)

	if got := atomic.LoadInt32(&count); got != 0 {
		t.Errorf("disposed poller executed %d times", got)
	}
	snap := p.Snapshot()
	if !snap.Disposed || snap.Running {
		t.Errorf("snapshot after dispose = %+v", snap)
	}
}

func TestPollerStartIdempotent(t *testing.T) {
	var count int32
	p := New(100*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	defer p.Dispose()

	p.Start(false)
	p.Start(true) // must not start a second, immediate loop

	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&count); got != 0 {
		t.Errorf("second Start triggered %d immediate executions", got)
	}
}
