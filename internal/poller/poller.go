// internal/poller/poller.go - Adaptive polling scheduler
package poller

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/apex/log"

	"trip-heatmap/internal/metrics"
)

// MinInterval is the floor applied to interval updates. Zero, negative and
// non-finite intervals clamp here instead of being rejected.
const MinInterval = 50 * time.Millisecond

// Callback is the driven operation of one poll tick. The context is
// cancelled when the poller is disposed; a callback that may outlive a stop
// should consult Running before publishing results.
type Callback func(ctx context.Context) error

type state int

const (
	stateIdle state = iota
	stateScheduled
	stateExecuting
)

// State is a snapshot of the poller for inspection and tests
type State struct {
	Interval  time.Duration
	Running   bool
	Executing bool
	Disposed  bool
}

// Poller re-issues a callback on a cadence without ever running two
// executions concurrently. A tick that fires while the previous execution is
// still in flight is dropped and replaced by a freshly scheduled one, so
// overdue ticks never queue up.
type Poller struct {
	mu       sync.Mutex
	callback Callback
	interval time.Duration
	timer    *time.Timer
	state    state
	running  bool
	disposed bool
	logger   log.Interface

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a poller driving the callback at the given interval
func New(interval time.Duration, callback Callback) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		callback: callback,
		interval: clampInterval(interval),
		state:    stateIdle,
		logger:   log.Log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetLogger replaces the logger used for callback failure diagnostics
func (p *Poller) SetLogger(logger log.Interface) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = logger
}

// Start begins the polling loop. With immediate set the first execution
// starts right away, otherwise the first tick fires after one interval.
// No-op when already running or disposed.
func (p *Poller) Start(immediate bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.disposed {
		return
	}
	p.running = true

	// An execution from before a stop may still be in flight; its
	// completion reschedules now that the loop is running again.
	if p.state == stateExecuting {
		return
	}

	if immediate {
		p.state = stateExecuting
		go p.execute()
		return
	}
	p.scheduleLocked()
}

// Stop cancels any pending tick and halts the loop. An in-flight execution
// is not aborted, but its completion will not schedule further ticks.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// SetInterval updates the cadence. A pending tick is rescheduled at the new
// interval from now; an in-flight execution picks the new interval up when
// its next tick is scheduled.
func (p *Poller) SetInterval(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.interval = clampInterval(secondsToDuration(seconds))

	if p.state == stateScheduled {
		p.cancelTimerLocked()
		p.scheduleLocked()
	}
}

// TriggerNow cancels any pending tick and begins execution immediately.
// Ineffective while an execution is already in flight or the loop is not
// running.
func (p *Poller) TriggerNow() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || p.disposed || p.state == stateExecuting {
		return
	}

	p.cancelTimerLocked()
	p.state = stateExecuting
	go p.execute()
}

// Dispose stops the poller and permanently disables it. Idempotent.
func (p *Poller) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return
	}
	p.stopLocked()
	p.disposed = true
	p.cancel()
}

// Running reports whether the loop is active. Callbacks use this to discard
// results that resolve after a stop.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Snapshot returns the current poller state
func (p *Poller) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Interval:  p.interval,
		Running:   p.running,
		Executing: p.state == stateExecuting,
		Disposed:  p.disposed,
	}
}

// scheduleLocked arms the timer for the next tick; callers hold the mutex.
// Any previously armed timer is disarmed first so at most one is pending.
func (p *Poller) scheduleLocked() {
	p.cancelTimerLocked()
	p.state = stateScheduled
	p.timer = time.AfterFunc(p.interval, p.tick)
}

// stopLocked cancels pending work; callers hold the mutex
func (p *Poller) stopLocked() {
	p.cancelTimerLocked()
	p.running = false
	if p.state == stateScheduled {
		p.state = stateIdle
	}
}

// cancelTimerLocked disarms the pending timer if any; callers hold the mutex
func (p *Poller) cancelTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// tick is the timer callback deciding whether to execute or coalesce
func (p *Poller) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || p.disposed {
		return
	}

	if p.state == stateExecuting {
		// The previous execution is still in flight: drop this tick and
		// schedule a fresh one instead of queueing.
		metrics.PollTicksDropped.Inc()
		p.timer = time.AfterFunc(p.interval, p.tick)
		return
	}

	p.state = stateExecuting
	go p.execute()
}

// execute runs the driven callback and reschedules afterwards. Callback
// errors and panics are logged and never terminate the loop.
func (p *Poller) execute() {
	metrics.PollTicksTotal.Inc()

	err := p.invoke()
	if err != nil {
		metrics.PollCallbackFailures.Inc()
		p.mu.Lock()
		logger := p.logger
		p.mu.Unlock()
		logger.WithError(err).Error("poll execution failed")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running && !p.disposed {
		p.scheduleLocked()
		return
	}
	p.state = stateIdle
}

// invoke calls the callback, converting panics into errors
func (p *Poller) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panicked: %v", r)
		}
	}()
	return p.callback(p.ctx)
}

// clampInterval enforces the minimum safe interval
func clampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	return d
}

// secondsToDuration converts a possibly hostile seconds value to a duration
func secondsToDuration(seconds float64) time.Duration {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
