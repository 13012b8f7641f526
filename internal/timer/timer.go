// Package timer implements a single-slot countdown whose callbacks run on the owner's goroutine.
//
// A Timer is not safe for concurrent use: Arm, After, Cancel and Armed must be called from the
// goroutine that executes the Dispatcher's closures (a lobby loop in practice). Each arm bumps a
// generation counter, and every callback re-checks it on the owner goroutine before running, so a
// tick or expiry that was already queued when Cancel ran is dropped instead of firing late.
package timer

import "time"

// Dispatcher hands fn to the owning goroutine. It reports false when the owner is gone.
type Dispatcher func(fn func()) bool

type Timer struct {
	dispatch Dispatcher
	tick     time.Duration
	gen      uint64
	stop     chan struct{}
	armed    bool
}

func New(dispatch Dispatcher, tick time.Duration) *Timer {
	if tick <= 0 {
		tick = time.Second
	}
	return &Timer{dispatch: dispatch, tick: tick}
}

// Arm cancels any pending countdown and starts a new one. onTick receives ticks, ticks-1, ... 0
// (one call per tick interval, the first immediately); onExpire runs once after the 0 tick.
// onTick may be nil.
func (t *Timer) Arm(ticks int, onTick func(remaining int), onExpire func()) {
	t.Cancel()
	t.gen++
	gen := t.gen
	stop := make(chan struct{})
	t.stop = stop
	t.armed = true
	go t.run(gen, stop, max(ticks, 0), onTick, onExpire)
}

// After is a silent countdown: fn runs once after ticks intervals.
func (t *Timer) After(ticks int, fn func()) {
	t.Arm(ticks, nil, fn)
}

// Cancel is idempotent and safe when nothing is armed.
func (t *Timer) Cancel() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.gen++
	t.armed = false
}

func (t *Timer) Armed() bool { return t.armed }

func (t *Timer) run(gen uint64, stop <-chan struct{}, ticks int, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for remaining := ticks; ; remaining-- {
		if onTick != nil {
			r := remaining
			if !t.deliver(gen, stop, func() { onTick(r) }) {
				return
			}
		}
		if remaining == 0 {
			break
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}

	t.deliver(gen, stop, func() {
		t.armed = false
		t.stop = nil
		if onExpire != nil {
			onExpire()
		}
	})
}

func (t *Timer) deliver(gen uint64, stop <-chan struct{}, fn func()) bool {
	select {
	case <-stop:
		return false
	default:
	}
	return t.dispatch(func() {
		if t.gen != gen {
			return
		}
		fn()
	})
}
