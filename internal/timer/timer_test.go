package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// owner serialises timer calls and callbacks the way a lobby loop does.
type owner struct {
	mu sync.Mutex
}

func (o *owner) dispatch(fn func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn()
	return true
}

func (o *owner) do(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn()
}

func TestArm_TicksDownThenExpiresOnce(t *testing.T) {
	o := &owner{}
	tm := New(o.dispatch, 2*time.Millisecond)

	var ticks []int
	expired := make(chan struct{}, 2)
	o.do(func() {
		tm.Arm(3, func(r int) { ticks = append(ticks, r) }, func() { expired <- struct{}{} })
	})

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for expiry")
	}

	o.do(func() {
		assert.Equal(t, []int{3, 2, 1, 0}, ticks)
		assert.False(t, tm.Armed())
	})

	select {
	case <-expired:
		t.Fatalf("expiry fired twice")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCancel_PreventsExpiry(t *testing.T) {
	o := &owner{}
	tm := New(o.dispatch, 5*time.Millisecond)

	fired := make(chan struct{}, 1)
	o.do(func() {
		tm.Arm(2, nil, func() { fired <- struct{}{} })
		assert.True(t, tm.Armed())
		tm.Cancel()
		tm.Cancel() // idempotent
		assert.False(t, tm.Armed())
	})

	select {
	case <-fired:
		t.Fatalf("canceled timer expired")
	case <-time.After(40 * time.Millisecond):
	}
}

func TestCancelWithNothingArmed(t *testing.T) {
	tm := New(func(fn func()) bool { fn(); return true }, time.Millisecond)
	assert.NotPanics(t, tm.Cancel)
}

func TestCancelThenRearm_DropsQueuedStaleExpiry(t *testing.T) {
	// The dispatcher only queues; the test goroutine plays the owner and drains the queue
	// later, so the first expiry is already in flight when Cancel runs.
	var mu sync.Mutex
	var queue []func()
	dispatch := func(fn func()) bool {
		mu.Lock()
		queue = append(queue, fn)
		mu.Unlock()
		return true
	}
	queued := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(queue)
	}

	tm := New(dispatch, time.Millisecond)
	stale, fresh := 0, 0

	tm.After(0, func() { stale++ })
	require.Eventually(t, func() bool { return queued() == 1 }, time.Second, time.Millisecond)

	tm.Cancel()
	tm.After(0, func() { fresh++ })
	require.Eventually(t, func() bool { return queued() == 2 }, time.Second, time.Millisecond)

	mu.Lock()
	pending := queue
	queue = nil
	mu.Unlock()
	for _, fn := range pending {
		fn()
	}

	assert.Equal(t, 0, stale)
	assert.Equal(t, 1, fresh)
}

func TestRearmFromExpiry(t *testing.T) {
	o := &owner{}
	tm := New(o.dispatch, time.Millisecond)

	done := make(chan int, 1)
	o.do(func() {
		tm.After(1, func() {
			tm.Arm(1, nil, func() { done <- 2 })
		})
	})

	select {
	case v := <-done:
		assert.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatalf("chained timer never fired")
	}
}

func TestDispatcherGone_StopsQuietly(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	tm := New(func(fn func()) bool {
		mu.Lock()
		calls++
		mu.Unlock()
		return false
	}, time.Millisecond)

	tm.Arm(5, func(int) {}, func() {})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, time.Millisecond)

	time.Sleep(15 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}
