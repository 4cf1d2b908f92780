package systime

import (
	"sync/atomic"
	"testing"
	"time"
)

func newTestClock(t *testing.T) (*Clock, *int32) {
	t.Helper()
	var resets int32
	c := New(Options{
		OnReset: func() { atomic.AddInt32(&resets, 1) },
	})
	t.Cleanup(c.Close)
	return c, &resets
}

func TestNowIsMonotonicUnderLoad(t *testing.T) {
	c, _ := newTestClock(t)
	c.Start()

	var last Time
	for i := 0; i < 2000; i++ {
		cur := c.Now()
		curTotal := uint64(cur.Seconds)*100 + uint64(cur.Hundredths)
		lastTotal := uint64(last.Seconds)*100 + uint64(last.Hundredths)
		if curTotal < lastTotal {
			t.Fatalf("time went backwards: %+v -> %+v", last, cur)
		}
		last = cur
		time.Sleep(100 * time.Microsecond)
	}
}

func TestSubscriberFiresEveryScaleTicks(t *testing.T) {
	c, _ := newTestClock(t)
	var fires int32
	const scale = 48 // one hundredth of a second, a convenient small scale
	ok := c.Subscribe(scale, func() { atomic.AddInt32(&fires, 1) })
	if !ok {
		t.Fatal("subscribe failed")
	}
	c.Start()

	// Let enough ticks elapse for several firings and check the ratio
	// roughly matches scale, within scheduling slack.
	time.Sleep(200 * time.Millisecond)
	got := atomic.LoadInt32(&fires)
	if got < 5 {
		t.Fatalf("expected multiple subscriber firings, got %d", got)
	}
}

func TestFutureTimeAndHasArrived(t *testing.T) {
	c, _ := newTestClock(t)
	// Don't Start() the tick loop: exercise the pure math against a frozen clock.
	deadline := c.FutureTime(2000)
	if c.HasArrived(deadline) {
		t.Fatal("deadline should not have arrived yet")
	}

	// Manually advance the packed clock past the deadline.
	c.packed.Store(pack(deadline.Seconds+1, 0))
	if !c.HasArrived(deadline) {
		t.Fatal("deadline should have arrived")
	}
}

func TestHasArrivedHandlesWrap(t *testing.T) {
	c, _ := newTestClock(t)
	c.packed.Store(pack(^uint32(0)-1, 50)) // near the u32 wrap boundary
	deadline := c.FutureTime(50)            // (2^32-2, 55): just below the wrap
	c.packed.Store(pack(0, 10))             // wrapped around to a small value
	if !c.HasArrived(deadline) {
		t.Fatal("wrap-aware comparison should report arrival")
	}
}

func TestWatchdogResetsOnStarvation(t *testing.T) {
	c, resets := newTestClock(t)
	c.Start()
	// Never call Task(): the watchdog loop should fire within ~500ms+slack.
	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(resets) == 0 {
		select {
		case <-deadline:
			t.Fatal("watchdog did not reset within expected window")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestTaskFeedsWatchdogAndPreventsReset(t *testing.T) {
	c, resets := newTestClock(t)
	c.Start()
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; i < 10; i++ {
			<-ticker.C
			c.Task()
		}
	}()
	<-done
	if atomic.LoadInt32(resets) != 0 {
		t.Fatal("watchdog reset despite regular Task() calls")
	}
}

func TestCommenceShutdownStopsFeedingAndResetsAfterWindow(t *testing.T) {
	c, resets := newTestClock(t)
	var shutdownCalled int32
	c.onShutdown = func() { atomic.AddInt32(&shutdownCalled, 1) }
	c.Start()
	c.CommenceShutdown()
	c.CommenceShutdown() // idempotent
	if atomic.LoadInt32(&shutdownCalled) != 1 {
		t.Fatalf("expected exactly one shutdown callback, got %d", shutdownCalled)
	}
	if !c.ShuttingDown() {
		t.Fatal("expected ShuttingDown() to report true")
	}
	// Task() must become a no-op once shutting down.
	c.Task()
	if atomic.LoadInt32(resets) != 0 {
		t.Fatal("reset fired before the 8s shutdown window elapsed")
	}
	// Pull the shutdown deadline forward instead of sleeping 8s: the
	// watchdog must then reset on one of its next checks.
	c.shutdownAt.Store(nowNanos())
	deadline := time.After(time.Second)
	for atomic.LoadInt32(resets) == 0 {
		select {
		case <-deadline:
			t.Fatal("watchdog did not reset once the shutdown window elapsed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
