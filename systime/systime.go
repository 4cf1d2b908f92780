// Package systime is the Time Base component: a cooperative clock driven
// by a goroutine standing in for the 4800 Hz hardware timer interrupt. It
// hands out a monotone (seconds, hundredths) snapshot, a tick-notification
// mechanism for periodic subscribers, and the watchdog/reboot liveness
// contract that the rest of the firmware depends on to stay alive.
package systime

import (
	"sync"
	"sync/atomic"
	"time"
)

// TicksPerSecond is the nominal tick rate of the simulated hardware timer.
const TicksPerSecond = 4800

const ticksPerHundredth = TicksPerSecond / 100

// maxSubscribers bounds the fixed-size subscriber table. A linked list of
// caller-owned descriptors is faithful to the reference firmware but not
// required (see design notes); a small fixed array avoids mutable-pointer
// hazards and is plenty for this firmware's handful of subscribers.
const maxSubscribers = 8

// watchdogWindow is the liveness window Task() must be called within.
const watchdogWindow = 500 * time.Millisecond

// shutdownWindow is armed once a controlled shutdown has been requested.
const shutdownWindow = 8 * time.Second

// Time is a (seconds, hundredths) snapshot. hundredths is always in [0,99].
type Time struct {
	Seconds    uint32
	Hundredths uint8
}

type subscriber struct {
	scaleFactor     uint16
	ticksRemaining  uint16
	callback        func()
}

// Clock is the Time Base. Zero value is not usable; construct with New.
type Clock struct {
	packed atomic.Uint64 // seconds<<8 | hundredths, written only by the tick goroutine
	uptime atomic.Uint32

	subMu     sync.Mutex
	subs      [maxSubscribers]subscriber
	subCount  int
	started   atomic.Bool

	shuttingDown  atomic.Bool
	lastFeedNanos atomic.Int64
	shutdownAt    atomic.Int64 // unix nanos; valid once shuttingDown is set

	rebootInterval func() uint16 // minutes; from the parameter store
	onReset        func()        // invoked when the watchdog window lapses
	onShutdown     func()        // invoked once, when commence-shutdown fires

	stop chan struct{}
}

// Options configures a Clock.
type Options struct {
	// RebootIntervalMinutes returns the configured reboot interval; read
	// on every Task() call so parameter-store changes take effect live.
	RebootIntervalMinutes func() uint16
	// OnReset simulates the watchdog-induced board reset. Required.
	OnReset func()
	// OnShutdown is called once when a controlled shutdown commences
	// (uptime-triggered or explicit). Optional.
	OnShutdown func()
}

func New(o Options) *Clock {
	if o.RebootIntervalMinutes == nil {
		o.RebootIntervalMinutes = func() uint16 { return 0 }
	}
	if o.OnReset == nil {
		o.OnReset = func() {}
	}
	if o.OnShutdown == nil {
		o.OnShutdown = func() {}
	}
	c := &Clock{
		rebootInterval: o.RebootIntervalMinutes,
		onReset:        o.OnReset,
		onShutdown:     o.OnShutdown,
		stop:           make(chan struct{}),
	}
	c.lastFeedNanos.Store(nowNanos())
	return c
}

func nowNanos() int64 { return time.Now().UnixNano() }

func pack(s uint32, h uint8) uint64 { return uint64(s)<<8 | uint64(h) }
func unpack(p uint64) Time          { return Time{Seconds: uint32(p >> 8), Hundredths: uint8(p)} }

// Now returns a consistent (seconds, hundredths) snapshot. Because the pair
// is packed into one atomic word, a reader can never observe hundredths
// having wrapped without seconds having advanced alongside it.
func (c *Clock) Now() Time { return unpack(c.packed.Load()) }

// Uptime returns whole seconds since boot.
func (c *Clock) Uptime() uint32 { return c.uptime.Load() }

// FutureTime returns a deadline ms milliseconds after now.
func (c *Clock) FutureTime(ms uint16) Time {
	now := c.Now()
	deltaHundredths := uint32(ms) / 10
	h := uint32(now.Hundredths) + deltaHundredths%100
	s := now.Seconds + deltaHundredths/100
	if h >= 100 {
		h -= 100
		s++
	}
	return Time{Seconds: s, Hundredths: uint8(h)}
}

// HasArrived reports whether now >= deadline in (seconds,hundredths) order,
// treating the seconds difference as signed so a u32 wrap of the seconds
// counter doesn't falsely report "not yet arrived".
func (c *Clock) HasArrived(deadline Time) bool {
	now := c.Now()
	secDiff := int32(now.Seconds - deadline.Seconds)
	switch {
	case secDiff > 0:
		return true
	case secDiff < 0:
		return false
	default:
		return now.Hundredths >= deadline.Hundredths
	}
}

// Subscribe registers a tick subscriber: cb runs (from the tick goroutine,
// playing the role of interrupt context) every scale ticks, forever.
// Subscriptions are never removed and must be registered before Start.
func (c *Clock) Subscribe(scale uint16, cb func()) bool {
	if scale == 0 {
		scale = 1
	}
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.subCount >= maxSubscribers {
		return false
	}
	c.subs[c.subCount] = subscriber{scaleFactor: scale, ticksRemaining: scale, callback: cb}
	c.subCount++
	return true
}

// Start launches the tick-generator goroutine and the watchdog monitor.
// Call once, after all Subscribe calls have been made.
func (c *Clock) Start() {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.tickLoop()
	go c.watchdogLoop()
}

// Close stops the background goroutines. Used by tests.
func (c *Clock) Close() { close(c.stop) }

func (c *Clock) tickLoop() {
	period := time.Second / TicksPerSecond
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	// A Go ticker drops ticks when the host timer is coarser than the
	// tick period, so each wakeup runs every tick that is due by now.
	start := time.Now()
	var ticksDone int64
	tickCounter := 0
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			due := int64(time.Since(start) / period)
			for ; ticksDone < due; ticksDone++ {
				tickCounter++
				if tickCounter >= ticksPerHundredth {
					tickCounter = 0
					c.advanceHundredth()
				}
				c.fireSubscribers()
			}
		}
	}
}

func (c *Clock) advanceHundredth() {
	t := unpack(c.packed.Load())
	t.Hundredths++
	if t.Hundredths >= 100 {
		t.Hundredths = 0
		t.Seconds++
		c.uptime.Add(1)
	}
	c.packed.Store(pack(t.Seconds, t.Hundredths))
}

func (c *Clock) fireSubscribers() {
	c.subMu.Lock()
	n := c.subCount
	c.subMu.Unlock()
	for i := 0; i < n; i++ {
		s := &c.subs[i]
		s.ticksRemaining--
		if s.ticksRemaining == 0 {
			s.ticksRemaining = s.scaleFactor
			s.callback()
		}
	}
}

func (c *Clock) watchdogLoop() {
	t := time.NewTicker(25 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			if c.shuttingDown.Load() {
				if nowNanos() >= c.shutdownAt.Load() {
					c.onReset()
					return
				}
				continue
			}
			if time.Duration(nowNanos()-c.lastFeedNanos.Load()) > watchdogWindow {
				c.onReset()
				return
			}
		}
	}
}

// Task is main-loop work: feeds the watchdog and checks the reboot
// interval, triggering a controlled shutdown once uptime exceeds it.
func (c *Clock) Task() {
	if c.shuttingDown.Load() {
		return
	}
	c.lastFeedNanos.Store(nowNanos())

	rebootSeconds := uint32(c.rebootInterval()) * 60
	if rebootSeconds != 0 && c.Uptime() > rebootSeconds {
		c.CommenceShutdown()
	}
}

// CommenceShutdown arms the shutdown watchdog window and stops feeding.
// Idempotent.
func (c *Clock) CommenceShutdown() {
	if !c.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	c.shutdownAt.Store(nowNanos() + int64(shutdownWindow))
	c.onShutdown()
}

// ShuttingDown reports whether a controlled shutdown has been requested.
func (c *Clock) ShuttingDown() bool { return c.shuttingDown.Load() }

// DayOfWeek, Hours, Minutes, Seconds decompose a Time the way the console
// reply formatter needs for its D:HH:MM:SS rendering.
func DayOfWeek(t Time) uint8 { return uint8((t.Seconds / 86400) % 7) }
func Hours(t Time) uint8     { return uint8((t.Seconds / 3600) % 24) }
func Minutes(t Time) uint8   { return uint8((t.Seconds / 60) % 60) }
func Seconds(t Time) uint8   { return uint8(t.Seconds % 60) }
