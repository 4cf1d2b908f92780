// Package tachodometer is the TachometerOdometer component: it turns
// falling-edge pulses from a motor-shaft sensor into a signed position and
// a windowed, unsigned speed sample.
package tachodometer

import "sync/atomic"

// Direction selects the sign applied to each counted pulse.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// windowScale is the Time Base tick-subscription scale that yields a
// 200ms sampling window at 4800 ticks/second.
const windowScale = 4800 / 5

// Ticker is the subset of systime.Clock the tachometer needs: subscribing
// to the window tick. Kept as an interface so tests can drive the window
// callback directly without a real Clock.
type Ticker interface {
	Subscribe(scale uint16, cb func()) bool
}

// TO is the tachometer/odometer. All fields are accessed via atomics so
// that the edge handler (simulating a pin-change interrupt), the window
// handler (simulating a tick-notification interrupt), and main-context
// readers never race.
type TO struct {
	pulsesThisWindow atomic.Uint32 // saturates at 255, widened for CAS convenience
	lastSpeed        atomic.Uint32
	direction        atomic.Int32
	position         atomic.Int32
}

// New creates a tachometer/odometer and registers its window sampler with
// clock. Direction defaults to Forward.
func New(clock Ticker) *TO {
	to := &TO{}
	to.direction.Store(int32(Forward))
	if clock != nil {
		clock.Subscribe(windowScale, to.onWindow)
	}
	return to
}

// OnFallingEdge is the sensor edge handler (interrupt context). Rising
// edges must not be passed here — callers only forward transitions to
// inactive/low.
func (to *TO) OnFallingEdge() {
	for {
		cur := to.pulsesThisWindow.Load()
		if cur >= 255 {
			break
		}
		if to.pulsesThisWindow.CompareAndSwap(cur, cur+1) {
			break
		}
	}
	if Direction(to.direction.Load()) == Forward {
		to.position.Add(1)
	} else {
		to.position.Add(-1)
	}
}

// onWindow is the window handler (interrupt context, invoked by the Time
// Base's tick subscription every 200ms).
func (to *TO) onWindow() {
	n := to.pulsesThisWindow.Swap(0)
	to.lastSpeed.Store(n)
}

// SetDirection stores the counting direction. Must only be called while
// the owning motion controller is stopped.
func (to *TO) SetDirection(d Direction) { to.direction.Store(int32(d)) }

// ResetPosition zeroes the position counter.
func (to *TO) ResetPosition() { to.position.Store(0) }

// Position returns the current signed odometer count.
func (to *TO) Position() int16 { return int16(to.position.Load()) }

// Speed returns the most recently completed window's pulse count, 0..255.
func (to *TO) Speed() uint8 { return uint8(to.lastSpeed.Load()) }

// Direction returns the current counting direction.
func (to *TO) Direction() Direction { return Direction(to.direction.Load()) }
