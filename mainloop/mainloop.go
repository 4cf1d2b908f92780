// Package mainloop wires the control stack's components together in
// dependency order and runs the cooperative forever-loop: no explicit
// sleep, the time base's tick goroutine defines the tempo.
package mainloop

import (
	"waterpump-go/console"
	"waterpump-go/diag"
	"waterpump-go/edgebus"
	"waterpump-go/motion"
	"waterpump-go/paramstore"
	"waterpump-go/platform"
	"waterpump-go/pump"
	"waterpump-go/systime"
	"waterpump-go/tachodometer"
)

// Sentinel is the RAM-canary collaborator: a known value placed at the
// edge of the statically allocated region, checked for corruption.
type Sentinel interface {
	OK() bool
}

// Peripherals is everything the Main Loop needs from the platform layer,
// satisfied identically by the MCU and host platform packages.
// ArmTachInterrupt/ArmHomeInterrupt bind the edge handlers that must
// exist before the sensor's real or simulated interrupt fires; New
// calls them last, once every component they call into is built. Bus,
// if set, is the edgebus the platform's Sensors also publishes edges
// on; New subscribes to it and Tick drains it purely for diagnostics, alongside
// (never instead of) the synchronous handler calls Arm*Interrupt wires.
type Peripherals struct {
	Motor            motion.MotorDriver
	HomeSensor       motion.HomeSensor
	FloatSensor      pump.FloatSensor
	Transport        console.Transport
	ArmTachInterrupt func(onFallingEdge func())
	ArmHomeInterrupt func(onChange func())
	Bus              *edgebus.Bus
}

// Loop owns every constructed component and runs Task() on the ones
// that need regular servicing.
type Loop struct {
	clock     *systime.Clock
	to        *tachodometer.TO
	motion    *motion.Controller
	params    *paramstore.Store
	pump      *pump.Controller
	console   *console.Console
	sentinel  Sentinel
	log       *diag.Logger
	tachEdges <-chan edgebus.Event
	homeEdges <-chan edgebus.Event
	tachCount uint64
	homeCount uint64
}

// New constructs every component in dependency order: time base, then
// tachometer/odometer (subscribes to the time base), then motion
// (owns the odometer and time base), then the parameter store, then
// the pump controller (owns motion and the parameter store), then the
// console dispatcher and transport wrapper. Interrupts are armed last,
// once every collaborator they can call into exists.
func New(p Peripherals, sentinel Sentinel, verbose bool) *Loop {
	log := diag.New(verbose)
	l := &Loop{sentinel: sentinel, log: log}

	l.clock = systime.New(systime.Options{
		RebootIntervalMinutes: func() uint16 {
			if l.params == nil {
				return 0
			}
			return l.params.RebootInterval()
		},
		OnReset: func() { log.WatchdogReset() },
		OnShutdown: func() {
			log.Shutdown("commenced")
		},
	})

	l.to = tachodometer.New(l.clock)

	l.motion = motion.New(l.to, p.Motor, p.HomeSensor, l.clock)

	l.params = paramstore.New(paramstore.LoadDefaults())

	l.pump = pump.New(l.motion, p.FloatSensor, l.params)

	dispatcher := console.NewDispatcher(l.clock, l.pump, l.motion, l.params)
	l.console = console.New(p.Transport, dispatcher)

	if p.ArmTachInterrupt != nil {
		p.ArmTachInterrupt(l.to.OnFallingEdge)
	}
	if p.ArmHomeInterrupt != nil {
		p.ArmHomeInterrupt(l.motion.OnHomeSensorChange)
	}
	if p.Bus != nil {
		l.tachEdges = p.Bus.Subscribe(platform.TachEdgeTopic, 8)
		l.homeEdges = p.Bus.Subscribe(platform.HomeChangeTopic, 8)
	}

	log.Boot("components initialized")
	return l
}

// drainEdges counts every edgebus event queued since the last Tick.
// This is diagnostics only: the control-stack handlers for these same
// edges already ran synchronously, from whatever called ArmTachInterrupt/
// ArmHomeInterrupt's callback (real or simulated interrupt context);
// draining here never re-invokes them and never blocks the publisher.
func (l *Loop) drainEdges() {
	draining := true
	for draining {
		select {
		case <-l.tachEdges:
			l.tachCount++
		default:
			draining = false
		}
	}
	draining = true
	for draining {
		select {
		case <-l.homeEdges:
			l.homeCount++
		default:
			draining = false
		}
	}
}

// TachEdgeCount and HomeEdgeCount report how many edges the edgebus
// diagnostic subscription has observed, for tests and boot-time sanity
// checks. Zero if no Bus was supplied.
func (l *Loop) TachEdgeCount() uint64 { return l.tachCount }
func (l *Loop) HomeEdgeCount() uint64 { return l.homeCount }

// Clock, Pump, Motion, Params, Console give cmd entrypoints and tests
// access to the constructed components without re-wiring them.
func (l *Loop) Clock() *systime.Clock      { return l.clock }
func (l *Loop) Pump() *pump.Controller     { return l.pump }
func (l *Loop) Motion() *motion.Controller { return l.motion }
func (l *Loop) Params() *paramstore.Store  { return l.params }
func (l *Loop) Console() *console.Console  { return l.console }

// Start launches the time base's background goroutines. Call once,
// after New and before the first Run.
func (l *Loop) Start() { l.clock.Start() }

// Tick runs one pass of every serviced component: SystemTime, Pump,
// Console, then the RAM sentinel check. Exposed separately from Run so
// tests and scenario scripts can single-step the loop.
func (l *Loop) Tick() {
	l.drainEdges()
	l.clock.Task()
	l.pump.Task()
	l.console.Task()
	if l.sentinel != nil && !l.sentinel.OK() {
		l.log.Shutdown("RAM sentinel corrupted")
		l.clock.CommenceShutdown()
	}
}

// Run loops Tick forever until the time base reports it is shutting
// down. There is no explicit sleep: the timer goroutine paces progress
// by how quickly windowed speed samples and watchdog feeds arrive, the
// same way the reference hardware's timer interrupt defines the tempo.
func (l *Loop) Run() {
	for !l.clock.ShuttingDown() {
		l.Tick()
	}
}
