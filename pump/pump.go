// Package pump is the Pump Controller: it drives a plunger between two
// fixed positions through the Linear Motion Controller to move fixed
// strokes of liquid, triggered either by a float sensor going active or
// by an explicit begin command, and accounts the volume pumped against a
// remaining target.
package pump

import "waterpump-go/x/mathx"

// Stage is one of the four pumping stages.
type Stage int

const (
	Idle Stage = iota
	FindingHome
	DrawingIn
	PushingOut
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case FindingHome:
		return "finding_home"
	case DrawingIn:
		return "drawing_in"
	case PushingOut:
		return "pushing_out"
	default:
		return "unknown"
	}
}

// FloatSensor reports whether the float sensor currently reads actuated
// (liquid below the float, draw-in requested). Active-low-to-bool
// translation is the platform layer's job; this interface only ever sees
// the logical level.
type FloatSensor interface {
	Read() bool
}

// ParamSource supplies the operating parameters the pump stage machine
// needs on every task tick. Backed by the parameter store.
type ParamSource interface {
	MotorPWM() uint8
	PlungerInPos() int16
	PlungerOutPos() int16
	PosPerMl() uint16
	MlToPump() uint16
}

// Motion is the subset of the motion controller the pump drives.
type Motion interface {
	MoveToPosition(target int16, pwm uint8) bool
	BrakeToStop()
	FindHome(pwm uint8)
	IsStopped() bool
	HomeKnown() bool
	Position() int16
	Speed() uint8
	Task()
}

// Controller is the Pump Controller. All fields are touched only from
// Task() and the command methods below, which the main loop guarantees
// run on a single goroutine; no atomics are needed here.
type Controller struct {
	lmc         Motion
	floatSensor FloatSensor
	params      ParamSource

	stage              Stage
	runPump            bool
	volumeRemainingMl  uint16
	plungerOutPosition int16
	floatSensorPrev    bool
}

// New constructs a Controller. lmc, floatSensor and params must all be
// non-nil.
func New(lmc Motion, floatSensor FloatSensor, params ParamSource) *Controller {
	return &Controller{lmc: lmc, floatSensor: floatSensor, params: params}
}

// BeginPumping starts a pumping run for the configured dose, unless one
// is already in progress (in which case the call is ignored and the
// in-progress run continues uninterrupted).
func (c *Controller) BeginPumping() {
	if c.runPump {
		return
	}
	c.volumeRemainingMl = c.params.MlToPump()
	c.runPump = true
}

// EndPumping asks the current run to stop gracefully: the stroke in
// progress completes, but no new stroke begins afterwards.
func (c *Controller) EndPumping() { c.runPump = false }

// StopNow halts motion immediately and forces the stage machine back to
// Idle, abandoning whatever stroke was in progress.
func (c *Controller) StopNow() {
	c.lmc.BrakeToStop()
	c.runPump = false
	c.stage = Idle
}

// PlungerPosition forwards to the owned motion controller.
func (c *Controller) PlungerPosition() int16 { return c.lmc.Position() }

// PlungerSpeed forwards to the owned motion controller.
func (c *Controller) PlungerSpeed() uint8 { return c.lmc.Speed() }

// VolumeRemaining reports the remaining dose, in millilitres, of the
// current (or most recently completed) run.
func (c *Controller) VolumeRemaining() uint16 { return c.volumeRemainingMl }

// Stage returns the current pumping stage, for diagnostics.
func (c *Controller) Stage() Stage { return c.stage }

// Task evaluates the float sensor and the stage machine once, then
// drives the owned motion controller exactly once. Must be called
// regularly from the main loop; it never blocks.
func (c *Controller) Task() {
	level := c.floatSensor.Read()
	if level && !c.floatSensorPrev {
		c.BeginPumping()
	}
	c.floatSensorPrev = level

	pwm := c.params.MotorPWM()
	switch c.stage {
	case Idle:
		if c.runPump {
			if !c.lmc.HomeKnown() {
				c.lmc.FindHome(pwm)
				c.stage = FindingHome
			} else {
				c.lmc.MoveToPosition(c.params.PlungerOutPos(), pwm)
				c.stage = DrawingIn
			}
		}
	case FindingHome:
		if c.lmc.HomeKnown() && c.lmc.IsStopped() {
			c.lmc.MoveToPosition(c.params.PlungerOutPos(), pwm)
			c.stage = DrawingIn
		}
	case DrawingIn:
		if c.lmc.IsStopped() && c.lmc.Position() <= c.params.PlungerOutPos() {
			c.plungerOutPosition = c.lmc.Position()
			c.lmc.MoveToPosition(c.params.PlungerInPos(), pwm)
			c.stage = PushingOut
		}
	case PushingOut:
		if c.lmc.IsStopped() && c.lmc.Position() >= c.params.PlungerInPos() {
			travel := c.lmc.Position() - c.plungerOutPosition
			posPerMl := c.params.PosPerMl()
			var volumePumped uint16
			if posPerMl > 0 && travel > 0 {
				volumePumped = uint16(travel) / posPerMl
			}
			if volumePumped >= c.volumeRemainingMl {
				c.volumeRemainingMl = 0
				c.runPump = false
			} else {
				c.volumeRemainingMl = mathx.SatSub(c.volumeRemainingMl, volumePumped)
			}
			if c.runPump {
				c.lmc.MoveToPosition(c.params.PlungerOutPos(), pwm)
				c.stage = DrawingIn
			} else {
				c.stage = Idle
			}
		}
	}

	c.lmc.Task()
}
