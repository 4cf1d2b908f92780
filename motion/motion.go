// Package motion is the Linear Motion Controller: it owns one
// tachometer/odometer and a home-position sensor, and drives an H-bridge
// through four primitives (forward/reverse/brake/coast) to move a plunger
// to a commanded position or seek the home reference, with timeout
// protection against stalled or unsensed motion.
package motion

import (
	"sync/atomic"

	"waterpump-go/systime"
	"waterpump-go/tachodometer"
)

// targetPositionTimeoutMs is the deadline from motion start after which the
// controller gives up and coasts, regardless of whether the target was
// reached. Matches the reference firmware's TARGET_POSITION_TIMEOUT_TIME.
const targetPositionTimeoutMs = 2000

// State is one of the four motion states.
type State int

const (
	Stopped State = iota
	MovingToPosition
	BrakingToStop
	SeekingHome
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case MovingToPosition:
		return "moving_to_position"
	case BrakingToStop:
		return "braking_to_stop"
	case SeekingHome:
		return "seeking_home"
	default:
		return "unknown"
	}
}

type command int

const (
	cmdNone command = iota
	cmdMoveToPosition
	cmdBrake
	cmdFindHome
)

// MotorDriver is the H-bridge abstraction. Forward/Reverse configure
// phase-correct PWM with the named side at the given pwm duty and the
// other at zero; Brake shorts the motor by asserting both bridge inputs; Coast
// releases both bridge inputs and disables PWM.
type MotorDriver interface {
	Forward(pwm uint8)
	Reverse(pwm uint8)
	Brake()
	Coast()
}

// HomeSensor reads the home-position sensor's current digital level.
type HomeSensor interface {
	Read() bool
}

// Clock is the subset of systime.Clock the controller needs for its
// motion timeout.
type Clock interface {
	FutureTime(ms uint16) systime.Time
	HasArrived(deadline systime.Time) bool
}

// Controller is the Linear Motion Controller. Command/state fields are
// touched only from Task() and the command-issuing methods, which the
// main loop guarantees run on a single goroutine; homeFound is the one
// field also written from the home-sensor edge handler (a different
// goroutine simulating a pin-change interrupt) and so is the one field
// kept atomic.
type Controller struct {
	to         *tachodometer.TO
	motor      MotorDriver
	homeSensor HomeSensor
	clock      Clock

	command         command
	targetPosition  int16
	motorPWM        uint8
	state           State
	homeFound       atomic.Bool
	hadNonzeroSpeed bool
	timeoutDeadline systime.Time
}

// New constructs a Controller. to, motor, homeSensor and clock must all be
// non-nil.
func New(to *tachodometer.TO, motor MotorDriver, homeSensor HomeSensor, clock Clock) *Controller {
	c := &Controller{to: to, motor: motor, homeSensor: homeSensor, clock: clock}
	c.motor.Coast()
	return c
}

// OnHomeSensorChange is the home-sensor edge handler (interrupt context):
// on any transition, reset the odometer position and latch home-found.
func (c *Controller) OnHomeSensorChange() {
	c.to.ResetPosition()
	c.homeFound.Store(true)
}

// MoveToPosition queues a move. Refused (returns false) while the home
// position hasn't been established: absolute positions are meaningless
// before a home reference exists.
func (c *Controller) MoveToPosition(target int16, pwm uint8) bool {
	if !c.homeFound.Load() {
		return false
	}
	c.command = cmdMoveToPosition
	c.targetPosition = target
	c.motorPWM = pwm
	return true
}

// BrakeToStop queues a brake command, honored from any motion state within
// one Task() call.
func (c *Controller) BrakeToStop() { c.command = cmdBrake }

// FindHome clears home-found and issues a home-seek at the given PWM duty.
func (c *Controller) FindHome(pwm uint8) {
	c.homeFound.Store(false)
	c.command = cmdFindHome
	c.motorPWM = pwm
}

// IsStopped reports whether the controller is in the Stopped state.
func (c *Controller) IsStopped() bool { return c.state == Stopped }

// Position forwards to the owned tachometer/odometer.
func (c *Controller) Position() int16 { return c.to.Position() }

// Speed forwards to the owned tachometer/odometer.
func (c *Controller) Speed() uint8 { return c.to.Speed() }

// HomeKnown reports whether a home reference has been established.
func (c *Controller) HomeKnown() bool { return c.homeFound.Load() }

// State returns the current motion state, for diagnostics.
func (c *Controller) State() State { return c.state }

// Task evaluates the state machine once. Must be called regularly from
// the main loop; it never blocks.
func (c *Controller) Task() {
	switch c.state {
	case Stopped:
		c.taskStopped()
	case MovingToPosition:
		c.taskMoving()
	case BrakingToStop:
		c.taskBraking()
	case SeekingHome:
		c.taskSeekingHome()
	}
}

func (c *Controller) taskStopped() {
	switch c.command {
	case cmdMoveToPosition:
		cur := c.to.Position()
		switch {
		case c.targetPosition > cur:
			c.to.SetDirection(tachodometer.Forward)
			c.motor.Forward(c.motorPWM)
			c.armTimeout()
			c.state = MovingToPosition
			c.hadNonzeroSpeed = false
		case c.targetPosition < cur:
			c.to.SetDirection(tachodometer.Reverse)
			c.motor.Reverse(c.motorPWM)
			c.armTimeout()
			c.state = MovingToPosition
			c.hadNonzeroSpeed = false
		default:
			// already at target: command consumed, no motion
		}
	case cmdFindHome:
		if c.homeSensor.Read() {
			c.to.SetDirection(tachodometer.Reverse)
			c.motor.Reverse(c.motorPWM)
		} else {
			c.to.SetDirection(tachodometer.Forward)
			c.motor.Forward(c.motorPWM)
		}
		c.armTimeout()
		c.state = SeekingHome
	}
	c.command = cmdNone
}

func (c *Controller) armTimeout() {
	c.timeoutDeadline = c.clock.FutureTime(targetPositionTimeoutMs)
}

func (c *Controller) taskMoving() {
	dir := c.to.Direction()
	pos := c.to.Position()
	speed := c.to.Speed()
	if speed != 0 {
		c.hadNonzeroSpeed = true
	}

	reached := (dir == tachodometer.Forward && pos >= c.targetPosition) ||
		(dir == tachodometer.Reverse && pos <= c.targetPosition)
	if c.command == cmdBrake || reached {
		if c.command == cmdBrake {
			c.command = cmdNone
		}
		c.brakeToStopInternal()
		return
	}
	if c.clock.HasArrived(c.timeoutDeadline) {
		c.motor.Coast()
		c.state = Stopped
	}
}

func (c *Controller) taskBraking() {
	speed := c.to.Speed()
	if speed != 0 {
		c.hadNonzeroSpeed = true
	}
	if speed == 0 && c.hadNonzeroSpeed {
		c.motor.Coast()
		c.state = Stopped
	}
}

func (c *Controller) taskSeekingHome() {
	if c.to.Speed() != 0 {
		c.hadNonzeroSpeed = true
	}
	if c.homeFound.Load() || c.command == cmdBrake {
		c.brakeToStopInternal()
		return
	}
	if c.clock.HasArrived(c.timeoutDeadline) {
		c.motor.Coast()
		c.state = Stopped
	}
}

func (c *Controller) brakeToStopInternal() {
	c.motor.Brake()
	c.state = BrakingToStop
}
