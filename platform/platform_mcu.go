//go:build rp2040

// Package platform wires the control stack's collaborator interfaces
// (motion.MotorDriver, home/float sensors, the console transport) to
// concrete peripherals. This file is the real-hardware build.
package platform

import (
	"machine"

	"github.com/jangala-dev/tinygo-uartx/uartx"

	"waterpump-go/edgebus"
	"waterpump-go/x/timex"
)

// Event topics published on the edgebus by Sensors alongside each
// synchronous edge handler call, for diagnostic subscribers that want
// to observe edge timing without being on the control path.
const (
	TachEdgeTopic   = "tach.edge"
	HomeChangeTopic = "home.change"
)

// Pin assignments. The reference board's port/bit notation (port-B
// bit 0, port-D bit 2, port-C bit 4) is an 8-bit AVR part; this board
// targets RP2040, so the assignment below is this board's own GPIO
// numbering rather than a literal carry-over of AVR port bits. Each
// reference signal still gets exactly one dedicated digital pin.
const (
	tachometerPin  = machine.GPIO2
	homeSensorPin  = machine.GPIO3
	floatSensorPin = machine.GPIO4
	motorPWMPinFwd = machine.GPIO6
	motorPWMPinRev = machine.GPIO7
)

// Sensors wires the three digital inputs; NewSensors configures the pins.
// Tachometer and home-sensor interrupts are armed separately, once the
// control-stack handlers they call exist; each edge both runs its
// handler synchronously (same interrupt context the reference firmware
// uses) and publishes on the edgebus, so a diagnostic subscriber can
// observe edge timing without sitting on the control path.
type Sensors struct {
	tach  machine.Pin
	home  machine.Pin
	float machine.Pin
	bus   *edgebus.Bus
}

// NewSensors configures the tachometer, home and float sensor pins.
// Arm the tachometer and home interrupts separately with
// SetTachInterrupt/SetHomeInterrupt once their owning components exist.
func NewSensors(bus *edgebus.Bus) *Sensors {
	tach := machine.Pin(tachometerPin)
	tach.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	home := machine.Pin(homeSensorPin)
	home.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	float := machine.Pin(floatSensorPin)
	float.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	return &Sensors{tach: tach, home: home, float: float, bus: bus}
}

// SetTachInterrupt arms the tachometer's falling-edge interrupt: it runs
// onFallingEdge synchronously, then publishes the edge for observers.
func (s *Sensors) SetTachInterrupt(onFallingEdge func()) {
	s.tach.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		onFallingEdge()
		if s.bus != nil {
			s.bus.Publish(TachEdgeTopic, nil)
		}
	})
}

// SetHomeInterrupt arms the home sensor's change interrupt; the
// motion controller resets its position reference on every edge.
func (s *Sensors) SetHomeInterrupt(onChange func()) {
	s.home.SetInterrupt(machine.PinToggle, func(machine.Pin) {
		onChange()
		if s.bus != nil {
			s.bus.Publish(HomeChangeTopic, s.home.Get())
		}
	})
}

// HomeSensorRead reports the home sensor's current digital level.
func (s *Sensors) HomeSensorRead() bool { return s.home.Get() }

// FloatSensorRead satisfies pump.FloatSensor's logical level. The pin
// is active-low with a pull-up (a disconnected sensor reads "not
// actuated" safely), so the logical "actuated" level is the inverse of
// the raw pin level.
func (s *Sensors) FloatSensorRead() bool { return !s.float.Get() }

// homeSensorAdaptor and floatSensorAdaptor let Sensors satisfy the
// narrow Read() bool collaborator interfaces motion/pump expect
// without exposing the whole Sensors type to those packages.
type homeSensorAdaptor struct{ s *Sensors }

func (a homeSensorAdaptor) Read() bool { return a.s.HomeSensorRead() }

type floatSensorAdaptor struct{ s *Sensors }

func (a floatSensorAdaptor) Read() bool { return a.s.FloatSensorRead() }

// HomeSensor returns the motion.HomeSensor collaborator.
func (s *Sensors) HomeSensor() homeSensorAdaptor { return homeSensorAdaptor{s} }

// FloatSensorCollaborator returns the pump.FloatSensor collaborator.
func (s *Sensors) FloatSensorCollaborator() floatSensorAdaptor { return floatSensorAdaptor{s} }

// Motor drives an H-bridge through a forward/reverse PWM pair in
// phase-correct mode, matching the reference firmware's timer/counter 0
// configuration.
type Motor struct {
	fwd machine.PWM
	rev machine.PWM
	chF uint8
	chR uint8
}

// motorPWMHz is the H-bridge drive frequency, matching the reference
// firmware's timer/counter 0 configuration.
const motorPWMHz = 64

// NewMotor configures both PWM channels and starts coasted.
func NewMotor() *Motor {
	period := timex.PeriodFromHz(motorPWMHz)
	m := &Motor{fwd: machine.PWM0, rev: machine.PWM1}
	_ = m.fwd.Configure(machine.PWMConfig{Period: period})
	_ = m.rev.Configure(machine.PWMConfig{Period: period})
	m.chF, _ = m.fwd.Channel(motorPWMPinFwd)
	m.chR, _ = m.rev.Channel(motorPWMPinRev)
	m.Coast()
	return m
}

func (m *Motor) dutyFor(pwm uint8) uint32 {
	top := m.fwd.Top()
	return top * uint32(pwm) / 255
}

func (m *Motor) Forward(pwm uint8) {
	m.fwd.Set(m.chF, m.dutyFor(pwm))
	m.rev.Set(m.chR, 0)
}

func (m *Motor) Reverse(pwm uint8) {
	m.fwd.Set(m.chF, 0)
	m.rev.Set(m.chR, m.dutyFor(pwm))
}

func (m *Motor) Brake() {
	m.fwd.Set(m.chF, m.fwd.Top())
	m.rev.Set(m.chR, m.rev.Top())
}

func (m *Motor) Coast() {
	m.fwd.Set(m.chF, 0)
	m.rev.Set(m.chR, 0)
}

// UART wraps the tinygo-uartx transport to satisfy console.Transport.
type UART struct{ u *uartx.UART }

// NewUART configures UART0 at the console's fixed 4800 baud, 8N1.
func NewUART() *UART {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{})
	u.SetBaudRate(4800)
	_ = u.SetFormat(8, 1, uartx.ParityNone)
	return &UART{u: u}
}

func (t *UART) Buffered() int               { return t.u.Buffered() }
func (t *UART) Read(p []byte) (int, error)  { return t.u.Read(p) }
func (t *UART) Write(p []byte) (int, error) { return t.u.Write(p) }
