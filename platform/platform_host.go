//go:build !rp2040

// Package platform wires the control stack's collaborator interfaces
// to concrete peripherals. This file is the host/simulation build: no
// real hardware, just observable in-memory state for local development
// and scenario scripts.
package platform

import (
	"bytes"
	"sync"

	"waterpump-go/edgebus"
)

// Event topics published on the edgebus by Sensors alongside each
// synchronous edge handler call, for diagnostic subscribers that want
// to observe edge timing without being on the control path.
const (
	TachEdgeTopic   = "tach.edge"
	HomeChangeTopic = "home.change"
)

// Sensors simulates the tachometer, home and float digital inputs.
// Tests and scenario scripts drive it by calling the Fire*/Set* methods
// directly instead of waiting on real pin-change interrupts.
type Sensors struct {
	mu            sync.Mutex
	homeLevel     bool
	floatActuated bool
	onTachFalling func()
	onHomeChange  func()
	bus           *edgebus.Bus
}

// NewSensors mirrors the MCU constructor's signature so callers don't
// need a build-tag switch at the call site.
func NewSensors(bus *edgebus.Bus) *Sensors { return &Sensors{bus: bus} }

// SetTachInterrupt arms the simulated tachometer edge callback.
func (s *Sensors) SetTachInterrupt(onFallingEdge func()) {
	s.mu.Lock()
	s.onTachFalling = onFallingEdge
	s.mu.Unlock()
}

// SetHomeInterrupt arms the simulated home-sensor change callback.
func (s *Sensors) SetHomeInterrupt(onChange func()) {
	s.mu.Lock()
	s.onHomeChange = onChange
	s.mu.Unlock()
}

// FireTachFallingEdge simulates one tachometer pulse: runs the armed
// handler synchronously, then publishes the edge for observers.
func (s *Sensors) FireTachFallingEdge() {
	s.mu.Lock()
	cb := s.onTachFalling
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
	if s.bus != nil {
		s.bus.Publish(TachEdgeTopic, nil)
	}
}

// SetHomeLevel simulates the home sensor's digital level changing: runs
// the armed handler synchronously, then publishes the transition.
func (s *Sensors) SetHomeLevel(level bool) {
	s.mu.Lock()
	s.homeLevel = level
	cb := s.onHomeChange
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
	if s.bus != nil {
		s.bus.Publish(HomeChangeTopic, level)
	}
}

func (s *Sensors) HomeSensorRead() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.homeLevel
}

// SetFloatActuated simulates the float sensor's logical level (already
// inverted the way the MCU build inverts its active-low raw pin).
func (s *Sensors) SetFloatActuated(actuated bool) {
	s.mu.Lock()
	s.floatActuated = actuated
	s.mu.Unlock()
}

func (s *Sensors) FloatSensorRead() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.floatActuated
}

type homeSensorAdaptor struct{ s *Sensors }

func (a homeSensorAdaptor) Read() bool { return a.s.HomeSensorRead() }

type floatSensorAdaptor struct{ s *Sensors }

func (a floatSensorAdaptor) Read() bool { return a.s.FloatSensorRead() }

func (s *Sensors) HomeSensor() homeSensorAdaptor { return homeSensorAdaptor{s} }

func (s *Sensors) FloatSensorCollaborator() floatSensorAdaptor { return floatSensorAdaptor{s} }

// Motor records the last drive command issued to it instead of turning
// an actual H-bridge, for observation in host tests and scenario scripts.
type Motor struct {
	mu                         sync.Mutex
	ForwardCalls, ReverseCalls int
	BrakeCalls, CoastCalls     int
	LastPWM                    uint8
}

func NewMotor() *Motor { return &Motor{} }

func (m *Motor) Forward(pwm uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ForwardCalls++
	m.LastPWM = pwm
}

func (m *Motor) Reverse(pwm uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReverseCalls++
	m.LastPWM = pwm
}

func (m *Motor) Brake() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BrakeCalls++
}

func (m *Motor) Coast() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CoastCalls++
}

// UART is an in-memory byte pipe standing in for the serial transport,
// for local development (wired to os.Stdin/os.Stdout by the host cmd
// entrypoint) or driven directly by scenario scripts.
type UART struct {
	mu  sync.Mutex
	in  bytes.Buffer
	out bytes.Buffer
}

func NewUART() *UART { return &UART{} }

// Feed appends bytes as if they had arrived over the wire.
func (t *UART) Feed(p []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.in.Write(p)
}

// Written returns everything written out so far.
func (t *UART) Written() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.out.Bytes()...)
}

// DrainWritten returns and clears whatever has been written since the
// last drain, for a caller that forwards output to a real sink (e.g.
// os.Stdout) incrementally instead of inspecting cumulative history.
func (t *UART) DrainWritten() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := append([]byte(nil), t.out.Bytes()...)
	t.out.Reset()
	return p
}

func (t *UART) Buffered() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.in.Len()
}

func (t *UART) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.in.Read(p)
}

func (t *UART) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.Write(p)
}
