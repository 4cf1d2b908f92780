// Package paramstore is the parameter store: a small byte-addressable
// block of persisted settings with typed accessors layered over it,
// plus raw byte access for the console's eeread/eewrite verbs. Modeled
// on a cold EEPROM's "all-ones until first write" convention.
package paramstore

import (
	"encoding/binary"
	"sync"

	"waterpump-go/errcode"
)

// Name identifies one stored parameter by the console-facing key used
// in get/set verbs.
type Name string

const (
	PlungerInPos   Name = "inPos"
	PlungerOutPos  Name = "outPos"
	PosPerMl       Name = "posPerMl"
	MlToPump       Name = "mlToPump"
	MotorPwm       Name = "motorPwm"
	TempCalOffset  Name = "tCalOffset"
	RebootInterval Name = "rebootInterval"
)

type field struct {
	addr   uint16
	width  uint8 // bytes: 1 or 2
	signed bool
}

// layout assigns each parameter a fixed byte offset, mirroring the
// reference firmware's fixed EEPROM addresses. Offset 0 is reserved for
// the initialized marker.
var layout = map[Name]field{
	PlungerInPos:   {addr: 1, width: 2, signed: true},
	PlungerOutPos:  {addr: 3, width: 2, signed: true},
	PosPerMl:       {addr: 5, width: 2, signed: false},
	MlToPump:       {addr: 7, width: 2, signed: false},
	MotorPwm:       {addr: 9, width: 1, signed: false},
	TempCalOffset:  {addr: 10, width: 2, signed: true},
	RebootInterval: {addr: 12, width: 2, signed: false},
}

const (
	addrInitFlag = 0
	storeSize    = 14
	uninitMarker = 0xFF
)

// Defaults is the set of values a fresh store is seeded with.
type Defaults struct {
	PlungerInPos   int16
	PlungerOutPos  int16
	PosPerMl       uint16
	MlToPump       uint16
	MotorPwm       uint8
	TempCalOffset  int16
	RebootInterval uint16
}

// ReferenceDefaults matches the values the reference firmware's cold-EEPROM
// initialization writes.
var ReferenceDefaults = Defaults{
	PlungerInPos:   50,
	PlungerOutPos:  -50,
	PosPerMl:       117,
	MlToPump:       2000,
	MotorPwm:       100,
	TempCalOffset:  -266,
	RebootInterval: 1440,
}

// Store is the parameter store.
type Store struct {
	mu   sync.Mutex
	data [storeSize]byte
}

// New constructs a Store and seeds it with defaults; the store always
// comes up "uninitialized" (no persistence across process restarts is
// modeled here), so New always writes defaults. Call Initialize again
// with different defaults only ever has an effect on a store that has
// never been written to.
func New(defaults Defaults) *Store {
	s := &Store{}
	s.data[addrInitFlag] = uninitMarker
	s.Initialize(defaults)
	return s
}

// Initialize seeds the store with defaults if the initialized marker
// hasn't been set yet; otherwise it is a no-op.
func (s *Store) Initialize(d Defaults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[addrInitFlag] != uninitMarker {
		return
	}
	s.writeLocked(layout[PlungerInPos], int64(d.PlungerInPos))
	s.writeLocked(layout[PlungerOutPos], int64(d.PlungerOutPos))
	s.writeLocked(layout[PosPerMl], int64(d.PosPerMl))
	s.writeLocked(layout[MlToPump], int64(d.MlToPump))
	s.writeLocked(layout[MotorPwm], int64(d.MotorPwm))
	s.writeLocked(layout[TempCalOffset], int64(d.TempCalOffset))
	s.writeLocked(layout[RebootInterval], int64(d.RebootInterval))
	s.data[addrInitFlag] = 1
}

// Get reads a named parameter as a sign-extended 64-bit value.
func (s *Store) Get(name Name) (int64, error) {
	f, ok := layout[name]
	if !ok {
		return 0, &errcode.E{C: errcode.UnknownParam, Op: "paramstore.Get", Msg: string(name)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(f), nil
}

// Set writes a named parameter, truncating value to the parameter's
// native width.
func (s *Store) Set(name Name, value int64) error {
	f, ok := layout[name]
	if !ok {
		return &errcode.E{C: errcode.UnknownParam, Op: "paramstore.Set", Msg: string(name)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(f, value)
	return nil
}

func (s *Store) readLocked(f field) int64 {
	if f.width == 1 {
		return int64(s.data[f.addr])
	}
	u := binary.LittleEndian.Uint16(s.data[f.addr:])
	if f.signed {
		return int64(int16(u))
	}
	return int64(u)
}

func (s *Store) writeLocked(f field, value int64) {
	if f.width == 1 {
		s.data[f.addr] = byte(value)
		return
	}
	binary.LittleEndian.PutUint16(s.data[f.addr:], uint16(value))
}

// ReadByte reads one raw byte by address, for the console's eeread verb.
func (s *Store) ReadByte(addr uint16) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr >= storeSize {
		return 0, &errcode.E{C: errcode.AddrOutOfRange, Op: "paramstore.ReadByte"}
	}
	return s.data[addr], nil
}

// WriteByte writes one raw byte by address, for the console's eewrite
// verb.
func (s *Store) WriteByte(addr uint16, val byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr >= storeSize {
		return &errcode.E{C: errcode.AddrOutOfRange, Op: "paramstore.WriteByte"}
	}
	s.data[addr] = val
	return nil
}

// The following typed accessors satisfy pump.ParamSource and similar
// narrow collaborator interfaces elsewhere in the codebase; each
// swallows the only possible error (an unknown name), which cannot
// occur for these fixed, known-good lookups.

func (s *Store) MotorPWM() uint8 {
	v, _ := s.Get(MotorPwm)
	return uint8(v)
}

func (s *Store) PlungerInPos() int16 {
	v, _ := s.Get(PlungerInPos)
	return int16(v)
}

func (s *Store) PlungerOutPos() int16 {
	v, _ := s.Get(PlungerOutPos)
	return int16(v)
}

func (s *Store) PosPerMl() uint16 {
	v, _ := s.Get(PosPerMl)
	return uint16(v)
}

func (s *Store) MlToPump() uint16 {
	v, _ := s.Get(MlToPump)
	return uint16(v)
}

func (s *Store) TempCalOffset() int16 {
	v, _ := s.Get(TempCalOffset)
	return int16(v)
}

func (s *Store) RebootInterval() uint16 {
	v, _ := s.Get(RebootInterval)
	return uint16(v)
}
