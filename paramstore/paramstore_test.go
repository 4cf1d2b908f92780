package paramstore

import (
	"testing"

	"waterpump-go/errcode"
)

func TestNewSeedsDefaults(t *testing.T) {
	s := New(ReferenceDefaults)
	if v := s.PlungerInPos(); v != 50 {
		t.Fatalf("want plungerInPos 50, got %d", v)
	}
	if v := s.PlungerOutPos(); v != -50 {
		t.Fatalf("want plungerOutPos -50, got %d", v)
	}
	if v := s.PosPerMl(); v != 117 {
		t.Fatalf("want posPerMl 117, got %d", v)
	}
	if v := s.MlToPump(); v != 2000 {
		t.Fatalf("want mlToPump 2000, got %d", v)
	}
	if v := s.MotorPWM(); v != 100 {
		t.Fatalf("want motorPwm 100, got %d", v)
	}
	if v := s.TempCalOffset(); v != -266 {
		t.Fatalf("want tempCalOffset -266, got %d", v)
	}
	if v := s.RebootInterval(); v != 1440 {
		t.Fatalf("want rebootInterval 1440, got %d", v)
	}
}

func TestInitializeIsANoOpOnceSet(t *testing.T) {
	s := New(ReferenceDefaults)
	s.Set(MotorPwm, 42)
	s.Initialize(ReferenceDefaults) // must not clobber the explicit write
	if v := s.MotorPWM(); v != 42 {
		t.Fatalf("want motorPwm to remain 42, got %d", v)
	}
}

func TestSetAndGetRoundTrip(t *testing.T) {
	s := New(ReferenceDefaults)
	if err := s.Set(PlungerOutPos, -75); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := s.Get(PlungerOutPos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != -75 {
		t.Fatalf("want -75, got %d", v)
	}
}

func TestGetUnknownNameIsAnError(t *testing.T) {
	s := New(ReferenceDefaults)
	_, err := s.Get("bogus")
	if errcode.Of(err) != errcode.UnknownParam {
		t.Fatalf("want UnknownParam, got %v", err)
	}
}

func TestRawByteAccessRoundTrips(t *testing.T) {
	s := New(ReferenceDefaults)
	if err := s.WriteByte(9, 200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := s.ReadByte(9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != 200 {
		t.Fatalf("want 200, got %d", b)
	}
	// Raw byte access and the typed accessor over the same address agree.
	if v := s.MotorPWM(); v != 200 {
		t.Fatalf("want typed accessor to observe the raw write, got %d", v)
	}
}

func TestRawByteAccessOutOfRange(t *testing.T) {
	s := New(ReferenceDefaults)
	if _, err := s.ReadByte(storeSize); errcode.Of(err) != errcode.AddrOutOfRange {
		t.Fatalf("want AddrOutOfRange, got %v", err)
	}
	if err := s.WriteByte(storeSize, 1); errcode.Of(err) != errcode.AddrOutOfRange {
		t.Fatalf("want AddrOutOfRange, got %v", err)
	}
}

func TestLoadDefaultsMatchesReference(t *testing.T) {
	d := LoadDefaults()
	if d != ReferenceDefaults {
		t.Fatalf("want %+v, got %+v", ReferenceDefaults, d)
	}
}
