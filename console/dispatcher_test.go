package console

import (
	"strings"
	"testing"

	"waterpump-go/paramstore"
	"waterpump-go/systime"
)

type fakeClock struct{ now systime.Time }

func (c *fakeClock) Now() systime.Time { return c.now }

type fakePump struct {
	beginCalls, endCalls, stopCalls int
	position                        int16
	speed                           uint8
	remaining                       uint16
}

func (p *fakePump) BeginPumping()           { p.beginCalls++ }
func (p *fakePump) EndPumping()             { p.endCalls++ }
func (p *fakePump) StopNow()                { p.stopCalls++ }
func (p *fakePump) PlungerPosition() int16  { return p.position }
func (p *fakePump) PlungerSpeed() uint8     { return p.speed }
func (p *fakePump) VolumeRemaining() uint16 { return p.remaining }

type fakeMotion struct {
	lastTarget int16
	lastPWM    uint8
	accept     bool
}

func (m *fakeMotion) MoveToPosition(target int16, pwm uint8) bool {
	m.lastTarget, m.lastPWM = target, pwm
	return m.accept
}

func newDispatcher() (*Dispatcher, *fakePump, *fakeMotion, *paramstore.Store) {
	pump := &fakePump{position: 10, speed: 2, remaining: 500}
	motion := &fakeMotion{accept: true}
	params := paramstore.New(paramstore.ReferenceDefaults)
	clock := &fakeClock{now: systime.Time{Seconds: 3723}}
	d := NewDispatcher(clock, pump, motion, params)
	return d, pump, motion, params
}

func TestSnapshotVerb(t *testing.T) {
	d, _, _, _ := newDispatcher()
	got := d.Execute([]string{"s"})
	want := `{"t":"0:01:02:03","pos":10,"speed":2,"volumeRemaining":500}`
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestGetParams(t *testing.T) {
	d, _, _, _ := newDispatcher()
	got := d.Execute([]string{"get", "params"})
	want := `{"inPos":50,"outPos":-50,"posPerMl":117,"mlToPump":2000}`
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestGetSingleParamCaseInsensitive(t *testing.T) {
	d, _, _, _ := newDispatcher()
	got := d.Execute([]string{"get", "TCALOFFSET"})
	want := `{"tCalOffset":-266}`
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	d, _, _, _ := newDispatcher()
	if reply := d.Execute([]string{"set", "motorPwm", "42"}); reply != "" {
		t.Fatalf("want empty reply, got %q", reply)
	}
	got := d.Execute([]string{"get", "motorPwm"})
	if got != `{"motorPwm":42}` {
		t.Fatalf("want motorPwm 42, got %q", got)
	}
}

func TestSetUnknownNameIsError(t *testing.T) {
	d, _, _, _ := newDispatcher()
	got := d.Execute([]string{"set", "bogus", "1"})
	if got != "error" {
		t.Fatalf("want error, got %q", got)
	}
}

func TestBeginEndStop(t *testing.T) {
	d, pump, _, _ := newDispatcher()
	d.Execute([]string{"begin"})
	d.Execute([]string{"end"})
	d.Execute([]string{"stop"})
	if pump.beginCalls != 1 || pump.endCalls != 1 || pump.stopCalls != 1 {
		t.Fatalf("want one call each, got %+v", pump)
	}
}

func TestMoveForwardsToMotion(t *testing.T) {
	d, _, motion, params := newDispatcher()
	reply := d.Execute([]string{"move", "-25"})
	if reply != "" {
		t.Fatalf("want empty reply, got %q", reply)
	}
	if motion.lastTarget != -25 {
		t.Fatalf("want target -25, got %d", motion.lastTarget)
	}
	if motion.lastPWM != params.MotorPWM() {
		t.Fatalf("want pwm %d, got %d", params.MotorPWM(), motion.lastPWM)
	}
}

func TestEeReadWrite(t *testing.T) {
	d, _, _, _ := newDispatcher()
	if reply := d.Execute([]string{"eewrite", "9", "200"}); reply != "" {
		t.Fatalf("want empty reply, got %q", reply)
	}
	got := d.Execute([]string{"eeread", "9"})
	if got != `{"EEAddr":9,"EEVal":200}` {
		t.Fatalf("want eeread echo, got %q", got)
	}
}

func TestEeReadOutOfRangeIsError(t *testing.T) {
	d, _, _, _ := newDispatcher()
	got := d.Execute([]string{"eeread", "9999"})
	if got != "error" {
		t.Fatalf("want error, got %q", got)
	}
}

func TestVerAndSettings(t *testing.T) {
	d, _, _, _ := newDispatcher()
	if got := d.Execute([]string{"ver"}); got != "V1.0" {
		t.Fatalf("want V1.0, got %q", got)
	}
	if got := d.Execute([]string{"settings"}); got != "{}" {
		t.Fatalf("want {}, got %q", got)
	}
}

func TestEmptyAndUnknownVerb(t *testing.T) {
	d, _, _, _ := newDispatcher()
	if got := d.Execute(nil); got != "" {
		t.Fatalf("want empty reply for empty line, got %q", got)
	}
	if got := d.Execute([]string{"bogus"}); got != "error" {
		t.Fatalf("want error, got %q", got)
	}
}

func TestMalformedArgsAreErrors(t *testing.T) {
	d, _, _, _ := newDispatcher()
	cases := [][]string{
		{"move"}, {"move", "notanumber"},
		{"set", "motorPwm"}, {"set", "motorPwm", "notanumber"},
		{"eeread"}, {"eeread", "-1"},
		{"eewrite", "1"}, {"eewrite", "1", "bad"},
		{"get"}, {"get", "unknown", "extra"},
	}
	for _, c := range cases {
		if got := d.Execute(c); got != "error" {
			t.Fatalf("case %v: want error, got %q", c, got)
		}
	}
}

func TestParamNameIsCaseInsensitive(t *testing.T) {
	if !strings.Contains("motorPwm", "motor") {
		t.Skip("sanity check only")
	}
	name, ok := paramName("MOTORPWM")
	if !ok || name != paramstore.MotorPwm {
		t.Fatalf("want motorPwm match, got %v %v", name, ok)
	}
}
