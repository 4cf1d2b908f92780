package console

import (
	"strconv"
	"strings"

	"waterpump-go/errcode"
	"waterpump-go/jsonreply"
	"waterpump-go/paramstore"
	"waterpump-go/systime"
)

// version is the string the "ver" verb prints, matching the reference
// firmware's swver constant.
const version = "V1.0"

// Clock is the subset of systime.Clock the snapshot verb needs.
type Clock interface {
	Now() systime.Time
}

// Pump is the subset of the pump controller the dispatcher drives.
type Pump interface {
	BeginPumping()
	EndPumping()
	StopNow()
	PlungerPosition() int16
	PlungerSpeed() uint8
	VolumeRemaining() uint16
}

// Motion is the subset of the motion controller the "move" verb drives.
type Motion interface {
	MoveToPosition(target int16, pwm uint8) bool
}

// Params is the subset of the parameter store the dispatcher reads and
// writes.
type Params interface {
	Get(name paramstore.Name) (int64, error)
	Set(name paramstore.Name, value int64) error
	ReadByte(addr uint16) (byte, error)
	WriteByte(addr uint16, val byte) error
	MotorPWM() uint8
}

// settableNames are the parameter keys the "set"/"get" verbs expose,
// excluding rebootInterval which has no console surface.
var settableNames = []paramstore.Name{
	paramstore.MotorPwm,
	paramstore.TempCalOffset,
	paramstore.PosPerMl,
	paramstore.PlungerInPos,
	paramstore.PlungerOutPos,
	paramstore.MlToPump,
}

// paramName resolves a console token to a settable parameter name,
// case-insensitively (matching the reference parser's
// CharStringSpan_equalsNocaseP convention).
func paramName(tok string) (paramstore.Name, bool) {
	for _, n := range settableNames {
		if strings.EqualFold(tok, string(n)) {
			return n, true
		}
	}
	return "", false
}

// Dispatcher interprets a tokenized command line and produces a reply.
type Dispatcher struct {
	clock  Clock
	pump   Pump
	motion Motion
	params Params
}

// NewDispatcher constructs a Dispatcher. All four collaborators must be
// non-nil.
func NewDispatcher(clock Clock, pump Pump, motion Motion, params Params) *Dispatcher {
	return &Dispatcher{clock: clock, pump: pump, motion: motion, params: params}
}

// Execute runs one already-tokenized command line and returns its
// reply. An empty reply means no reply line should be printed.
func (d *Dispatcher) Execute(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	verb := tokens[0]
	args := tokens[1:]

	switch {
	case strings.EqualFold(verb, "s"):
		return d.snapshot()
	case strings.EqualFold(verb, "get"):
		return d.get(args)
	case strings.EqualFold(verb, "set"):
		return d.set(args)
	case strings.EqualFold(verb, "begin"):
		d.pump.BeginPumping()
		return ""
	case strings.EqualFold(verb, "end"):
		d.pump.EndPumping()
		return ""
	case strings.EqualFold(verb, "stop"):
		d.pump.StopNow()
		return ""
	case strings.EqualFold(verb, "move"):
		return d.move(args)
	case strings.EqualFold(verb, "eeread"):
		return d.eeread(args)
	case strings.EqualFold(verb, "eewrite"):
		return d.eewrite(args)
	case strings.EqualFold(verb, "ver"):
		return version
	case strings.EqualFold(verb, "settings"):
		return "{}"
	default:
		return string(errcode.Error)
	}
}

func (d *Dispatcher) snapshot() string {
	var b jsonreply.Builder
	return b.Begin().
		AppendTime("t", d.clock.Now()).
		Continue().
		AppendInt("pos", int64(d.pump.PlungerPosition())).
		Continue().
		AppendInt("speed", int64(d.pump.PlungerSpeed())).
		Continue().
		AppendInt("volumeRemaining", int64(d.pump.VolumeRemaining())).
		End().
		String()
}

func (d *Dispatcher) get(args []string) string {
	if len(args) != 1 {
		return string(errcode.Error)
	}
	if strings.EqualFold(args[0], "params") {
		inPos, _ := d.params.Get(paramstore.PlungerInPos)
		outPos, _ := d.params.Get(paramstore.PlungerOutPos)
		posPerMl, _ := d.params.Get(paramstore.PosPerMl)
		mlToPump, _ := d.params.Get(paramstore.MlToPump)
		var b jsonreply.Builder
		return b.Begin().
			AppendInt(string(paramstore.PlungerInPos), inPos).
			Continue().
			AppendInt(string(paramstore.PlungerOutPos), outPos).
			Continue().
			AppendInt(string(paramstore.PosPerMl), posPerMl).
			Continue().
			AppendInt(string(paramstore.MlToPump), mlToPump).
			End().
			String()
	}
	name, ok := paramName(args[0])
	if !ok {
		return string(errcode.Error)
	}
	value, err := d.params.Get(name)
	if err != nil {
		return string(errcode.Error)
	}
	var b jsonreply.Builder
	return b.Begin().AppendInt(string(name), value).End().String()
}

func (d *Dispatcher) set(args []string) string {
	if len(args) != 2 {
		return string(errcode.Error)
	}
	name, ok := paramName(args[0])
	if !ok {
		return string(errcode.Error)
	}
	value, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return string(errcode.Error)
	}
	if err := d.params.Set(name, value); err != nil {
		return string(errcode.Error)
	}
	return ""
}

func (d *Dispatcher) move(args []string) string {
	if len(args) != 1 {
		return string(errcode.Error)
	}
	pos, err := strconv.ParseInt(args[0], 10, 16)
	if err != nil {
		return string(errcode.Error)
	}
	d.motion.MoveToPosition(int16(pos), d.params.MotorPWM())
	return ""
}

func (d *Dispatcher) eeread(args []string) string {
	if len(args) != 1 {
		return string(errcode.Error)
	}
	addr, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return string(errcode.Error)
	}
	val, err := d.params.ReadByte(uint16(addr))
	if err != nil {
		return string(errcode.Error)
	}
	var b jsonreply.Builder
	return b.Begin().
		AppendInt("EEAddr", int64(addr)).
		Continue().
		AppendInt("EEVal", int64(val)).
		End().
		String()
}

func (d *Dispatcher) eewrite(args []string) string {
	if len(args) != 2 {
		return string(errcode.Error)
	}
	addr, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return string(errcode.Error)
	}
	val, err := strconv.ParseUint(args[1], 10, 8)
	if err != nil {
		return string(errcode.Error)
	}
	if err := d.params.WriteByte(uint16(addr), byte(val)); err != nil {
		return string(errcode.Error)
	}
	return ""
}

