// Package jsonreply incrementally assembles the console's JSON-ish
// reply strings, mirroring the reference firmware's small sequence of
// begin/appendIntValue/appendTimeValue/continue/end primitives rather
// than marshaling a Go struct.
package jsonreply

import (
	"waterpump-go/systime"
	"waterpump-go/x/conv"
)

// Builder accumulates a reply into a reusable byte buffer. The zero
// value is ready to use.
type Builder struct {
	buf []byte
}

// Begin starts a new object, discarding any prior contents.
func (b *Builder) Begin() *Builder {
	b.buf = append(b.buf[:0], '{')
	return b
}

// Continue separates two fields.
func (b *Builder) Continue() *Builder {
	b.buf = append(b.buf, ',')
	return b
}

// End closes the object.
func (b *Builder) End() *Builder {
	b.buf = append(b.buf, '}')
	return b
}

// AppendInt appends "name":value.
func (b *Builder) AppendInt(name string, value int64) *Builder {
	b.appendKey(name)
	var scratch [20]byte
	b.buf = append(b.buf, conv.Itoa(scratch[:], value)...)
	return b
}

// AppendTime appends "name":"D:HH:MM:SS", day-of-week = floor(seconds/86400) mod 7.
func (b *Builder) AppendTime(name string, t systime.Time) *Builder {
	b.appendKey(name)
	b.buf = append(b.buf, '"')
	b.appendDigits(systime.DayOfWeek(t))
	b.buf = append(b.buf, ':')
	b.appendPadded(systime.Hours(t))
	b.buf = append(b.buf, ':')
	b.appendPadded(systime.Minutes(t))
	b.buf = append(b.buf, ':')
	b.appendPadded(systime.Seconds(t))
	b.buf = append(b.buf, '"')
	return b
}

func (b *Builder) appendKey(name string) {
	b.buf = append(b.buf, '"')
	b.buf = append(b.buf, name...)
	b.buf = append(b.buf, '"', ':')
}

func (b *Builder) appendDigits(v uint8) {
	var scratch [20]byte
	b.buf = append(b.buf, conv.Itoa(scratch[:], int64(v))...)
}

func (b *Builder) appendPadded(v uint8) {
	if v < 10 {
		b.buf = append(b.buf, '0')
	}
	b.appendDigits(v)
}

// Bytes returns the accumulated reply.
func (b *Builder) Bytes() []byte { return b.buf }

// String returns the accumulated reply as a string.
func (b *Builder) String() string { return string(b.buf) }
