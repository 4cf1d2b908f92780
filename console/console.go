// Package console is the serial Command Dispatcher's front end: it
// accumulates incoming bytes into a line, echoes the line back with
// the same redraw convention as the reference firmware, and on a
// complete line tokenizes and dispatches it.
package console

import (
	"github.com/google/shlex"

	"waterpump-go/errcode"
)

// lineMax bounds the accumulated line, matching the reference
// firmware's 80-byte CommandProcessor_incomingCommand buffer.
const lineMax = 80

// Transport is the serial byte stream the console reads from and
// echoes/replies to.
type Transport interface {
	Buffered() int
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Console is the line accumulator and dispatch front end.
type Console struct {
	t    Transport
	d    *Dispatcher
	line []byte
}

// New constructs a Console. t and d must both be non-nil.
func New(t Transport, d *Dispatcher) *Console {
	return &Console{t: t, d: d}
}

// Task consumes at most one pending byte and must be called regularly
// from the main loop; it never blocks.
func (c *Console) Task() {
	if c.t.Buffered() == 0 {
		return
	}
	var b [1]byte
	n, err := c.t.Read(b[:])
	if err != nil || n == 0 {
		return
	}

	switch b[0] {
	case 0x0D: // CR: command complete
		c.write([]byte("\r\n"))
		reply := c.execute(string(c.line))
		c.line = c.line[:0]
		if reply != "" {
			c.write([]byte(reply))
			c.write([]byte("\r\n"))
		}
	case 0x7F: // delete last char
		if len(c.line) > 0 {
			c.line = c.line[:len(c.line)-1]
		}
	default:
		if len(c.line) < lineMax {
			c.line = append(c.line, b[0])
		}
	}

	c.write([]byte("\r"))
	c.write(c.line)
	c.write([]byte("\x1b[K"))
}

func (c *Console) execute(line string) string {
	tokens, err := shlex.Split(line)
	if err != nil {
		return string(errcode.Error)
	}
	return c.d.Execute(tokens)
}

func (c *Console) write(p []byte) {
	if len(p) == 0 {
		return
	}
	c.t.Write(p)
}
