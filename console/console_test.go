package console

import (
	"bytes"
	"testing"

	"waterpump-go/paramstore"
	"waterpump-go/systime"
)

// fakeTransport is an in-memory Transport: inbound is pre-loaded bytes
// consumed one at a time (matching Buffered()/Read() semantics), and
// outbound is captured for assertions.
type fakeTransport struct {
	inbound  []byte
	outbound bytes.Buffer
}

func (f *fakeTransport) Buffered() int { return len(f.inbound) }

func (f *fakeTransport) Read(p []byte) (int, error) {
	if len(f.inbound) == 0 {
		return 0, nil
	}
	n := copy(p, f.inbound[:1])
	f.inbound = f.inbound[1:]
	return n, nil
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	return f.outbound.Write(p)
}

func newTestConsole() (*Console, *fakeTransport, *fakePump) {
	pump := &fakePump{}
	motion := &fakeMotion{accept: true}
	params := paramstore.New(paramstore.ReferenceDefaults)
	clock := &fakeClock{now: systime.Time{}}
	d := NewDispatcher(clock, pump, motion, params)
	tr := &fakeTransport{}
	return New(tr, d), tr, pump
}

func feed(c *Console, tr *fakeTransport, s string) {
	tr.inbound = append(tr.inbound, []byte(s)...)
	for tr.Buffered() > 0 {
		c.Task()
	}
}

func TestCompleteLineDispatches(t *testing.T) {
	c, tr, pump := newTestConsole()
	feed(c, tr, "begin\r")
	if pump.beginCalls != 1 {
		t.Fatalf("want begin() called once, got %d", pump.beginCalls)
	}
	out := tr.outbound.String()
	if !bytes.Contains([]byte(out), []byte("\r\n")) {
		t.Fatalf("want CRLF echoed after CR, got %q", out)
	}
}

func TestBackspaceRemovesLastChar(t *testing.T) {
	c, tr, _ := newTestConsole()
	feed(c, tr, "bogus\x7f\x7f\x7f\x7f\x7fver\r")
	out := tr.outbound.String()
	if !bytes.Contains([]byte(out), []byte("V1.0")) {
		t.Fatalf("want ver's reply present after backspacing the typo, got %q", out)
	}
}

func TestEveryByteTriggersRedrawEcho(t *testing.T) {
	c, tr, _ := newTestConsole()
	feed(c, tr, "a")
	out := tr.outbound.String()
	if !bytes.Contains([]byte(out), []byte("\ra\x1b[K")) {
		t.Fatalf("want redraw sequence \\ra\\x1b[K, got %q", out)
	}
}

func TestUnknownVerbRepliesError(t *testing.T) {
	c, tr, _ := newTestConsole()
	feed(c, tr, "frobnicate\r")
	out := tr.outbound.String()
	if !bytes.Contains([]byte(out), []byte("error\r\n")) {
		t.Fatalf("want error reply, got %q", out)
	}
}

func TestEmptyLineProducesNoReplyLine(t *testing.T) {
	c, tr, _ := newTestConsole()
	feed(c, tr, "\r")
	out := tr.outbound.String()
	// Only the CR-triggered "\r\n" plus the post-processing redraw
	// sequence should appear; no extra reply content.
	if bytes.Contains([]byte(out), []byte("error")) {
		t.Fatalf("empty line must not produce an error reply, got %q", out)
	}
}
