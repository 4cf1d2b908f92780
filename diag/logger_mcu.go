//go:build rp2040

// Package diag is the strictly-diagnostic reporting surface: boot
// sequence, shutdown requests, watchdog arm/disarm and command-dispatch
// errors. Nothing in the control stack reads back from it.
package diag

import "waterpump-go/x/fmtx"

// Logger mirrors tagged text to the console. This build never reaches
// for fmt, matching the rest of the MCU-side codebase; fmtx's
// hand-rolled formatter covers the two lines below that need more than
// plain string concatenation.
type Logger struct {
	verbose bool
}

// New constructs a Logger. verbose gates command-dispatch error
// reporting; boot/shutdown/watchdog lines always print.
func New(verbose bool) *Logger { return &Logger{verbose: verbose} }

func (l *Logger) Boot(msg string)        { println("[boot] " + msg) }
func (l *Logger) Shutdown(reason string) { println("[shutdown] " + reason) }
func (l *Logger) WatchdogArmed()         { println("[watchdog] armed") }
func (l *Logger) WatchdogReset()         { println("[watchdog] reset") }

// CommandError reports a dispatch failure when verbose logging is on.
func (l *Logger) CommandError(line string) {
	if !l.verbose {
		return
	}
	println(fmtx.Sprintf("[cmd] error: %s", line))
}

// Uptime reports whole-second uptime.
func (l *Logger) Uptime(seconds uint32) {
	println(fmtx.Sprintf("[uptime] %ds", seconds))
}
