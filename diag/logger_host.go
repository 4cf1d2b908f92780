//go:build !rp2040

package diag

import "log"

// Logger mirrors tagged text via the standard logger on the host build,
// where there's no reason to avoid fmt/log the way the MCU build does.
type Logger struct {
	verbose bool
}

func New(verbose bool) *Logger { return &Logger{verbose: verbose} }

func (l *Logger) Boot(msg string)        { log.Println("[boot]", msg) }
func (l *Logger) Shutdown(reason string) { log.Println("[shutdown]", reason) }
func (l *Logger) WatchdogArmed()         { log.Println("[watchdog] armed") }
func (l *Logger) WatchdogReset()         { log.Println("[watchdog] reset") }

func (l *Logger) CommandError(line string) {
	if !l.verbose {
		return
	}
	log.Println("[cmd] error:", line)
}

func (l *Logger) Uptime(seconds uint32) { log.Println("[uptime]", seconds, "s") }
