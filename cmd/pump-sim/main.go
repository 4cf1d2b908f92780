// Command pump-sim is the host development/simulation entrypoint: it
// wires the in-memory platform build to real stdin/stdout so the
// control stack can be driven interactively from a terminal, the same
// role the teacher's cmd/boardtest plays for its HAL.
package main

import (
	"bufio"
	"fmt"
	"os"

	"waterpump-go/edgebus"
	"waterpump-go/mainloop"
	"waterpump-go/platform"
	"waterpump-go/ramsentinel"
)

func main() {
	bus := edgebus.New()
	sensors := platform.NewSensors(bus)
	transport := platform.NewUART()

	peripherals := mainloop.Peripherals{
		Motor:            platform.NewMotor(),
		HomeSensor:       sensors.HomeSensor(),
		FloatSensor:      sensors.FloatSensorCollaborator(),
		Transport:        transport,
		ArmTachInterrupt: sensors.SetTachInterrupt,
		ArmHomeInterrupt: sensors.SetHomeInterrupt,
		Bus:              bus,
	}

	loop := mainloop.New(peripherals, ramsentinel.New(), true)
	loop.Start()

	go pumpStdin(transport)

	for !loop.Clock().ShuttingDown() {
		loop.Tick()
		if out := transport.DrainWritten(); len(out) > 0 {
			os.Stdout.Write(out)
		}
	}
}

// pumpStdin forwards whatever arrives on stdin into the in-memory
// transport, one read at a time, so Console.Task sees it the same way
// it would see bytes arriving over a real UART.
func pumpStdin(transport *platform.UART) {
	r := bufio.NewReader(os.Stdin)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			transport.Feed(buf[:n])
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "[pump-sim] stdin closed:", err)
			return
		}
	}
}
