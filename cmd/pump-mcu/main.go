// Command pump-mcu is the real-hardware entrypoint: it wires the RP2040
// platform build to the control stack and runs the Main Loop forever.
// Build for the target board with TinyGo (GOOS/GOARCH selected by the
// board target, rp2040 build tag implied by the platform package).
package main

import (
	"waterpump-go/edgebus"
	"waterpump-go/mainloop"
	"waterpump-go/platform"
	"waterpump-go/ramsentinel"
)

func main() {
	bus := edgebus.New()

	peripherals := mainloop.Peripherals{
		Motor:            platform.NewMotor(),
		Transport:        platform.NewUART(),
		ArmTachInterrupt: nil,
		ArmHomeInterrupt: nil,
		Bus:              bus,
	}

	sensors := platform.NewSensors(bus)
	peripherals.HomeSensor = sensors.HomeSensor()
	peripherals.FloatSensor = sensors.FloatSensorCollaborator()
	peripherals.ArmTachInterrupt = sensors.SetTachInterrupt
	peripherals.ArmHomeInterrupt = sensors.SetHomeInterrupt

	loop := mainloop.New(peripherals, ramsentinel.New(), false)
	loop.Start()
	loop.Run()
}
