// Package hardware holds bus and console devices shared by the platforms:
// the SPI port adapter, a simulated I3G4250D and the serial console.
package hardware

import (
	"fmt"

	"github.com/tarm/serial"
)

// OpenSerialConsole opens a UART for log output. Writes block until the
// bytes are handed to the driver.
func OpenSerialConsole(name string, baud int) (*serial.Port, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial console %s: %w", name, err)
	}
	return port, nil
}
