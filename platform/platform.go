package platform

import (
	"io"

	"lautenbacher.net/gyrolog/gyro"
)

// Platform defines the interface for abstracting away the real hardware
// from the TUI simulation.
type Platform interface {
	// Start initializes the platform (e.g., opens GPIO/SPI, or starts the TUI).
	Start() error

	// Stop cleans up all platform resources.
	Stop()

	// Bus and ChipSelect are handed to exactly one gyro.Device.
	Bus() gyro.Port
	ChipSelect() gyro.Pin

	// Console is the output device for the logger.
	Console() io.Writer

	// ShowSample lets a platform display the latest reading outside the log.
	ShowSample(s gyro.Sample)
}
