package rpi

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"lautenbacher.net/gyrolog/config"
	"lautenbacher.net/gyrolog/gyro"
	"lautenbacher.net/gyrolog/hardware"
	"tinygo.org/x/drivers"
)

// RaspberryPiPlatform talks to a real I3G4250D on SPI0 with a GPIO
// chip-select, using either go-rpio or periph.io.
type RaspberryPiPlatform struct {
	config   *config.Config
	spi      drivers.SPI
	port     *hardware.Port
	cs       gyro.Pin
	console  io.Writer
	teardown []func() error
}

func NewPlatform(conf *config.Config) *RaspberryPiPlatform {
	return &RaspberryPiPlatform{config: conf}
}

func (p *RaspberryPiPlatform) Start() error {
	hw := p.config.Hardware
	slog.Info("Initialise GPIO and SPI", "library", hw.GPIOLibrary, "frequency", hw.SPIFrequency, "cs", hw.ChipSelectPin)

	var err error
	switch strings.ToLower(hw.GPIOLibrary) {
	case config.GPIOLibraryPeriph:
		err = p.startPeriph(hw)
	case config.GPIOLibraryRpio:
		err = p.startRpio(hw)
	default:
		err = fmt.Errorf("unknown GPIO library: %s", hw.GPIOLibrary)
	}
	if err != nil {
		p.Stop()
		return err
	}
	p.port = hardware.NewPort(p.spi)

	if dev := p.config.Console.Device; dev != "" {
		serialPort, err := hardware.OpenSerialConsole(dev, p.config.Console.Baud)
		if err != nil {
			p.Stop()
			return err
		}
		p.console = serialPort
		p.teardown = append(p.teardown, serialPort.Close)
	} else {
		p.console = os.Stdout
	}
	return nil
}

// Stop releases everything Start acquired, in reverse order.
func (p *RaspberryPiPlatform) Stop() {
	for i := len(p.teardown) - 1; i >= 0; i-- {
		if err := p.teardown[i](); err != nil {
			slog.Warn("Error releasing hardware", "error", err)
		}
	}
	p.teardown = nil
}

func (p *RaspberryPiPlatform) Bus() gyro.Port         { return p.port }
func (p *RaspberryPiPlatform) ChipSelect() gyro.Pin   { return p.cs }
func (p *RaspberryPiPlatform) Console() io.Writer     { return p.console }
func (p *RaspberryPiPlatform) ShowSample(gyro.Sample) {}
