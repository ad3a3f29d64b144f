package rpi

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
	"lautenbacher.net/gyrolog/config"
)

// rpioSPI exposes the go-rpio SPI0 master as a drivers.SPI.
type rpioSPI struct{}

func (rpioSPI) Tx(w, r []byte) error {
	buf := make([]byte, len(w))
	copy(buf, w)
	rpio.SpiExchange(buf)
	copy(r, buf)
	return nil
}

func (rpioSPI) Transfer(b byte) (byte, error) {
	buf := []byte{b}
	rpio.SpiExchange(buf)
	return buf[0], nil
}

func (p *RaspberryPiPlatform) startRpio(hw config.HardwareConfig) error {
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("failed to open rpio: %w", err)
	}
	p.teardown = append(p.teardown, rpio.Close)

	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		return fmt.Errorf("failed to begin spi: %w", err)
	}
	p.teardown = append(p.teardown, func() error {
		rpio.SpiEnd(rpio.Spi0)
		return nil
	})
	rpio.SpiSpeed(hw.SPIFrequency)
	rpio.SpiMode(1, 1)

	// Chip-select is driven by hand so it can span exactly one register
	// transaction; rpio.Pin already has High/Low.
	pin := rpio.Pin(hw.ChipSelectPin)
	pin.Output()
	pin.High()

	p.spi = rpioSPI{}
	p.cs = pin
	return nil
}
