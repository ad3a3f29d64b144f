package hardware

import (
	"fmt"

	"tinygo.org/x/drivers"
)

// Port adapts a tinygo-style SPI bus to the single byte exchange used by the
// gyro driver. A failed transfer means the bus is gone; there is nothing a
// caller could do about it, so it panics.
type Port struct {
	bus drivers.SPI
}

func NewPort(bus drivers.SPI) *Port {
	return &Port{bus: bus}
}

func (p *Port) Exchange(b byte) byte {
	v, err := p.bus.Transfer(b)
	if err != nil {
		panic(fmt.Errorf("spi transfer: %w", err))
	}
	return v
}
