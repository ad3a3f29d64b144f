package rpi

import (
	"fmt"

	"lautenbacher.net/gyrolog/config"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// The kernel must leave CE0/CE1 alone: chip-select is driven by periphPin so
// it spans the address and data byte of one register transaction.
const periphMode = spi.Mode3 | spi.NoCS

// periphSPI exposes a periph.io connection as a drivers.SPI.
type periphSPI struct {
	conn spi.Conn
}

func (s periphSPI) Tx(w, r []byte) error {
	if r == nil {
		r = make([]byte, len(w))
	}
	return s.conn.Tx(w, r)
}

func (s periphSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.conn.Tx([]byte{b}, r[:])
	return r[0], err
}

// periphPin adapts a periph.io output to gyro.Pin.
type periphPin struct {
	pin gpio.PinOut
}

func (p periphPin) High() { p.out(gpio.High) }
func (p periphPin) Low()  { p.out(gpio.Low) }

func (p periphPin) out(l gpio.Level) {
	if err := p.pin.Out(l); err != nil {
		panic(fmt.Errorf("chip-select %s: %w", p.pin, err))
	}
}

func (p *RaspberryPiPlatform) startPeriph(hw config.HardwareConfig) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialise periph.io: %w", err)
	}

	name := fmt.Sprintf("GPIO%d", hw.ChipSelectPin)
	pin := gpioreg.ByName(name)
	if pin == nil {
		return fmt.Errorf("no such GPIO: %s", name)
	}
	if err := pin.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to drive %s: %w", name, err)
	}

	// Use spireg SPI port registry; an empty name opens the first bus.
	port, err := spireg.Open(hw.SPIPort)
	if err != nil {
		return fmt.Errorf("failed to open spi port %q: %w", hw.SPIPort, err)
	}
	p.teardown = append(p.teardown, port.Close)

	conn, err := connectPeriph(port, hw.SPIFrequency)
	if err != nil {
		return err
	}

	p.spi = periphSPI{conn: conn}
	p.cs = periphPin{pin: pin}
	return nil
}

func connectPeriph(port spi.Port, frequency int) (spi.Conn, error) {
	conn, err := port.Connect(physic.Frequency(frequency)*physic.Hertz, periphMode, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to connect spi port: %w", err)
	}
	return conn, nil
}
