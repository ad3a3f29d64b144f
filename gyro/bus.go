package gyro

// Port is a full-duplex SPI exchange: every byte clocked out yields one byte
// clocked in. Implementations block until the exchange completes.
type Port interface {
	Exchange(b byte) byte
}

// Pin is a digital output. Chip-select is active low.
type Pin interface {
	High()
	Low()
}

// Single-register transactions. Chip-select brackets exactly one
// address+data pair.

func (d *Device) writeReg(reg Register, val byte) {
	d.cs.Low()
	d.port.Exchange(byte(reg) &^ readFlag)
	d.port.Exchange(val)
	d.cs.High()
}

func (d *Device) readReg(reg Register) byte {
	d.cs.Low()
	d.port.Exchange(byte(reg) | readFlag)
	v := d.port.Exchange(0x00)
	d.cs.High()
	return v
}
