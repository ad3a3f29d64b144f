// Package gyro drives an I3G4250D 3-axis gyroscope over a 4-wire SPI bus.
package gyro

// Register is an 8-bit register sub-address of the I3G4250D.
type Register uint8

const (
	// Expected content of WHO_AM_I.
	DeviceID = 0xD4

	RegWhoAmI  Register = 0x0F
	RegCtrl1   Register = 0x20 // ODR, bandwidth, power mode, axis enable
	RegCtrl2   Register = 0x21 // high-pass filter mode and cutoff
	RegCtrl3   Register = 0x22 // interrupt routing, unused
	RegCtrl4   Register = 0x23 // BLE, full scale
	RegCtrl5   Register = 0x24 // FIFO, high-pass filter enable
	RegOutTemp Register = 0x26
	RegOutXL   Register = 0x28
	RegOutXH   Register = 0x29
	RegOutYL   Register = 0x2A
	RegOutYH   Register = 0x2B
	RegOutZL   Register = 0x2C
	RegOutZH   Register = 0x2D
)

// SPI address byte: bit7 selects read.
const readFlag = 0x80

// CTRL_REG4 fields.
const (
	ctrl4BigEndian = 0x40
	ctrl4FullScale = 0x30

	fullScale245  = 0x00
	fullScale500  = 0x10
	fullScale2000 = 0x20
)

// Values written by Configure, in write order.
const (
	ctrl1Init = 0xFF // ODR 760 Hz, normal mode, X/Y/Z enabled
	ctrl2Init = 0x00 // high-pass cutoff 51.4 Hz at 760 Hz ODR
	ctrl4Init = fullScale500
	ctrl5Init = 0x10 // high-pass filter enabled
)

// Sensitivity in hundredths of mdps/LSB, indexed by CTRL_REG4 FS bits.
var sensitivity = map[byte]int32{
	fullScale245:  875,
	fullScale500:  1750,
	fullScale2000: 7000,
}
