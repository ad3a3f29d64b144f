package gyro

import (
	"errors"
	"fmt"
)

// ErrUnexpectedDevice is returned by Configure when WHO_AM_I does not hold
// DeviceID. It is not retryable.
var ErrUnexpectedDevice = errors.New("unexpected device on SPI bus")

// UnexpectedDeviceError carries the identity that was read instead.
type UnexpectedDeviceError struct {
	Got byte
}

func (e *UnexpectedDeviceError) Error() string {
	return fmt.Sprintf("unexpected device on SPI bus: WHO_AM_I=0x%02X, want 0x%02X", e.Got, DeviceID)
}

func (e *UnexpectedDeviceError) Is(target error) bool { return target == ErrUnexpectedDevice }

// Sample is one angular rate reading in mdps.
type Sample struct {
	X, Y, Z int32
}

func (s Sample) String() string {
	return fmt.Sprintf("x: %d, y: %d, z: %d", s.X, s.Y, s.Z)
}

// Device is an I3G4250D. It owns its port and chip-select line; nothing else
// may use them while the Device is alive.
type Device struct {
	port Port
	cs   Pin
}

// New wraps an already initialised bus. No I/O is performed.
func New(port Port, cs Pin) *Device {
	return &Device{port: port, cs: cs}
}

// WhoAmI returns the raw identity register.
func (d *Device) WhoAmI() byte {
	return d.readReg(RegWhoAmI)
}

// Configure checks the device identity and programs continuous 760 Hz
// output at ±500 dps with the high-pass filter enabled. On an identity
// mismatch nothing is written.
func (d *Device) Configure() error {
	if id := d.WhoAmI(); id != DeviceID {
		return &UnexpectedDeviceError{Got: id}
	}

	d.writeReg(RegCtrl1, ctrl1Init)
	d.writeReg(RegCtrl2, ctrl2Init)
	d.writeReg(RegCtrl4, ctrl4Init)
	d.writeReg(RegCtrl5, ctrl5Init)
	return nil
}

// Read returns the current angular rate. CTRL_REG4 is read first on every
// call; its BLE and FS bits govern how the six output bytes that follow are
// interpreted. Read must only be called after a successful Configure.
func (d *Device) Read() Sample {
	ctrl4 := d.readReg(RegCtrl4)

	var raw [6]byte
	for i := range raw {
		raw[i] = d.readReg(RegOutXL + Register(i))
	}
	return Decode(ctrl4, raw)
}

// Temperature returns OUT_TEMP as a signed byte. The register has no
// absolute calibration; it tracks changes of about -1 LSB/°C.
func (d *Device) Temperature() int8 {
	return int8(d.readReg(RegOutTemp))
}

// Decode turns the six output register bytes (X_L, X_H, Y_L, Y_H, Z_L, Z_H)
// into a Sample under the given CTRL_REG4 value.
func Decode(ctrl4 byte, raw [6]byte) Sample {
	scale := Sensitivity(ctrl4)
	bigEndian := ctrl4&ctrl4BigEndian != 0

	axis := func(lo, hi byte) int32 {
		var v int16
		if bigEndian {
			v = int16(uint16(lo)<<8 | uint16(hi))
		} else {
			v = int16(uint16(hi)<<8 | uint16(lo))
		}
		return int32(v) * scale / 100
	}

	return Sample{
		X: axis(raw[0], raw[1]),
		Y: axis(raw[2], raw[3]),
		Z: axis(raw[4], raw[5]),
	}
}

// Sensitivity returns the scale in hundredths of mdps/LSB selected by the FS
// bits of ctrl4. The reserved code 0b11 yields 0, so every axis reads 0.
func Sensitivity(ctrl4 byte) int32 {
	return sensitivity[ctrl4&ctrl4FullScale]
}
