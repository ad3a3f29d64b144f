package rpi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/gyrolog/config"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// fakeConn echoes the complement of every byte written.
type fakeConn struct {
	written []byte
	err     error
}

func (f *fakeConn) String() string               { return "fake" }
func (f *fakeConn) Duplex() conn.Duplex          { return conn.Full }
func (f *fakeConn) TxPackets([]spi.Packet) error { return errors.New("not supported") }

func (f *fakeConn) Tx(w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, w...)
	for i := range w {
		if i < len(r) {
			r[i] = ^w[i]
		}
	}
	return nil
}

func TestPeriphSPITransfer(t *testing.T) {
	c := &fakeConn{}
	bus := periphSPI{conn: c}

	v, err := bus.Transfer(0x8F)
	require.NoError(t, err)
	assert.Equal(t, byte(0x70), v)

	r := make([]byte, 2)
	require.NoError(t, bus.Tx([]byte{0x20, 0xFF}, r))
	assert.Equal(t, []byte{0xDF, 0x00}, r)

	require.NoError(t, bus.Tx([]byte{0x21, 0x00}, nil), "write-only transfer")
	assert.Equal(t, []byte{0x8F, 0x20, 0xFF, 0x21, 0x00}, c.written)
}

func TestPeriphSPITransferError(t *testing.T) {
	bus := periphSPI{conn: &fakeConn{err: errors.New("EIO")}}

	_, err := bus.Transfer(0x00)
	assert.EqualError(t, err, "EIO")
}

// fakePort records the parameters of Connect.
type fakePort struct {
	freq physic.Frequency
	mode spi.Mode
	bits int
	err  error
}

func (f *fakePort) String() string { return "fakeport" }

func (f *fakePort) Connect(freq physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	f.freq, f.mode, f.bits = freq, mode, bits
	if f.err != nil {
		return nil, f.err
	}
	return &fakeConn{}, nil
}

func TestConnectPeriphLeavesChipSelectToGPIO(t *testing.T) {
	port := &fakePort{}

	c, err := connectPeriph(port, 1_000_000)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, spi.Mode3, port.mode&^spi.NoCS, "CPOL=1 CPHA=1")
	assert.NotZero(t, port.mode&spi.NoCS, "kernel must not toggle CE between bytes")
	assert.Equal(t, physic.MegaHertz, port.freq)
	assert.Equal(t, 8, port.bits)
}

func TestConnectPeriphError(t *testing.T) {
	_, err := connectPeriph(&fakePort{err: errors.New("busy")}, 1_000_000)
	assert.EqualError(t, err, "failed to connect spi port: busy")
}

func TestPeriphPin(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO8", Num: 8}
	cs := periphPin{pin: pin}

	cs.Low()
	assert.Equal(t, gpio.Low, pin.Read())
	cs.High()
	assert.Equal(t, gpio.High, pin.Read())
}

func TestStartUnknownLibrary(t *testing.T) {
	conf := &config.Config{}
	conf.Hardware.GPIOLibrary = "wiringpi"
	p := NewPlatform(conf)

	err := p.Start()
	assert.ErrorContains(t, err, "unknown GPIO library: wiringpi")
	assert.Empty(t, p.teardown)
}

func TestStopRunsTeardownInReverse(t *testing.T) {
	p := NewPlatform(&config.Config{})
	var order []int
	p.teardown = []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return errors.New("ignored") },
		func() error { order = append(order, 3); return nil },
	}

	p.Stop()
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.Nil(t, p.teardown)
}
