package hardware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/gyrolog/gyro"
)

// Mocking a broken bus

type mockSPI struct {
	transferFunc func(b byte) (byte, error)
}

func (m *mockSPI) Tx(w, r []byte) error { return nil }

func (m *mockSPI) Transfer(b byte) (byte, error) {
	return m.transferFunc(b)
}

func newSimulatedDevice(id byte) (*gyro.Device, *SimulatedGyro) {
	sim := NewSimulatedGyro(id, 1)
	return gyro.New(NewPort(sim), sim), sim
}

func TestPortExchange(t *testing.T) {
	var sent []byte
	port := NewPort(&mockSPI{transferFunc: func(b byte) (byte, error) {
		sent = append(sent, b)
		return ^b, nil
	}})

	assert.Equal(t, byte(0x70), port.Exchange(0x8F))
	assert.Equal(t, []byte{0x8F}, sent)
}

func TestPortExchangePanicsOnBusError(t *testing.T) {
	port := NewPort(&mockSPI{transferFunc: func(b byte) (byte, error) {
		return 0, errors.New("bus gone")
	}})

	assert.PanicsWithError(t, "spi transfer: bus gone", func() { port.Exchange(0x00) })
}

func TestSimulatedGyroConfigure(t *testing.T) {
	dev, sim := newSimulatedDevice(gyro.DeviceID)

	require.NoError(t, dev.Configure())
	assert.Equal(t, byte(0xFF), sim.Register(gyro.RegCtrl1))
	assert.Equal(t, byte(0x00), sim.Register(gyro.RegCtrl2))
	assert.Equal(t, byte(0x10), sim.Register(gyro.RegCtrl4))
	assert.Equal(t, byte(0x10), sim.Register(gyro.RegCtrl5))
}

func TestSimulatedGyroWrongIdentity(t *testing.T) {
	dev, sim := newSimulatedDevice(0xD3)

	err := dev.Configure()
	assert.ErrorIs(t, err, gyro.ErrUnexpectedDevice)
	assert.Equal(t, byte(simCtrl1Default), sim.Register(gyro.RegCtrl1), "no writes after failed identity check")
}

func TestSimulatedGyroReadQueued(t *testing.T) {
	dev, sim := newSimulatedDevice(gyro.DeviceID)
	require.NoError(t, dev.Configure())

	sim.Push(100, -16, 0)
	sim.Push(-32768, 32767, 1)
	assert.Equal(t, 2, sim.Pending())

	assert.Equal(t, gyro.Sample{X: 1750, Y: -280, Z: 0}, dev.Read())
	assert.Equal(t, gyro.Sample{X: -573440, Y: 573422, Z: 17}, dev.Read())
	assert.Zero(t, sim.Pending())
}

func TestSimulatedGyroBigEndian(t *testing.T) {
	dev, sim := newSimulatedDevice(gyro.DeviceID)
	require.NoError(t, dev.Configure())

	// Switch BLE on, FS=2000 dps.
	sim.Low()
	require.NoError(t, sim.Tx([]byte{byte(gyro.RegCtrl4), 0x60}, nil))
	sim.High()

	sim.Push(0x1234, -2, 0)
	assert.Equal(t, gyro.Sample{X: 0x1234 * 70, Y: -140, Z: 0}, dev.Read())
}

func TestSimulatedGyroPoweredDown(t *testing.T) {
	dev, sim := newSimulatedDevice(gyro.DeviceID)
	sim.Push(500, 500, 500)

	assert.Equal(t, gyro.Sample{}, dev.Read())
	assert.Equal(t, 1, sim.Pending(), "queue untouched while powered down")
}

func TestSimulatedGyroRandomWalkBounded(t *testing.T) {
	dev, _ := newSimulatedDevice(gyro.DeviceID)
	require.NoError(t, dev.Configure())

	limit := int32(simWalkLimit * 1750 / 100)
	for i := 0; i < 500; i++ {
		s := dev.Read()
		for _, v := range []int32{s.X, s.Y, s.Z} {
			assert.LessOrEqual(t, v, limit)
			assert.GreaterOrEqual(t, v, -limit)
		}
	}
}

func TestSimulatedGyroDeselected(t *testing.T) {
	sim := NewSimulatedGyro(gyro.DeviceID, 1)

	v, err := sim.Transfer(byte(gyro.RegWhoAmI) | 0x80)
	require.NoError(t, err)
	assert.Equal(t, byte(0xFF), v)

	sim.Low()
	r := make([]byte, 2)
	require.NoError(t, sim.Tx([]byte{byte(gyro.RegWhoAmI) | 0x80, 0x00}, r))
	sim.High()
	assert.Equal(t, []byte{0x00, gyro.DeviceID}, r)
}

func TestSimulatedGyroTemperature(t *testing.T) {
	dev, _ := newSimulatedDevice(gyro.DeviceID)
	assert.Equal(t, int8(simTemperature), dev.Temperature())
}
