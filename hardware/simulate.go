package hardware

import (
	"math/rand"
	"sync"

	"github.com/gammazero/deque"
	"lautenbacher.net/gyrolog/gyro"
)

const (
	simCtrl1Default = 0x07 // power-down, all axes enabled
	simCtrl1Power   = 0x08
	simCtrl4BLE     = 0x40
	simWalkLimit    = 2000
	simTemperature  = 0x19
)

// SimulatedGyro models an I3G4250D at register level. It implements
// drivers.SPI for the data lines and gyro.Pin for chip-select, and follows
// the device framing: one address byte (bit7 = read) then one data byte per
// chip-select window.
//
// Output registers are refreshed whenever OUT_X_L is read. Readings come from
// the queue filled by Push, or from a bounded random walk once it is empty.
// While CTRL_REG1 has the power bit clear every output reads zero.
type SimulatedGyro struct {
	mu       sync.Mutex
	regs     [0x40]byte
	selected bool
	addr     int // -1 until the address byte of the window arrived
	count    int
	queue    deque.Deque[[3]int16]
	walk     [3]int16
	rnd      *rand.Rand
}

// NewSimulatedGyro returns a simulated device answering id on WHO_AM_I.
func NewSimulatedGyro(id byte, seed int64) *SimulatedGyro {
	s := &SimulatedGyro{
		addr: -1,
		rnd:  rand.New(rand.NewSource(seed)),
	}
	s.regs[gyro.RegWhoAmI] = id
	s.regs[gyro.RegCtrl1] = simCtrl1Default
	s.regs[gyro.RegOutTemp] = simTemperature
	return s
}

// Push queues raw axis readings to be returned in order.
func (s *SimulatedGyro) Push(x, y, z int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.PushBack([3]int16{x, y, z})
}

// Pending returns the number of queued readings.
func (s *SimulatedGyro) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Register returns the current content of reg without bus traffic.
func (s *SimulatedGyro) Register(reg gyro.Register) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg&0x3F]
}

// Low asserts chip-select and starts a new transaction.
func (s *SimulatedGyro) Low() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = true
	s.addr = -1
	s.count = 0
}

// High releases chip-select.
func (s *SimulatedGyro) High() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = false
}

func (s *SimulatedGyro) Transfer(b byte) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchange(b), nil
}

func (s *SimulatedGyro) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range w {
		v := s.exchange(b)
		if i < len(r) {
			r[i] = v
		}
	}
	return nil
}

func (s *SimulatedGyro) exchange(b byte) byte {
	if !s.selected {
		// MISO floats high with the device deselected.
		return 0xFF
	}
	s.count++
	switch s.count {
	case 1:
		s.addr = int(b)
		return 0x00
	case 2:
		reg := gyro.Register(s.addr & 0x3F)
		if s.addr&0x80 == 0 {
			s.write(reg, b)
			return 0x00
		}
		return s.read(reg)
	default:
		// No auto-increment without the MS bit; further bytes are ignored.
		return 0x00
	}
}

func (s *SimulatedGyro) write(reg gyro.Register, v byte) {
	if reg >= gyro.RegCtrl1 && reg <= gyro.RegCtrl5 {
		s.regs[reg] = v
	}
}

func (s *SimulatedGyro) read(reg gyro.Register) byte {
	if reg == gyro.RegOutXL {
		s.latch()
	}
	return s.regs[reg]
}

func (s *SimulatedGyro) latch() {
	var sample [3]int16
	if s.regs[gyro.RegCtrl1]&simCtrl1Power != 0 {
		if s.queue.Len() > 0 {
			sample = s.queue.PopFront()
		} else {
			sample = s.step()
		}
	}

	bigEndian := s.regs[gyro.RegCtrl4]&simCtrl4BLE != 0
	for i, v := range sample {
		lo, hi := byte(uint16(v)), byte(uint16(v)>>8)
		if bigEndian {
			lo, hi = hi, lo
		}
		s.regs[gyro.RegOutXL+gyro.Register(2*i)] = lo
		s.regs[gyro.RegOutXH+gyro.Register(2*i)] = hi
	}
}

func (s *SimulatedGyro) step() [3]int16 {
	for i := range s.walk {
		v := int(s.walk[i]) + s.rnd.Intn(41) - 20
		if v > simWalkLimit {
			v = simWalkLimit
		} else if v < -simWalkLimit {
			v = -simWalkLimit
		}
		s.walk[i] = int16(v)
	}
	return s.walk
}
