package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

const CONFILE = "config.yml"

const (
	GPIOLibraryRpio   = "rpio"
	GPIOLibraryPeriph = "periph.io"

	DefaultSPIFrequency  = 1_000_000
	DefaultChipSelectPin = 8 // BCM GPIO8, SPI0 CE0
	DefaultBaud          = 9600
	DefaultInterval      = 100 * time.Millisecond
	DefaultDeviceID      = 0xD4
)

var gpioLibraries = map[string]bool{
	GPIOLibraryRpio:   true,
	GPIOLibraryPeriph: true,
}

type Config struct {
	RealHW     bool           `yaml:"-"`
	Configfile string         `yaml:"-"`
	Hardware   HardwareConfig `yaml:"Hardware"`
	Console    ConsoleConfig  `yaml:"Console"`
	Sampling   SamplingConfig `yaml:"Sampling"`
	Web        WebConfig      `yaml:"Web"`
}

type HardwareConfig struct {
	GPIOLibrary   string           `yaml:"GPIOLibrary"`
	SPIFrequency  int              `yaml:"SPIFrequency"`
	SPIPort       string           `yaml:"SPIPort"`
	ChipSelectPin int              `yaml:"ChipSelectPin"`
	Simulation    SimulationConfig `yaml:"Simulation"`
}

// SimulationConfig is only used when not running on real hardware.
type SimulationConfig struct {
	DeviceID int   `yaml:"DeviceID"`
	Seed     int64 `yaml:"Seed"`
}

type ConsoleConfig struct {
	// Device is a serial port such as /dev/ttyAMA0. Empty means stdout.
	Device string `yaml:"Device"`
	Baud   int    `yaml:"Baud"`
}

type SamplingConfig struct {
	Interval time.Duration `yaml:"Interval" json:"Interval"`
}

type WebConfig struct {
	Address string `yaml:"Address"`
}

// ReadConfig decodes and validates the YAML file at cfile. Keys missing
// from the file keep their defaults; keys present keep their value, zero
// included.
func ReadConfig(cfile string) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := NewDefaultConfig()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	conf.Configfile = cfile

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return conf, nil
}

// NewDefaultConfig returns the configuration used for keys a file omits.
func NewDefaultConfig() *Config {
	return &Config{
		Hardware: HardwareConfig{
			GPIOLibrary:   GPIOLibraryRpio,
			SPIFrequency:  DefaultSPIFrequency,
			ChipSelectPin: DefaultChipSelectPin,
			Simulation:    SimulationConfig{DeviceID: DefaultDeviceID},
		},
		Console:  ConsoleConfig{Baud: DefaultBaud},
		Sampling: SamplingConfig{Interval: DefaultInterval},
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	lib := strings.ToLower(c.Hardware.GPIOLibrary)
	if !gpioLibraries[lib] {
		names := make([]string, 0, len(gpioLibraries))
		for name := range gpioLibraries {
			names = append(names, name)
		}
		slices.Sort(names)
		errs = append(errs, fmt.Errorf("Hardware.GPIOLibrary %q must be one of %s", c.Hardware.GPIOLibrary, strings.Join(names, ", ")))
	}
	if c.Hardware.SPIFrequency <= 0 {
		errs = append(errs, errors.New("Hardware.SPIFrequency must be positive"))
	}
	if c.Hardware.ChipSelectPin < 0 || c.Hardware.ChipSelectPin > 27 {
		errs = append(errs, fmt.Errorf("Hardware.ChipSelectPin %d must be between 0 and 27", c.Hardware.ChipSelectPin))
	}
	if id := c.Hardware.Simulation.DeviceID; id < 0 || id > 0xFF {
		errs = append(errs, fmt.Errorf("Hardware.Simulation.DeviceID %d must be between 0 and 255", id))
	}
	if c.Console.Baud <= 0 {
		errs = append(errs, errors.New("Console.Baud must be positive"))
	}
	errs = append(errs, c.Sampling.validate())

	return errors.Join(errs...)
}

func (s SamplingConfig) validate() error {
	if s.Interval <= 0 {
		return fmt.Errorf("Sampling.Interval %s must be positive", s.Interval)
	}
	return nil
}
