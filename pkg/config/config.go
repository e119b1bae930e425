// Package config holds the sensor wiring and calibration read from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/pressure/mpr"
)

const (
	TransportI2C = "i2c"
	TransportSPI = "spi"

	AdapterGeneric = "generic"
	AdapterMCP2221 = "mcp2221"
	AdapterNanoPi  = "nanopi"
)

type Config struct {
	Sensor SensorConfig `yaml:"sensor"`
	Poll   PollConfig   `yaml:"poll"`
}

type SensorConfig struct {
	Transport string `yaml:"transport"`
	Adapter   string `yaml:"adapter"`
	// Device is the periph.io bus or port name, e.g. /dev/i2c-1 or SPI0.0.
	Device string `yaml:"device"`
	// Address is only used on I2C.
	Address          int    `yaml:"address"`
	PressureMin      int    `yaml:"pressure_min"`
	PressureMax      int    `yaml:"pressure_max"`
	TransferFunction string `yaml:"transfer_function"`

	// EOCPin names a host GPIO wired to the sensor EOC output (e.g. GPIO13).
	// With the mcp2221 adapter it is the GP line number instead.
	EOCPin       string `yaml:"eoc_pin,omitempty"`
	EOCTimeoutMs int    `yaml:"eoc_timeout_ms,omitempty"`
}

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// Default matches the 0-25 psi, transfer function C part at 0x18 on the first host bus.
func Default() Config {
	return Config{
		Sensor: SensorConfig{
			Transport:        TransportI2C,
			Adapter:          AdapterGeneric,
			Device:           "",
			Address:          0x18,
			PressureMin:      0,
			PressureMax:      25,
			TransferFunction: "C",
			EOCTimeoutMs:     100,
		},
		Poll: PollConfig{IntervalMs: 3000},
	}
}

// Load reads path on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config: %w", err)
	}
	err = yaml.Unmarshal(raw, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	err = Validate(cfg)
	if err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	err = os.WriteFile(path, raw, 0o644)
	if err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return nil
}

// Validate reports every problem found, not only the first one. The driver
// itself accepts any range; an inverted or empty one is rejected here.
func Validate(cfg Config) error {
	var errs []error
	s := cfg.Sensor
	switch s.Transport {
	case TransportI2C:
		if s.Adapter != AdapterGeneric && s.Adapter != AdapterMCP2221 {
			errs = append(errs, fmt.Errorf("adapter %q does not provide i2c", s.Adapter))
		}
		if s.Address < 0 || s.Address > 0x7F {
			errs = append(errs, fmt.Errorf("address %#x is not a 7-bit address", s.Address))
		}
	case TransportSPI:
		if s.Adapter != AdapterGeneric && s.Adapter != AdapterNanoPi {
			errs = append(errs, fmt.Errorf("adapter %q does not provide spi", s.Adapter))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", s.Transport))
	}
	if s.PressureMin >= s.PressureMax {
		errs = append(errs, fmt.Errorf("pressure range [%d, %d] is empty", s.PressureMin, s.PressureMax))
	}
	if _, err := mpr.ParseTransferFunction(s.TransferFunction); err != nil {
		errs = append(errs, err)
	}
	if s.EOCTimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("eoc timeout must not be negative"))
	}
	if cfg.Poll.IntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive"))
	}
	return errors.Join(errs...)
}

// MPR converts the calibration part into the driver configuration.
func (s SensorConfig) MPR() (mpr.Config, error) {
	tf, err := mpr.ParseTransferFunction(s.TransferFunction)
	if err != nil {
		return mpr.Config{}, err
	}
	return mpr.NewConfig(s.PressureMin, s.PressureMax, tf), nil
}

func (s SensorConfig) EOCTimeout() time.Duration {
	return time.Duration(s.EOCTimeoutMs) * time.Millisecond
}

func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}
