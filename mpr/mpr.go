// Package mpr drives Honeywell MicroPressure (MPR series) board mount pressure
// sensors over I2C or SPI.
//
// Datasheet reference: Honeywell MPR Series, section 6 (I2C/SPI communication,
// status byte, transfer functions).
//
// Example usage:
//
//	sensor, err := mpr.NewI2C(bus, 0x18, mpr.NewConfig(0, 25, mpr.TransferC))
//	if err != nil { log.Fatal(err) }
//	reading, err := sensor.ReadWithDelay(ctx, mpr.TimerDelay{})
//	if err != nil { log.Fatal(err) }
//	fmt.Printf("%.3f psi\n", reading.PSI())
//
// A sensor instance is not safe for concurrent use; callers sharing one must
// serialize access themselves.
package mpr

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/pressure"
	"github.com/mklimuk/pressure/snsctx"
)

// ExitStandbyDelay is the wait used by the *WithDelay helpers. The datasheet
// requires at least 5ms between the output measurement command and the read.
const ExitStandbyDelay = 10 * time.Millisecond

var outputMeasurementCmd = []byte{0xAA, 0x00, 0x00}

// MPR is a sensor instance bound to one bus for its whole lifetime.
type MPR struct {
	config    Config
	transport transport
}

// NewI2C binds the sensor to an I2C bus. The address must be one of the
// factory options 0x08, 0x18 ... 0x78.
func NewI2C(bus pressure.I2CBus, address byte, config Config) (*MPR, error) {
	if !isValidI2CAddress(address) {
		return nil, fmt.Errorf("%w: %#02x", ErrInvalidAddress, address)
	}
	return &MPR{config: config, transport: &i2cTransport{bus: bus, address: address}}, nil
}

// NewSPI binds the sensor to an SPI device.
func NewSPI(dev pressure.SPIDevice, config Config) *MPR {
	return &MPR{config: config, transport: &spiTransport{dev: dev}}
}

func (s *MPR) Config() Config {
	return s.config
}

// ExitStandby sends the output measurement command and returns without waiting.
// The caller should wait at least 5ms or for a rising edge on EOC before reading.
func (s *MPR) ExitStandby(ctx context.Context) error {
	return s.transport.writeReg(ctx, outputMeasurementCmd)
}

// ReadRaw reads the status byte and the 24-bit pressure count. A status
// reporting saturation or a failed integrity test is returned as an error.
func (s *MPR) ReadRaw(ctx context.Context) (uint32, error) {
	buf := make([]byte, 4)
	err := s.transport.readReg(ctx, buf)
	if err != nil {
		return 0, err
	}
	if snsctx.IsVerbose(ctx) {
		slog.Debug("mpr measurement frame", "frame", hex.EncodeToString(buf))
	}
	err = s.transport.validateStatus(Status(buf[0]))
	if err != nil {
		return 0, err
	}
	return uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3]), nil
}

func (s *MPR) Read(ctx context.Context) (Reading, error) {
	raw, err := s.ReadRaw(ctx)
	if err != nil {
		return Reading{}, err
	}
	return s.reading(raw), nil
}

// ReadRawWithDelay exits standby, waits ExitStandbyDelay and reads the raw count.
func (s *MPR) ReadRawWithDelay(ctx context.Context, delay Delayer) (uint32, error) {
	err := s.ExitStandby(ctx)
	if err != nil {
		return 0, err
	}
	err = delay.Delay(ctx, ExitStandbyDelay)
	if err != nil {
		return 0, err
	}
	return s.ReadRaw(ctx)
}

// ReadWithDelay exits standby, waits ExitStandbyDelay and reads a Reading.
func (s *MPR) ReadWithDelay(ctx context.Context, delay Delayer) (Reading, error) {
	raw, err := s.ReadRawWithDelay(ctx, delay)
	if err != nil {
		return Reading{}, err
	}
	return s.reading(raw), nil
}

// ReadWhenReady exits standby and waits for the EOC line instead of a fixed delay.
func (s *MPR) ReadWhenReady(ctx context.Context, ready ReadySignal) (Reading, error) {
	err := s.ExitStandby(ctx)
	if err != nil {
		return Reading{}, err
	}
	err = ready.WaitReady(ctx)
	if err != nil {
		return Reading{}, fmt.Errorf("mpr: waiting for end of conversion: %w", err)
	}
	return s.Read(ctx)
}

// Status reads the status byte alone. The flags are not validated, so this
// never fails on saturation or integrity errors.
func (s *MPR) Status(ctx context.Context) (Status, error) {
	buf := make([]byte, 1)
	err := s.transport.readReg(ctx, buf)
	if err != nil {
		return 0, err
	}
	return Status(buf[0]), nil
}

func (s *MPR) reading(raw uint32) Reading {
	return NewReading(float32(s.config.PressureMin), float32(s.config.PressureMax), raw, s.config.TransferFunction)
}
