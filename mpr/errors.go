package mpr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned by NewI2C only.
	ErrInvalidAddress = errors.New("mpr: invalid i2c address")
	// ErrIntegrityTest means the power-up memory checksum failed; the measurement cannot be trusted.
	ErrIntegrityTest = errors.New("mpr: memory integrity test failed")
	// ErrMathSaturation means the internal math saturated; the measurement cannot be trusted.
	ErrMathSaturation = errors.New("mpr: math saturation occurred")
)

// I2CError wraps a failure of the underlying I2C bus.
type I2CError struct {
	Op      string
	Address byte
	Err     error
}

func (e *I2CError) Error() string {
	return fmt.Sprintf("mpr: i2c %s at %#02x: %v", e.Op, e.Address, e.Err)
}

func (e *I2CError) Unwrap() error {
	return e.Err
}

// SPIError wraps a failure of the underlying SPI device.
type SPIError struct {
	Op  string
	Err error
}

func (e *SPIError) Error() string {
	return fmt.Sprintf("mpr: spi %s: %v", e.Op, e.Err)
}

func (e *SPIError) Unwrap() error {
	return e.Err
}
