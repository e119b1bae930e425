package mpr

import (
	"context"

	"github.com/mklimuk/pressure"
)

// transport is implemented by i2cTransport and spiTransport only.
type transport interface {
	readReg(ctx context.Context, buf []byte) error
	writeReg(ctx context.Context, buf []byte) error
	validateStatus(status Status) error
}

var validI2CAddresses = [...]byte{0x08, 0x18, 0x28, 0x38, 0x48, 0x58, 0x68, 0x78}

func isValidI2CAddress(address byte) bool {
	for _, a := range validI2CAddresses {
		if a == address {
			return true
		}
	}
	return false
}

func validateStatus(status Status) error {
	if status.MathSaturationOccurred() {
		return ErrMathSaturation
	}
	if !status.IntegrityTestPassed() {
		return ErrIntegrityTest
	}
	return nil
}

type i2cTransport struct {
	bus     pressure.I2CBus
	address byte
}

func (t *i2cTransport) readReg(ctx context.Context, buf []byte) error {
	err := t.bus.ReadFromAddr(ctx, t.address, buf)
	if err != nil {
		return &I2CError{Op: "read", Address: t.address, Err: err}
	}
	return nil
}

func (t *i2cTransport) writeReg(ctx context.Context, buf []byte) error {
	err := t.bus.WriteToAddr(ctx, t.address, buf)
	if err != nil {
		return &I2CError{Op: "write", Address: t.address, Err: err}
	}
	return nil
}

func (t *i2cTransport) validateStatus(status Status) error {
	return validateStatus(status)
}

type spiTransport struct {
	dev pressure.SPIDevice
}

func (t *spiTransport) readReg(ctx context.Context, buf []byte) error {
	err := t.dev.Read(ctx, buf)
	if err != nil {
		return &SPIError{Op: "read", Err: err}
	}
	return nil
}

func (t *spiTransport) writeReg(ctx context.Context, buf []byte) error {
	err := t.dev.Write(ctx, buf)
	if err != nil {
		return &SPIError{Op: "write", Err: err}
	}
	return nil
}

func (t *spiTransport) validateStatus(status Status) error {
	return validateStatus(status)
}
