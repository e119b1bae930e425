// Package spi provides host SPI devices satisfying pressure.SPIDevice, either
// through periph.io (any Linux spidev) or through a Gobot board adaptor.
package spi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/pressure"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// MPR sensors accept up to 800kHz in mode 0.
const (
	DefaultSpeed = 800 * physic.KiloHertz
	DefaultMode  = spi.Mode0
	bitsPerWord  = 8
)

var _ pressure.SPIDevice = &GenericDevice{}

type GenericDevice struct {
	port spi.PortCloser
	conn spi.Conn
}

// NewGenericDevice initializes host drivers and opens the named port
// (e.g. "SPI0.0"). An empty name selects the first available port.
func NewGenericDevice(dev string) (*GenericDevice, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port %q: %w", dev, err)
	}
	d, err := NewDevice(port)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return d, nil
}

// NewDevice connects to an already opened periph.io port.
func NewDevice(port spi.PortCloser) (*GenericDevice, error) {
	conn, err := port.Connect(DefaultSpeed, DefaultMode, bitsPerWord)
	if err != nil {
		return nil, fmt.Errorf("could not connect to spi port: %w", err)
	}
	return &GenericDevice{port: port, conn: conn}, nil
}

func (d *GenericDevice) Read(ctx context.Context, buffer []byte) error {
	err := d.conn.Tx(make([]byte, len(buffer)), buffer)
	if err != nil {
		return fmt.Errorf("could not read from spi device: %w", err)
	}
	return nil
}

func (d *GenericDevice) Write(ctx context.Context, buffer []byte) error {
	err := d.conn.Tx(buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to spi device: %w", err)
	}
	return nil
}

func (d *GenericDevice) Close() error {
	return d.port.Close()
}
