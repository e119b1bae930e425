package spi

import (
	"context"
	"fmt"

	"github.com/mklimuk/pressure"
	gobotspi "gobot.io/x/gobot/v2/drivers/spi"
	"periph.io/x/conn/v3/physic"
)

var _ pressure.SPIDevice = &GobotDevice{}

// GobotDevice talks to the sensor through a Gobot SPI connection. Tested on
// NanoPi using the Gobot sysfs SPI adaptor, but any spi.Connector works.
type GobotDevice struct {
	conn gobotspi.Connection
}

// NewGobotDevice opens a connection on the given bus and chip select with the
// sensor's mode and speed. The adaptor must already be connected.
func NewGobotDevice(adaptor gobotspi.Connector, bus, chip int) (*GobotDevice, error) {
	conn, err := adaptor.GetSpiConnection(bus, chip, int(DefaultMode), bitsPerWord, int64(DefaultSpeed/physic.Hertz))
	if err != nil {
		return nil, fmt.Errorf("could not get spi connection %d.%d: %w", bus, chip, err)
	}
	return &GobotDevice{conn: conn}, nil
}

// NewGobotConnection wraps an existing Gobot SPI connection.
func NewGobotConnection(conn gobotspi.Connection) *GobotDevice {
	return &GobotDevice{conn: conn}
}

// Read clocks out zeros while filling buffer; no command header is sent.
func (d *GobotDevice) Read(ctx context.Context, buffer []byte) error {
	err := d.conn.ReadCommandData([]byte{}, buffer)
	if err != nil {
		return fmt.Errorf("could not read from gobot spi connection: %w", err)
	}
	return nil
}

func (d *GobotDevice) Write(ctx context.Context, buffer []byte) error {
	if len(buffer) == 0 {
		return nil
	}
	err := d.conn.WriteBytes(buffer)
	if err != nil {
		return fmt.Errorf("could not write to gobot spi connection: %w", err)
	}
	return nil
}

func (d *GobotDevice) Close() error {
	return d.conn.Close()
}
