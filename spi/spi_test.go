package spi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gobotspi "gobot.io/x/gobot/v2/drivers/spi"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/mklimuk/pressure/mpr"
)

func TestGenericDevice_Measurement(t *testing.T) {
	playback := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				// output measurement command
				{W: []byte{0xAA, 0x00, 0x00}},
				// zeros clocked out, status + 24-bit count clocked in
				{W: []byte{0x00, 0x00, 0x00, 0x00}, R: []byte{0x40, 0xD9, 0x99, 0x9A}},
			},
		},
	}
	dev, err := NewDevice(playback)
	require.NoError(t, err)
	sensor := mpr.NewSPI(dev, mpr.NewConfig(-1, 1, mpr.TransferA))

	ctx := context.Background()
	require.NoError(t, sensor.ExitStandby(ctx))
	reading, err := sensor.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(14260634), reading.Raw())
	assert.InDelta(t, 0.875, reading.PSI(), 1e-4)
	assert.NoError(t, dev.Close())
}

func TestGenericDevice_Saturation(t *testing.T) {
	playback := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{W: []byte{0x00, 0x00, 0x00, 0x00}, R: []byte{0x41, 0x12, 0x34, 0x56}},
			},
		},
	}
	dev, err := NewDevice(playback)
	require.NoError(t, err)
	sensor := mpr.NewSPI(dev, mpr.NewConfig(0, 25, mpr.TransferA))

	_, err = sensor.ReadRaw(context.Background())
	assert.ErrorIs(t, err, mpr.ErrMathSaturation)
	assert.NoError(t, dev.Close())
}

type fakeGobotConn struct {
	gobotspi.Connection
	written [][]byte
	frame   []byte
	err     error
	closed  bool
}

func (c *fakeGobotConn) ReadCommandData(command []byte, data []byte) error {
	if c.err != nil {
		return c.err
	}
	copy(data, c.frame[len(command):])
	return nil
}

func (c *fakeGobotConn) WriteBytes(data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *fakeGobotConn) Close() error {
	c.closed = true
	return nil
}

func TestGobotDevice(t *testing.T) {
	conn := &fakeGobotConn{frame: []byte{0x40, 0x12, 0x34, 0x56}}
	dev := NewGobotConnection(conn)
	sensor := mpr.NewSPI(dev, mpr.NewConfig(0, 25, mpr.TransferC))

	ctx := context.Background()
	raw, err := sensor.ReadRawWithDelay(ctx, mpr.TimerDelay{})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x123456), raw)
	assert.Equal(t, [][]byte{{0xAA, 0x00, 0x00}}, conn.written)

	assert.NoError(t, dev.Write(ctx, nil))
	assert.Len(t, conn.written, 1)

	assert.NoError(t, dev.Close())
	assert.True(t, conn.closed)
}

func TestGobotDevice_Error(t *testing.T) {
	failure := errors.New("spidev gone")
	dev := NewGobotConnection(&fakeGobotConn{err: failure})
	sensor := mpr.NewSPI(dev, mpr.NewConfig(0, 25, mpr.TransferC))

	_, err := sensor.Status(context.Background())
	var spiErr *mpr.SPIError
	assert.ErrorAs(t, err, &spiErr)
	assert.ErrorIs(t, err, failure)
}
