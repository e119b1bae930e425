package adapter

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/pressure"
	"github.com/mklimuk/pressure/mpr"
)

// fakeHID answers each 64 byte request report with the report built by reply.
type fakeHID struct {
	requests [][]byte
	reply    func(req []byte) []byte
	closed   int
}

func (f *fakeHID) open() (io.ReadWriteCloser, error) {
	return &fakeHandle{f: f}, nil
}

type fakeHandle struct {
	f    *fakeHID
	last []byte
}

func (h *fakeHandle) Write(p []byte) (int, error) {
	h.last = append([]byte(nil), p...)
	h.f.requests = append(h.f.requests, h.last)
	return len(p), nil
}

func (h *fakeHandle) Read(p []byte) (int, error) {
	resp := make([]byte, reportSize)
	copy(resp, h.f.reply(h.last))
	return copy(p, resp), nil
}

func (h *fakeHandle) Close() error {
	h.f.closed++
	return nil
}

// sensorBridge emulates an MPR sensor at 0x18 behind the bridge.
func sensorBridge(frame []byte) func([]byte) []byte {
	return func(req []byte) []byte {
		switch req[0] {
		case cmdI2CWriteData, cmdI2CReadData:
			return []byte{req[0], 0x00}
		case cmdI2CGetData:
			return append([]byte{cmdI2CGetData, 0x00, 0x00, byte(len(frame))}, frame...)
		case cmdGPIOGetValues:
			return []byte{cmdGPIOGetValues, 0x00, 0x00, 0x01, 0x01, 0x01, gpioNotSet, gpioNotSet, 0x00, 0x00}
		}
		return []byte{req[0], 0x00}
	}
}

func TestMCP2221_Measurement(t *testing.T) {
	fake := &fakeHID{reply: sensorBridge([]byte{0x40, 0x12, 0x34, 0x56})}
	bridge := newMCP2221(fake.open, 0)
	sensor, err := mpr.NewI2C(bridge, 0x18, mpr.NewConfig(0, 25, mpr.TransferC))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sensor.ExitStandby(ctx))
	raw, err := sensor.ReadRaw(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x123456), raw)

	require.Len(t, fake.requests, 3)
	write := fake.requests[0]
	assert.Equal(t, []byte{cmdI2CWriteData, 0x03, 0x00, 0x18 << 1, 0xAA, 0x00, 0x00}, write[:7])
	read := fake.requests[1]
	assert.Equal(t, []byte{cmdI2CReadData, 0x04, 0x00, 0x18<<1 + 1}, read[:4])
	assert.Equal(t, cmdI2CGetData, fake.requests[2][0])
	assert.Equal(t, 3, fake.closed)
}

func TestMCP2221_Busy(t *testing.T) {
	fake := &fakeHID{reply: func(req []byte) []byte { return []byte{req[0], i2cEngineBusy} }}
	bridge := newMCP2221(fake.open, 0)
	err := bridge.WriteToAddr(context.Background(), 0x18, []byte{0xAA, 0x00, 0x00})
	assert.ErrorIs(t, err, pressure.ErrBusBusy)
}

func TestMCP2221_ShortData(t *testing.T) {
	fake := &fakeHID{reply: sensorBridge([]byte{0x40})}
	bridge := newMCP2221(fake.open, 0)
	err := bridge.ReadFromAddr(context.Background(), 0x18, make([]byte, 4))
	assert.ErrorContains(t, err, "invalid data size byte")
}

func TestMCP2221_NotFound(t *testing.T) {
	bridge := newMCP2221(func() (io.ReadWriteCloser, error) { return nil, ErrDeviceNotFound }, 0)
	assert.ErrorIs(t, bridge.Init(context.Background()), ErrDeviceNotFound)
}

func TestMCP2221_Pin(t *testing.T) {
	fake := &fakeHID{reply: sensorBridge(nil)}
	bridge := newMCP2221(fake.open, 0)
	ctx := context.Background()

	high, err := bridge.Pin(1).ReadLevel(ctx)
	require.NoError(t, err)
	assert.True(t, high)
	high, err = bridge.Pin(2).ReadLevel(ctx)
	require.NoError(t, err)
	assert.False(t, high)
	_, err = bridge.Pin(4).ReadLevel(ctx)
	assert.Error(t, err)
}

func TestMCP2221_StatusAndRelease(t *testing.T) {
	fake := &fakeHID{reply: func(req []byte) []byte {
		resp := make([]byte, reportSize)
		resp[0] = req[0]
		resp[9], resp[11] = 0x03, 0x02
		resp[14], resp[15] = 0x76, 0x20
		resp[16] = 0x30
		return resp
	}}
	bridge := newMCP2221(fake.open, 0)
	ctx := context.Background()

	status, err := bridge.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0x76, status.I2CSpeedDivider)
	assert.Equal(t, 0x20, status.I2CTimeout)
	assert.Equal(t, "3000", status.CurrentAddress)
	assert.Equal(t, uint16(3), status.LastWriteRequestedSize)
	assert.Equal(t, uint16(2), status.LastWriteSentSize)

	require.NoError(t, bridge.Release(ctx))
	last := fake.requests[len(fake.requests)-1]
	assert.Equal(t, []byte{cmdStatusSetParameters, 0x00, cancelCurrentTransfer}, last[:3])
}

func TestMCP2221_WriteError(t *testing.T) {
	failure := errors.New("usb reset")
	bridge := newMCP2221(func() (io.ReadWriteCloser, error) { return nil, failure }, 0)
	sensor, err := mpr.NewI2C(bridge, 0x28, mpr.NewConfig(0, 25, mpr.TransferA))
	require.NoError(t, err)
	err = sensor.ExitStandby(context.Background())
	var i2cErr *mpr.I2CError
	assert.ErrorAs(t, err, &i2cErr)
	assert.ErrorIs(t, err, failure)
}
