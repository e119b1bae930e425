package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/mklimuk/pressure/mpr"
)

func TestGenericBus_Measurement(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			// output measurement command
			{Addr: 0x18, W: []byte{0xAA, 0x00, 0x00}},
			// status + 24-bit count
			{Addr: 0x18, R: []byte{0x40, 0x12, 0x34, 0x56}},
			// status only
			{Addr: 0x18, R: []byte{0x60}},
		},
	}
	bus := NewBus(playback)
	sensor, err := mpr.NewI2C(bus, 0x18, mpr.NewConfig(0, 25, mpr.TransferC))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sensor.ExitStandby(ctx))
	raw, err := sensor.ReadRaw(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x123456), raw)
	status, err := sensor.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsBusy())

	assert.NoError(t, bus.Release(ctx))
	assert.NoError(t, bus.Close())
}

func TestGenericBus_Error(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x28, W: []byte{0x01}}},
		DontPanic: true,
	}
	bus := NewBus(playback)
	err := bus.WriteToAddr(context.Background(), 0x28, []byte{0x02})
	assert.Error(t, err)
}
