package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/pressure/mpr"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sensor:
  transport: spi
  adapter: nanopi
  device: "0.0"
  pressure_min: -1
  pressure_max: 1
  transfer_function: a
poll:
  interval_ms: 500
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportSPI, cfg.Sensor.Transport)
	assert.Equal(t, 500*time.Millisecond, cfg.Poll.Interval())
	// defaults survive for keys absent from the file
	assert.Equal(t, 0x18, cfg.Sensor.Address)
	assert.Equal(t, 100*time.Millisecond, cfg.Sensor.EOCTimeout())

	m, err := cfg.Sensor.MPR()
	require.NoError(t, err)
	assert.Equal(t, mpr.NewConfig(-1, 1, mpr.TransferA), m)
}

func TestLoad_HexAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sensor:\n  address: 0x28\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0x28, cfg.Sensor.Address)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensor.yaml")
	cfg := Default()
	cfg.Sensor.EOCPin = "GPIO13"
	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"default", func(*Config) {}, ""},
		{"inverted range", func(c *Config) { c.Sensor.PressureMin, c.Sensor.PressureMax = 25, 0 }, "pressure range"},
		{"empty range", func(c *Config) { c.Sensor.PressureMax = c.Sensor.PressureMin }, "pressure range"},
		{"transfer function", func(c *Config) { c.Sensor.TransferFunction = "Z" }, "unknown transfer function"},
		{"transport", func(c *Config) { c.Sensor.Transport = "uart" }, "unknown transport"},
		{"spi over mcp2221", func(c *Config) { c.Sensor.Transport, c.Sensor.Adapter = TransportSPI, AdapterMCP2221 }, "does not provide spi"},
		{"i2c over nanopi", func(c *Config) { c.Sensor.Adapter = AdapterNanoPi }, "does not provide i2c"},
		{"10-bit address", func(c *Config) { c.Sensor.Address = 0x218 }, "7-bit"},
		{"interval", func(c *Config) { c.Poll.IntervalMs = 0 }, "poll interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := Validate(cfg)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
