package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/pressure/adapter"
	"github.com/mklimuk/pressure/gpio"
	"github.com/mklimuk/pressure/i2c"
	"github.com/mklimuk/pressure/mpr"
	"github.com/mklimuk/pressure/pkg/config"
	"github.com/mklimuk/pressure/snsctx"
	"github.com/mklimuk/pressure/spi"
)

// sensorFlags override the values loaded from --config.
var sensorFlags = []cli.Flag{
	&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "sensor configuration file (yaml)"},
	&cli.StringFlag{Name: "transport", Aliases: []string{"t"}, Usage: "bus transport: i2c or spi"},
	&cli.StringFlag{Name: "adapter", Aliases: []string{"a"}, Usage: "bus adapter: generic, mcp2221 (i2c) or nanopi (spi)"},
	&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "bus or port name, e.g. /dev/i2c-1, SPI0.0, or bus.chip for nanopi"},
	&cli.IntFlag{Name: "address", Usage: "sensor i2c address (0x08, 0x18 ... 0x78)"},
	&cli.IntFlag{Name: "min", Usage: "rated pressure range minimum (psi)"},
	&cli.IntFlag{Name: "max", Usage: "rated pressure range maximum (psi)"},
	&cli.StringFlag{Name: "transfer", Usage: "transfer function: A, B or C"},
	&cli.StringFlag{Name: "eoc", Usage: "EOC line: host gpio name, or GP number with mcp2221"},
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	s := &cfg.Sensor
	if c.IsSet("transport") {
		s.Transport = c.String("transport")
		if !c.IsSet("adapter") && !c.IsSet("config") {
			s.Adapter = config.AdapterGeneric
		}
	}
	if c.IsSet("adapter") {
		s.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		s.Device = c.String("device")
	}
	if c.IsSet("address") {
		s.Address = c.Int("address")
	}
	if c.IsSet("min") {
		s.PressureMin = c.Int("min")
	}
	if c.IsSet("max") {
		s.PressureMax = c.Int("max")
	}
	if c.IsSet("transfer") {
		s.TransferFunction = c.String("transfer")
	}
	if c.IsSet("eoc") {
		s.EOCPin = c.String("eoc")
	}
	if c.IsSet("interval") {
		cfg.Poll.IntervalMs = int(c.Duration("interval").Milliseconds())
	}
	return cfg, config.Validate(cfg)
}

// sensorHandle owns the driver together with the bus resources opened for it.
type sensorHandle struct {
	sensor  *mpr.MPR
	ready   mpr.ReadySignal
	closers []func() error
}

func (h *sensorHandle) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			slog.Warn("could not release bus resource", "error", err)
		}
	}
}

// measure waits on EOC when one is wired, otherwise sleeps the fixed delay.
func (h *sensorHandle) measure(ctx context.Context) (mpr.Reading, error) {
	if h.ready != nil {
		return h.sensor.ReadWhenReady(ctx, h.ready)
	}
	return h.sensor.ReadWithDelay(ctx, mpr.TimerDelay{})
}

func openSensor(ctx context.Context, cfg config.SensorConfig) (*sensorHandle, error) {
	mprConfig, err := cfg.MPR()
	if err != nil {
		return nil, err
	}
	h := &sensorHandle{}
	var bridge *adapter.MCP2221
	switch cfg.Transport + "/" + cfg.Adapter {
	case config.TransportI2C + "/" + config.AdapterGeneric:
		bus, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, bus.Close)
		h.sensor, err = mpr.NewI2C(bus, byte(cfg.Address), mprConfig)
		if err != nil {
			h.Close()
			return nil, err
		}
	case config.TransportI2C + "/" + config.AdapterMCP2221:
		bridge = adapter.NewMCP2221()
		if err := bridge.Init(ctx); err != nil {
			return nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		h.sensor, err = mpr.NewI2C(bridge, byte(cfg.Address), mprConfig)
		if err != nil {
			return nil, err
		}
	case config.TransportSPI + "/" + config.AdapterGeneric:
		dev, err := spi.NewGenericDevice(cfg.Device)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, dev.Close)
		h.sensor = mpr.NewSPI(dev, mprConfig)
	case config.TransportSPI + "/" + config.AdapterNanoPi:
		bus, chip, err := parseBusChip(cfg.Device)
		if err != nil {
			return nil, err
		}
		board := nanopi.NewNeoAdaptor()
		if err := board.Connect(); err != nil {
			return nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		h.closers = append(h.closers, board.Finalize)
		dev, err := spi.NewGobotDevice(board, bus, chip)
		if err != nil {
			h.Close()
			return nil, err
		}
		h.closers = append(h.closers, dev.Close)
		h.sensor = mpr.NewSPI(dev, mprConfig)
	default:
		return nil, fmt.Errorf("unsupported transport/adapter combination %s/%s", cfg.Transport, cfg.Adapter)
	}

	if cfg.EOCPin == "" {
		return h, nil
	}
	if bridge != nil {
		n, err := strconv.Atoi(cfg.EOCPin)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("mcp2221 eoc pin must be a GP number: %w", err)
		}
		h.ready = gpio.NewPolledPin(bridge.Pin(n), bridgePollInterval, cfg.EOCTimeout())
	} else {
		h.ready, err = gpio.NewEdgePin(cfg.EOCPin, cfg.EOCTimeout())
		if err != nil {
			h.Close()
			return nil, err
		}
	}
	if snsctx.IsVerbose(ctx) {
		slog.Debug("waiting on eoc line", "pin", cfg.EOCPin, "timeout", cfg.EOCTimeout())
	}
	return h, nil
}

// every HID round trip already takes tens of milliseconds
const bridgePollInterval = time.Millisecond

// parseBusChip reads "bus.chip"; empty means 0.0.
func parseBusChip(dev string) (int, int, error) {
	if dev == "" {
		return 0, 0, nil
	}
	busStr, chipStr, ok := strings.Cut(dev, ".")
	if !ok {
		return 0, 0, errors.New("nanopi spi device must be given as bus.chip, e.g. 0.0")
	}
	bus, err := strconv.Atoi(busStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid spi bus %q: %w", busStr, err)
	}
	chip, err := strconv.Atoi(chipStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid spi chip select %q: %w", chipStr, err)
	}
	return bus, chip, nil
}
