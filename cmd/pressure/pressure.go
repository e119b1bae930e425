package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/pressure/cmd/pressure/console"
	"github.com/mklimuk/pressure/mpr"
	"github.com/mklimuk/pressure/pkg/config"
	"github.com/mklimuk/pressure/snsctx"
)

type readingReport struct {
	Raw              uint32  `yaml:"raw"`
	TransferFunction string  `yaml:"transfer_function"`
	PSI              float32 `yaml:"psi"`
	Bar              float32 `yaml:"bar"`
	KPa              float32 `yaml:"kpa"`
}

func newReadingReport(r mpr.Reading) readingReport {
	return readingReport{
		Raw:              r.Raw(),
		TransferFunction: r.TransferFunction().String(),
		PSI:              r.PSI(),
		Bar:              r.Bar(),
		KPa:              r.KPa(),
	}
}

type statusReport struct {
	Byte            string `yaml:"byte"`
	Powered         bool   `yaml:"powered"`
	Busy            bool   `yaml:"busy"`
	IntegrityPassed bool   `yaml:"integrity_passed"`
	MathSaturation  bool   `yaml:"math_saturation"`
}

func newStatusReport(s mpr.Status) statusReport {
	return statusReport{
		Byte:            fmt.Sprintf("0b%08b", byte(s)),
		Powered:         s.IsPowered(),
		Busy:            s.IsBusy(),
		IntegrityPassed: s.IntegrityTestPassed(),
		MathSaturation:  s.MathSaturationOccurred(),
	}
}

func encode(v any) error {
	enc := yaml.NewEncoder(console.Writer())
	defer func() { _ = enc.Close() }()
	err := enc.Encode(v)
	if err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}

// withSensor opens the configured sensor for the duration of fn.
func withSensor(c *cli.Context, fn func(ctx context.Context, h *sensorHandle, cfg config.Config) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return console.Exit(2, "configuration error: %s", console.Red(err))
	}
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	h, err := openSensor(ctx, cfg.Sensor)
	if err != nil {
		return console.Exit(1, "sensor initialization error: %s", console.Red(err))
	}
	defer h.Close()
	slog.Debug("sensor ready", "transport", cfg.Sensor.Transport, "adapter", cfg.Sensor.Adapter, "device", cfg.Sensor.Device)
	return fn(ctx, h, cfg)
}

var readCmd = cli.Command{
	Name:  "read",
	Usage: "trigger a measurement and print it in psi, bar and kPa",
	Flags: sensorFlags,
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, h *sensorHandle, _ config.Config) error {
			reading, err := h.measure(ctx)
			if err != nil {
				return console.Exit(1, "error getting pressure read: %s", console.Red(err))
			}
			return encode(newReadingReport(reading))
		})
	},
}

var rawCmd = cli.Command{
	Name:  "raw",
	Usage: "trigger a measurement and print the raw 24-bit count",
	Flags: sensorFlags,
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, h *sensorHandle, _ config.Config) error {
			var raw uint32
			var err error
			if h.ready != nil {
				var reading mpr.Reading
				reading, err = h.sensor.ReadWhenReady(ctx, h.ready)
				raw = reading.Raw()
			} else {
				raw, err = h.sensor.ReadRawWithDelay(ctx, mpr.TimerDelay{})
			}
			if err != nil {
				return console.Exit(1, "error getting raw read: %s", console.Red(err))
			}
			console.PInfof(console.PictoGauge, "%s (%#06x)", console.White(raw), raw)
			return nil
		})
	},
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "read the sensor status byte without triggering a measurement",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{Name: "yaml", Usage: "print the decoded flags as yaml"},
	}, sensorFlags...),
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, h *sensorHandle, _ config.Config) error {
			status, err := h.sensor.Status(ctx)
			if err != nil {
				return console.Exit(1, "error getting status: %s", console.Red(err))
			}
			report := newStatusReport(status)
			if c.Bool("yaml") {
				return encode(report)
			}
			console.PInfof(console.PictoStatus, "status %s", console.White(report.Byte))
			console.Printf("  powered          %s\n", console.Flag(report.Powered, true))
			console.Printf("  busy             %s\n", console.Flag(report.Busy, false))
			console.Printf("  integrity passed %s\n", console.Flag(report.IntegrityPassed, true))
			console.Printf("  math saturation  %s\n", console.Flag(report.MathSaturation, false))
			return nil
		})
	},
}

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "read pressure periodically until interrupted",
	Flags: append([]cli.Flag{
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Usage: "time between readings (default from config)"},
	}, sensorFlags...),
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, h *sensorHandle, cfg config.Config) error {
			interval := cfg.Poll.Interval()
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				reading, err := h.measure(ctx)
				if err != nil {
					slog.Error("read failed", "error", err)
				} else {
					console.PInfof(console.PictoGauge, "%s psi  %s bar  %s kPa  (%d)",
						console.White(fmt.Sprintf("%.4f", reading.PSI())),
						console.White(fmt.Sprintf("%.5f", reading.Bar())),
						console.White(fmt.Sprintf("%.3f", reading.KPa())),
						reading.Raw())
				}
				select {
				case <-ctx.Done():
					console.PInfof(console.PictoStop, "stopped")
					return nil
				case <-ticker.C:
				}
			}
		})
	},
}
