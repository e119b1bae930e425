package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/pressure/cmd/pressure/console"
	"github.com/mklimuk/pressure/mpr"
	"github.com/mklimuk/pressure/pkg/config"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "sensor configuration files",
	Subcommands: []*cli.Command{
		&configInitCmd,
		&configCheckCmd,
	},
}

var configInitCmd = cli.Command{
	Name:  "init",
	Usage: "interactively write a sensor configuration file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "sensor.yaml"},
	},
	Action: func(c *cli.Context) error {
		path := c.String("output")
		if _, err := os.Stat(path); err == nil {
			answer, err := console.YesOrNo(path + " exists, overwrite?")
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if answer != console.Yes {
				return nil
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return console.Exit(1, "could not stat %s: %s", path, console.Red(err))
		}
		cfg, err := promptConfig()
		if err != nil {
			return console.Exit(1, "prompt error: %s", console.Red(err))
		}
		if err := config.Validate(cfg); err != nil {
			return console.Exit(2, "configuration error: %s", console.Red(err))
		}
		if err := config.Save(path, cfg); err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		console.PInfof(console.PictoCheck, "configuration written to %s", console.White(path))
		return nil
	},
}

func promptConfig() (config.Config, error) {
	cfg := config.Default()
	s := &cfg.Sensor
	var err error
	if s.Transport, err = console.Prompt("transport", config.TransportI2C, config.TransportSPI); err != nil {
		return cfg, err
	}
	if s.Transport == config.TransportI2C {
		if s.Adapter, err = console.Prompt("adapter", config.AdapterGeneric, config.AdapterMCP2221); err != nil {
			return cfg, err
		}
		if s.Address, err = console.PromptInt("i2c address", s.Address); err != nil {
			return cfg, err
		}
	} else {
		if s.Adapter, err = console.Prompt("adapter", config.AdapterGeneric, config.AdapterNanoPi); err != nil {
			return cfg, err
		}
	}
	if s.Adapter != config.AdapterMCP2221 {
		if s.Device, err = console.PromptDefault("device", s.Device); err != nil {
			return cfg, err
		}
	}
	if s.PressureMin, err = console.PromptInt("pressure range min (psi)", s.PressureMin); err != nil {
		return cfg, err
	}
	if s.PressureMax, err = console.PromptInt("pressure range max (psi)", s.PressureMax); err != nil {
		return cfg, err
	}
	tfs := []string{s.TransferFunction}
	for _, tf := range []mpr.TransferFunction{mpr.TransferA, mpr.TransferB, mpr.TransferC} {
		if tf.String() != s.TransferFunction {
			tfs = append(tfs, tf.String())
		}
	}
	if s.TransferFunction, err = console.Prompt("transfer function", tfs...); err != nil {
		return cfg, err
	}
	if s.EOCPin, err = console.PromptDefault("eoc pin (empty for fixed delay)", s.EOCPin); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var configCheckCmd = cli.Command{
	Name:      "check",
	Usage:     "validate a configuration file and print the effective values",
	ArgsUsage: "<file>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(2, "expected exactly one configuration file")
		}
		cfg, err := config.Load(c.Args().First())
		if err != nil {
			return console.Exit(2, "%s", console.Red(err))
		}
		return encode(cfg)
	},
}
