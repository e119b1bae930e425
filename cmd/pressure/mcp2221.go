package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/pressure/adapter"
	"github.com/mklimuk/pressure/cmd/pressure/console"
	"github.com/mklimuk/pressure/snsctx"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 USB bridge diagnostics",
	Subcommands: []*cli.Command{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221GPIOCmd,
	},
}

func bridgeContext(c *cli.Context) context.Context {
	return snsctx.SetVerbose(c.Context, c.Bool("verbose"))
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the I2C engine status",
	Action: func(c *cli.Context) error {
		status, err := adapter.NewMCP2221().Status(bridgeContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return encode(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel a stuck I2C transfer and release the bus",
	Action: func(c *cli.Context) error {
		status, err := adapter.NewMCP2221().ReleaseBus(bridgeContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return encode(status)
	},
}

var mcp2221GPIOCmd = cli.Command{
	Name:  "gpio",
	Usage: "print GP0..GP3 levels (e.g. to check the EOC wiring)",
	Action: func(c *cli.Context) error {
		levels, err := adapter.NewMCP2221().ReadGPIO(bridgeContext(c))
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		for i, high := range levels {
			console.PInfof(console.PictoPin, "GP%d %s", i, console.White(high))
		}
		return nil
	},
}
