// Package gpio provides end-of-conversion (EOC) ready signals. The sensor drives
// its EOC output high once a measurement triggered by the output measurement
// command is available.
package gpio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var ErrReadyTimeout = errors.New("eoc: end of conversion not signalled in time")

// DefaultReadyTimeout is generous; a conversion takes about 5ms.
const DefaultReadyTimeout = 100 * time.Millisecond

// edgeSlice bounds a single WaitForEdge call so cancellation is noticed.
const edgeSlice = 5 * time.Millisecond

// EdgePin waits for a rising edge on a host GPIO line.
type EdgePin struct {
	pin     gpio.PinIn
	timeout time.Duration
}

// NewEdgePin looks the pin up by name (e.g. "GPIO13") and arms rising edge detection.
func NewEdgePin(name string, timeout time.Duration) (*EdgePin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("eoc: no gpio pin named %q", name)
	}
	return NewPin(pin, timeout)
}

func NewPin(pin gpio.PinIn, timeout time.Duration) (*EdgePin, error) {
	err := pin.In(gpio.PullDown, gpio.RisingEdge)
	if err != nil {
		return nil, fmt.Errorf("eoc: could not configure %s: %w", pin, err)
	}
	return &EdgePin{pin: pin, timeout: timeout}, nil
}

func (p *EdgePin) WaitReady(ctx context.Context) error {
	if p.pin.Read() == gpio.High {
		return nil
	}
	deadline := time.Now().Add(p.timeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrReadyTimeout
		}
		if p.pin.WaitForEdge(min(remaining, edgeSlice)) {
			return nil
		}
	}
}

// LevelReader samples a line that cannot raise edge events, e.g. a GP pin of a USB bridge.
type LevelReader interface {
	ReadLevel(ctx context.Context) (bool, error)
}

// PolledPin polls a LevelReader until it reads high.
type PolledPin struct {
	reader   LevelReader
	interval time.Duration
	timeout  time.Duration
}

func NewPolledPin(reader LevelReader, interval, timeout time.Duration) *PolledPin {
	return &PolledPin{reader: reader, interval: interval, timeout: timeout}
}

func (p *PolledPin) WaitReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeoutCause(ctx, p.timeout, ErrReadyTimeout)
	defer cancel()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		high, err := p.reader.ReadLevel(ctx)
		if err != nil {
			return fmt.Errorf("eoc: could not read level: %w", err)
		}
		if high {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}
