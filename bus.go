package pressure

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type BusReader interface {
	Read(ctx context.Context, buffer []byte) error
}

type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is an addressed bus: every transaction names its target device.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// SPIDevice is an addressless full-duplex bus bound to a single chip select.
// Read clocks out zeros while filling the buffer; Write discards what comes back.
type SPIDevice interface {
	BusReader
	BusWriter
}
