package mpr

import "fmt"

// Status byte bit definitions (LSB first). Bits 1, 3, 4 and 7 are reserved.
const (
	statusBitMathSaturation  = 0x01
	statusBitMemoryIntegrity = 0x04
	statusBitBusy            = 0x20
	statusBitPower           = 0x40
)

// Status is the device status byte returned ahead of every measurement and by
// a dedicated one byte read.
type Status byte

// IsBusy reports a conversion in progress. No new commands are processed while busy.
func (s Status) IsBusy() bool {
	return s&statusBitBusy != 0
}

// IsPowered is low when the device is unpowered or in power-on reset. On SPI the
// master reads all zeroes in that state.
func (s Status) IsPowered() bool {
	return s&statusBitPower != 0
}

// IntegrityTestPassed reports the checksum-based memory check computed at power-up.
// The flag is inverted on the wire: 0 means passed.
func (s Status) IntegrityTestPassed() bool {
	return s&statusBitMemoryIntegrity == 0
}

func (s Status) MathSaturationOccurred() bool {
	return s&statusBitMathSaturation != 0
}

func (s Status) String() string {
	return fmt.Sprintf("%#02x (powered=%t busy=%t integrity=%t saturation=%t)",
		byte(s), s.IsPowered(), s.IsBusy(), s.IntegrityTestPassed(), s.MathSaturationOccurred())
}
