package mpr

import (
	"fmt"
	"strings"
)

const (
	kpaInPSI = float32(6.894757)
	psiInBar = float32(14.50377)
)

// TransferFunction selects the calibration curve printed in the part number.
// Each curve maps a fraction of the 2^24 count range onto the rated pressure range.
type TransferFunction int

const (
	// TransferA spans 10% to 90% of 2^24 counts.
	TransferA TransferFunction = iota
	// TransferB spans 2.5% to 22.5% of 2^24 counts.
	TransferB
	// TransferC spans 20% to 80% of 2^24 counts.
	TransferC
)

// precomputed percentages of 2^24
var transferCounts = [...][2]float32{
	TransferA: {1677721.6, 15099494.0},
	TransferB: {419430.4, 3774873.5},
	TransferC: {3355443.3, 13421773.0},
}

func (tf TransferFunction) MinCounts() float32 {
	return transferCounts[tf][0]
}

func (tf TransferFunction) MaxCounts() float32 {
	return transferCounts[tf][1]
}

func (tf TransferFunction) String() string {
	switch tf {
	case TransferA:
		return "A"
	case TransferB:
		return "B"
	case TransferC:
		return "C"
	default:
		return fmt.Sprintf("TransferFunction(%d)", int(tf))
	}
}

// ParseTransferFunction accepts the curve letter, case insensitive.
func ParseTransferFunction(s string) (TransferFunction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return TransferA, nil
	case "B":
		return TransferB, nil
	case "C":
		return TransferC, nil
	}
	return 0, fmt.Errorf("unknown transfer function %q (expected A, B or C)", s)
}

// Config describes the rated pressure range of the device and its calibration curve.
// The range is taken as given; a degenerate range yields degenerate readings.
type Config struct {
	PressureMin      int
	PressureMax      int
	TransferFunction TransferFunction
}

func NewConfig(pressureMin, pressureMax int, tf TransferFunction) Config {
	return Config{PressureMin: pressureMin, PressureMax: pressureMax, TransferFunction: tf}
}

// Reading wraps a raw measurement for unit conversions. Values outside the
// calibrated window convert to out-of-range pressures; nothing is clamped.
type Reading struct {
	rangeMin float32
	rangeMax float32
	raw      uint32
	tf       TransferFunction
}

func NewReading(rangeMin, rangeMax float32, raw uint32, tf TransferFunction) Reading {
	return Reading{rangeMin: rangeMin, rangeMax: rangeMax, raw: raw, tf: tf}
}

// Raw returns the 24-bit pressure count.
func (r Reading) Raw() uint32 {
	return r.raw
}

func (r Reading) TransferFunction() TransferFunction {
	return r.tf
}

// PSI converts the count using the rated range, which is expressed in PSI.
func (r Reading) PSI() float32 {
	minCounts, maxCounts := r.tf.MinCounts(), r.tf.MaxCounts()
	return (float32(r.raw)-minCounts)*(r.rangeMax-r.rangeMin)/(maxCounts-minCounts) + r.rangeMin
}

func (r Reading) Bar() float32 {
	return r.PSI() / psiInBar
}

func (r Reading) KPa() float32 {
	return r.PSI() * kpaInPSI
}
