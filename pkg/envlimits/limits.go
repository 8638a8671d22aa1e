package envlimits

import (
	"fmt"
	"time"
)

// Limits holds the environment limit tables for the pool energy rig.
// The values mirror the env_limits.h header shipped with the hardware and
// are treated as a contract: the firmware, the telemetry stream, and this
// monitor all agree on them.
type Limits struct {
	// Serial communication
	BaudRate int

	// Motor off signal frequency (valid tone range is 31 - 65535 Hz)
	MotorOffFrequency int

	// Random inflow generator bound (simulation)
	RandomInflowMax int

	// Analog and digital read/write value limits
	MinAnalogRead  int
	MaxAnalogRead  int
	MinAnalogWrite int
	MaxAnalogWrite int

	// Motor speed steps (PWM duty values)
	ZeroSpeed          int
	QuarterSpeed       int
	HalfSpeed          int
	ThreeQuartersSpeed int
	FullSpeed          int

	// Motor controller breakpoints mapping the speed regulator reading
	// onto the speed steps
	QuarterSpeedCtrlMax       int
	HalfSpeedCtrlMax          int
	ThreeQuartersSpeedCtrlMax int

	// Pool status thresholds (reservoir volume units)
	PoolEmpty         int64
	PoolLowLower      int64
	PoolLowHigher     int64
	PoolHighLower     int64
	PoolCriticalLower int64
	PoolFullLower     int64
	PoolFull          int64
	InflowAbsMax      int64

	// Timeouts
	DebounceInterval       time.Duration
	LogInfoInterval        time.Duration
	RandomInflowInterval   time.Duration
	LowEnergyTimeout       time.Duration
	OKEnergyTimeout        time.Duration
	HighEnergyTimeout      time.Duration
	CriticalEnergyTimeout  time.Duration
	LowPowerModeLogTimeout time.Duration
	StabilityTimeout       time.Duration
}

// Canonical returns the authoritative limit table. These are the values of
// the env_limits.h variant shipped together with pins.h (pool thresholds on
// the millions scale).
func Canonical() Limits {
	return Limits{
		BaudRate: 9600,

		MotorOffFrequency: 50000,

		RandomInflowMax: 1000,

		MinAnalogRead:  0,
		MaxAnalogRead:  1023,
		MinAnalogWrite: 0,
		MaxAnalogWrite: 255,

		ZeroSpeed:          0,
		QuarterSpeed:       64,
		HalfSpeed:          128,
		ThreeQuartersSpeed: 191,
		FullSpeed:          255,

		QuarterSpeedCtrlMax:       256,
		HalfSpeedCtrlMax:          512,
		ThreeQuartersSpeedCtrlMax: 767,

		PoolEmpty:         0,
		PoolLowLower:      500000,
		PoolLowHigher:     1200000,
		PoolHighLower:     2500000,
		PoolCriticalLower: 3500000,
		PoolFullLower:     4000000,
		PoolFull:          5000000,
		InflowAbsMax:      150000,

		DebounceInterval:       50 * time.Millisecond,
		LogInfoInterval:        3000 * time.Millisecond,
		RandomInflowInterval:   1000 * time.Millisecond,
		LowEnergyTimeout:       1000 * time.Millisecond,
		OKEnergyTimeout:        1000 * time.Millisecond,
		HighEnergyTimeout:      500 * time.Millisecond,
		CriticalEnergyTimeout:  250 * time.Millisecond,
		LowPowerModeLogTimeout: 50 * time.Millisecond,
		StabilityTimeout:       25 * time.Millisecond,
	}
}

// Legacy returns the second env_limits.h variant found in the project
// history. It keeps the canonical band ratios on a tenth of the scale.
// Canonical() is authoritative; this profile exists so logs produced by
// rigs flashed with the older header can still be monitored.
func Legacy() Limits {
	lim := Canonical()
	lim.PoolEmpty = 0
	lim.PoolLowLower = 50000
	lim.PoolLowHigher = 120000
	lim.PoolHighLower = 250000
	lim.PoolCriticalLower = 350000
	lim.PoolFullLower = 400000
	lim.PoolFull = 500000
	lim.InflowAbsMax = 15000
	return lim
}

// Profile names accepted by Profile and the application config.
const (
	ProfileCanonical = "canonical"
	ProfileLegacy    = "legacy"
)

// Profile returns the limit table registered under the given name.
func Profile(name string) (Limits, error) {
	switch name {
	case "", ProfileCanonical:
		return Canonical(), nil
	case ProfileLegacy:
		return Legacy(), nil
	default:
		return Limits{}, fmt.Errorf("unknown limits profile %q", name)
	}
}
