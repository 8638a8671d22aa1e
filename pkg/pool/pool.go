// Package pool contains the pure mappings defined by the environment limit
// tables: reservoir volume to level band, regulator reading to motor speed
// step, and level band to status cadence. Everything here is stateless.
package pool

import (
	"time"

	"github.com/itohio/gopem/pkg/envlimits"
)

// Level is the reservoir level band of the energy source pool.
type Level int

const (
	Empty Level = iota
	Low
	OK
	High
	Critical
	Full
)

func (l Level) String() string {
	switch l {
	case Empty:
		return "empty"
	case Low:
		return "low"
	case OK:
		return "ok"
	case High:
		return "high"
	case Critical:
		return "critical"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// ClassifyVolume maps a reservoir volume onto its level band. Bands are
// lower-inclusive: a volume exactly at a band's lower threshold belongs to
// that band. Volumes outside [PoolEmpty, PoolFull] clamp to Empty or Full.
func ClassifyVolume(v int64, lim envlimits.Limits) Level {
	switch {
	case v >= lim.PoolFullLower:
		return Full
	case v >= lim.PoolCriticalLower:
		return Critical
	case v >= lim.PoolHighLower:
		return High
	case v >= lim.PoolLowHigher:
		return OK
	case v >= lim.PoolLowLower:
		return Low
	default:
		return Empty
	}
}

// SpeedForControl quantizes a speed regulator reading (analog read range)
// onto the motor speed steps using the controller breakpoints.
func SpeedForControl(ctrl int, lim envlimits.Limits) int {
	switch {
	case ctrl < lim.MinAnalogRead:
		return lim.ZeroSpeed
	case ctrl < lim.QuarterSpeedCtrlMax:
		return lim.QuarterSpeed
	case ctrl < lim.HalfSpeedCtrlMax:
		return lim.HalfSpeed
	case ctrl < lim.ThreeQuartersSpeedCtrlMax:
		return lim.ThreeQuartersSpeed
	default:
		return lim.FullSpeed
	}
}

// StatusInterval returns the status cadence associated with a level band.
// Bands closer to overflow report faster.
func StatusInterval(l Level, lim envlimits.Limits) time.Duration {
	switch l {
	case Empty, Low:
		return lim.LowEnergyTimeout
	case OK:
		return lim.OKEnergyTimeout
	case High:
		return lim.HighEnergyTimeout
	case Critical, Full:
		return lim.CriticalEnergyTimeout
	default:
		return lim.OKEnergyTimeout
	}
}

// ClampInflow bounds a per-interval volume delta to the physical inflow
// limit of the rig.
func ClampInflow(d int64, lim envlimits.Limits) int64 {
	if d > lim.InflowAbsMax {
		return lim.InflowAbsMax
	}
	if d < -lim.InflowAbsMax {
		return -lim.InflowAbsMax
	}
	return d
}

// ClampVolume bounds a reservoir volume to [PoolEmpty, PoolFull].
func ClampVolume(v int64, lim envlimits.Limits) int64 {
	if v < lim.PoolEmpty {
		return lim.PoolEmpty
	}
	if v > lim.PoolFull {
		return lim.PoolFull
	}
	return v
}

// ClampDuty bounds a PWM duty value to the analog write range.
func ClampDuty(d int, lim envlimits.Limits) int {
	if d < lim.MinAnalogWrite {
		return lim.MinAnalogWrite
	}
	if d > lim.MaxAnalogWrite {
		return lim.MaxAnalogWrite
	}
	return d
}

// Fill expresses a volume as a fraction of the full pool (0..1).
func Fill(v int64, lim envlimits.Limits) float64 {
	span := lim.PoolFull - lim.PoolEmpty
	if span <= 0 {
		return 0
	}
	return float64(ClampVolume(v, lim)-lim.PoolEmpty) / float64(span)
}
