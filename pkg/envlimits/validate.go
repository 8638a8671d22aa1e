package envlimits

import "fmt"

// Validate checks the internal consistency of a limit table. A table that
// fails validation cannot be used to classify telemetry: every consumer in
// this module assumes the orderings verified here.
func (l Limits) Validate() error {
	if l.BaudRate <= 0 {
		return fmt.Errorf("baud rate must be positive, got %d", l.BaudRate)
	}

	// Tone frequency contract from the header comment (31 - 65535).
	if l.MotorOffFrequency < 31 || l.MotorOffFrequency > 65535 {
		return fmt.Errorf("motor off frequency %d outside 31..65535", l.MotorOffFrequency)
	}

	if l.MinAnalogRead < 0 || l.MaxAnalogRead <= l.MinAnalogRead {
		return fmt.Errorf("analog read bounds [%d, %d] are not well-formed", l.MinAnalogRead, l.MaxAnalogRead)
	}
	if l.MinAnalogWrite < 0 || l.MaxAnalogWrite <= l.MinAnalogWrite {
		return fmt.Errorf("analog write bounds [%d, %d] are not well-formed", l.MinAnalogWrite, l.MaxAnalogWrite)
	}

	if l.RandomInflowMax <= 0 {
		return fmt.Errorf("random inflow max must be positive, got %d", l.RandomInflowMax)
	}

	// Speed steps must be strictly increasing and representable as PWM
	// duty values.
	speeds := []int{l.ZeroSpeed, l.QuarterSpeed, l.HalfSpeed, l.ThreeQuartersSpeed, l.FullSpeed}
	names := []string{"zero", "quarter", "half", "three-quarters", "full"}
	for i, s := range speeds {
		if s < l.MinAnalogWrite || s > l.MaxAnalogWrite {
			return fmt.Errorf("%s speed %d outside write bounds [%d, %d]", names[i], s, l.MinAnalogWrite, l.MaxAnalogWrite)
		}
		if i > 0 && speeds[i-1] >= s {
			return fmt.Errorf("%s speed %d not above %s speed %d", names[i], s, names[i-1], speeds[i-1])
		}
	}

	// Controller breakpoints partition the regulator reading range.
	if l.QuarterSpeedCtrlMax <= l.MinAnalogRead {
		return fmt.Errorf("quarter speed breakpoint %d not above min read %d", l.QuarterSpeedCtrlMax, l.MinAnalogRead)
	}
	if l.HalfSpeedCtrlMax <= l.QuarterSpeedCtrlMax {
		return fmt.Errorf("half speed breakpoint %d not above quarter breakpoint %d", l.HalfSpeedCtrlMax, l.QuarterSpeedCtrlMax)
	}
	if l.ThreeQuartersSpeedCtrlMax <= l.HalfSpeedCtrlMax {
		return fmt.Errorf("three-quarters breakpoint %d not above half breakpoint %d", l.ThreeQuartersSpeedCtrlMax, l.HalfSpeedCtrlMax)
	}
	if l.ThreeQuartersSpeedCtrlMax > l.MaxAnalogRead+1 {
		return fmt.Errorf("three-quarters breakpoint %d above max read %d", l.ThreeQuartersSpeedCtrlMax, l.MaxAnalogRead)
	}

	// Pool thresholds must be strictly increasing.
	pool := []int64{l.PoolEmpty, l.PoolLowLower, l.PoolLowHigher, l.PoolHighLower, l.PoolCriticalLower, l.PoolFullLower, l.PoolFull}
	poolNames := []string{"empty", "low lower", "low higher", "high lower", "critical lower", "full lower", "full"}
	for i := 1; i < len(pool); i++ {
		if pool[i-1] >= pool[i] {
			return fmt.Errorf("pool threshold %s (%d) not above %s (%d)", poolNames[i], pool[i], poolNames[i-1], pool[i-1])
		}
	}

	if l.InflowAbsMax <= 0 || l.InflowAbsMax >= l.PoolFull {
		return fmt.Errorf("inflow abs max %d outside (0, %d)", l.InflowAbsMax, l.PoolFull)
	}

	for _, tc := range []struct {
		name string
		d    int64
	}{
		{"debounce interval", int64(l.DebounceInterval)},
		{"log info interval", int64(l.LogInfoInterval)},
		{"random inflow interval", int64(l.RandomInflowInterval)},
		{"low energy timeout", int64(l.LowEnergyTimeout)},
		{"ok energy timeout", int64(l.OKEnergyTimeout)},
		{"high energy timeout", int64(l.HighEnergyTimeout)},
		{"critical energy timeout", int64(l.CriticalEnergyTimeout)},
		{"low power mode log timeout", int64(l.LowPowerModeLogTimeout)},
		{"stability timeout", int64(l.StabilityTimeout)},
	} {
		if tc.d <= 0 {
			return fmt.Errorf("%s must be positive", tc.name)
		}
	}

	return nil
}
