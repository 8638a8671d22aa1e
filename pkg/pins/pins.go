// Package pins records the hardware wiring contract of the pool energy rig:
// which microcontroller pin each LED, button, motor line, and sensor is
// attached to. The assignments reproduce pins.h verbatim and must not drift
// from the deployed boards.
package pins

import "fmt"

// Kind distinguishes digital pins from analog header pins.
type Kind int

const (
	Digital Kind = iota
	Analog
)

// Pin identifies one microcontroller pin.
type Pin struct {
	Kind   Kind
	Number int
}

func (p Pin) String() string {
	if p.Kind == Analog {
		return fmt.Sprintf("A%d", p.Number)
	}
	return fmt.Sprintf("D%d", p.Number)
}

// D returns a digital pin.
func D(n int) Pin { return Pin{Kind: Digital, Number: n} }

// A returns an analog header pin.
func A(n int) Pin { return Pin{Kind: Analog, Number: n} }

// Role names a wired function of the rig.
type Role int

const (
	// Pool energy level LEDs
	LowEnergyLED Role = iota
	OKEnergyLED
	HighEnergyLED
	CriticalEnergyLED

	// Net energy inflow LEDs
	NetGainLED
	NetLossLED

	// Release valve
	ReleaseValve

	// Motor control push-buttons
	OnButton
	OffButton
	ToggleButton

	// Motor speed and direction lines
	MotorRegulator
	MotorSpeedPin
	Motor1APin
	Motor2APin

	// Energy source sensor
	EnergySource

	// Motor OFF sound signal
	MotorOffSignal
)

var roleNames = map[Role]string{
	LowEnergyLED:      "low energy LED",
	OKEnergyLED:       "ok energy LED",
	HighEnergyLED:     "high energy LED",
	CriticalEnergyLED: "critical energy LED",
	NetGainLED:        "net gain LED",
	NetLossLED:        "net loss LED",
	ReleaseValve:      "release valve",
	OnButton:          "on button",
	OffButton:         "off button",
	ToggleButton:      "toggle button",
	MotorRegulator:    "motor regulator",
	MotorSpeedPin:     "motor speed pin",
	Motor1APin:        "motor 1A pin",
	Motor2APin:        "motor 2A pin",
	EnergySource:      "energy source",
	MotorOffSignal:    "motor off signal",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// assignments is the wiring table from pins.h.
var assignments = map[Role]Pin{
	LowEnergyLED:      D(7),
	OKEnergyLED:       D(13),
	HighEnergyLED:     D(8),
	CriticalEnergyLED: D(12),

	NetGainLED: D(6),
	NetLossLED: D(5),

	ReleaseValve: A(1),

	OnButton:     D(3),
	OffButton:    D(4),
	ToggleButton: A(3),

	MotorRegulator: A(2),
	MotorSpeedPin:  D(9),
	Motor1APin:     D(10),
	Motor2APin:     D(11),

	EnergySource: A(0),

	MotorOffSignal: D(2),
}

// Roles lists every wired role in declaration order.
var Roles = []Role{
	LowEnergyLED, OKEnergyLED, HighEnergyLED, CriticalEnergyLED,
	NetGainLED, NetLossLED,
	ReleaseValve,
	OnButton, OffButton, ToggleButton,
	MotorRegulator, MotorSpeedPin, Motor1APin, Motor2APin,
	EnergySource,
	MotorOffSignal,
}

// Lookup returns the pin wired to the given role.
func Lookup(r Role) (Pin, bool) {
	p, ok := assignments[r]
	return p, ok
}

// Map returns a copy of the full wiring table.
func Map() map[Role]Pin {
	m := make(map[Role]Pin, len(assignments))
	for r, p := range assignments {
		m[r] = p
	}
	return m
}

// Validate checks that every role is wired and that no two roles share a
// pin. A shared pin means the table no longer describes a buildable board.
func Validate() error {
	seen := make(map[Pin]Role, len(Roles))
	for _, role := range Roles {
		pin, ok := assignments[role]
		if !ok {
			return fmt.Errorf("role %s has no pin assignment", role)
		}
		if prev, dup := seen[pin]; dup {
			return fmt.Errorf("pin %s assigned to both %s and %s", pin, prev, role)
		}
		seen[pin] = role
	}
	return nil
}
