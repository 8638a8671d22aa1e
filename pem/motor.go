package main

import (
	"errors"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gopem/pkg/device"
)

// ledState is a snapshot of the rig's six indicator LEDs.
// Arrays of bools would also work, but named fields read better at call sites.
type ledState struct {
	low      bool
	ok       bool
	high     bool
	critical bool
	gain     bool
	loss     bool
}

// handleMotorOn sends the motor ON command.
func handleMotorOn(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}

	if err := state.device.SetMotor(true); err != nil {
		showMotorError(state, "motor on", err)
		return
	}

	updateMotorButtonStates(state, true)
}

// handleMotorOff sends the motor OFF command.
func handleMotorOff(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}

	if err := state.device.SetMotor(false); err != nil {
		showMotorError(state, "motor off", err)
		return
	}

	updateMotorButtonStates(state, false)
}

// handleMotorToggle sends the motor TOGGLE command. The rig flips its own
// state, so there is no optimistic button update here.
func handleMotorToggle(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}

	if err := state.device.ToggleMotor(); err != nil {
		showMotorError(state, "motor toggle", err)
	}
}

// handleValveToggle opens or closes the release valve.
func handleValveToggle(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}

	open := !state.valveOpen
	if err := state.device.SetValve(open); err != nil {
		showMotorError(state, "valve", err)
		return
	}
	state.valveOpen = open

	updateValveButton(state.valveBtn, open)
}

// showMotorError reports a failed rig command. Debounced commands are
// expected during rapid clicking and only warrant a log line.
func showMotorError(state *appState, what string, err error) {
	if errors.Is(err, device.ErrDebounced) {
		log.Printf("%s command debounced", what)
		return
	}
	dialog.ShowError(fmt.Errorf("failed to send %s command: %w", what, err), state.window)
}

// updateMotorButtonStates updates the visual state of the motor buttons.
// The active direction is highlighted (optimistic update).
func updateMotorButtonStates(state *appState, motorOn bool) {
	if motorOn {
		state.motorOnBtn.Importance = widget.HighImportance
		state.motorOffBtn.Importance = widget.MediumImportance
	} else {
		state.motorOnBtn.Importance = widget.MediumImportance
		state.motorOffBtn.Importance = widget.HighImportance
	}
	state.motorOnBtn.Refresh()
	state.motorOffBtn.Refresh()
}

// updateValveButton updates the valve button's visual state.
func updateValveButton(btn *widget.Button, isOpen bool) {
	if isOpen {
		btn.Importance = widget.DangerImportance
	} else {
		btn.Importance = widget.MediumImportance
	}
	btn.Refresh()
}

// updateLEDsFromFrame mirrors the rig's LED states in the status bar.
// Only updates UI when the LED states actually change.
// Uses fyne.Do() to ensure thread-safe UI updates from goroutine.
func updateLEDsFromFrame(state *appState, frame device.Frame) {
	newState := ledState{
		low:      frame.LowLED,
		ok:       frame.OKLED,
		high:     frame.HighLED,
		critical: frame.CriticalLED,
		gain:     frame.GainLED,
		loss:     frame.LossLED,
	}
	if state.lastLEDs == newState {
		// No change, skip update
		return
	}
	state.lastLEDs = newState

	levelText := "level: " + levelLEDText(newState)
	flowText := "flow: " + flowLEDText(newState)

	fyne.Do(func() {
		state.levelLabel.SetText(levelText)
		state.flowLabel.SetText(flowText)
	})
}

// levelLEDText renders the energy level LEDs as text. The rig lights exactly
// one of these at a time.
func levelLEDText(s ledState) string {
	switch {
	case s.critical:
		return "CRITICAL"
	case s.high:
		return "high"
	case s.ok:
		return "ok"
	case s.low:
		return "low"
	default:
		return "-"
	}
}

// flowLEDText renders the net gain/loss LEDs as text.
func flowLEDText(s ledState) string {
	switch {
	case s.gain:
		return "net gain"
	case s.loss:
		return "net loss"
	default:
		return "steady"
	}
}
