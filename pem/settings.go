package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gopem/pkg/device"
	"github.com/itohio/gopem/pkg/envlimits"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	// Create tabs
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createLimitsTab(state),
		createMeasurementTab(state),
		createMockTab(state),
	)

	// Create dialog with tabs as content
	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	// Get available serial ports
	ports, err := device.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
		currentDisplay = currentPort
	}

	portSelect := widget.NewSelect(portOptions, func(selected string) {
		// Selection handler - will be called on submit
	})
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected // Fallback to selected text
				}

				// Check if port changed and device is connected
				portChanged := state.cfg.Serial.Port != selectedPort
				wasConnected := state.device != nil && state.device.IsConnected()

				state.cfg.Serial.Port = selectedPort
				if err := state.cfg.Save("config.yaml"); err != nil {
					dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
					return
				}

				// If port changed and device was connected, restart the measurement chain
				if portChanged && wasConnected {
					// Gracefully close old chain
					closeMeasurementChain(state.chain)
					state.chain = nil
					state.device = nil

					// Reconnect with new port
					handleConnect(state)
				}
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createLimitsTab creates the environment limit profile tab.
func createLimitsTab(state *appState) *container.TabItem {
	profileSelect := widget.NewSelect(
		[]string{envlimits.ProfileCanonical, envlimits.ProfileLegacy},
		func(selected string) {
			// Selection handler - will be called on submit
		},
	)
	profileSelect.SetSelected(state.cfg.Limits.Profile)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Limit Profile", Widget: profileSelect},
		},
		OnSubmit: func() {
			if profileSelect.Selected == "" {
				return
			}
			state.cfg.Limits.Profile = profileSelect.Selected
			lim, err := state.cfg.EnvLimits()
			if err != nil {
				dialog.ShowError(fmt.Errorf("failed to resolve limits profile: %w", err), state.window)
				return
			}
			state.lim = lim
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
			// The new profile takes effect on the next connect. Restarting the
			// chain here would silently drop the current window.
		},
	}

	return container.NewTabItem("Limits", form)
}

// createMeasurementTab creates the Measurement configuration tab.
func createMeasurementTab(state *appState) *container.TabItem {
	windowSecondsEntry := widget.NewEntry()
	windowSecondsEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Measurement.WindowSeconds))

	minEpisodeDurationEntry := widget.NewEntry()
	minEpisodeDurationEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Measurement.MinEpisodeDuration))

	averageSamplesEntry := widget.NewEntry()
	averageSamplesEntry.SetText(fmt.Sprintf("%d", state.cfg.Measurement.AverageSamples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowSecondsEntry},
			{Text: "Min Episode Duration (s)", Widget: minEpisodeDurationEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageSamplesEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowSecondsEntry.Text, 64); err == nil {
				state.cfg.Measurement.WindowSeconds = ws
			}
			if med, err := strconv.ParseFloat(minEpisodeDurationEntry.Text, 64); err == nil {
				state.cfg.Measurement.MinEpisodeDuration = med
			}
			if avg, err := strconv.Atoi(averageSamplesEntry.Text); err == nil {
				state.cfg.Measurement.AverageSamples = avg
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Measurement", form)
}

// createMockTab creates the Mock rig configuration tab.
func createMockTab(state *appState) *container.TabItem {
	seedEntry := widget.NewEntry()
	seedEntry.SetText(fmt.Sprintf("%d", state.cfg.Mock.Seed))

	startVolumeEntry := widget.NewEntry()
	startVolumeEntry.SetText(fmt.Sprintf("%d", state.cfg.Mock.StartVolume))

	inflowBiasEntry := widget.NewEntry()
	inflowBiasEntry.SetText(fmt.Sprintf("%d", state.cfg.Mock.InflowBias))

	motorOnCheck := widget.NewCheck("Motor running at start", func(bool) {})
	motorOnCheck.SetChecked(state.cfg.Mock.MotorOn)

	regulatorEntry := widget.NewEntry()
	regulatorEntry.SetText(fmt.Sprintf("%d", state.cfg.Mock.Regulator))

	sampleRateEntry := widget.NewEntry()
	sampleRateEntry.SetText(state.cfg.Mock.SampleRate.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Seed (0=time-based)", Widget: seedEntry},
			{Text: "Start Volume", Widget: startVolumeEntry},
			{Text: "Inflow Bias", Widget: inflowBiasEntry},
			{Text: "Motor On", Widget: motorOnCheck},
			{Text: "Regulator (0-1023)", Widget: regulatorEntry},
			{Text: "Sample Rate", Widget: sampleRateEntry},
		},
		OnSubmit: func() {
			if seed, err := strconv.ParseInt(seedEntry.Text, 10, 64); err == nil {
				state.cfg.Mock.Seed = seed
			}
			if sv, err := strconv.ParseInt(startVolumeEntry.Text, 10, 64); err == nil {
				state.cfg.Mock.StartVolume = sv
			}
			if ib, err := strconv.ParseInt(inflowBiasEntry.Text, 10, 64); err == nil {
				state.cfg.Mock.InflowBias = ib
			}
			state.cfg.Mock.MotorOn = motorOnCheck.Checked
			if reg, err := strconv.Atoi(regulatorEntry.Text); err == nil {
				state.cfg.Mock.Regulator = reg
			}
			if sr, err := time.ParseDuration(sampleRateEntry.Text); err == nil {
				state.cfg.Mock.SampleRate = sr
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}
