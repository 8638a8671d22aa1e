package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gopem/pkg/config"
	"github.com/itohio/gopem/pkg/device"
	"github.com/itohio/gopem/pkg/envlimits"
	"github.com/itohio/gopem/pkg/gauge"
	"github.com/itohio/gopem/pkg/sample"
	"github.com/itohio/gopem/pkg/scope"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use mocked rig instead of serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of samples to average (0 = disabled, overrides config)")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Override average samples if provided via command line
	if *averageSamplesFlag >= 0 {
		cfg.Measurement.AverageSamples = *averageSamplesFlag
	}

	// Resolve the environment limit profile
	lim, err := cfg.EnvLimits()
	if err != nil {
		log.Fatalf("Failed to resolve limits profile: %v", err)
	}

	// Create Fyne application
	application := app.NewWithID("com.itohio.gopem")

	// Create main window
	window := application.NewWindow("Pool Energy Monitor")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	// Create reservoir gauge
	reservoir := gauge.New(cfg)

	// Create application state
	appState := &appState{
		cfg:     cfg,
		lim:     lim,
		device:  nil,
		gauge:   reservoir,
		window:  window,
		useMock: *mockFlag,
	}

	// Create toolbar
	toolbar := createToolbar(appState)

	// Create status bar mirroring the rig's LEDs
	statusBar := createStatusBar(appState)

	// Create scope widget for graph display
	scopeWidget := scope.New(cfg, lim)
	appState.scopeWidget = scopeWidget

	// Border layout: toolbar at top, LED status at bottom, scope as content
	content := container.NewBorder(
		toolbar,
		statusBar,
		nil,
		nil,
		scopeWidget,
	)

	window.SetContent(content)
	window.ShowAndRun()
}

// measurementChain tracks the components of the measurement chain for graceful shutdown.
type measurementChain struct {
	device            device.Device
	frames            <-chan device.Frame
	framesForTee      <-chan device.Frame
	ledStateGoroutine chan struct{} // Closed when LED state goroutine exits
	samplesStream     <-chan sample.Sample
	gaugeGoroutine    chan struct{} // Closed when gauge goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	lim         envlimits.Limits
	device      device.Device
	gauge       *gauge.Gauge
	scopeWidget *scope.LevelScope
	window      fyne.Window
	connectBtn  *widget.Button
	motorOnBtn  *widget.Button
	motorOffBtn *widget.Button
	toggleBtn   *widget.Button
	valveBtn    *widget.Button
	levelLabel  *widget.Label
	flowLabel   *widget.Label
	useMock     bool
	valveOpen   bool
	lastLEDs    ledState
	chain       *measurementChain // Current measurement chain (nil if not connected)

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar with Connect, Settings,
// motor, and valve buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	// Connect button with icon
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	// Settings button with icon
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	// Motor buttons mirror the rig's ON, OFF, and TOGGLE push-buttons.
	motorOnBtn := widget.NewButtonWithIcon("On", theme.MediaPlayIcon(), func() {
		handleMotorOn(state)
	})
	motorOnBtn.Disable()
	state.motorOnBtn = motorOnBtn

	motorOffBtn := widget.NewButtonWithIcon("Off", theme.MediaStopIcon(), func() {
		handleMotorOff(state)
	})
	motorOffBtn.Disable()
	state.motorOffBtn = motorOffBtn

	toggleBtn := widget.NewButtonWithIcon("Toggle", theme.ViewRefreshIcon(), func() {
		handleMotorToggle(state)
	})
	toggleBtn.Disable()
	state.toggleBtn = toggleBtn

	valveBtn := widget.NewButtonWithIcon("Valve", theme.WarningIcon(), func() {
		handleValveToggle(state)
	})
	valveBtn.Disable()
	state.valveBtn = valveBtn

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn),
		container.NewHBox(motorOnBtn, motorOffBtn, toggleBtn, valveBtn),
		nil,
	)
}

// createStatusBar creates labels mirroring the rig's energy level and net
// inflow LEDs.
func createStatusBar(state *appState) fyne.CanvasObject {
	state.levelLabel = widget.NewLabel("level: -")
	state.flowLabel = widget.NewLabel("flow: -")
	return container.NewHBox(state.levelLabel, state.flowLabel)
}

// closeMeasurementChain gracefully closes the measurement chain.
// Waits for all goroutines to finish and channels to drain.
func closeMeasurementChain(chain *measurementChain) {
	if chain == nil {
		return
	}

	// Close device - this will close the frames channel
	if chain.device != nil {
		chain.device.Close()
	}

	// Wait for LED state goroutine to finish
	if chain.ledStateGoroutine != nil {
		<-chain.ledStateGoroutine
	}

	// Wait for gauge goroutine to finish
	// The gauge goroutine will exit when samplesStream closes
	// The samplesStream will close when converters finish draining
	if chain.gaugeGoroutine != nil {
		<-chain.gaugeGoroutine
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		// Disconnect - gracefully close measurement chain
		closeMeasurementChain(state.chain)
		state.chain = nil
		state.device = nil
		state.motorOnBtn.Disable()
		state.motorOffBtn.Disable()
		state.toggleBtn.Disable()
		state.valveBtn.Disable()
		state.valveOpen = false
		if state.useMock {
			fmt.Println("Disconnected from mocked rig")
		} else {
			fmt.Println("Disconnected from serial port")
		}
	} else {
		// Connect
		var dev device.Device
		if state.useMock {
			dev = device.NewMock(&state.cfg.Mock, state.lim)
			fmt.Println("Using mocked rig")
		} else {
			dev = device.New(state.cfg.Serial.Port, state.lim, device.DefaultBufferSize)
		}

		if err := dev.Connect(); err != nil {
			if state.useMock {
				dialog.ShowError(fmt.Errorf("failed to connect to mocked rig: %w", err), state.window)
			} else {
				dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
			}
			return
		}
		state.device = dev
		if state.useMock {
			fmt.Printf("Connected to mocked rig\n")
		} else {
			fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
		}

		// Enable motor and valve buttons
		state.motorOnBtn.Enable()
		state.motorOffBtn.Enable()
		state.toggleBtn.Enable()
		state.valveBtn.Enable()

		// Reset gauge shutdown flag for new chain
		state.gauge.ResetShutdown()

		// Register callback with the gauge to update the scope widget.
		// Throttle updates to ~60 FPS to keep the UI smooth.
		const updateInterval = 16 * time.Millisecond // ~60 FPS
		state.gauge.OnUpdate(func(samples []sample.Sample, rates []float64, episodes []gauge.Episode) {
			state.updateMu.Lock()
			now := time.Now()
			timeSinceLastUpdate := now.Sub(state.lastUpdateTime)
			state.updateMu.Unlock()

			// Skip update if too soon since last update
			if timeSinceLastUpdate < updateInterval {
				return
			}

			// Current motor duty from the latest sample
			var duty int
			if len(samples) > 0 {
				duty = samples[len(samples)-1].Duty
			}

			state.updateMu.Lock()
			state.lastUpdateTime = now
			state.updateMu.Unlock()

			// Update scope widget on main thread. The widget downsamples
			// internally, so pass full data.
			fyne.Do(func() {
				state.scopeWidget.UpdateData(samples, rates, episodes, duty)
			})
		})

		// Create converter pipeline with chaining support
		frames := dev.Frames()

		// Tee frames: one branch for LED status updates, one for the
		// converter chain.
		framesForConverter := teeChannel(frames)

		// Track goroutines for graceful shutdown
		ledStateDone := make(chan struct{})
		gaugeDone := make(chan struct{})

		// Mirror the rig's LED states in the status bar (only on change)
		go func() {
			defer close(ledStateDone)
			for frame := range frames {
				updateLEDsFromFrame(state, frame)
			}
		}()

		// Chain converters: base converter always used, averaging converter
		// conditionally.
		baseStream := sample.NewConverter(state.lim, 500)(framesForConverter)

		var samplesStream <-chan sample.Sample
		if state.cfg.Measurement.AverageSamples > 0 {
			samplesStream = sample.NewAveragingConverterForSamples(state.lim, state.cfg.Measurement.AverageSamples, 500)(baseStream)
		} else {
			// No averaging, use base stream directly
			samplesStream = baseStream
		}

		// Process samples through the reservoir gauge
		go func() {
			defer close(gaugeDone)
			state.gauge.ProcessSamples(samplesStream)
		}()

		// Store chain for graceful shutdown
		state.chain = &measurementChain{
			device:            dev,
			frames:            frames,
			framesForTee:      framesForConverter,
			ledStateGoroutine: ledStateDone,
			samplesStream:     samplesStream,
			gaugeGoroutine:    gaugeDone,
		}
	}
}

// teeChannel creates a tee of the input channel, returning a new channel that
// receives all values from the input. This allows multiple consumers of the
// same channel.
func teeChannel(in <-chan device.Frame) <-chan device.Frame {
	out := make(chan device.Frame, 100)

	go func() {
		defer close(out)
		for frame := range in {
			out <- frame
		}
	}()

	return out
}
