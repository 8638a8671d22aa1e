package device

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/itohio/gopem/pkg/config"
	"github.com/itohio/gopem/pkg/envlimits"
	"github.com/itohio/gopem/pkg/pool"
)

// Mock simulates an attached pool energy rig for testing and development.
// It is a stand-in, not a reconstruction of the rig's firmware: the
// reservoir integrates a pseudo-random inflow bounded by the limit tables,
// the motor drains it proportionally to the regulator speed step, and the
// LED fields mirror the band classification of the current volume.
type Mock struct {
	cfg *config.MockConfig
	lim envlimits.Limits

	frames    chan Frame
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	rng *rand.Rand

	// Rig state
	motorOn   bool
	valveOpen bool
	regulator int

	// Simulation state
	volume         int64
	lastFrameVol   int64
	lastInflowTick time.Time
	lastTick       time.Time

	// Button debounce: changes spaced closer than DebounceInterval are
	// not accepted, matching the rig's contract for its push-buttons.
	lastButtonChange time.Time
}

// Drain rates for the simulated reservoir. The motor drain scales with the
// PWM duty step; the release valve drains at a fixed fraction of the
// maximum inflow.
const (
	mockDrainPerDutyPerSecond = 40
	mockValveDrainDivisor     = 10
)

// NewMock creates a new mocked rig.
func NewMock(cfg *config.MockConfig, lim envlimits.Limits) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg,
		lim:       lim,
		frames:    make(chan Frame, DefaultBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Connect simulates connecting to the rig.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	now := time.Now()
	m.connected = true
	m.motorOn = m.cfg.MotorOn
	m.valveOpen = false
	m.regulator = m.cfg.Regulator
	m.volume = pool.ClampVolume(m.cfg.StartVolume, m.lim)
	m.lastFrameVol = m.volume
	m.lastInflowTick = now
	m.lastTick = now
	m.lastButtonChange = now.Add(-m.lim.DebounceInterval)

	// Start generating frames
	go m.generateFrames()

	return nil
}

// Close stops the mocked rig.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false
	close(m.frames)

	return nil
}

// Frames returns the channel for reading telemetry frames.
func (m *Mock) Frames() <-chan Frame {
	return m.frames
}

// SetMotor sets the motor state (simulated ON/OFF push-buttons).
func (m *Mock) SetMotor(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}
	if err := m.debounce(); err != nil {
		return err
	}

	m.motorOn = on
	return nil
}

// ToggleMotor flips the motor state (simulated TOGGLE push-button).
func (m *Mock) ToggleMotor() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}
	if err := m.debounce(); err != nil {
		return err
	}

	m.motorOn = !m.motorOn
	return nil
}

// SetValve opens or closes the simulated release valve.
func (m *Mock) SetValve(open bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}
	if err := m.debounce(); err != nil {
		return err
	}

	m.valveOpen = open
	return nil
}

// debounce enforces the minimum spacing between accepted button-state
// changes. Caller must hold the write lock.
func (m *Mock) debounce() error {
	now := time.Now()
	if now.Sub(m.lastButtonChange) < m.lim.DebounceInterval {
		return ErrDebounced
	}
	m.lastButtonChange = now
	return nil
}

// SetRegulator sets the simulated speed regulator reading.
func (m *Mock) SetRegulator(ctrl int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctrl < m.lim.MinAnalogRead {
		ctrl = m.lim.MinAnalogRead
	}
	if ctrl > m.lim.MaxAnalogRead {
		ctrl = m.lim.MaxAnalogRead
	}
	m.regulator = ctrl
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// generateFrames generates simulated telemetry frames.
func (m *Mock) generateFrames() {
	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			frame := m.generateFrame()
			select {
			case m.frames <- frame:
			case <-m.ctx.Done():
				return
			default:
				// Channel full, skip
			}
		}
	}
}

// generateFrame advances the simulation by one tick and emits a frame.
func (m *Mock) generateFrame() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	dt := now.Sub(m.lastTick).Seconds()
	m.lastTick = now

	// Random inflow arrives once per inflow interval.
	if now.Sub(m.lastInflowTick) >= m.lim.RandomInflowInterval {
		span := int64(2*m.lim.RandomInflowMax + 1)
		delta := m.rng.Int63n(span) - int64(m.lim.RandomInflowMax) + m.cfg.InflowBias
		m.volume += pool.ClampInflow(delta, m.lim)
		m.lastInflowTick = now
	}

	// Motor drain scales with the quantized duty from the regulator.
	if m.motorOn {
		duty := pool.SpeedForControl(m.regulator, m.lim)
		m.volume -= int64(float64(duty*mockDrainPerDutyPerSecond) * dt)
	}

	// Release valve drains at a fixed rate while open.
	if m.valveOpen {
		m.volume -= int64(float64(m.lim.InflowAbsMax/mockValveDrainDivisor) * dt)
	}

	m.volume = pool.ClampVolume(m.volume, m.lim)

	net := pool.ClampInflow(m.volume-m.lastFrameVol, m.lim)
	m.lastFrameVol = m.volume

	level := pool.ClassifyVolume(m.volume, m.lim)

	return Frame{
		Timestamp:   now,
		Volume:      m.volume,
		Inflow:      net,
		Regulator:   uint16(m.regulator),
		LowLED:      level == pool.Empty || level == pool.Low,
		OKLED:       level == pool.OK,
		HighLED:     level == pool.High,
		CriticalLED: level == pool.Critical || level == pool.Full,
		GainLED:     net > 0,
		LossLED:     net < 0,
	}
}
