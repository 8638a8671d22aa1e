package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gopem/pkg/config"
	"github.com/itohio/gopem/pkg/envlimits"
	"github.com/itohio/gopem/pkg/gauge"
	"github.com/itohio/gopem/pkg/sample"
)

// LevelScope is a custom Fyne widget that displays the reservoir fill level
// and net inflow rate as oscilloscope-style curves, with the level band
// boundaries drawn as horizontal guides.
type LevelScope struct {
	widget.BaseWidget

	cfg *config.Config
	lim envlimits.Limits

	// Data (protected by mu)
	mu       sync.RWMutex
	samples  []sample.Sample
	rates    []float64
	episodes []gauge.Episode
	duty     int

	// Display buffers (reused for downsampling)
	displaySamples []sample.Sample
	displayRates   []float64

	// Time range
	xMin, xMax time.Time

	// Display settings
	maxDisplayPoints int
}

// New creates a new LevelScope instance.
func New(cfg *config.Config, lim envlimits.Limits) *LevelScope {
	s := &LevelScope{
		cfg:              cfg,
		lim:              lim,
		samples:          make([]sample.Sample, 0),
		rates:            make([]float64, 0),
		episodes:         make([]gauge.Episode, 0),
		displaySamples:   make([]sample.Sample, 0, 1000),
		displayRates:     make([]float64, 0, 1000),
		maxDisplayPoints: 1000, // Limit points for efficient rendering
	}
	s.ExtendBaseWidget(s)
	// Trigger initial refresh to display the empty scope
	s.Refresh()
	return s
}

// UpdateData updates the widget with new measurement data.
// This should be called from the gauge callback via fyne.Do().
func (s *LevelScope) UpdateData(samples []sample.Sample, rates []float64, episodes []gauge.Episode, duty int) {
	s.mu.Lock()

	// Downsample for display (reuse buffers)
	s.displaySamples = sample.DownsampleSamples(s.displaySamples, samples, s.maxDisplayPoints)
	s.displayRates = sample.DownsampleRates(s.displayRates, rates, s.maxDisplayPoints)

	// Store full data
	s.samples = samples
	s.rates = rates
	s.episodes = episodes
	s.duty = duty

	s.updateTimeRange()

	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// updateTimeRange derives the X-axis range from the current window. The
// Y-axis is fixed to the fill fraction 0..1 so the band boundaries stay put.
func (s *LevelScope) updateTimeRange() {
	if len(s.displaySamples) == 0 {
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(10 * time.Second)
		return
	}

	s.xMin = s.displaySamples[0].Timestamp
	s.xMax = s.displaySamples[len(s.displaySamples)-1].Timestamp
	// Ensure minimum window
	minWindow := time.Duration(s.cfg.Measurement.WindowSeconds * float64(time.Second))
	if s.xMax.Sub(s.xMin) < minWindow {
		s.xMax = s.xMin.Add(minWindow)
	}
}

// CreateRenderer creates the widget renderer.
func (s *LevelScope) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &levelRenderer{
		scope:    s,
		bg:       bg,
		objects:  []fyne.CanvasObject{bg},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
