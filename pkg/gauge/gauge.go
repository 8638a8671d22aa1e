package gauge

import (
	"sync"
	"time"

	"github.com/itohio/gopem/pkg/config"
	"github.com/itohio/gopem/pkg/sample"
)

var _ ReservoirGauge = (*Gauge)(nil)

// Direction of a net-flow episode.
type Direction int

const (
	Gain Direction = iota
	Loss
)

func (d Direction) String() string {
	if d == Gain {
		return "gain"
	}
	return "loss"
}

// Episode represents a sustained stretch of net inflow (Gain) or net
// outflow (Loss) of the reservoir.
type Episode struct {
	StartIndex int       // Start sample index in buffer
	EndIndex   int       // End sample index in buffer (updated as episode continues)
	StartTime  time.Time // Start timestamp
	EndTime    time.Time // End timestamp (updated as episode continues)
	Direction  Direction
	PeakRate   float64 // Largest absolute rate seen during the episode (units/s)
}

// ReservoirGauge processes samples, maintains buffers, and detects net-flow
// episodes.
type ReservoirGauge interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample // Current sample window (FIFO, ordered first to last)
	Rates() []float64         // Measured inflow rates (n-1 rates for n samples)
	Episodes() []Episode      // Detected episodes within the window
	OnUpdate(func(samples []sample.Sample, rates []float64, episodes []Episode))
}

// Gauge implements ReservoirGauge.
// Internally uses FIFO buffers trimmed by timestamp, not by count.
// Rates correspond exactly to sample pairs:
//   - rate[i] = (volume[i+1] - volume[i]) / dt
//   - n samples yield n-1 rates
//
// The correspondence is maintained when the window is trimmed.
type Gauge struct {
	samples  []sample.Sample
	rates    []float64
	episodes []Episode

	mu sync.RWMutex

	callbacks []func(samples []sample.Sample, rates []float64, episodes []Episode)
	cbMu      sync.RWMutex

	windowDuration     time.Duration
	minEpisodeDuration time.Duration

	// Set when the input channel closes, prevents further callbacks.
	shutdown bool
}

// New creates a new Gauge from the measurement configuration.
func New(cfg *config.Config) *Gauge {
	return &Gauge{
		samples:            make([]sample.Sample, 0),
		rates:              make([]float64, 0),
		episodes:           make([]Episode, 0),
		callbacks:          make([]func(samples []sample.Sample, rates []float64, episodes []Episode), 0),
		windowDuration:     time.Duration(cfg.Measurement.WindowSeconds * float64(time.Second)),
		minEpisodeDuration: time.Duration(cfg.Measurement.MinEpisodeDuration * float64(time.Second)),
	}
}

// ProcessSamples processes samples from the input channel until it closes,
// then sets the shutdown flag to prevent further callbacks.
func (g *Gauge) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		g.processSample(s)
	}
	g.mu.Lock()
	g.shutdown = true
	g.mu.Unlock()
}

// processSample appends a sample, trims the window, updates rates and
// episodes, and notifies callbacks.
func (g *Gauge) processSample(s sample.Sample) {
	g.mu.Lock()

	g.samples = append(g.samples, s)

	// Trim samples outside the time window.
	cutoffTime := s.Timestamp.Add(-g.windowDuration)
	cutoffIndex := 0
	for i, old := range g.samples {
		if old.Timestamp.After(cutoffTime) {
			cutoffIndex = i
			break
		}
	}
	if cutoffIndex > 0 {
		g.samples = g.samples[cutoffIndex:]

		// Remove the rates of pairs involving trimmed samples so the
		// n samples / n-1 rates correspondence survives.
		if cutoffIndex <= len(g.rates) {
			g.rates = g.rates[cutoffIndex:]
		} else {
			g.rates = g.rates[:0]
		}

		// Shift episode indices and drop episodes that fell out.
		for i := range g.episodes {
			g.episodes[i].StartIndex -= cutoffIndex
			g.episodes[i].EndIndex -= cutoffIndex
		}
		valid := g.episodes[:0]
		for _, ep := range g.episodes {
			if ep.StartIndex >= 0 && ep.EndIndex >= 0 {
				valid = append(valid, ep)
			}
		}
		g.episodes = valid
	}

	// Measure the rate for the newest sample pair.
	if len(g.samples) >= 2 {
		lastIdx := len(g.samples) - 1
		prev := g.samples[lastIdx-1]
		curr := g.samples[lastIdx]

		dt := curr.Timestamp.Sub(prev.Timestamp).Seconds()
		if dt > 0 {
			rate := float64(curr.Volume-prev.Volume) / dt
			g.rates = append(g.rates, rate)

			if len(g.rates) > len(g.samples)-1 {
				g.rates = g.rates[1:]
			}

			g.updateEpisodes(rate)
		}
	}

	shouldNotify := !g.shutdown
	g.mu.Unlock()

	if shouldNotify {
		g.notifyCallbacks()
	}
}

// updateEpisodes extends or starts a net-flow episode based on the newest
// rate. Caller must hold the write lock.
func (g *Gauge) updateEpisodes(rate float64) {
	if rate == 0 {
		return
	}

	dir := Gain
	abs := rate
	if rate < 0 {
		dir = Loss
		abs = -rate
	}

	lastSampleIdx := len(g.samples) - 1

	// Extend the active episode when the flow keeps its direction.
	if n := len(g.episodes); n > 0 {
		last := &g.episodes[n-1]
		if last.Direction == dir && last.EndIndex == lastSampleIdx-1 {
			last.EndIndex = lastSampleIdx
			last.EndTime = g.samples[lastSampleIdx].Timestamp
			if abs > last.PeakRate {
				last.PeakRate = abs
			}
			return
		}
	}

	startIdx := lastSampleIdx - 1
	if startIdx < 0 {
		startIdx = 0
	}
	g.episodes = append(g.episodes, Episode{
		StartIndex: startIdx,
		EndIndex:   lastSampleIdx,
		StartTime:  g.samples[startIdx].Timestamp,
		EndTime:    g.samples[lastSampleIdx].Timestamp,
		Direction:  dir,
		PeakRate:   abs,
	})
}

// filterEpisodes returns only episodes at least as long as the minimum
// episode duration. Caller must hold at least the read lock.
func (g *Gauge) filterEpisodes() []Episode {
	result := make([]Episode, 0, len(g.episodes))
	for _, ep := range g.episodes {
		if ep.EndTime.Sub(ep.StartTime) >= g.minEpisodeDuration {
			result = append(result, ep)
		}
	}
	return result
}

// Samples returns a copy of the current sample window.
func (g *Gauge) Samples() []sample.Sample {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]sample.Sample, len(g.samples))
	copy(result, g.samples)
	return result
}

// Rates returns a copy of the current rate buffer.
func (g *Gauge) Rates() []float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]float64, len(g.rates))
	copy(result, g.rates)
	return result
}

// Episodes returns the detected episodes that pass the noise filter.
func (g *Gauge) Episodes() []Episode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.filterEpisodes()
}

// OnUpdate registers a callback invoked after each processed sample. The
// callback receives current samples, rates, and filtered episodes and
// should copy what it needs and return quickly.
func (g *Gauge) OnUpdate(callback func(samples []sample.Sample, rates []float64, episodes []Episode)) {
	g.cbMu.Lock()
	defer g.cbMu.Unlock()
	g.callbacks = append(g.callbacks, callback)
}

// ResetShutdown resets the shutdown flag, allowing callbacks to be sent
// again. Call before starting a new measurement chain.
func (g *Gauge) ResetShutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shutdown = false
}

// notifyCallbacks invokes all registered callbacks with copies of the
// current data. No locks are held while the callbacks run.
func (g *Gauge) notifyCallbacks() {
	g.mu.RLock()
	samplesCopy := make([]sample.Sample, len(g.samples))
	copy(samplesCopy, g.samples)
	ratesCopy := make([]float64, len(g.rates))
	copy(ratesCopy, g.rates)
	episodesCopy := g.filterEpisodes()
	g.mu.RUnlock()

	g.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, rates []float64, episodes []Episode), len(g.callbacks))
	copy(callbacks, g.callbacks)
	g.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samplesCopy, ratesCopy, episodesCopy)
		}
	}
}
