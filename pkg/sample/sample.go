package sample

import (
	"log"
	"time"

	"github.com/itohio/gopem/pkg/device"
	"github.com/itohio/gopem/pkg/envlimits"
	"github.com/itohio/gopem/pkg/pool"
)

// Sample represents a processed telemetry frame with physical values.
type Sample struct {
	Timestamp  time.Time
	Volume     int64      // Reservoir volume (pool units)
	Fill       float64    // Volume as a fraction of the full pool (0..1)
	InflowRate float64    // Net inflow rate (pool units per second)
	Duty       int        // Quantized motor duty from the regulator reading
	Level      pool.Level // Level band of the volume
}

// Converter is a function type that converts a Frame channel to a Sample channel.
type Converter func(in <-chan device.Frame) <-chan Sample

// NewConverter creates a converter function that transforms Frames to Samples.
// The inflow rate is measured against the spacing between consecutive frames;
// the first frame uses the rig's nominal log interval.
func NewConverter(lim envlimits.Limits, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan device.Frame) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			var prev time.Time
			for frame := range in {
				dt := lim.LogInfoInterval.Seconds()
				if !prev.IsZero() {
					if measured := frame.Timestamp.Sub(prev).Seconds(); measured > 0 {
						dt = measured
					}
				}
				prev = frame.Timestamp

				s := convertFrame(frame, dt, lim)

				select {
				case out <- s:
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// convertFrame converts a Frame to a Sample. dt is the measured spacing to
// the previous frame in seconds.
func convertFrame(f device.Frame, dt float64, lim envlimits.Limits) Sample {
	rate := 0.0
	if dt > 0 {
		rate = float64(f.Inflow) / dt
	}

	return Sample{
		Timestamp:  f.Timestamp,
		Volume:     f.Volume,
		Fill:       pool.Fill(f.Volume, lim),
		InflowRate: rate,
		Duty:       pool.SpeedForControl(int(f.Regulator), lim),
		Level:      pool.ClassifyVolume(f.Volume, lim),
	}
}
