package sample

import (
	"log"
	"time"

	"github.com/itohio/gopem/pkg/envlimits"
	"github.com/itohio/gopem/pkg/pool"
)

// NewAveragingConverterForSamples creates a converter that averages a sliding
// window of already-converted Samples. This smooths out the jitter of the
// rig's random inflow. The level band is re-derived from the averaged volume
// so it always agrees with the emitted value.
func NewAveragingConverterForSamples(lim envlimits.Limits, windowSize int, bufSize int) func(in <-chan Sample) <-chan Sample {
	if windowSize <= 0 {
		windowSize = 1
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			var buffer []Sample
			ticker := time.NewTicker(100 * time.Millisecond) // Output rate
			defer ticker.Stop()

			for {
				select {
				case s, ok := <-in:
					if !ok {
						// Input closed, output any remaining window
						if len(buffer) > 0 {
							avg := averageSamples(buffer, lim)
							select {
							case out <- avg:
							default:
							}
						}
						return
					}

					buffer = append(buffer, s)
					if len(buffer) > windowSize {
						buffer = buffer[1:] // Remove oldest
					}

				case <-ticker.C:
					// Output averaged sample periodically
					if len(buffer) > 0 {
						avg := averageSamples(buffer, lim)
						select {
						case out <- avg:
						default:
							log.Printf("Averaging converter output channel full")
						}
					}
				}
			}
		}()

		return out
	}
}

// averageSamples averages a window of Samples. Uses the most recent sample's
// timestamp and duty; the level band is re-derived from the averaged volume.
func averageSamples(samples []Sample, lim envlimits.Limits) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sumVolume int64
	var sumRate float64
	last := samples[len(samples)-1]

	for _, s := range samples {
		sumVolume += s.Volume
		sumRate += s.InflowRate
	}

	n := int64(len(samples))
	avgVolume := sumVolume / n

	return Sample{
		Timestamp:  last.Timestamp,
		Volume:     avgVolume,
		Fill:       pool.Fill(avgVolume, lim),
		InflowRate: sumRate / float64(n),
		Duty:       last.Duty,
		Level:      pool.ClassifyVolume(avgVolume, lim),
	}
}
