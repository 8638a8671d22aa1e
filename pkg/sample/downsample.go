package sample

// DownsampleSamples downsamples a slice of samples to a maximum number of
// points using simple decimation for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise
// allocates new. Returns the destination slice.
// If len(samples) <= maxPoints, copies all samples to dst.
func DownsampleSamples(dst []Sample, samples []Sample, maxPoints int) []Sample {
	if len(samples) <= maxPoints {
		if cap(dst) >= len(samples) {
			dst = dst[:len(samples)]
			copy(dst, samples)
			return dst
		}
		// dst too small, allocate new
		result := make([]Sample, len(samples))
		copy(result, samples)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0] // Reset length but keep capacity
	} else {
		dst = make([]Sample, 0, maxPoints)
	}

	// Calculate step size for decimation
	step := float64(len(samples)) / float64(maxPoints)

	for i := range maxPoints {
		idx := int(float64(i) * step)
		if idx < len(samples) {
			dst = append(dst, samples[idx])
		}
	}

	return dst
}

// DownsampleRates downsamples a slice of inflow rates to a maximum number
// of points. Same decimation and destination-reuse behavior as
// DownsampleSamples.
func DownsampleRates(dst []float64, rates []float64, maxPoints int) []float64 {
	if len(rates) <= maxPoints {
		if cap(dst) >= len(rates) {
			dst = dst[:len(rates)]
			copy(dst, rates)
			return dst
		}
		result := make([]float64, len(rates))
		copy(result, rates)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]float64, 0, maxPoints)
	}

	step := float64(len(rates)) / float64(maxPoints)

	for i := range maxPoints {
		idx := int(float64(i) * step)
		if idx < len(rates) {
			dst = append(dst, rates[idx])
		}
	}

	return dst
}
