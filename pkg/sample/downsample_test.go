package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownsampleSamples_NoDownsampling(t *testing.T) {
	now := time.Now()
	samples := []Sample{
		{Timestamp: now, Volume: 1000000, Fill: 0.2},
		{Timestamp: now.Add(100 * time.Millisecond), Volume: 1001000, Fill: 0.2002},
		{Timestamp: now.Add(200 * time.Millisecond), Volume: 1002000, Fill: 0.2004},
	}

	// Test with nil dst
	result := DownsampleSamples(nil, samples, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, samples[0], result[0])
	assert.Equal(t, samples[1], result[1])
	assert.Equal(t, samples[2], result[2])

	// Test with sufficient capacity dst
	dst := make([]Sample, 0, 10)
	result = DownsampleSamples(dst, samples, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, samples[0], result[0])
	assert.Equal(t, samples[2], result[2])
	// Should reuse dst
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsampleSamples_WithDownsampling(t *testing.T) {
	now := time.Now()
	samples := make([]Sample, 100)
	for i := range 100 {
		samples[i] = Sample{
			Timestamp: now.Add(time.Duration(i) * 10 * time.Millisecond),
			Volume:    int64(1000000 + i*1000),
		}
	}

	// Downsample to 10 points
	dst := make([]Sample, 0, 20)
	result := DownsampleSamples(dst, samples, 10)
	require.Equal(t, 10, len(result))

	// Decimation always keeps the first sample
	assert.Equal(t, samples[0], result[0])

	// The last kept sample comes from the last decimation stride
	assert.GreaterOrEqual(t, result[len(result)-1].Volume, int64(1080000))

	// Should reuse dst if capacity sufficient
	assert.GreaterOrEqual(t, cap(result), 10)
}

func TestDownsampleSamples_DestinationReuse(t *testing.T) {
	now := time.Now()
	samples1 := []Sample{
		{Timestamp: now, Volume: 1000000},
		{Timestamp: now.Add(100 * time.Millisecond), Volume: 1001000},
	}

	samples2 := []Sample{
		{Timestamp: now, Volume: 2000000},
		{Timestamp: now.Add(100 * time.Millisecond), Volume: 2001000},
		{Timestamp: now.Add(200 * time.Millisecond), Volume: 2002000},
	}

	// The same destination serves consecutive calls without reallocating.
	dst := make([]Sample, 0, 10)
	result1 := DownsampleSamples(dst, samples1, 10)
	require.Equal(t, 2, len(result1))
	assert.Equal(t, int64(1000000), result1[0].Volume)

	result2 := DownsampleSamples(result1, samples2, 10)
	require.Equal(t, 3, len(result2))
	assert.Equal(t, int64(2000000), result2[0].Volume)
	assert.Equal(t, cap(dst), cap(result2))
}

func TestDownsampleRates_NoDownsampling(t *testing.T) {
	rates := []float64{1000, -500, 2000}

	result := DownsampleRates(nil, rates, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, rates, result)
}

func TestDownsampleRates_WithDownsampling(t *testing.T) {
	rates := make([]float64, 100)
	for i := range 100 {
		rates[i] = float64(i) * 100
	}

	dst := make([]float64, 0, 20)
	result := DownsampleRates(dst, rates, 10)
	require.Equal(t, 10, len(result))

	assert.Equal(t, 0.0, result[0])
	assert.GreaterOrEqual(t, result[len(result)-1], 8000.0)
}
