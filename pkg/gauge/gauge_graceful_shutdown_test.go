package gauge

import (
	"testing"
	"time"

	"github.com/itohio/gopem/pkg/sample"
	"github.com/stretchr/testify/assert"
)

// TestGauge_GracefulShutdown tests that the gauge stops issuing callbacks
// once its input channel closes, and that ResetShutdown re-arms it.
func TestGauge_GracefulShutdown(t *testing.T) {
	g := New(testConfig())
	base := time.Now()

	calls := 0
	g.OnUpdate(func(samples []sample.Sample, rates []float64, episodes []Episode) {
		calls++
	})

	in := make(chan sample.Sample, 2)
	in <- volumeSample(base, 1000000)
	in <- volumeSample(base.Add(time.Second), 1001000)
	close(in)
	g.ProcessSamples(in)

	callsAfterClose := calls
	assert.Equal(t, 2, callsAfterClose)

	g.mu.RLock()
	shutdown := g.shutdown
	g.mu.RUnlock()
	assert.True(t, shutdown, "gauge must mark shutdown when input closes")

	// A new chain resumes callbacks after ResetShutdown.
	g.ResetShutdown()

	in2 := make(chan sample.Sample, 1)
	in2 <- volumeSample(base.Add(2*time.Second), 1002000)
	close(in2)
	g.ProcessSamples(in2)

	assert.Greater(t, calls, callsAfterClose, "callbacks must resume after ResetShutdown")
}
