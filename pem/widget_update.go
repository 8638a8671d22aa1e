package main

import (
	"fyne.io/fyne/v2"
	"github.com/itohio/gopem/pkg/gauge"
	"github.com/itohio/gopem/pkg/sample"
)

// UpdateWidgetOnMainThread schedules a widget update function to run on the main Fyne thread.
// This is required because Fyne widgets cannot be updated directly from goroutines.
// The callback should copy data quickly and return as fast as possible.
func UpdateWidgetOnMainThread(callback func()) {
	if callback == nil {
		return
	}
	fyne.Do(callback)
}

// MeasurementData holds a snapshot of measurement data for widget updates.
// This struct is used to pass data from the measurement goroutine to the widget
// via the main thread, minimizing allocations by reusing the same struct.
type MeasurementData struct {
	Samples  []sample.Sample
	Rates    []float64
	Episodes []gauge.Episode
}

// CopyMeasurementData creates a snapshot of the gauge's current data.
// This should be called quickly in the callback, then passed to the widget update.
//
// NOTE: The scope widget (pkg/scope) handles downsampling internally, so this
// function should NOT be used when updating the scope widget. Pass full data
// directly to scopeWidget.UpdateData() instead. It is kept for widgets that
// need pre-downsampled data, such as a future episode list view.
//
// Accepts destination slices for downsampling to enable array reuse.
// If dstSamples or dstRates are nil or too small, new slices will be allocated.
func CopyMeasurementData(g *gauge.Gauge, dstSamples []sample.Sample, dstRates []float64, maxSamples int) MeasurementData {
	// Accessors already return copies under the gauge's lock.
	samples := g.Samples()
	rates := g.Rates()
	episodes := g.Episodes()

	downsampledSamples := sample.DownsampleSamples(dstSamples, samples, maxSamples)
	downsampledRates := sample.DownsampleRates(dstRates, rates, maxSamples)

	return MeasurementData{
		Samples:  downsampledSamples,
		Rates:    downsampledRates,
		Episodes: episodes,
	}
}
