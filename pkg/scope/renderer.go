package scope

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
	"github.com/itohio/gopem/pkg/envlimits"
	"github.com/itohio/gopem/pkg/gauge"
	"github.com/itohio/gopem/pkg/pool"
	"github.com/itohio/gopem/pkg/sample"
)

// levelRenderer renders the level scope widget.
type levelRenderer struct {
	scope *LevelScope

	// Background
	bg *canvas.Rectangle

	// Band boundary guides and labels
	bandLines []*canvas.Line
	bandTexts []*canvas.Text

	// Episode markers (vertical lines)
	episodeLines []*canvas.Line

	// Rate labels over episodes
	rateLabels []*canvas.Text

	// Motor duty label
	dutyLabel *canvas.Text

	// Grid lines
	gridLines []*canvas.Line
	gridTexts []*canvas.Text

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *levelRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *levelRenderer) Layout(size fyne.Size) {
	// Background fills entire widget
	r.bg.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		// Size changed, redraw with the new dimensions
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *levelRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	rates := r.scope.displayRates
	episodes := r.scope.episodes
	duty := r.scope.duty
	lim := r.scope.lim
	xMin := r.scope.xMin
	xMax := r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep background)
	r.objects = []fyne.CanvasObject{r.bg}
	r.gridLines = r.gridLines[:0]
	r.gridTexts = r.gridTexts[:0]
	r.bandLines = r.bandLines[:0]
	r.bandTexts = r.bandTexts[:0]
	r.episodeLines = r.episodeLines[:0]
	r.rateLabels = r.rateLabels[:0]
	r.dutyLabel = nil

	// Calculate margins
	marginLeft := float32(60.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - marginTop - marginBottom
	plotX := marginLeft
	plotY := marginTop

	r.drawGrid(plotX, plotY, plotWidth, plotHeight, xMin, xMax)
	r.drawBandBoundaries(plotX, plotY, plotWidth, plotHeight, lim)

	// Fill level curve (orange)
	if len(samples) > 1 {
		r.drawFillLine(plotX, plotY, plotWidth, plotHeight, samples, xMin, xMax)
	}

	// Inflow rate curve (light blue, normalized to the inflow limit)
	if len(rates) > 0 && len(samples) > 1 {
		r.drawRateLine(plotX, plotY, plotWidth, plotHeight, rates, samples, lim, xMin, xMax)
	}

	// Episode markers (dark blue vertical lines) and rate labels
	r.drawEpisodes(plotX, plotY, plotWidth, plotHeight, episodes, samples, xMin, xMax)

	// Motor duty indicator
	if duty > 0 {
		r.drawDuty(plotX, plotY, duty, lim.MaxAnalogWrite)
	}
}

// drawGrid draws the oscilloscope-style grid with fill percentages on the
// Y axis and elapsed seconds on the X axis.
func (r *levelRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, xMin, xMax time.Time) {
	// Horizontal grid lines (fill fraction)
	numHLines := 10
	for i := range numHLines + 1 {
		y := plotY + float32(i)*plotHeight/float32(numHLines)
		line := canvas.NewLine(color.RGBA{R: 40, G: 40, B: 40, A: 255})
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		// Y-axis label
		fill := 1.0 - float32(i)/float32(numHLines)
		text := canvas.NewText(formatPercent(fill), color.RGBA{R: 150, G: 150, B: 150, A: 255})
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plotX-5, y-6))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}

	// Vertical grid lines (time)
	numVLines := 10
	for i := range numVLines + 1 {
		x := plotX + float32(i)*plotWidth/float32(numVLines)
		line := canvas.NewLine(color.RGBA{R: 40, G: 40, B: 40, A: 255})
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		// X-axis label
		timeOffset := float64(i) * xMax.Sub(xMin).Seconds() / float64(numVLines)
		text := canvas.NewText(formatSeconds(float32(timeOffset)), color.RGBA{R: 150, G: 150, B: 150, A: 255})
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, plotY+plotHeight+5))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}
}

// drawBandBoundaries draws a horizontal guide at each pool threshold with
// the band name it opens.
func (r *levelRenderer) drawBandBoundaries(plotX, plotY, plotWidth, plotHeight float32, lim envlimits.Limits) {
	boundaries := []struct {
		volume int64
		label  string
	}{
		{lim.PoolLowLower, pool.Low.String()},
		{lim.PoolLowHigher, pool.OK.String()},
		{lim.PoolHighLower, pool.High.String()},
		{lim.PoolCriticalLower, pool.Critical.String()},
		{lim.PoolFullLower, pool.Full.String()},
	}

	for _, b := range boundaries {
		fill := float32(pool.Fill(b.volume, lim))
		y := plotY + plotHeight - fill*plotHeight

		line := canvas.NewLine(color.RGBA{R: 90, G: 70, B: 30, A: 255})
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.bandLines = append(r.bandLines, line)
		r.objects = append(r.objects, line)

		text := canvas.NewText(b.label, color.RGBA{R: 180, G: 140, B: 60, A: 255})
		text.TextSize = 10
		text.Alignment = fyne.TextAlignLeading
		text.Move(fyne.NewPos(plotX+plotWidth-40, y-12))
		r.bandTexts = append(r.bandTexts, text)
		r.objects = append(r.objects, text)
	}
}

// drawRateLine draws the inflow rate curve (light blue, thicker line). The
// rate is normalized against the inflow limit and centered on mid-plot so
// gains rise above the middle and losses dip below it.
func (r *levelRenderer) drawRateLine(plotX, plotY, plotWidth, plotHeight float32, rates []float64, samples []sample.Sample, lim envlimits.Limits, xMin, xMax time.Time) {
	if len(rates) == 0 || len(samples) < 2 {
		return
	}

	points := make([]fyne.Position, 0, len(rates))
	for i, rate := range rates {
		if i+1 >= len(samples) {
			break
		}
		// Use midpoint between samples for the rate position
		midTime := samples[i].Timestamp.Add(samples[i+1].Timestamp.Sub(samples[i].Timestamp) / 2)
		x := plotX + float32(midTime.Sub(xMin).Seconds()/xMax.Sub(xMin).Seconds())*plotWidth

		norm := float32(rate / float64(lim.InflowAbsMax))
		norm = math32.Max(-1, math32.Min(1, norm))
		y := plotY + plotHeight/2 - norm*plotHeight/2
		points = append(points, fyne.NewPos(x, y))
	}

	// Draw connected line segments
	for i := range len(points) - 1 {
		line := canvas.NewLine(color.RGBA{R: 100, G: 200, B: 255, A: 255}) // Light blue
		line.Position1 = points[i]
		line.Position2 = points[i+1]
		line.StrokeWidth = 2.5
		r.objects = append(r.objects, line)
	}
}

// drawEpisodes draws vertical marker lines for net-flow episodes and a peak
// rate label over each one. Gains are green, losses red.
func (r *levelRenderer) drawEpisodes(plotX, plotY, plotWidth, plotHeight float32, episodes []gauge.Episode, samples []sample.Sample, xMin, xMax time.Time) {
	if len(samples) == 0 {
		return
	}

	for _, ep := range episodes {
		markerColor := color.RGBA{R: 60, G: 180, B: 90, A: 255} // Green for gain
		signedPeak := float32(ep.PeakRate)
		if ep.Direction == gauge.Loss {
			markerColor = color.RGBA{R: 200, G: 70, B: 70, A: 255} // Red for loss
			signedPeak = -signedPeak
		}

		// Draw start line
		xStart := plotX + float32(ep.StartTime.Sub(xMin).Seconds()/xMax.Sub(xMin).Seconds())*plotWidth
		lineStart := canvas.NewLine(markerColor)
		lineStart.Position1 = fyne.NewPos(xStart, plotY)
		lineStart.Position2 = fyne.NewPos(xStart, plotY+plotHeight)
		lineStart.StrokeWidth = 1
		r.episodeLines = append(r.episodeLines, lineStart)
		r.objects = append(r.objects, lineStart)

		// Draw end line
		xEnd := plotX + float32(ep.EndTime.Sub(xMin).Seconds()/xMax.Sub(xMin).Seconds())*plotWidth
		lineEnd := canvas.NewLine(markerColor)
		lineEnd.Position1 = fyne.NewPos(xEnd, plotY)
		lineEnd.Position2 = fyne.NewPos(xEnd, plotY+plotHeight)
		lineEnd.StrokeWidth = 1
		r.episodeLines = append(r.episodeLines, lineEnd)
		r.objects = append(r.objects, lineEnd)

		// Peak rate label centered over the episode
		center := xStart + (xEnd-xStart)/2
		text := canvas.NewText(formatRate(signedPeak), markerColor)
		text.TextSize = 12
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(center-30, plotY+5))
		r.rateLabels = append(r.rateLabels, text)
		r.objects = append(r.objects, text)
	}
}

// drawDuty draws the current motor duty indicator.
func (r *levelRenderer) drawDuty(plotX, plotY float32, duty, maxDuty int) {
	label := "duty " + formatInt(int64(duty)) + "/" + formatInt(int64(maxDuty))
	text := canvas.NewText(label, color.RGBA{R: 200, G: 200, B: 200, A: 255}) // Light gray
	text.TextSize = 11
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(plotX+10, plotY+10))
	r.dutyLabel = text
	r.objects = append(r.objects, text)
}

// drawFillLine draws the fill level curve (orange).
func (r *levelRenderer) drawFillLine(plotX, plotY, plotWidth, plotHeight float32, samples []sample.Sample, xMin, xMax time.Time) {
	if len(samples) < 2 {
		return
	}

	points := make([]fyne.Position, 0, len(samples))
	for _, s := range samples {
		x := plotX + float32(s.Timestamp.Sub(xMin).Seconds()/xMax.Sub(xMin).Seconds())*plotWidth
		y := plotY + plotHeight - float32(s.Fill)*plotHeight
		points = append(points, fyne.NewPos(x, y))
	}

	// Draw connected line segments
	for i := range len(points) - 1 {
		line := canvas.NewLine(color.RGBA{R: 255, G: 165, B: 0, A: 255}) // Orange
		line.Position1 = points[i]
		line.Position2 = points[i+1]
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
	}
}

// Objects returns all canvas objects for rendering.
func (r *levelRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *levelRenderer) Destroy() {
	// Cleanup handled by Fyne
}

// Helper functions for formatting

func formatPercent(f float32) string {
	return formatFloat32(f*100, 0) + "%"
}

func formatSeconds(s float32) string {
	if s < 1 {
		return formatFloat32(s, 2) + "s"
	}
	return formatFloat32(s, 1) + "s"
}

func formatRate(unitsPerSecond float32) string {
	return formatFloat32(unitsPerSecond, 0) + " u/s"
}

func formatFloat32(v float32, decimals int) string {
	str := ""
	if v < 0 {
		str = "-"
		v = -v
	}
	intPart := int64(v)
	str += formatInt(intPart)
	if decimals > 0 {
		frac := v - float32(intPart)
		fracStr := formatInt(int64(frac * math32.Pow(10, float32(decimals))))
		// Pad with zeros
		for len(fracStr) < decimals {
			fracStr = "0" + fracStr
		}
		str += "." + fracStr
	}
	return str
}

func formatInt(v int64) string {
	if v == 0 {
		return "0"
	}
	str := ""
	neg := v < 0
	if neg {
		v = -v
	}
	for v > 0 {
		str = string(rune('0'+v%10)) + str
		v /= 10
	}
	if neg {
		str = "-" + str
	}
	return str
}
