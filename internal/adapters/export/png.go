package export

import (
	"bytes"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Chart dimensions for stream overlays.
const (
	chartWidth        = 800
	chartHeight       = 400
	placeholderWidth  = 400
	placeholderHeight = 200
	maxBars           = 10
)

var (
	background = drawing.ColorFromHex("101418")
	textColor  = drawing.ColorFromHex("e8e6e3")
	barColor   = drawing.ColorFromHex("8a1c1c")
)

// PNG renders the top of t as a bar chart. An empty table renders a
// placeholder image.
func PNG(t Table) ([]byte, error) {
	rows := t.Rows
	if len(rows) > maxBars {
		rows = rows[:maxBars]
	}
	if len(rows) == 0 {
		return renderPlaceholder("No results yet")
	}

	lo, hi := 0.0, 0.0
	bars := make([]chart.Value, 0, len(rows))
	for _, r := range rows {
		lo = min(lo, r.Score)
		hi = max(hi, r.Score)
		bars = append(bars, chart.Value{
			Label: t.name(r.SubjectID),
			Value: r.Score,
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		})
	}
	if hi == lo {
		hi = lo + 1
	}

	graph := chart.BarChart{
		Title:      t.Title,
		TitleStyle: chart.Style{FontColor: textColor},
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   50,
		Background: chart.Style{FillColor: background},
		Canvas:     chart.Style{FillColor: background},
		XAxis:      chart.Style{FontColor: textColor},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: textColor},
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// renderPlaceholder draws msg centred on a blank canvas. A chart with no
// series cannot be rendered, so this paints the renderer directly.
func renderPlaceholder(msg string) ([]byte, error) {
	r, err := chart.PNG(placeholderWidth, placeholderHeight)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}

	canvas := chart.Box{Top: 0, Left: 0, Right: placeholderWidth, Bottom: placeholderHeight}
	chart.Draw.Box(r, canvas, chart.Style{FillColor: background, StrokeColor: background})

	r.SetFont(font)
	r.SetFontColor(textColor)
	r.SetFontSize(12.0)
	tb := r.MeasureText(msg)
	r.Text(msg, (canvas.Width()-tb.Width())/2, (canvas.Height()+tb.Height())/2)

	buffer := bytes.NewBuffer([]byte{})
	if err := r.Save(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
