package goldprice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/arthmitra/internal/models"
)

// RenderChart renders a PNG line chart of closing prices with the daily
// high/low range drawn as thin dashed lines. Returns raw PNG bytes.
func RenderChart(records []models.PriceRecord) ([]byte, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("need at least 2 price records, got %d", len(records))
	}

	xValues := make([]time.Time, len(records))
	priceY := make([]float64, len(records))
	highY := make([]float64, len(records))
	lowY := make([]float64, len(records))

	for i, r := range records {
		xValues[i] = r.Date
		priceY[i] = r.Price.InexactFloat64()
		highY[i] = r.High.InexactFloat64()
		lowY[i] = r.Low.InexactFloat64()
	}

	priceSeries := chart.TimeSeries{
		Name: "Price",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("ca8a04"), // yellow-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: priceY,
	}

	rangeStyle := chart.Style{
		StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
		StrokeWidth:     1,
		StrokeDashArray: []float64{4.0, 3.0},
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Gold Price (%s)", models.GoldPriceUnit),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("02 Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			priceSeries,
			chart.TimeSeries{Name: "High", Style: rangeStyle, XValues: xValues, YValues: highY},
			chart.TimeSeries{Name: "Low", Style: rangeStyle, XValues: xValues, YValues: lowY},
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
