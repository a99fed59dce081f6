package render

import (
	"io"
	"strings"

	"tradeplot/internal/merge"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// MarkerOffset lifts trade arrows above the candle high.
const MarkerOffset = 20.0

const hoverFormatter = `function (p) { return p.data && p.data.name ? p.data.name : ''; }`

// WriteChart renders a candlestick chart with the EMA line and one arrow per
// bucket that holds trades.
func WriteChart(w io.Writer, rows []merge.MergedRow, title string) error {
	xs := make([]string, len(rows))
	candles := make([]opts.KlineData, len(rows))
	emaLine := make([]opts.LineData, len(rows))
	markers := make([]opts.ScatterData, len(rows))
	for i, row := range rows {
		xs[i] = row.Start.UTC().Format(TimeLayout)
		// echarts orders candle values open, close, low, high
		candles[i] = opts.KlineData{
			Name:  candleHover(xs[i], row),
			Value: [4]float64{row.Open, row.Close, row.Low, row.High},
		}
		emaLine[i] = opts.LineData{Value: row.EMA}
		markers[i] = marker(row)
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1400px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "item", Formatter: opts.FuncOpts(hoverFormatter)}),
		charts.WithLegendOpts(opts.Legend{Show: false}),
		charts.WithYAxisOpts(opts.YAxis{Scale: true}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside", Start: 0, End: 100},
			opts.DataZoom{Type: "slider", Start: 0, End: 100},
		),
	)
	kline.SetXAxis(xs).AddSeries("candles", candles)

	line := charts.NewLine()
	line.SetXAxis(xs).AddSeries("ema", emaLine,
		charts.WithLineStyleOpts(opts.LineStyle{Color: "blue", Width: 1}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: false}),
	)

	scatter := charts.NewScatter()
	scatter.SetXAxis(xs).AddSeries("trades", markers,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "blue"}),
	)

	kline.Overlap(line, scatter)
	return kline.Render(w)
}

func candleHover(x string, row merge.MergedRow) string {
	return strings.Join([]string{
		"Time: " + x,
		"Open: " + formatFloat(row.Open),
		"Close: " + formatFloat(row.Close),
		"High: " + formatFloat(row.High),
		"Low: " + formatFloat(row.Low),
		"EMA: " + formatFloat(row.EMA),
	}, "<br>")
}

// marker is an empty point ("-") unless the bucket holds trades.
func marker(row merge.MergedRow) opts.ScatterData {
	text := merge.FormatTrades(row.Trades)
	if text == "" {
		return opts.ScatterData{Value: "-"}
	}
	return opts.ScatterData{
		Name:         text,
		Value:        row.High + MarkerOffset,
		Symbol:       "arrow",
		SymbolSize:   8,
		SymbolRotate: 180,
	}
}
