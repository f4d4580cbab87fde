package forecaster

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/aouyang1/go-powerpulse/event"
	"github.com/aouyang1/go-powerpulse/forecast"
	"github.com/aouyang1/go-powerpulse/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	chart "github.com/wcharczuk/go-chart/v2"
)

var ErrNothingToPlot = errors.New("no history or forecast to plot")

// missingValue is rendered by echarts as a gap in the line
const missingValue = "-"

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The
// input y is a slice of series that must each have the same length as the input time slice. NaN
// values are drawn as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	x := make([]string, 0, len(t))
	for _, ts := range t {
		x = append(x, ts.Format("2006-01-02 15:04"))
	}
	line = line.SetXAxis(x)

	for i, series := range seriesName {
		lineData := make([]opts.LineData, 0, len(t))
		for j := 0; j < len(t); j++ {
			if j >= len(y[i]) || math.IsNaN(y[i][j]) {
				lineData = append(lineData, opts.LineData{Value: missingValue})
				continue
			}
			lineData = append(lineData, opts.LineData{Value: y[i][j]})
		}
		line = line.AddSeries(series, lineData)
	}
	return line
}

// LineForecast plots the observed consumption followed by the forecast and the baseline it is
// classified against
func LineForecast(history *timedataset.Dataset, points []forecast.Point) *charts.Line {
	n := history.Len() + len(points)
	t := make([]time.Time, 0, n)
	actual := make([]float64, 0, n)
	predicted := make([]float64, 0, n)
	base := make([]float64, 0, n)

	for _, o := range obsOf(history) {
		t = append(t, o.Timestamp)
		actual = append(actual, o.KWh)
		predicted = append(predicted, math.NaN())
		base = append(base, math.NaN())
	}
	for _, p := range points {
		t = append(t, p.Timestamp)
		actual = append(actual, math.NaN())
		predicted = append(predicted, p.PredictedKWh)
		base = append(base, p.BaselineKWh)
	}

	return LineTSeries(
		"Consumption Forecast",
		[]string{"Actual", "Forecast", "Baseline"},
		t,
		[][]float64{actual, predicted, base},
	)
}

// BarSavings plots the kWh savings of every actionable event
func BarSavings(events []event.Event) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Potential Savings (kWh)",
			},
		),
	)

	x := make([]string, 0, len(events))
	spikes := make([]opts.BarData, 0, len(events))
	peaks := make([]opts.BarData, 0, len(events))
	for _, e := range events {
		if e.Type == event.TypeNormal {
			continue
		}
		x = append(x, e.At.Format("2006-01-02 15:04"))
		spike, peak := interface{}(0.0), interface{}(0.0)
		if e.Type == event.TypeSpike {
			spike = e.Savings.KWh
		} else {
			peak = e.Savings.KWh
		}
		spikes = append(spikes, opts.BarData{Value: spike})
		peaks = append(peaks, opts.BarData{Value: peak})
	}

	bar.SetXAxis(x).
		AddSeries(string(event.TypeSpike), spikes).
		AddSeries(string(event.TypePeak), peaks)
	return bar
}

// PlotHTML uses the Apache Echarts library to render an html page showing the history, the
// forecast and the savings of the analysis
func PlotHTML(w io.Writer, history *timedataset.Dataset, a *Analysis) error {
	points, events := analysisParts(a)
	if history.Len() == 0 && len(points) == 0 {
		return ErrNothingToPlot
	}

	page := components.NewPage()
	page.AddCharts(
		LineForecast(history, points),
		BarSavings(events),
	)
	return page.Render(w)
}

// PlotPNG renders the history and the forecast as a static PNG image
func PlotPNG(w io.Writer, history *timedataset.Dataset, a *Analysis) error {
	points, _ := analysisParts(a)
	if history.Len() == 0 && len(points) == 0 {
		return ErrNothingToPlot
	}

	obs := obsOf(history)
	histT := make([]time.Time, len(obs))
	histY := make([]float64, len(obs))
	for i, o := range obs {
		histT[i] = o.Timestamp
		histY[i] = o.KWh
	}
	fcT := make([]time.Time, len(points))
	fcY := make([]float64, len(points))
	baseY := make([]float64, len(points))
	for i, p := range points {
		fcT[i] = p.Timestamp
		fcY[i] = p.PredictedKWh
		baseY[i] = p.BaselineKWh
	}

	kwhFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Consumption (kWh)",
			ValueFormatter: kwhFormatter,
		},
	}
	if len(obs) > 0 {
		graph.Series = append(graph.Series, chart.TimeSeries{
			Name:    "Actual",
			XValues: histT,
			YValues: histY,
		})
	}
	if len(points) > 0 {
		graph.Series = append(graph.Series,
			chart.TimeSeries{
				Name:    "Forecast",
				XValues: fcT,
				YValues: fcY,
			},
			chart.TimeSeries{
				Name:    "Baseline",
				XValues: fcT,
				YValues: baseY,
			},
		)
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

func analysisParts(a *Analysis) ([]forecast.Point, []event.Event) {
	if a == nil {
		return nil, nil
	}
	return a.Series, a.Events
}

func obsOf(ds *timedataset.Dataset) []timedataset.Observation {
	if ds == nil {
		return nil
	}
	return ds.Obs
}
