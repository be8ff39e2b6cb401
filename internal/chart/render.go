package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type renderer interface {
	Render(w io.Writer) error
}

// Render writes fig as a self-contained HTML page.
func Render(w io.Writer, fig Figure) error {
	var r renderer
	switch fig.Kind {
	case Histogram, Bar:
		r = renderBar(fig)
	case Line:
		r = renderLine(fig)
	case Scatter:
		r = renderScatter(fig)
	case Box:
		r = renderBox(fig)
	case Pie:
		r = renderPie(fig)
	default:
		return fmt.Errorf("%w: kind %d", ErrUnknownKind, int(fig.Kind))
	}
	if err := r.Render(w); err != nil {
		return fmt.Errorf("render %s chart: %w", fig.Kind, err)
	}
	return nil
}

func globalOpts(fig Figure) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: fig.Title, Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: fig.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "item"}),
	}
}

func renderBar(fig Figure) *charts.Bar {
	c := charts.NewBar()
	c.SetGlobalOptions(append(globalOpts(fig),
		charts.WithXAxisOpts(opts.XAxis{Name: fig.XLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: fig.YLabel}),
	)...)

	data := make([]opts.BarData, len(fig.Values))
	for i, v := range fig.Values {
		data[i] = opts.BarData{Value: v}
	}
	c.SetXAxis(fig.Labels).AddSeries(fig.YLabel, data)
	return c
}

func renderLine(fig Figure) *charts.Line {
	c := charts.NewLine()
	c.SetGlobalOptions(append(globalOpts(fig),
		charts.WithXAxisOpts(opts.XAxis{Name: fig.XLabel, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: fig.YLabel}),
	)...)

	data := make([]opts.LineData, len(fig.Points))
	for i, p := range fig.Points {
		data[i] = opts.LineData{Value: []float64{p.X, p.Y}}
	}
	c.AddSeries(fig.YLabel, data)
	return c
}

func renderScatter(fig Figure) *charts.Scatter {
	c := charts.NewScatter()
	c.SetGlobalOptions(append(globalOpts(fig),
		charts.WithXAxisOpts(opts.XAxis{Name: fig.XLabel, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: fig.YLabel}),
	)...)

	data := make([]opts.ScatterData, len(fig.Points))
	for i, p := range fig.Points {
		data[i] = opts.ScatterData{Value: []float64{p.X, p.Y}}
	}
	c.AddSeries(fig.YLabel, data)
	return c
}

func renderBox(fig Figure) *charts.BoxPlot {
	c := charts.NewBoxPlot()
	c.SetGlobalOptions(globalOpts(fig)...)

	names := make([]string, len(fig.Boxes))
	data := make([]opts.BoxPlotData, len(fig.Boxes))
	for i, b := range fig.Boxes {
		names[i] = b.Column
		data[i] = opts.BoxPlotData{Name: b.Column, Value: []float64{b.Min, b.Q1, b.Median, b.Q3, b.Max}}
	}
	c.SetXAxis(names).AddSeries("values", data)
	return c
}

func renderPie(fig Figure) *charts.Pie {
	c := charts.NewPie()
	c.SetGlobalOptions(globalOpts(fig)...)

	data := make([]opts.PieData, len(fig.Values))
	for i, v := range fig.Values {
		data[i] = opts.PieData{Name: fig.Labels[i], Value: v}
	}
	c.AddSeries(fig.XLabel, data)
	return c
}
