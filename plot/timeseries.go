package plot

import (
	"github.com/dlblack/sad-sandbox-sub000/style"
)

// BuildTimeSeries draws the first series as one line trace on a date axis
func BuildTimeSeries(req Request, resolver style.Resolver) BuiltPlot {
	var first Series
	if series := req.Input.AllSeries(); len(series) > 0 {
		first = series[0]
	}

	shape := "linear"
	if req.Options.Stepped {
		shape = "hv"
	}

	kind := req.Kind
	if kind == "" {
		kind = style.KindTimeSeries
	}
	query := style.Query{
		Kind:        kind,
		Parameter:   style.CanonicalParameter(req.Options.Parameter),
		SeriesName:  first.Name,
		SeriesIndex: style.Int(0),
	}

	trace := Trace{
		Type: "scatter",
		Mode: style.ModeLines,
		X:    nonNil(first.X),
		Y:    nonNil(first.Y),
		Name: first.Name,
		Line: &Line{Shape: shape},
	}
	trace = trace.Overlay(resolveTrace(resolver, query))
	if req.Options.Stepped {
		trace.Line = trace.Line.overlay(&Line{Shape: "hv"})
	}

	xTitle := req.XLabel
	if xTitle == "" {
		xTitle = "Time"
	}

	return BuiltPlot{
		Data: []Trace{trace},
		Layout: Layout{
			Title: Title{Text: req.Title},
			XAxis: Axis{
				Title:       &Title{Text: xTitle},
				Type:        "date",
				RangeSlider: &RangeSlider{Visible: req.Options.ShowRangeSlider},
			},
			YAxis: Axis{Title: &Title{Text: req.YLabel}},
		},
	}
}
