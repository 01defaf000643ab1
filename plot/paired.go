package plot

import (
	"slices"

	"github.com/dlblack/sad-sandbox-sub000/style"
)

type labelFormatter func(v any) string

// chooseLabelFormatter picks probability labels when every master value is
// a number in (0, 1], plain trimmed strings otherwise.
func chooseLabelFormatter(master []any) labelFormatter {
	for _, v := range master {
		f, ok := toFloat(v)
		if !ok || f <= 0 || f > 1 {
			return labelString
		}
	}
	return func(v any) string {
		if f, ok := toFloat(v); ok {
			return ProbabilityLabel(f)
		}
		return labelString(v)
	}
}

// MasterLabels returns the category labels every series is projected onto:
// the explicit labels when given, otherwise the first series' x values.
func MasterLabels(req Request) []string {
	labels, _ := masterLabels(req)
	return labels
}

func masterLabels(req Request) ([]string, labelFormatter) {
	raw := req.Options.Labels
	if len(raw) == 0 {
		if series := req.Input.AllSeries(); len(series) > 0 {
			raw = series[0].X
		}
	}
	format := chooseLabelFormatter(raw)
	labels := make([]string, len(raw))
	for i, v := range raw {
		labels[i] = format(v)
	}
	return labels, format
}

// reproject maps a series onto the master labels. Labels the series lacks
// are nil; non-numeric y values are dropped. The second result holds every
// numeric y seen.
func reproject(master []string, format labelFormatter, s Series) ([]any, []float64) {
	byLabel := make(map[string]float64, len(s.X))
	var ys []float64
	for i, x := range s.X {
		if i >= len(s.Y) {
			break
		}
		y, ok := toFloat(s.Y[i])
		if !ok {
			continue
		}
		byLabel[format(x)] = y
		ys = append(ys, y)
	}

	out := make([]any, len(master))
	for i, label := range master {
		if y, ok := byLabel[label]; ok {
			out[i] = y
		}
	}
	return out, ys
}

// BuildPairedCategory draws every series against a shared category axis
func BuildPairedCategory(req Request, resolver style.Resolver) BuiltPlot {
	master, format := masterLabels(req)

	kind := req.Kind
	if kind == "" {
		kind = style.KindPairedXY
	}
	parameter := style.CanonicalParameter(req.Options.Parameter)

	series := req.Input.AllSeries()
	traces := make([]Trace, 0, len(series))
	var allY []float64

	for i, s := range series {
		y, seen := reproject(master, format, s)
		allY = append(allY, seen...)

		trace := Trace{
			Type:        "scatter",
			Mode:        style.ModeLines,
			ConnectGaps: boolPtr(true),
			X:           toAnySlice(master),
			Y:           y,
			Name:        s.Name,
		}
		trace = trace.Overlay(resolveTrace(resolver, style.Query{
			Kind:        kind,
			Parameter:   parameter,
			SeriesName:  s.Name,
			SeriesIndex: style.Int(i),
		}))
		if override, ok := req.Options.StyleMap[s.Name]; ok && s.Name != "" {
			trace = trace.Overlay(override)
		}
		traces = append(traces, trace)
	}

	categories := slices.Clone(master)
	if req.Options.XReverse {
		slices.Reverse(categories)
	}
	xaxis := Axis{
		Title:         &Title{Text: req.XLabel},
		Type:          "category",
		CategoryOrder: "array",
		CategoryArray: categories,
	}
	if req.Options.XAxis != nil {
		xaxis = xaxis.Merge(*req.Options.XAxis)
	}

	yaxis := Axis{Type: "linear", Title: &Title{Text: req.YLabel}}
	if req.Options.YScale == ScaleLog {
		yaxis = logAxis(allY, req.YLabel, req.Options.YMinDecade)
	}

	return BuiltPlot{
		Data: traces,
		Layout: Layout{
			Title:  Title{Text: req.Title},
			XAxis:  xaxis,
			YAxis:  yaxis,
			Margin: &Margin{L: 92, R: 220, B: 64, T: 52},
			Height: 450,
			Legend: &Legend{
				Orientation: "v",
				X:           1.03,
				Y:           0.5,
				XAnchor:     "left",
				YAnchor:     "middle",
				BgColor:     "rgba(255,255,255,0.85)",
			},
		},
	}
}

func toAnySlice(labels []string) []any {
	out := make([]any, len(labels))
	for i, l := range labels {
		out[i] = l
	}
	return out
}
