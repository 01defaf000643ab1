// Package plot turns loosely shaped plot input into a PlotRequest and builds
// renderer-ready traces and layouts from it, styling each series through a
// style.Resolver.
package plot

import (
	"github.com/dlblack/sad-sandbox-sub000/style"
)

// Scale is a y-axis scale
type Scale string

const (
	ScaleLinear Scale = "linear"
	ScaleLog    Scale = "log"
)

// Request is a normalized plot request
type Request struct {
	Kind    style.Kind `json:"kind,omitempty"`
	Input   Data       `json:"input"`
	Title   string     `json:"title,omitempty"`
	XLabel  string     `json:"x_label,omitempty"`
	YLabel  string     `json:"y_label,omitempty"`
	Options Options    `json:"options"`
}

// Data is either a table or a list of series. When both are set the series
// list is used.
type Data struct {
	Table  *DataTable `json:"table,omitempty"`
	Series []Series   `json:"series"`
}

// DataTable is row-oriented input; the first field is x and every other
// field is one y series.
type DataTable struct {
	Rows   []map[string]any `json:"rows"`
	Fields []string         `json:"fields"`
}

// Series is one named x/y sequence. Values are kept as decoded: numbers,
// strings, time.Time or nil.
type Series struct {
	Name string         `json:"name,omitempty"`
	X    []any          `json:"x"`
	Y    []any          `json:"y"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Options are the builder options. Stepped and ShowRangeSlider apply to time
// series; the rest apply to paired plots. Parameter is shared.
type Options struct {
	Parameter string `json:"parameter,omitempty"`

	Stepped         bool `json:"stepped,omitempty"`
	ShowRangeSlider bool `json:"showRangeSlider,omitempty"`

	Labels     []any            `json:"labels,omitempty"`
	XReverse   bool             `json:"xReverse,omitempty"`
	YScale     Scale            `json:"yScale,omitempty"`
	YMinDecade float64          `json:"yMinDecade,omitempty"`
	StyleMap   map[string]Trace `json:"styleMap,omitempty"`
	XAxis      *Axis            `json:"xaxis,omitempty"`
}

// AllSeries returns the series list, deriving it from the table when no
// series were given.
func (d Data) AllSeries() []Series {
	if len(d.Series) > 0 || d.Table == nil {
		return d.Series
	}
	return d.Table.Series()
}

// Series converts the table into one series per non-x field
func (t DataTable) Series() []Series {
	if len(t.Fields) < 2 {
		return []Series{}
	}
	xField := t.Fields[0]
	x := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		x[i] = row[xField]
	}

	out := make([]Series, 0, len(t.Fields)-1)
	for _, field := range t.Fields[1:] {
		y := make([]any, len(t.Rows))
		for i, row := range t.Rows {
			y[i] = row[field]
		}
		out = append(out, Series{Name: field, X: x, Y: y})
	}
	return out
}
