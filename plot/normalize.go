package plot

import (
	"strings"

	"github.com/dlblack/sad-sandbox-sub000/dss"
	"github.com/dlblack/sad-sandbox-sub000/style"
)

// Shape is the form plot input arrives in
type Shape int

const (
	// ShapeUnusable input has neither a request nor parallel arrays
	ShapeUnusable Shape = iota
	// ShapeRequest input already carries a Request
	ShapeRequest
	// ShapeArrays input is a pair of parallel x and y lists
	ShapeArrays
)

func (s Shape) String() string {
	switch s {
	case ShapeRequest:
		return "request"
	case ShapeArrays:
		return "arrays"
	default:
		return "unusable"
	}
}

// Input is plot input before normalization. Request is set for input that
// already is a request; X and Y (both non-nil) for raw parallel arrays. The
// remaining fields accompany raw arrays.
type Input struct {
	Request *Request

	X    []any
	Y    []any
	Name string

	Title           string
	XLabel          string
	YLabel          string
	Stepped         bool
	ShowRangeSlider bool
	Labels          []any
	XReverse        bool
	YScale          Scale
	YMinDecade      float64
	StyleMap        map[string]Trace
	XAxis           *Axis

	Hints Hints
}

// Hints are the places a parameter name may turn up besides the options
type Hints struct {
	Parameter        string
	DatasetParameter string
	MetaParameter    string
	Pathname         []string
	Pathnames        []string
}

// Shape reports which form in takes
func (in Input) Shape() Shape {
	switch {
	case in.Request != nil:
		return ShapeRequest
	case in.X != nil && in.Y != nil:
		return ShapeArrays
	default:
		return ShapeUnusable
	}
}

// Normalize turns any input into a renderable request. It never fails:
// unusable input gives an empty paired request.
func Normalize(in Input) Request {
	parameter := InferParameter(in)

	switch in.Shape() {
	case ShapeRequest:
		req := *in.Request
		if req.Options.Parameter == "" {
			req.Options.Parameter = parameter
		}
		if req.Kind == "" {
			req.Kind = InferKind(req.Input.AllSeries())
		}
		return req

	case ShapeArrays:
		series := Series{Name: in.Name, X: in.X, Y: in.Y}
		if InferKind([]Series{series}) == style.KindTimeSeries {
			series.X = timestampsToText(series.X)
			return Request{
				Kind:   style.KindTimeSeries,
				Title:  in.Title,
				XLabel: "Time",
				YLabel: in.YLabel,
				Input:  Data{Series: []Series{series}},
				Options: Options{
					Parameter:       parameter,
					Stepped:         in.Stepped,
					ShowRangeSlider: in.ShowRangeSlider,
				},
			}
		}

		scale := in.YScale
		if scale == "" {
			scale = ScaleLinear
		}
		return Request{
			Kind:   style.KindPairedXY,
			Title:  in.Title,
			XLabel: in.XLabel,
			YLabel: in.YLabel,
			Input:  Data{Series: []Series{series}},
			Options: Options{
				Parameter:  parameter,
				Labels:     in.Labels,
				XReverse:   in.XReverse,
				YScale:     scale,
				YMinDecade: in.YMinDecade,
				StyleMap:   in.StyleMap,
				XAxis:      in.XAxis,
			},
		}

	default:
		return Request{
			Kind:    style.KindPairedXY,
			Input:   Data{Series: []Series{}},
			Options: Options{Parameter: parameter},
		}
	}
}

// InferKind looks at the first x value of the first series: a timestamp
// means a time series, anything else a paired plot.
func InferKind(series []Series) style.Kind {
	if len(series) > 0 && len(series[0].X) > 0 && isTimestamp(series[0].X[0]) {
		return style.KindTimeSeries
	}
	return style.KindPairedXY
}

// InferParameter finds the parameter name for in, first match wins:
// explicit parameter, dataset parameter, meta parameter, the C part of the
// first pathname then of the first pathnames entry, and finally the y label
// without its unit suffix.
func InferParameter(in Input) string {
	h := in.Hints
	explicit := h.Parameter
	if explicit == "" && in.Request != nil {
		explicit = in.Request.Options.Parameter
	}

	for _, candidate := range []string{explicit, h.DatasetParameter, h.MetaParameter} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	for _, paths := range [][]string{h.Pathname, h.Pathnames} {
		if len(paths) > 0 {
			if c := dss.CPart(paths[0]); c != "" {
				return c
			}
		}
	}

	label := in.YLabel
	if label == "" && in.Request != nil {
		label = in.Request.YLabel
	}
	return ParameterFromLabel(label)
}

// ParameterFromLabel strips a parenthesized unit suffix from an axis label:
// "Discharge (cfs)" gives "Discharge".
func ParameterFromLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	if i := strings.Index(trimmed, "("); i > 0 {
		trimmed = strings.TrimSpace(trimmed[:i])
	}
	return trimmed
}
