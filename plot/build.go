package plot

import (
	"github.com/dlblack/sad-sandbox-sub000/style"
)

// Builder turns a normalized request into a plot
type Builder func(req Request, resolver style.Resolver) BuiltPlot

// Dispatch picks the builder for req. Frequency curves are paired
// probability plots; unknown kinds are decided from the first series.
func Dispatch(req Request) Builder {
	switch req.Kind {
	case style.KindTimeSeries:
		return BuildTimeSeries
	case style.KindPairedXY, style.KindFrequencyCurve:
		return BuildPairedCategory
	}
	if InferKind(req.Input.AllSeries()) == style.KindTimeSeries {
		return BuildTimeSeries
	}
	return BuildPairedCategory
}

// Build runs the builder Dispatch picks
func Build(req Request, resolver style.Resolver) BuiltPlot {
	return Dispatch(req)(req, resolver)
}

// BuildInput normalizes in and builds it
func BuildInput(in Input, resolver style.Resolver) BuiltPlot {
	return Build(Normalize(in), resolver)
}

// BuildJSON normalizes caller JSON and builds it
func BuildJSON(data []byte, resolver style.Resolver) BuiltPlot {
	return Build(NormalizeJSON(data), resolver)
}
