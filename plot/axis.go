package plot

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var tickPrinter = message.NewPrinter(language.English)

// floorPow10 returns the largest p with 10^p <= v, v > 0
func floorPow10(v float64) int {
	p := int(math.Floor(math.Log10(v)))
	if math.Pow10(p+1) <= v {
		p++
	}
	if math.Pow10(p) > v {
		p--
	}
	return p
}

// ceilPow10 returns the smallest p with 10^p >= v, v > 0
func ceilPow10(v float64) int {
	p := int(math.Ceil(math.Log10(v)))
	if math.Pow10(p-1) >= v {
		p--
	}
	if math.Pow10(p) < v {
		p++
	}
	return p
}

// DecadeRange returns the inclusive powers of ten spanning the positive
// values in ys. A positive minDecade replaces the observed minimum. With no
// positive values the span is 1 through 10.
func DecadeRange(ys []float64, minDecade float64) (lo, hi int) {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, y := range ys {
		if y > 0 && !math.IsInf(y, 0) && !math.IsNaN(y) {
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
	}
	if math.IsInf(minY, 1) {
		minY, maxY = 1, 10
	}
	if minDecade > 0 {
		minY = minDecade
	}
	return floorPow10(minY), ceilPow10(maxY)
}

// LogDecades returns one tick per power of ten from the floor decade of the
// minimum through the ceiling decade of the maximum, both inclusive.
func LogDecades(ys []float64, minDecade float64) []float64 {
	lo, hi := DecadeRange(ys, minDecade)
	ticks := make([]float64, 0, max(hi-lo+1, 0))
	for p := lo; p <= hi; p++ {
		ticks = append(ticks, math.Pow10(p))
	}
	return ticks
}

// decadeText renders a tick with thousands separators
func decadeText(v float64) string {
	if v >= 1 {
		return tickPrinter.Sprintf("%.0f", v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func logAxis(ys []float64, title string, minDecade float64) Axis {
	lo, hi := DecadeRange(ys, minDecade)
	ticks := LogDecades(ys, minDecade)
	text := make([]string, len(ticks))
	for i, tick := range ticks {
		text[i] = decadeText(tick)
	}
	if hi < lo {
		hi = lo
	}

	return Axis{
		Title:     &Title{Text: title},
		Type:      "log",
		TickMode:  "array",
		TickVals:  ticks,
		TickText:  text,
		ShowGrid:  boolPtr(true),
		GridColor: "rgba(0,0,0,0.22)",
		GridWidth: 1.2,
		Minor: &MinorAxis{
			ShowGrid:  true,
			DTick:     "D1",
			GridColor: "rgba(0,0,0,0.12)",
			GridWidth: 0.7,
		},
		Range: []float64{float64(lo), float64(hi)},
	}
}

var probabilityTargets = []float64{1, 0.99, 0.9, 0.5, 0.1, 0.01, 0.001}

const probabilityTolerance = 1e-6

// roundTrip formats v with strconv and parses it back, then prints the
// shortest form so trailing zeros disappear.
func roundTrip(v float64, fmtByte byte, prec int) string {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, fmtByte, prec, 64), 64)
	if err != nil {
		rounded = v
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// ProbabilityLabel formats an exceedance probability. Values within 1e-6
// of a common frequency snap to it; others keep two decimals from 0.1,
// three from 0.01 and three significant digits below that.
func ProbabilityLabel(p float64) string {
	for _, target := range probabilityTargets {
		if math.Abs(p-target) <= probabilityTolerance {
			return strconv.FormatFloat(target, 'f', -1, 64)
		}
	}
	switch {
	case p >= 0.1:
		return roundTrip(p, 'f', 2)
	case p >= 0.01:
		return roundTrip(p, 'f', 3)
	default:
		return roundTrip(p, 'g', 3)
	}
}

func boolPtr(b bool) *bool { return &b }
