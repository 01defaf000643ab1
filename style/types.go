// Package style holds the series style rule model and the scoring engine
// that picks the best matching rule for a series.
package style

import (
	"fmt"
)

// Kind identifies the plot family a series is drawn in
type Kind string

const (
	KindTimeSeries     Kind = "time_series"
	KindPairedXY       Kind = "paired_xy"
	KindFrequencyCurve Kind = "frequency_curve"
	KindScatter        Kind = "scatter"
	KindBar            Kind = "bar"
	KindHeatmap        Kind = "heatmap"
	KindCustom         Kind = "custom"
)

// Kinds lists every known plot kind in declaration order
var Kinds = []Kind{
	KindTimeSeries,
	KindPairedXY,
	KindFrequencyCurve,
	KindScatter,
	KindBar,
	KindHeatmap,
	KindCustom,
}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// LineDash is a renderer dash pattern
type LineDash string

const (
	DashSolid       LineDash = "solid"
	DashDash        LineDash = "dash"
	DashDot         LineDash = "dot"
	DashDashDot     LineDash = "dashdot"
	DashLongDash    LineDash = "longdash"
	DashLongDashDot LineDash = "longdashdot"
)

// Valid reports whether d is a known dash pattern
func (d LineDash) Valid() bool {
	switch d {
	case DashSolid, DashDash, DashDot, DashDashDot, DashLongDash, DashLongDashDot:
		return true
	}
	return false
}

// Match is the authored side of a rule key. Empty strings and a nil index
// mean "don't care" for that dimension.
type Match struct {
	Kind         Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Parameter    string `json:"parameter,omitempty" yaml:"parameter,omitempty"`
	AnalysisName string `json:"analysisName,omitempty" yaml:"analysisName,omitempty"`
	SeriesName   string `json:"seriesName,omitempty" yaml:"seriesName,omitempty"`
	SeriesIndex  *int   `json:"seriesIndex,omitempty" yaml:"seriesIndex,omitempty"`
}

// Query is the render-time side of a rule key, built by plot builders.
type Query struct {
	Kind        Kind
	Parameter   string
	SeriesName  string
	SeriesIndex *int
}

// SeriesStyle is the presentation payload of a rule. Nil pointers and empty
// strings inherit whatever the renderer defaults to.
type SeriesStyle struct {
	DrawLine       *bool    `json:"drawLine,omitempty" yaml:"drawLine,omitempty"`
	DrawPoints     *bool    `json:"drawPoints,omitempty" yaml:"drawPoints,omitempty"`
	LineColor      string   `json:"lineColor,omitempty" yaml:"lineColor,omitempty"`
	LineWidth      *float64 `json:"lineWidth,omitempty" yaml:"lineWidth,omitempty"`
	LineDash       LineDash `json:"lineDash,omitempty" yaml:"lineDash,omitempty"`
	PointFillColor string   `json:"pointFillColor,omitempty" yaml:"pointFillColor,omitempty"`
	PointLineColor string   `json:"pointLineColor,omitempty" yaml:"pointLineColor,omitempty"`
	PointSize      *float64 `json:"pointSize,omitempty" yaml:"pointSize,omitempty"`
	PointSymbol    string   `json:"pointSymbol,omitempty" yaml:"pointSymbol,omitempty"`
	Label          string   `json:"label,omitempty" yaml:"label,omitempty"`
}

// Validate checks the numeric and enumerated fields of a style
func (s SeriesStyle) Validate() error {
	if s.LineWidth != nil && *s.LineWidth <= 0 {
		return fmt.Errorf("line width must be positive, got %v", *s.LineWidth)
	}
	if s.PointSize != nil && *s.PointSize <= 0 {
		return fmt.Errorf("point size must be positive, got %v", *s.PointSize)
	}
	if s.LineDash != "" && !s.LineDash.Valid() {
		return fmt.Errorf("unknown line dash %q", s.LineDash)
	}
	return nil
}

// SeriesRule pairs a match key with the style it selects. Rules carry no
// id; they are addressed by position in their owning list.
type SeriesRule struct {
	Match Match       `json:"match" yaml:"match"`
	Style SeriesStyle `json:"style" yaml:"style"`
}

// Clone returns a copy of r that shares no pointers with it
func (r SeriesRule) Clone() SeriesRule {
	return SeriesRule{Match: r.Match.Clone(), Style: r.Style.Clone()}
}

// Clone returns a copy of m with its own SeriesIndex
func (m Match) Clone() Match {
	m.SeriesIndex = clonePtr(m.SeriesIndex)
	return m
}

// Clone returns a copy of s with its own pointer fields
func (s SeriesStyle) Clone() SeriesStyle {
	s.DrawLine = clonePtr(s.DrawLine)
	s.DrawPoints = clonePtr(s.DrawPoints)
	s.LineWidth = clonePtr(s.LineWidth)
	s.PointSize = clonePtr(s.PointSize)
	return s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Meta is optional descriptive metadata on a rule set
type Meta struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Version int    `json:"version,omitempty" yaml:"version,omitempty"`
}

// PlotStyleDefaults is an ordered rule list. Order matters: later rules win
// scoring ties.
type PlotStyleDefaults struct {
	Meta  *Meta        `json:"meta,omitempty" yaml:"meta,omitempty"`
	Rules []SeriesRule `json:"rules" yaml:"rules"`
}

// Clone returns a deep copy. Neither the rule slice nor any pointer field
// is shared with d.
func (d PlotStyleDefaults) Clone() PlotStyleDefaults {
	out := PlotStyleDefaults{Rules: make([]SeriesRule, len(d.Rules))}
	for i, rule := range d.Rules {
		out.Rules[i] = rule.Clone()
	}
	if d.Meta != nil {
		meta := *d.Meta
		out.Meta = &meta
	}
	return out
}

// Validate checks every rule's style
func (d PlotStyleDefaults) Validate() error {
	for i, rule := range d.Rules {
		if err := rule.Style.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// Bool returns a pointer to b
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f
func Float(f float64) *float64 { return &f }

// Int returns a pointer to i
func Int(i int) *int { return &i }
