package plot

import (
	"encoding/json"

	"github.com/dlblack/sad-sandbox-sub000/style"
)

// BuiltPlot is the renderer descriptor: traces plus layout, in Plotly field
// names.
type BuiltPlot struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one drawn series. Gaps in Y are nil and encode as null.
type Trace struct {
	Type        string  `json:"type,omitempty"`
	Mode        string  `json:"mode,omitempty"`
	X           []any   `json:"x"`
	Y           []any   `json:"y"`
	Name        string  `json:"name,omitempty"`
	Line        *Line   `json:"line,omitempty"`
	Marker      *Marker `json:"marker,omitempty"`
	ConnectGaps *bool   `json:"connectgaps,omitempty"`
}

// Line holds trace line attributes
type Line struct {
	Shape string   `json:"shape,omitempty"`
	Color string   `json:"color,omitempty"`
	Width *float64 `json:"width,omitempty"`
	Dash  string   `json:"dash,omitempty"`
}

// Marker holds trace point attributes
type Marker struct {
	Color  string      `json:"color,omitempty"`
	Size   *float64    `json:"size,omitempty"`
	Symbol string      `json:"symbol,omitempty"`
	Line   *MarkerLine `json:"line,omitempty"`
}

// MarkerLine is the point outline
type MarkerLine struct {
	Color string `json:"color,omitempty"`
}

// Overlay returns t with every presentation field set in over copied on
// top. Type, X and Y are structural and are never replaced.
func (t Trace) Overlay(over Trace) Trace {
	if over.Mode != "" {
		t.Mode = over.Mode
	}
	if over.Name != "" {
		t.Name = over.Name
	}
	if over.ConnectGaps != nil {
		v := *over.ConnectGaps
		t.ConnectGaps = &v
	}
	if over.Line != nil {
		t.Line = t.Line.overlay(over.Line)
	}
	if over.Marker != nil {
		t.Marker = t.Marker.overlay(over.Marker)
	}
	return t
}

func (l *Line) overlay(over *Line) *Line {
	var out Line
	if l != nil {
		out = *l
	}
	if over.Shape != "" {
		out.Shape = over.Shape
	}
	if over.Color != "" {
		out.Color = over.Color
	}
	if over.Width != nil {
		out.Width = over.Width
	}
	if over.Dash != "" {
		out.Dash = over.Dash
	}
	return &out
}

func (m *Marker) overlay(over *Marker) *Marker {
	var out Marker
	if m != nil {
		out = *m
	}
	if over.Color != "" {
		out.Color = over.Color
	}
	if over.Size != nil {
		out.Size = over.Size
	}
	if over.Symbol != "" {
		out.Symbol = over.Symbol
	}
	if over.Line != nil && over.Line.Color != "" {
		out.Line = &MarkerLine{Color: over.Line.Color}
	}
	return &out
}

// styleTrace expresses a resolved series style as a trace overlay
func styleTrace(s style.SeriesStyle) Trace {
	ts := style.ToTraceStyle(s)
	out := Trace{Mode: ts.Mode, Name: ts.Name}

	if ts.Line.Color != "" || ts.Line.Width != nil || ts.Line.Dash != "" {
		out.Line = &Line{Color: ts.Line.Color, Width: ts.Line.Width, Dash: string(ts.Line.Dash)}
	}
	if ts.Marker != nil {
		out.Marker = &Marker{Color: ts.Marker.Color, Size: ts.Marker.Size, Symbol: ts.Marker.Symbol}
		if ts.Marker.LineColor != "" {
			out.Marker.Line = &MarkerLine{Color: ts.Marker.LineColor}
		}
	}
	return out
}

// resolveTrace looks up the style for query; a nil resolver or no match
// gives an empty overlay.
func resolveTrace(resolver style.Resolver, query style.Query) Trace {
	if resolver == nil {
		return Trace{}
	}
	s, ok := resolver.Resolve(query)
	if !ok {
		return Trace{}
	}
	return styleTrace(s)
}

// Layout is the plot layout
type Layout struct {
	Title  Title   `json:"title"`
	XAxis  Axis    `json:"xaxis"`
	YAxis  Axis    `json:"yaxis"`
	Legend *Legend `json:"legend,omitempty"`
	Margin *Margin `json:"margin,omitempty"`
	Height int     `json:"height,omitempty"`
}

// Title is a text title
type Title struct {
	Text string `json:"text"`
}

// UnmarshalJSON accepts either {"text": ...} or a bare string
func (t *Title) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		t.Text = text
		return nil
	}
	type plain Title
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*t = Title(out)
	return nil
}

// Axis is an x or y axis. Zero fields are left to the renderer.
type Axis struct {
	Title         *Title       `json:"title,omitempty"`
	Type          string       `json:"type,omitempty"`
	TickMode      string       `json:"tickmode,omitempty"`
	TickVals      []float64    `json:"tickvals,omitempty"`
	TickText      []string     `json:"ticktext,omitempty"`
	Range         []float64    `json:"range,omitempty"`
	CategoryOrder string       `json:"categoryorder,omitempty"`
	CategoryArray []string     `json:"categoryarray,omitempty"`
	RangeSlider   *RangeSlider `json:"rangeslider,omitempty"`
	ShowGrid      *bool        `json:"showgrid,omitempty"`
	GridColor     string       `json:"gridcolor,omitempty"`
	GridWidth     float64      `json:"gridwidth,omitempty"`
	ZeroLine      *bool        `json:"zeroline,omitempty"`
	Minor         *MinorAxis   `json:"minor,omitempty"`
}

// RangeSlider toggles the date range slider
type RangeSlider struct {
	Visible bool `json:"visible"`
}

// MinorAxis configures minor gridlines
type MinorAxis struct {
	ShowGrid  bool    `json:"showgrid"`
	DTick     string  `json:"dtick,omitempty"`
	GridColor string  `json:"gridcolor,omitempty"`
	GridWidth float64 `json:"gridwidth,omitempty"`
}

// Legend positions the legend
type Legend struct {
	Orientation string  `json:"orientation,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	XAnchor     string  `json:"xanchor,omitempty"`
	YAnchor     string  `json:"yanchor,omitempty"`
	BgColor     string  `json:"bgcolor,omitempty"`
}

// Margin is the plot margin in pixels
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	B int `json:"b"`
	T int `json:"t"`
}

// Merge returns a with every field set in over copied on top
func (a Axis) Merge(over Axis) Axis {
	if over.Title != nil {
		a.Title = over.Title
	}
	if over.Type != "" {
		a.Type = over.Type
	}
	if over.TickMode != "" {
		a.TickMode = over.TickMode
	}
	if over.TickVals != nil {
		a.TickVals = over.TickVals
	}
	if over.TickText != nil {
		a.TickText = over.TickText
	}
	if over.Range != nil {
		a.Range = over.Range
	}
	if over.CategoryOrder != "" {
		a.CategoryOrder = over.CategoryOrder
	}
	if over.CategoryArray != nil {
		a.CategoryArray = over.CategoryArray
	}
	if over.RangeSlider != nil {
		a.RangeSlider = over.RangeSlider
	}
	if over.ShowGrid != nil {
		a.ShowGrid = over.ShowGrid
	}
	if over.GridColor != "" {
		a.GridColor = over.GridColor
	}
	if over.GridWidth != 0 {
		a.GridWidth = over.GridWidth
	}
	if over.ZeroLine != nil {
		a.ZeroLine = over.ZeroLine
	}
	if over.Minor != nil {
		a.Minor = over.Minor
	}
	return a
}
