package style

// Renderer trace modes
const (
	ModeLines        = "lines"
	ModeMarkers      = "markers"
	ModeLinesMarkers = "lines+markers"
	ModeNone         = "none"
)

// TraceStyle is a resolved style expressed in renderer trace terms.
type TraceStyle struct {
	Mode   string
	Line   LineProps
	Marker *MarkerProps
	Name   string
}

// LineProps are the line attributes of a trace
type LineProps struct {
	Color string
	Width *float64
	Dash  LineDash
}

// MarkerProps are the point attributes of a trace
type MarkerProps struct {
	Color     string
	Size      *float64
	Symbol    string
	LineColor string
}

// ToTraceStyle maps a series style onto trace attributes. Points are only
// described when the style asks for them.
func ToTraceStyle(s SeriesStyle) TraceStyle {
	var out TraceStyle

	drawLine := s.DrawLine
	drawPoints := s.DrawPoints != nil && *s.DrawPoints
	switch {
	case drawLine != nil && !*drawLine && drawPoints:
		out.Mode = ModeMarkers
	case drawLine != nil && !*drawLine:
		out.Mode = ModeNone
	case drawLine != nil && *drawLine && drawPoints:
		out.Mode = ModeLinesMarkers
	default:
		out.Mode = ModeLines
	}

	out.Line = LineProps{
		Color: s.LineColor,
		Width: s.LineWidth,
		Dash:  s.LineDash,
	}

	if drawPoints {
		out.Marker = &MarkerProps{
			Color:     s.PointFillColor,
			Size:      s.PointSize,
			Symbol:    s.PointSymbol,
			LineColor: s.PointLineColor,
		}
	}

	out.Name = s.Label
	return out
}
