package plot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlblack/sad-sandbox-sub000/style"
)

func TestProbabilityLabel(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 1, want: "1"},
		{in: 0.99, want: "0.99"},
		{in: 0.9, want: "0.9"},
		{in: 0.5, want: "0.5"},
		{in: 0.1, want: "0.1"},
		{in: 0.01, want: "0.01"},
		{in: 0.001, want: "0.001"},
		{in: 0.5000004, want: "0.5"},
		{in: 0.025, want: "0.025"},
		{in: 0.3333, want: "0.33"},
		{in: 0.2, want: "0.2"},
		{in: 0.0123456, want: "0.012"},
		{in: 0.00123456, want: "0.00123"},
		{in: 0.002, want: "0.002"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ProbabilityLabel(tt.in), "%v", tt.in)
	}
}

func TestLogDecades(t *testing.T) {
	assert.Equal(t, []float64{100, 1000, 10000, 100000}, LogDecades([]float64{150, 42000}, 0))
	assert.Equal(t, []float64{1000, 10000, 100000}, LogDecades([]float64{1000, 100000}, 0), "exact powers are their own decade")
	assert.Equal(t, []float64{1, 10}, LogDecades(nil, 0))
	assert.Equal(t, []float64{1, 10}, LogDecades([]float64{-5, 0}, 0))
	assert.Equal(t, []float64{1, 10, 100, 1000}, LogDecades([]float64{150, 420}, 1))
	assert.Equal(t, []float64{0.01, 0.1, 1}, LogDecades([]float64{0.05, 0.5}, 0))

	axis := logAxis([]float64{150, 42000}, "Flow (cfs)", 0)
	assert.Equal(t, "log", axis.Type)
	assert.Equal(t, []float64{2, 5}, axis.Range)
	assert.Equal(t, []string{"100", "1,000", "10,000", "100,000"}, axis.TickText)
	assert.Equal(t, "D1", axis.Minor.DTick)
}

func TestLogAxisHugeDecades(t *testing.T) {
	axis := logAxis([]float64{5e18, 4e19}, "Flow (cfs)", 0)
	assert.Equal(t, []float64{18, 20}, axis.Range)
	assert.Equal(t, []string{
		"1,000,000,000,000,000,000",
		"10,000,000,000,000,000,000",
		"100,000,000,000,000,000,000",
	}, axis.TickText)
	for _, text := range axis.TickText {
		assert.NotContains(t, text, "-")
	}
}

func TestReprojectWithGaps(t *testing.T) {
	req := Request{
		Kind:  style.KindPairedXY,
		Input: Data{Series: []Series{{Name: "partial", X: []any{"A", "C"}, Y: []any{1.0, 3.0}}}},
		Options: Options{
			Labels: []any{"A", "B", "C"},
		},
	}

	built := BuildPairedCategory(req, nil)
	require.Len(t, built.Data, 1)
	assert.Equal(t, []any{"A", "B", "C"}, built.Data[0].X)
	assert.Equal(t, []any{1.0, nil, 3.0}, built.Data[0].Y)
	require.NotNil(t, built.Data[0].ConnectGaps)
	assert.True(t, *built.Data[0].ConnectGaps)

	raw, err := json.Marshal(built.Data[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"y":[1,null,3]`)
	assert.Contains(t, string(raw), `"connectgaps":true`)
}

func TestPairedProbabilityAxis(t *testing.T) {
	req := Request{
		Kind: style.KindFrequencyCurve,
		Input: Data{Series: []Series{
			{Name: "COMPUTED", X: []any{0.5, 0.1, 0.0100000001}, Y: []any{800, 2000, 5000}},
			{Name: "CL-95", X: []any{"0.5", 0.01}, Y: []any{900, "bad"}},
		}},
		YLabel: "Flow (cfs)",
		Options: Options{
			XReverse: true,
			YScale:   ScaleLog,
			StyleMap: map[string]Trace{
				"COMPUTED": {Line: &Line{Color: "black"}, X: []any{"ignored"}},
			},
			XAxis: &Axis{Title: &Title{Text: "Exceedance Probability"}},
		},
	}

	resolver := style.ResolverFunc(func(q style.Query) (style.SeriesStyle, bool) {
		assert.Equal(t, style.KindFrequencyCurve, q.Kind)
		return style.SeriesStyle{LineColor: "red", LineWidth: style.Float(2)}, true
	})

	built := BuildPairedCategory(req, resolver)
	require.Len(t, built.Data, 2)

	computed := built.Data[0]
	assert.Equal(t, []any{"0.5", "0.1", "0.01"}, computed.X)
	assert.Equal(t, []any{800.0, 2000.0, 5000.0}, computed.Y)
	assert.Equal(t, "black", computed.Line.Color, "style map beats resolved style")
	assert.Equal(t, 2.0, *computed.Line.Width)

	cl95 := built.Data[1]
	assert.Equal(t, []any{900.0, nil, nil}, cl95.Y)
	assert.Equal(t, "red", cl95.Line.Color)

	assert.Equal(t, []string{"0.01", "0.1", "0.5"}, built.Layout.XAxis.CategoryArray)
	assert.Equal(t, "category", built.Layout.XAxis.Type)
	assert.Equal(t, "Exceedance Probability", built.Layout.XAxis.Title.Text)

	assert.Equal(t, []float64{100, 1000, 10000}, built.Layout.YAxis.TickVals)
	assert.Equal(t, []float64{2, 4}, built.Layout.YAxis.Range)
	assert.Equal(t, 450, built.Layout.Height)
	assert.Equal(t, 220, built.Layout.Margin.R)
}

func TestPairedStringLabels(t *testing.T) {
	req := Request{Input: Data{Series: []Series{
		{X: []any{" Jan ", "Feb", 3.0}, Y: []any{1, 2, 3}},
	}}}

	built := BuildPairedCategory(req, nil)
	assert.Equal(t, []any{"Jan", "Feb", "3"}, built.Data[0].X)
	assert.Equal(t, "linear", built.Layout.YAxis.Type)
	assert.Equal(t, "scatter", built.Data[0].Type)
	assert.Equal(t, "lines", built.Data[0].Mode)
}

func TestPairedEmpty(t *testing.T) {
	built := Build(NormalizeJSON([]byte(`garbage`)), nil)
	assert.NotNil(t, built.Data)
	assert.Empty(t, built.Data)
	assert.Empty(t, built.Layout.XAxis.CategoryArray)

	raw, err := json.Marshal(built)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[]`)
}

func TestTimeSeries(t *testing.T) {
	x := []any{"2024-01-01T00:00:00Z", "2024-01-01T01:00:00Z"}
	y := []any{10.0, 12.0}

	var got style.Query
	resolver := style.ResolverFunc(func(q style.Query) (style.SeriesStyle, bool) {
		got = q
		return style.SeriesStyle{
			DrawLine:   style.Bool(true),
			DrawPoints: style.Bool(true),
			LineColor:  "blue",
			LineDash:   style.DashDot,
			PointSize:  style.Float(4),
		}, true
	})

	req := Request{
		Kind:    style.KindTimeSeries,
		Input:   Data{Series: []Series{{Name: "Obs", X: x, Y: y}}},
		Options: Options{Stepped: true, Parameter: "Discharge", ShowRangeSlider: true},
		YLabel:  "Flow (cfs)",
	}
	built := BuildTimeSeries(req, resolver)

	assert.Equal(t, style.KindTimeSeries, got.Kind)
	assert.Equal(t, "FLOW", got.Parameter)
	assert.Equal(t, "Obs", got.SeriesName)
	require.NotNil(t, got.SeriesIndex)
	assert.Equal(t, 0, *got.SeriesIndex)

	require.Len(t, built.Data, 1)
	trace := built.Data[0]
	assert.Equal(t, "scatter", trace.Type)
	assert.Equal(t, x, trace.X)
	assert.Equal(t, y, trace.Y)
	assert.Equal(t, "lines+markers", trace.Mode)
	assert.Equal(t, "hv", trace.Line.Shape)
	assert.Equal(t, "blue", trace.Line.Color)
	assert.Equal(t, "dot", trace.Line.Dash)
	assert.Equal(t, 4.0, *trace.Marker.Size)

	assert.Equal(t, "date", built.Layout.XAxis.Type)
	assert.Equal(t, "Time", built.Layout.XAxis.Title.Text)
	assert.True(t, built.Layout.XAxis.RangeSlider.Visible)
	assert.Equal(t, "Flow (cfs)", built.Layout.YAxis.Title.Text)
}

func TestTimeSeriesDefaults(t *testing.T) {
	built := BuildTimeSeries(Request{}, nil)
	require.Len(t, built.Data, 1)
	assert.Equal(t, "linear", built.Data[0].Line.Shape)
	assert.Equal(t, "lines", built.Data[0].Mode)
	assert.Equal(t, []any{}, built.Data[0].X)
	assert.False(t, built.Layout.XAxis.RangeSlider.Visible)
}

func TestBuildWithDefaults(t *testing.T) {
	defaults := &style.PlotStyleDefaults{Rules: []style.SeriesRule{
		{Match: style.Match{Kind: style.KindTimeSeries, Parameter: "FLOW"}, Style: style.SeriesStyle{LineColor: "navy"}},
		{Match: style.Match{Kind: style.KindTimeSeries, Parameter: "STAGE"}, Style: style.SeriesStyle{LineColor: "green"}},
	}}

	built := BuildJSON([]byte(`{"x": ["2024-01-01T00:00:00Z"], "y": [1], "parameter": "Q"}`), defaults)
	assert.Equal(t, "navy", built.Data[0].Line.Color)

	built = BuildJSON([]byte(`{"x": ["2024-01-01T00:00:00Z"], "y": [1], "pathname": "/A/B/ELEV/D/E/F/"}`), defaults)
	assert.Equal(t, "green", built.Data[0].Line.Color)
}

func TestDispatch(t *testing.T) {
	ts := Data{Series: []Series{{X: []any{"2024-01-01T00:00:00Z"}}}}
	paired := Data{Series: []Series{{X: []any{1}}}}

	tests := []struct {
		name     string
		req      Request
		wantDate bool
	}{
		{name: "time series", req: Request{Kind: style.KindTimeSeries, Input: paired}, wantDate: true},
		{name: "paired", req: Request{Kind: style.KindPairedXY, Input: ts}},
		{name: "frequency curve", req: Request{Kind: style.KindFrequencyCurve, Input: ts}},
		{name: "unknown kind, time data", req: Request{Kind: style.KindScatter, Input: ts}, wantDate: true},
		{name: "unknown kind, paired data", req: Request{Kind: "histogram", Input: paired}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			built := Build(tt.req, nil)
			assert.Equal(t, tt.wantDate, built.Layout.XAxis.Type == "date")
		})
	}
}

func TestOverlayKeepsStructure(t *testing.T) {
	base := Trace{Type: "scatter", X: []any{1}, Y: []any{2}, Line: &Line{Shape: "hv"}}
	out := base.Overlay(Trace{Type: "bar", X: []any{9}, Mode: "markers", Line: &Line{Color: "red"}})

	assert.Equal(t, "scatter", out.Type)
	assert.Equal(t, []any{1}, out.X)
	assert.Equal(t, "markers", out.Mode)
	assert.Equal(t, "hv", out.Line.Shape)
	assert.Equal(t, "red", out.Line.Color)
	assert.Empty(t, base.Line.Color, "overlay does not modify the base")
}

func TestAxisMerge(t *testing.T) {
	a := Axis{Type: "category", CategoryArray: []string{"a"}}
	merged := a.Merge(Axis{GridColor: "gray", ZeroLine: boolPtr(false)})
	assert.Equal(t, "category", merged.Type)
	assert.Equal(t, []string{"a"}, merged.CategoryArray)
	assert.Equal(t, "gray", merged.GridColor)
	assert.False(t, *merged.ZeroLine)
}
