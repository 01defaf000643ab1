package plot

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/dlblack/sad-sandbox-sub000/style"
)

// ParseInput decodes caller JSON of any shape into an Input. Malformed or
// non-object JSON gives an unusable Input rather than an error.
func ParseInput(data []byte) Input {
	if !gjson.ValidBytes(data) {
		return Input{}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Input{}
	}

	in := Input{Hints: hintsFrom(root)}

	if input := root.Get("input"); input.IsObject() {
		req := requestFrom(root)
		in.Request = &req
		return in
	}

	x, y := root.Get("x"), root.Get("y")
	if x.IsArray() && y.IsArray() {
		in.X = values(x)
		in.Y = values(y)
		in.Name = root.Get("name").String()
		in.Title = root.Get("title").String()
		in.XLabel = root.Get("xLabel").String()
		in.YLabel = root.Get("yLabel").String()
		in.Stepped = root.Get("stepped").Bool()
		in.ShowRangeSlider = root.Get("showRangeSlider").Bool()
		if labels := root.Get("labels"); labels.IsArray() {
			in.Labels = values(labels)
		}
		in.XReverse = root.Get("xReverse").Bool()
		in.YScale = Scale(root.Get("yScale").String())
		in.YMinDecade = root.Get("yMinDecade").Float()
		in.StyleMap = styleMapFrom(root.Get("styleMap"))
		in.XAxis = axisFrom(root.Get("xaxis"))
		return in
	}

	in.YLabel = root.Get("yLabel").String()
	return in
}

// NormalizeJSON parses data and normalizes it
func NormalizeJSON(data []byte) Request {
	return Normalize(ParseInput(data))
}

func hintsFrom(root gjson.Result) Hints {
	return Hints{
		Parameter:        stringOnly(root.Get("parameter")),
		DatasetParameter: stringOnly(root.Get("dataset.parameter")),
		MetaParameter:    stringOnly(root.Get("meta.parameter")),
		Pathname:         stringList(root.Get("pathname")),
		Pathnames:        stringList(root.Get("pathnames")),
	}
}

func requestFrom(root gjson.Result) Request {
	req := Request{
		Kind:   style.Kind(stringOnly(root.Get("kind"))),
		Title:  root.Get("title").String(),
		XLabel: root.Get("x_label").String(),
		YLabel: root.Get("y_label").String(),
	}

	input := root.Get("input")
	if series := input.Get("series"); series.IsArray() {
		req.Input.Series = make([]Series, 0, len(series.Array()))
		for _, s := range series.Array() {
			req.Input.Series = append(req.Input.Series, seriesFrom(s))
		}
	}
	if table := input.Get("table"); table.IsObject() {
		req.Input.Table = tableFrom(table)
	}

	options := root.Get("options")
	req.Options = Options{
		Parameter:       stringOnly(options.Get("parameter")),
		Stepped:         options.Get("stepped").Bool(),
		ShowRangeSlider: options.Get("showRangeSlider").Bool(),
		XReverse:        options.Get("xReverse").Bool(),
		YScale:          Scale(options.Get("yScale").String()),
		YMinDecade:      options.Get("yMinDecade").Float(),
		StyleMap:        styleMapFrom(options.Get("styleMap")),
		XAxis:           axisFrom(options.Get("xaxis")),
	}
	if labels := options.Get("labels"); labels.IsArray() {
		req.Options.Labels = values(labels)
	}
	return req
}

func seriesFrom(r gjson.Result) Series {
	s := Series{
		Name: stringOnly(r.Get("name")),
		X:    values(r.Get("x")),
		Y:    values(r.Get("y")),
	}
	if meta := r.Get("meta"); meta.IsObject() {
		s.Meta, _ = resultValue(meta).(map[string]any)
	}
	return s
}

func tableFrom(r gjson.Result) *DataTable {
	t := &DataTable{Fields: stringList(r.Get("fields"))}
	for _, row := range r.Get("rows").Array() {
		if m, ok := resultValue(row).(map[string]any); ok {
			t.Rows = append(t.Rows, m)
		}
	}
	return t
}

func styleMapFrom(r gjson.Result) map[string]Trace {
	if !r.IsObject() {
		return nil
	}
	var out map[string]Trace
	if err := json.Unmarshal([]byte(r.Raw), &out); err != nil {
		return nil
	}
	return out
}

func axisFrom(r gjson.Result) *Axis {
	if !r.IsObject() {
		return nil
	}
	var out Axis
	if err := json.Unmarshal([]byte(r.Raw), &out); err != nil {
		return nil
	}
	return &out
}

// values decodes a JSON array; anything else is an empty list
func values(r gjson.Result) []any {
	if !r.IsArray() {
		return []any{}
	}
	arr := r.Array()
	out := make([]any, len(arr))
	for i, v := range arr {
		out[i] = resultValue(v)
	}
	return out
}

func resultValue(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		if r.Float() == float64(r.Int()) {
			return r.Int()
		}
		return r.Float()
	case gjson.String:
		return r.String()
	case gjson.JSON:
		if r.IsArray() {
			return values(r)
		}
		m := make(map[string]any)
		for k, v := range r.Map() {
			m[k] = resultValue(v)
		}
		return m
	default:
		return nil
	}
}

func stringOnly(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	return r.String()
}

// stringList accepts a string or a list and keeps only the strings
func stringList(r gjson.Result) []string {
	switch {
	case r.Type == gjson.String:
		return []string{r.String()}
	case r.IsArray():
		var out []string
		for _, v := range r.Array() {
			if v.Type == gjson.String {
				out = append(out, v.String())
			}
		}
		return out
	default:
		return nil
	}
}
