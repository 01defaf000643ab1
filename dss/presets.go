package dss

import (
	"github.com/dlblack/sad-sandbox-sub000/style"
)

// Series keys produced by a peak flow frequency analysis
const (
	SeriesLowerConfidence = "CL-05"
	SeriesUpperConfidence = "CL-95"
	SeriesComputed        = "COMPUTED"
	SeriesSystematic      = "SYSTEMATIC"
)

var peakFlowPresets = map[string]style.SeriesStyle{
	SeriesLowerConfidence: {
		DrawLine:  style.Bool(true),
		LineWidth: style.Float(2),
		LineDash:  style.DashDash,
		LineColor: "rgb(220,50,47)",
		Label:     "5th Confidence Limit",
	},
	SeriesUpperConfidence: {
		DrawLine:  style.Bool(true),
		LineWidth: style.Float(2),
		LineDash:  style.DashDash,
		LineColor: "rgb(220,50,47)",
		Label:     "95th Confidence Limit",
	},
	SeriesComputed: {
		DrawLine:  style.Bool(true),
		LineWidth: style.Float(3),
		LineColor: "black",
		Label:     "Computed Curve",
	},
	SeriesSystematic: {
		DrawLine:       style.Bool(false),
		DrawPoints:     style.Bool(true),
		PointSize:      style.Float(6),
		PointSymbol:    "diamond",
		PointFillColor: "rgb(30,30,30)",
		Label:          "Systematic Record",
	},
}

// presetOrder keeps PeakFlowFrequencyRules deterministic
var presetOrder = []string{SeriesLowerConfidence, SeriesUpperConfidence, SeriesComputed, SeriesSystematic}

// PeakFlowFrequencyStyle returns the preset style for a frequency-curve
// pathname, keyed by its F part. Unknown keys get a plain 2px line labelled
// with the key, or the whole path when the key is blank.
func PeakFlowFrequencyStyle(path string) style.SeriesStyle {
	key := FPart(path)
	if preset, ok := peakFlowPresets[key]; ok {
		return preset.Clone()
	}
	label := key
	if label == "" {
		label = path
	}
	return style.SeriesStyle{
		DrawLine:  style.Bool(true),
		LineWidth: style.Float(2),
		Label:     label,
	}
}

// PeakFlowFrequencyRules exposes the presets as frequency-curve rules keyed
// by series name, suitable for appending to a base rule set.
func PeakFlowFrequencyRules() []style.SeriesRule {
	rules := make([]style.SeriesRule, 0, len(presetOrder))
	for _, key := range presetOrder {
		rules = append(rules, style.SeriesRule{
			Match: style.Match{Kind: style.KindFrequencyCurve, SeriesName: key},
			Style: peakFlowPresets[key].Clone(),
		})
	}
	return rules
}
