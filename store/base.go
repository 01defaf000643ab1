package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dlblack/sad-sandbox-sub000/style"
)

// DefaultKey is the key holding the serialized user overrides
const DefaultKey = "plotStyleOverridesV1"

func solidFlowRule(kind style.Kind) style.SeriesRule {
	return style.SeriesRule{
		Match: style.Match{Kind: kind, Parameter: "FLOW"},
		Style: style.SeriesStyle{
			DrawLine:   style.Bool(true),
			DrawPoints: style.Bool(false),
			LineWidth:  style.Float(2),
			LineDash:   style.DashSolid,
		},
	}
}

// BaseDefaults returns the built-in rule set. It is never persisted and each
// call returns a fresh value.
func BaseDefaults() style.PlotStyleDefaults {
	return style.PlotStyleDefaults{
		Rules: []style.SeriesRule{
			solidFlowRule(style.KindTimeSeries),
			solidFlowRule(style.KindPairedXY),
			solidFlowRule(style.KindFrequencyCurve),
		},
	}
}

// MergeDefaults concatenates base and user rules, base first, into a new
// list. Neither input is modified.
func MergeDefaults(base, user style.PlotStyleDefaults) style.PlotStyleDefaults {
	rules := make([]style.SeriesRule, 0, len(base.Rules)+len(user.Rules))
	rules = append(rules, base.Rules...)
	rules = append(rules, user.Rules...)
	return style.PlotStyleDefaults{Rules: rules}
}

// LoadDefaultsFile reads a rule set from a YAML or JSON file. The format is
// chosen by extension; anything other than .json is parsed as YAML.
func LoadDefaultsFile(path string) (style.PlotStyleDefaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return style.PlotStyleDefaults{}, fmt.Errorf("reading defaults: %w", err)
	}
	d, err := DecodeDefaults(data, filepath.Ext(path))
	if err != nil {
		return style.PlotStyleDefaults{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// DecodeDefaults parses a rule set in the format named by ext (".json",
// ".yaml", ".yml") and validates it.
func DecodeDefaults(data []byte, ext string) (style.PlotStyleDefaults, error) {
	var d style.PlotStyleDefaults
	switch strings.ToLower(ext) {
	case ".json", "json":
		if err := json.Unmarshal(data, &d); err != nil {
			return style.PlotStyleDefaults{}, fmt.Errorf("parsing defaults json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &d); err != nil {
			return style.PlotStyleDefaults{}, fmt.Errorf("parsing defaults yaml: %w", err)
		}
	}
	if err := d.Validate(); err != nil {
		return style.PlotStyleDefaults{}, err
	}
	if d.Rules == nil {
		d.Rules = []style.SeriesRule{}
	}
	return d, nil
}

// EncodeDefaults renders a rule set as indented JSON or as YAML
func EncodeDefaults(d style.PlotStyleDefaults, ext string) ([]byte, error) {
	if d.Rules == nil {
		d.Rules = []style.SeriesRule{}
	}
	switch strings.ToLower(ext) {
	case ".json", "json":
		return json.MarshalIndent(d, "", "  ")
	default:
		return yaml.Marshal(d)
	}
}
