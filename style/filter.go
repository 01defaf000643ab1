package style

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ruleEnv is the variable set a filter expression sees for one rule
type ruleEnv struct {
	Index          int     `expr:"index"`
	Kind           string  `expr:"kind"`
	Parameter      string  `expr:"parameter"`
	Canonical      string  `expr:"canonical"`
	AnalysisName   string  `expr:"analysisName"`
	SeriesName     string  `expr:"seriesName"`
	SeriesIndex    int     `expr:"seriesIndex"`
	HasSeriesIndex bool    `expr:"hasSeriesIndex"`
	DrawLine       bool    `expr:"drawLine"`
	DrawPoints     bool    `expr:"drawPoints"`
	LineColor      string  `expr:"lineColor"`
	LineWidth      float64 `expr:"lineWidth"`
	LineDash       string  `expr:"lineDash"`
	PointSymbol    string  `expr:"pointSymbol"`
	Label          string  `expr:"label"`
}

func envFor(i int, rule SeriesRule) ruleEnv {
	env := ruleEnv{
		Index:        i,
		Kind:         string(rule.Match.Kind),
		Parameter:    rule.Match.Parameter,
		Canonical:    CanonicalParameter(rule.Match.Parameter),
		AnalysisName: rule.Match.AnalysisName,
		SeriesName:   rule.Match.SeriesName,
		SeriesIndex:  -1,
		LineColor:    rule.Style.LineColor,
		LineDash:     string(rule.Style.LineDash),
		PointSymbol:  rule.Style.PointSymbol,
		Label:        rule.Style.Label,
	}
	if rule.Match.SeriesIndex != nil {
		env.SeriesIndex = *rule.Match.SeriesIndex
		env.HasSeriesIndex = true
	}
	if rule.Style.DrawLine != nil {
		env.DrawLine = *rule.Style.DrawLine
	}
	if rule.Style.DrawPoints != nil {
		env.DrawPoints = *rule.Style.DrawPoints
	}
	if rule.Style.LineWidth != nil {
		env.LineWidth = *rule.Style.LineWidth
	}
	return env
}

// IndexedRule is a rule together with its position in the source list
type IndexedRule struct {
	Index int        `json:"index" yaml:"index"`
	Rule  SeriesRule `json:"rule" yaml:"rule"`
}

// RuleFilter is a compiled boolean expression over rule fields, e.g.
// `canonical == "FLOW" && kind == "time_series"`.
type RuleFilter struct {
	program *vm.Program
	source  string
}

// CompileFilter compiles expression. An empty expression matches every rule.
func CompileFilter(expression string) (*RuleFilter, error) {
	if expression == "" {
		return &RuleFilter{}, nil
	}
	program, err := expr.Compile(expression, expr.Env(ruleEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling filter: %w", err)
	}
	return &RuleFilter{program: program, source: expression}, nil
}

// Match reports whether the rule at index i satisfies the filter
func (f *RuleFilter) Match(i int, rule SeriesRule) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, envFor(i, rule))
	if err != nil {
		return false, fmt.Errorf("evaluating filter %q on rule %d: %w", f.source, i, err)
	}
	matched, _ := out.(bool)
	return matched, nil
}

// Filter returns the rules matching expression, keeping their indexes.
func Filter(rules []SeriesRule, expression string) ([]IndexedRule, error) {
	f, err := CompileFilter(expression)
	if err != nil {
		return nil, err
	}
	out := make([]IndexedRule, 0, len(rules))
	for i, rule := range rules {
		ok, err := f.Match(i, rule)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, IndexedRule{Index: i, Rule: rule})
		}
	}
	return out, nil
}
