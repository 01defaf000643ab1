package style

import "strings"

// keyFields is the read contract shared by Match and Query. Every field a
// comparator looks at must be exposed here.
type keyFields interface {
	kind() Kind
	parameter() string
	seriesName() string
	seriesIndex() (int, bool)
}

func (m Match) kind() Kind         { return m.Kind }
func (m Match) parameter() string  { return m.Parameter }
func (m Match) seriesName() string { return m.SeriesName }
func (m Match) seriesIndex() (int, bool) {
	if m.SeriesIndex == nil {
		return 0, false
	}
	return *m.SeriesIndex, true
}

func (q Query) kind() Kind         { return q.Kind }
func (q Query) parameter() string  { return q.Parameter }
func (q Query) seriesName() string { return q.SeriesName }
func (q Query) seriesIndex() (int, bool) {
	if q.SeriesIndex == nil {
		return 0, false
	}
	return *q.SeriesIndex, true
}

// fieldComparator scores one dimension of a key. A dimension absent on
// either side contributes nothing.
type fieldComparator struct {
	name  string
	score func(rule, query keyFields) int
}

var comparators = []fieldComparator{
	{name: "kind", score: scoreKind},
	{name: "parameter", score: scoreParameter},
	{name: "seriesName", score: scoreSeriesName},
	{name: "seriesIndex", score: scoreSeriesIndex},
}

func scoreKind(rule, query keyFields) int {
	if rule.kind() != "" && query.kind() != "" && rule.kind() == query.kind() {
		return 3
	}
	return 0
}

func scoreParameter(rule, query keyFields) int {
	rp := CanonicalParameter(rule.parameter())
	qp := CanonicalParameter(query.parameter())
	if rp == "" || qp == "" || rp != qp {
		return 0
	}
	s := 3
	// exact authoring beats an alias hit
	if strings.ToUpper(rule.parameter()) == strings.ToUpper(query.parameter()) {
		s++
	}
	return s
}

func scoreSeriesName(rule, query keyFields) int {
	if rule.seriesName() != "" && query.seriesName() != "" &&
		strings.EqualFold(rule.seriesName(), query.seriesName()) {
		return 2
	}
	return 0
}

func scoreSeriesIndex(rule, query keyFields) int {
	ri, rok := rule.seriesIndex()
	qi, qok := query.seriesIndex()
	if rok && qok && ri == qi {
		return 1
	}
	return 0
}

// Score sums the per-field comparators for a rule key against a query.
func Score(rule Match, query Query) int {
	total := 0
	for _, c := range comparators {
		total += c.score(rule, query)
	}
	return total
}

// Breakdown returns the per-field contribution to Score, keyed by field name.
func Breakdown(rule Match, query Query) map[string]int {
	out := make(map[string]int, len(comparators))
	for _, c := range comparators {
		if s := c.score(rule, query); s > 0 {
			out[c.name] = s
		}
	}
	return out
}

// Resolve returns the style of the highest scoring rule. Ties go to the rule
// later in the list. A rule scoring zero never matches, so an all-wildcard
// rule cannot capture every series.
func Resolve(rules []SeriesRule, query Query) (SeriesStyle, bool) {
	best := -1
	bestScore := 0
	for i, rule := range rules {
		s := Score(rule.Match, query)
		if s <= 0 {
			continue
		}
		if best < 0 || s > bestScore || (s == bestScore && i > best) {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return SeriesStyle{}, false
	}
	return rules[best].Style, true
}

// Candidate is one matching rule seen by Explain
type Candidate struct {
	Index    int            `json:"index" yaml:"index"`
	Score    int            `json:"score" yaml:"score"`
	Fields   map[string]int `json:"fields" yaml:"fields"`
	Rule     SeriesRule     `json:"rule" yaml:"rule"`
	Selected bool           `json:"selected" yaml:"selected"`
}

// Explain lists every rule with a positive score in list order and marks the
// one Resolve would pick.
func Explain(rules []SeriesRule, query Query) []Candidate {
	var out []Candidate
	selected := -1
	for i, rule := range rules {
		s := Score(rule.Match, query)
		if s <= 0 {
			continue
		}
		out = append(out, Candidate{
			Index:  i,
			Score:  s,
			Fields: Breakdown(rule.Match, query),
			Rule:   rule,
		})
		if selected < 0 || s >= out[selected].Score {
			selected = len(out) - 1
		}
	}
	if selected >= 0 {
		out[selected].Selected = true
	}
	return out
}

// Resolver looks up the style for a series
type Resolver interface {
	Resolve(query Query) (SeriesStyle, bool)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(query Query) (SeriesStyle, bool)

// Resolve calls f
func (f ResolverFunc) Resolve(query Query) (SeriesStyle, bool) {
	return f(query)
}

// Resolve resolves against the rule list; a nil receiver never matches.
func (d *PlotStyleDefaults) Resolve(query Query) (SeriesStyle, bool) {
	if d == nil {
		return SeriesStyle{}, false
	}
	return Resolve(d.Rules, query)
}
