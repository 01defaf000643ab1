package style

// Rule list edits never touch the receiver's backing array; each returns a
// fresh list so readers holding the old one are unaffected.

// WithRule returns d with rule appended
func (d PlotStyleDefaults) WithRule(rule SeriesRule) PlotStyleDefaults {
	out := d.Clone()
	out.Rules = append(out.Rules, rule.Clone())
	return out
}

// WithReplaced returns d with the rule at index i replaced. ok is false when
// i is out of range.
func (d PlotStyleDefaults) WithReplaced(i int, rule SeriesRule) (PlotStyleDefaults, bool) {
	if i < 0 || i >= len(d.Rules) {
		return d, false
	}
	out := d.Clone()
	out.Rules[i] = rule.Clone()
	return out, true
}

// Without returns d with the rule at index i removed. ok is false when i is
// out of range.
func (d PlotStyleDefaults) Without(i int) (PlotStyleDefaults, bool) {
	if i < 0 || i >= len(d.Rules) {
		return d, false
	}
	out := d.Clone()
	out.Rules = append(out.Rules[:i], out.Rules[i+1:]...)
	return out, true
}
