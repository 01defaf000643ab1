package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dlblack/sad-sandbox-sub000/store"
	"github.com/dlblack/sad-sandbox-sub000/style"
)

func newRulesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List and edit plot style rules",
		Long: `The rules command group reads the merged rule list and edits the user
overrides. Indexes given to replace and remove refer to the user override
list as shown by "rules list --scope user".`,
	}

	cmd.AddCommand(newRulesListCmd(flags))
	cmd.AddCommand(newRulesAddCmd(flags))
	cmd.AddCommand(newRulesReplaceCmd(flags))
	cmd.AddCommand(newRulesRemoveCmd(flags))
	cmd.AddCommand(newRulesImportCmd(flags))
	cmd.AddCommand(newRulesExportCmd(flags))
	cmd.AddCommand(newRulesResetCmd(flags))
	cmd.AddCommand(newRulesHistoryCmd(flags))
	cmd.AddCommand(newRulesRestoreCmd(flags))
	return cmd
}

func rulesInScope(ctx context.Context, a *app, scope string) (style.PlotStyleDefaults, error) {
	switch scope {
	case "", "merged":
		return a.store.Merged().Clone(), nil
	case "user":
		return a.store.UserOverrides(ctx), nil
	case "base":
		return a.store.Base(), nil
	default:
		return style.PlotStyleDefaults{}, fmt.Errorf("unknown scope %q (want merged, user or base)", scope)
	}
}

func newRulesListCmd(flags *globalFlags) *cobra.Command {
	var (
		filter string
		format string
		scope  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules",
		Long: `List rules with an optional filter expression.

Filter expressions see: index, kind, parameter, canonical, analysisName,
seriesName, seriesIndex, hasSeriesIndex, drawLine, drawPoints, lineColor,
lineWidth, lineDash, pointSymbol, label.

Examples:
  # Every rule for flow, whatever alias it was written with
  plotstyle rules list --filter 'canonical == "FLOW"'

  # User overrides as YAML
  plotstyle rules list --scope user --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			rules, err := rulesInScope(ctx, a, scope)
			if err != nil {
				return err
			}
			matched, err := style.Filter(rules.Rules, filter)
			if err != nil {
				return err
			}

			return output(cmd.OutOrStdout(), format, matched, func(w io.Writer) error {
				return rulesTable(w, matched)
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Filter expression")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json, yaml)")
	cmd.Flags().StringVar(&scope, "scope", "merged", "Rule list to show (merged, user, base)")
	return cmd
}

func optionalInt(i *int) string {
	if i == nil {
		return "-"
	}
	return strconv.Itoa(*i)
}

func optionalFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func rulesTable(w io.Writer, rules []style.IndexedRule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "INDEX\tKIND\tPARAMETER\tSERIES\tSERIES INDEX\tMODE\tCOLOR\tWIDTH\tDASH\tLABEL")
	for _, r := range rules {
		m, s := r.Rule.Match, r.Rule.Style
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Index, orDash(string(m.Kind)), orDash(m.Parameter), orDash(m.SeriesName),
			optionalInt(m.SeriesIndex), style.ToTraceStyle(s).Mode, orDash(s.LineColor),
			optionalFloat(s.LineWidth), orDash(string(s.LineDash)), orDash(s.Label))
	}
	return nil
}

// ruleFlags builds a rule from command line flags
type ruleFlags struct {
	kind         string
	parameter    string
	analysisName string
	seriesName   string
	seriesIndex  int

	drawLine       bool
	drawPoints     bool
	lineColor      string
	lineWidth      float64
	lineDash       string
	pointFillColor string
	pointLineColor string
	pointSize      float64
	pointSymbol    string
	label          string
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.kind, "kind", "", "Plot kind to match (time_series, paired_xy, frequency_curve, ...)")
	fs.StringVar(&f.parameter, "parameter", "", "Parameter to match; aliases such as Q or DISCHARGE match FLOW")
	fs.StringVar(&f.analysisName, "analysis-name", "", "Analysis name recorded on the rule")
	fs.StringVar(&f.seriesName, "series-name", "", "Series name to match (case-insensitive)")
	fs.IntVar(&f.seriesIndex, "series-index", 0, "Series index to match")

	fs.BoolVar(&f.drawLine, "draw-line", true, "Draw the line")
	fs.BoolVar(&f.drawPoints, "draw-points", false, "Draw points")
	fs.StringVar(&f.lineColor, "line-color", "", "Line color")
	fs.Float64Var(&f.lineWidth, "line-width", 0, "Line width")
	fs.StringVar(&f.lineDash, "line-dash", "", "Line dash (solid, dash, dot, dashdot, longdash, longdashdot)")
	fs.StringVar(&f.pointFillColor, "point-fill", "", "Point fill color")
	fs.StringVar(&f.pointLineColor, "point-line", "", "Point outline color")
	fs.Float64Var(&f.pointSize, "point-size", 0, "Point size")
	fs.StringVar(&f.pointSymbol, "point-symbol", "", "Point symbol")
	fs.StringVar(&f.label, "label", "", "Legend label override")
}

func (f *ruleFlags) rule(cmd *cobra.Command) (style.SeriesRule, error) {
	changed := cmd.Flags().Changed

	rule := style.SeriesRule{
		Match: style.Match{
			Kind:         style.Kind(f.kind),
			Parameter:    f.parameter,
			AnalysisName: f.analysisName,
			SeriesName:   f.seriesName,
		},
		Style: style.SeriesStyle{
			LineColor:      f.lineColor,
			LineDash:       style.LineDash(f.lineDash),
			PointFillColor: f.pointFillColor,
			PointLineColor: f.pointLineColor,
			PointSymbol:    f.pointSymbol,
			Label:          f.label,
		},
	}
	if changed("series-index") {
		rule.Match.SeriesIndex = style.Int(f.seriesIndex)
	}
	if changed("draw-line") {
		rule.Style.DrawLine = style.Bool(f.drawLine)
	}
	if changed("draw-points") {
		rule.Style.DrawPoints = style.Bool(f.drawPoints)
	}
	if changed("line-width") {
		rule.Style.LineWidth = style.Float(f.lineWidth)
	}
	if changed("point-size") {
		rule.Style.PointSize = style.Float(f.pointSize)
	}

	if rule.Match == (style.Match{}) {
		return rule, fmt.Errorf("a rule needs at least one of --kind, --parameter, --series-name or --series-index")
	}
	if err := rule.Style.Validate(); err != nil {
		return rule, err
	}
	return rule, nil
}

func warnUnknownKind(a *app, kind style.Kind) {
	if kind != "" && !kind.Valid() {
		a.logger.Warn("rule kind is not a known plot kind", slog.String("kind", string(kind)))
	}
}

func newRulesAddCmd(flags *globalFlags) *cobra.Command {
	rf := &ruleFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a user override rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := rf.rule(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			warnUnknownKind(a, rule.Match.Kind)
			if err := a.store.AddRule(ctx, rule); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added rule %d\n", len(a.store.UserOverrides(ctx).Rules)-1)
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}

func parseIndex(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid rule index %q", arg)
	}
	return i, nil
}

func newRulesReplaceCmd(flags *globalFlags) *cobra.Command {
	rf := &ruleFlags{}

	cmd := &cobra.Command{
		Use:   "replace <index>",
		Short: "Replace a user override rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			rule, err := rf.rule(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			warnUnknownKind(a, rule.Match.Kind)
			if err := a.store.ReplaceRule(ctx, index, rule); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replaced rule %d\n", index)
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}

func newRulesRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove a user override rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.RemoveRule(ctx, index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed rule %d\n", index)
			return nil
		},
	}
}

func newRulesImportCmd(flags *globalFlags) *cobra.Command {
	var appendRules bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the user overrides with a YAML or JSON rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := store.LoadDefaultsFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			next := loaded
			if appendRules {
				user := a.store.UserOverrides(ctx)
				next = user.Clone()
				next.Rules = append(next.Rules, loaded.Rules...)
			}
			if err := a.store.SaveUserOverrides(ctx, next); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rules (%d user overrides)\n", len(loaded.Rules), len(next.Rules))
			return nil
		},
	}

	cmd.Flags().BoolVar(&appendRules, "append", false, "Append to the existing overrides instead of replacing them")
	return cmd
}

func newRulesExportCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		scope  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a rule list as YAML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			rules, err := rulesInScope(ctx, a, scope)
			if err != nil {
				return err
			}
			data, err := store.EncodeDefaults(rules, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml, json)")
	cmd.Flags().StringVar(&scope, "scope", "user", "Rule list to export (merged, user, base)")
	return cmd
}

func newRulesResetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop every user override",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.SaveUserOverrides(ctx, style.PlotStyleDefaults{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "User overrides cleared")
			return nil
		},
	}
}

func versioned(a *app) (store.Versioned, error) {
	v, ok := store.AsVersioned(a.kv)
	if !ok {
		return nil, fmt.Errorf("%s storage: %w", a.cfg.Storage.Type, store.ErrNoHistory)
	}
	return v, nil
}

func newRulesHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved revisions of the user overrides",
		Long: `History lists every saved version of the user overrides, newest first.
It needs file storage with storage.file.history enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := versioned(a)
			if err != nil {
				return err
			}
			revs, err := v.History(ctx, a.store.Key(), limit)
			if err != nil {
				return err
			}

			return output(cmd.OutOrStdout(), format, revs, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				defer tw.Flush()
				fmt.Fprintln(tw, "REVISION\tSAVED\tORIGIN\tMESSAGE")
				for _, r := range revs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID[:12], r.At.Format(time.RFC3339), orDash(r.Origin), r.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum revisions to list (0 for all)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json, yaml)")
	return cmd
}

func newRulesRestoreCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <revision>",
		Short: "Save an earlier revision of the user overrides as the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := versioned(a)
			if err != nil {
				return err
			}
			raw, err := v.ValueAt(ctx, a.store.Key(), args[0])
			if err != nil {
				return err
			}
			old, err := store.DecodeDefaults(raw, "json")
			if err != nil {
				return fmt.Errorf("revision %s: %w", args[0], err)
			}
			if err := a.store.SaveUserOverrides(ctx, old); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d user overrides from %s\n", len(old.Rules), args[0])
			return nil
		},
	}
}
