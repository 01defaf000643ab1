package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dlblack/sad-sandbox-sub000/style"
)

type resolveResult struct {
	Query      resolveQuery      `json:"query" yaml:"query"`
	Matched    bool              `json:"matched" yaml:"matched"`
	Style      style.SeriesStyle `json:"style" yaml:"style"`
	Candidates []style.Candidate `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

type resolveQuery struct {
	Kind        style.Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Parameter   string     `json:"parameter,omitempty" yaml:"parameter,omitempty"`
	Canonical   string     `json:"canonical,omitempty" yaml:"canonical,omitempty"`
	SeriesName  string     `json:"seriesName,omitempty" yaml:"seriesName,omitempty"`
	SeriesIndex *int       `json:"seriesIndex,omitempty" yaml:"seriesIndex,omitempty"`
}

func newResolveCmd(flags *globalFlags) *cobra.Command {
	var (
		kind        string
		parameter   string
		seriesName  string
		seriesIndex int
		explain     bool
		format      string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the style the merged rules pick for a series",
		Long: `Resolve scores every merged rule against the given series key and prints
the winning style. With --explain every matching rule is listed with its
per-field score.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := style.Query{
				Kind:       style.Kind(kind),
				Parameter:  parameter,
				SeriesName: seriesName,
			}
			if cmd.Flags().Changed("series-index") {
				query.SeriesIndex = style.Int(seriesIndex)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			merged := a.store.Merged()
			found, ok := merged.Resolve(query)
			result := resolveResult{
				Query: resolveQuery{
					Kind:        query.Kind,
					Parameter:   parameter,
					Canonical:   style.CanonicalParameter(parameter),
					SeriesName:  query.SeriesName,
					SeriesIndex: query.SeriesIndex,
				},
				Matched: ok,
				Style:   found,
			}
			if explain {
				result.Candidates = style.Explain(merged.Rules, query)
			}

			return output(cmd.OutOrStdout(), format, result, func(w io.Writer) error {
				return resolveTable(w, result)
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Plot kind")
	cmd.Flags().StringVar(&parameter, "parameter", "", "Parameter; aliases are canonicalized")
	cmd.Flags().StringVar(&seriesName, "series-name", "", "Series name")
	cmd.Flags().IntVar(&seriesIndex, "series-index", 0, "Series index")
	cmd.Flags().BoolVar(&explain, "explain", false, "List every matching rule with its score")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json, yaml)")
	return cmd
}

func resolveTable(w io.Writer, r resolveResult) error {
	if !r.Matched {
		fmt.Fprintln(w, "No rule matches")
	} else {
		ts := style.ToTraceStyle(r.Style)
		fmt.Fprintf(w, "Mode:  %s\n", ts.Mode)
		fmt.Fprintf(w, "Line:  color=%s width=%s dash=%s\n",
			orDash(ts.Line.Color), optionalFloat(ts.Line.Width), orDash(string(ts.Line.Dash)))
		if ts.Marker != nil {
			fmt.Fprintf(w, "Point: fill=%s line=%s size=%s symbol=%s\n",
				orDash(ts.Marker.Color), orDash(ts.Marker.LineColor), optionalFloat(ts.Marker.Size), orDash(ts.Marker.Symbol))
		}
		if ts.Name != "" {
			fmt.Fprintf(w, "Label: %s\n", ts.Name)
		}
	}

	if len(r.Candidates) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, "INDEX\tSCORE\tFIELDS\tKIND\tPARAMETER\tSERIES\tSELECTED")
	for _, c := range r.Candidates {
		selected := ""
		if c.Selected {
			selected = "*"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n", c.Index, c.Score, fieldScores(c.Fields),
			orDash(string(c.Rule.Match.Kind)), orDash(c.Rule.Match.Parameter), orDash(c.Rule.Match.SeriesName), selected)
	}
	return nil
}

func fieldScores(fields map[string]int) string {
	names := make([]string, 0, len(fields))
	for name, score := range fields {
		if score > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s+%d", name, fields[name])
	}
	return strings.Join(parts, " ")
}
