package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type jsonStats struct {
	Cells    int      `json:"cells"`
	Missing  int      `json:"missing"`
	Positive int      `json:"positive"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Mean     *float64 `json:"mean"`
	StdDev   *float64 `json:"stddev"`
}

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <source>",
		Short: "Print summary statistics of the decoded grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p.Grid == nil {
				return fmt.Errorf("%s: no grid decoded", args[0])
			}
			s := p.Grid.Stats()
			out := jsonStats{
				Cells:    s.Cells,
				Missing:  s.Missing,
				Positive: s.Positive,
				Min:      finite(s.Min),
				Max:      finite(s.Max),
				Mean:     finite(s.Mean),
				StdDev:   finite(s.StdDev),
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return emitJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "\n")
			fmt.Fprintf(w, "  Cells    : %d (%d missing, %d positive)\n", s.Cells, s.Missing, s.Positive)
			fmt.Fprintf(w, "  Min      : %s\n", format(out.Min))
			fmt.Fprintf(w, "  Max      : %s\n", format(out.Max))
			fmt.Fprintf(w, "  Mean     : %s\n", format(out.Mean))
			fmt.Fprintf(w, "  Std dev  : %s\n", format(out.StdDev))
			fmt.Fprintf(w, "\n")
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func format(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

// emitJSON writes v to w as indented JSON.
func emitJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}
