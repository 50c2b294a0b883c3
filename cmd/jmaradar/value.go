package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"
)

type jsonLocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// jsonValue is the response of the value command. Value is null for a
// missing cell.
type jsonValue struct {
	Location jsonLocation `json:"location"`
	Row      int          `json:"row"`
	Column   int          `json:"column"`
	Value    *float64     `json:"value"`
}

func newValueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "value <source> <lat> <lon>",
		Short: "Print the nearest grid value at a point",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid lat %q: %w", args[1], err)
			}
			lon, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid lon %q: %w", args[2], err)
			}
			p, err := a.loadProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p.Section3 == nil || p.Grid == nil {
				return fmt.Errorf("%s: no grid decoded", args[0])
			}
			g, err := p.Section3.Geometry()
			if err != nil {
				return err
			}
			i, j := g.LatLonToIJ(lat, lon)
			if i < 0 || i >= g.Ni || j < 0 || j >= g.Nj {
				return fmt.Errorf("(%.4f, %.4f) is outside the grid", lat, lon)
			}

			out := jsonValue{
				Location: jsonLocation{Lat: lat, Lon: lon},
				Row:      j,
				Column:   i,
				Value:    finite(p.Grid.At(j, i)),
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return emitJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "\n")
			fmt.Fprintf(w, "  Location : %.4f°N  %.4f°E\n", lat, lon)
			fmt.Fprintf(w, "  Cell     : row %d, column %d\n", j, i)
			if out.Value == nil {
				fmt.Fprintf(w, "  Value    : missing\n")
			} else {
				fmt.Fprintf(w, "  Value    : %g\n", *out.Value)
			}
			fmt.Fprintf(w, "\n")
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

// finite returns nil for NaN so JSON output can carry missing values.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
