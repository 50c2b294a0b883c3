package main

import (
	"fmt"
	"io"
	"time"

	"github.com/geal-ai/grib2jma"
	"github.com/spf13/cobra"
)

// jsonSpan is one entry of the section table.
type jsonSpan struct {
	Number int   `json:"number"`
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

// jsonGrid describes the grid geometry.
type jsonGrid struct {
	Ni       int     `json:"ni"`
	Nj       int     `json:"nj"`
	La1      float64 `json:"la1"`
	Lo1      float64 `json:"lo1"`
	La2      float64 `json:"la2"`
	Lo2      float64 `json:"lo2"`
	Di       float64 `json:"di"`
	Dj       float64 `json:"dj"`
	ScanMode byte    `json:"scan_mode"`
}

// jsonInfo is the top-level info response.
type jsonInfo struct {
	Source        string     `json:"source"`
	Edition       uint8      `json:"edition"`
	TotalLength   uint64     `json:"total_length"`
	Center        *uint16    `json:"center,omitempty"`
	ReferenceTime string     `json:"reference_time,omitempty"`
	IntervalEnd   string     `json:"interval_end,omitempty"`
	Parameter     string     `json:"parameter,omitempty"`
	Grid          *jsonGrid  `json:"grid,omitempty"`
	MaxLevel      *uint16    `json:"max_level,omitempty"`
	Levels        []float64  `json:"levels,omitempty"`
	Bitmap        bool       `json:"bitmap"`
	Sections      []jsonSpan `json:"sections"`
	Decoded       bool       `json:"grid_decoded"`
}

func newInfoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <source>",
		Short: "Print section metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := buildInfo(args[0], p)
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return emitJSON(cmd.OutOrStdout(), out)
			}
			printInfo(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func buildInfo(src string, p *grib2jma.Product) jsonInfo {
	out := jsonInfo{
		Source:      src,
		Edition:     p.Section0.Edition,
		TotalLength: p.Section0.TotalLength,
		Decoded:     p.Grid != nil,
	}
	if s := p.Section1; s != nil {
		out.Center = &s.Center
		out.ReferenceTime = s.ReferenceTime.Format(time.RFC3339)
	}
	if s := p.Section3; s != nil {
		if g, err := s.Geometry(); err == nil {
			out.Grid = &jsonGrid{
				Ni: g.Ni, Nj: g.Nj,
				La1: g.La1, Lo1: g.Lo1, La2: g.La2, Lo2: g.Lo2,
				Di: g.Di, Dj: g.Dj,
				ScanMode: g.ScanMode,
			}
		}
	}
	if s := p.Section4; s != nil {
		out.IntervalEnd = s.IntervalEnd.Format(time.RFC3339)
		out.Parameter = fmt.Sprintf("%d.%d", s.ParameterCategory, s.ParameterNumber)
	}
	if s := p.Section5; s != nil {
		out.MaxLevel = &s.MaxLevel
		out.Levels = s.Levels
	}
	if s := p.Section6; s != nil {
		out.Bitmap = s.Bitmap != nil
	}
	for _, sp := range p.Spans {
		out.Sections = append(out.Sections, jsonSpan{Number: sp.Number, Offset: sp.Offset, Length: sp.Length})
	}
	return out
}

func printInfo(w io.Writer, in jsonInfo) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Source    : %s\n", in.Source)
	fmt.Fprintf(w, "  Edition   : %d (%d bytes)\n", in.Edition, in.TotalLength)
	if in.Center != nil {
		fmt.Fprintf(w, "  Center    : %d\n", *in.Center)
		fmt.Fprintf(w, "  Reference : %s\n", in.ReferenceTime)
	}
	if in.IntervalEnd != "" {
		fmt.Fprintf(w, "  Interval  : ends %s\n", in.IntervalEnd)
		fmt.Fprintf(w, "  Parameter : %s\n", in.Parameter)
	}
	if g := in.Grid; g != nil {
		fmt.Fprintf(w, "  Grid      : %d x %d, %.6f°N %.6f°E to %.6f°N %.6f°E\n",
			g.Ni, g.Nj, g.La1, g.Lo1, g.La2, g.Lo2)
		fmt.Fprintf(w, "  Step      : %.6f° x %.6f°\n", g.Di, g.Dj)
	}
	if in.MaxLevel != nil {
		fmt.Fprintf(w, "  Levels    : %d (max index %d)\n", len(in.Levels), *in.MaxLevel)
	}
	if !in.Decoded {
		fmt.Fprintf(w, "  Grid data : not decoded\n")
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  %-8s  %10s  %10s\n", "section", "offset", "length")
	for _, s := range in.Sections {
		fmt.Fprintf(w, "  %-8d  %10d  %10d\n", s.Number, s.Offset, s.Length)
	}
	fmt.Fprintf(w, "\n")
}
