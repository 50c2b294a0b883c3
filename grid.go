package grib2jma

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Default shape of the 1 km composite radar grid.
const (
	DefaultRows    = 3360
	DefaultColumns = 2560
)

// Grid is a decoded field of physical values. Missing cells are NaN.
// Values are stored row-major: Vals[row*Columns + col].
type Grid struct {
	Rows, Columns int
	Vals          []float64
}

// At returns the value at (row, col), or NaN outside the grid.
func (g *Grid) At(row, col int) float64 {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Columns {
		return math.NaN()
	}
	return g.Vals[row*g.Columns+col]
}

// Dense returns a gonum matrix view sharing the grid's storage.
func (g *Grid) Dense() *mat.Dense {
	return mat.NewDense(g.Rows, g.Columns, g.Vals)
}

// Stats summarises the non-missing cells of a grid.
type Stats struct {
	Cells    int
	Missing  int
	Positive int // cells with a value above zero
	Min, Max float64
	Mean     float64
	StdDev   float64
}

// Stats computes summary statistics over non-NaN cells. Min, Max, Mean and
// StdDev are NaN when every cell is missing.
func (g *Grid) Stats() Stats {
	valid := make([]float64, 0, len(g.Vals))
	s := Stats{Cells: len(g.Vals)}
	for _, v := range g.Vals {
		if math.IsNaN(v) {
			s.Missing++
			continue
		}
		if v > 0 {
			s.Positive++
		}
		valid = append(valid, v)
	}
	if len(valid) == 0 {
		nan := math.NaN()
		s.Min, s.Max, s.Mean, s.StdDev = nan, nan, nan, nan
		return s
	}
	s.Min = floats.Min(valid)
	s.Max = floats.Max(valid)
	s.Mean, s.StdDev = stat.MeanStdDev(valid, nil)
	return s
}
