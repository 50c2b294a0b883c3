package grib2jma

import (
	"fmt"
	"math"
)

// bitmap is a Section 6 presence map. It is MSB-first: bit 7 of byte 0 is
// cell 0, bit 6 of byte 0 is cell 1, and so on. Bits past the end are unset.
type bitmap []byte

func (b bitmap) has(i int) bool {
	if i/8 >= len(b) {
		return false
	}
	return b[i/8]>>(7-uint(i%8))&1 == 1
}

// count returns the number of cells among the first n that carry data.
func (b bitmap) count(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		if b.has(i) {
			c++
		}
	}
	return c
}

// expand spreads packed values, one per set bit, over n cells and fills the
// rest with NaN.
func (b bitmap) expand(vals []float64, n int) ([]float64, error) {
	if set := b.count(n); set != len(vals) {
		return nil, fmt.Errorf("bitmap has %d set bits for %d values: %w",
			set, len(vals), ErrGridSizeMismatch)
	}
	out := make([]float64, n)
	vi := 0
	for i := range out {
		if !b.has(i) {
			out[i] = math.NaN()
			continue
		}
		out[i] = vals[vi]
		vi++
	}
	return out, nil
}
