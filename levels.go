package grib2jma

import "math"

// scaleLevels converts raw Section 5 level values to physical units.
// The scale 10^d is built as an integer before the single division.
func scaleLevels(raw []uint16, d uint8) []float64 {
	scale := int64(1)
	for i := uint8(0); i < d; i++ {
		scale *= 10
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v) / float64(scale)
	}
	return out
}

// levelLookup returns the symbol → value table: index 0 is missing (NaN),
// index k is levels[k-1].
func levelLookup(levels []float64) []float64 {
	lut := make([]float64, len(levels)+1)
	lut[0] = math.NaN()
	copy(lut[1:], levels)
	return lut
}

// mapLevels replaces every level index by its physical value.
func mapLevels(symbols []uint16, lut []float64, base int64) ([]float64, error) {
	vals := make([]float64, len(symbols))
	for i, s := range symbols {
		if int(s) >= len(lut) {
			return nil, newError(ErrInvalidSymbol, 7, "data", base,
				"level index %d at cell %d exceeds %d levels", s, i, len(lut)-1)
		}
		vals[i] = lut[s]
	}
	return vals, nil
}
