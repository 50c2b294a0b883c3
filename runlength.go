package grib2jma

// maxSymbolBits bounds nbit so level indices fit uint16.
const maxSymbolBits = 16

// decodeRunLength expands a run-length symbol stream into exactly n level
// indices.
//
// Symbols <= maxv are level indices. Symbols > maxv are digits of the run
// length of the preceding level, least significant first, in radix
// 2^nbit-1-maxv with digit value symbol-(maxv+1). A level followed by digits
// d0..dk is repeated 1 + sum(dm * radix^m) times.
//
// base is the absolute offset of the stream's first byte, used in errors.
func decodeRunLength(stream []byte, nbit, maxv, n int, base int64) ([]uint16, error) {
	if nbit < 1 || nbit > maxSymbolBits {
		return nil, newError(ErrInvalidTemplate, 5, "bits per value", base,
			"nbit %d outside [1, %d]", nbit, maxSymbolBits)
	}
	if maxv < 0 || maxv >= 1<<nbit {
		return nil, newError(ErrInvalidTemplate, 5, "max level", base,
			"maxv %d does not fit %d-bit symbols", maxv, nbit)
	}
	sr, err := newSymbolReader(stream, nbit)
	if err != nil {
		return nil, err
	}
	radix := 1<<nbit - 1 - maxv

	// Grow past the default grid only as cells are actually decoded.
	out := make([]uint16, 0, min(n, DefaultRows*DefaultColumns))
	pending := -1
	var digits []int

	flush := func(at int64) error {
		remaining := n - len(out)
		count := repeatCount(digits, radix, maxv, remaining)
		if count > remaining {
			return newError(ErrGridSizeMismatch, 7, "data", at,
				"run of level %d overruns grid of %d cells", pending, n)
		}
		for i := 0; i < count; i++ {
			out = append(out, uint16(pending))
		}
		digits = digits[:0]
		return nil
	}

	for sr.more() {
		at := base + int64(sr.bytePos())
		v := sr.next()
		if v > maxv {
			if pending < 0 {
				return nil, newError(ErrInvalidSymbol, 7, "data", at,
					"run-length digit %d before any level", v)
			}
			digits = append(digits, v)
			continue
		}
		if pending >= 0 {
			if err := flush(at); err != nil {
				return nil, err
			}
		}
		pending = v
	}
	end := base + int64(len(stream))
	if pending < 0 {
		return nil, newError(ErrGridSizeMismatch, 7, "data", end,
			"stream holds no levels, want %d cells", n)
	}
	if err := flush(end); err != nil {
		return nil, err
	}
	if len(out) != n {
		return nil, newError(ErrGridSizeMismatch, 7, "data", end,
			"decoded %d cells, want %d", len(out), n)
	}
	return out, nil
}

// repeatCount returns 1 + sum((digits[m]-(maxv+1)) * radix^m), saturated at
// limit+1 so callers can detect an overrun without integer overflow.
func repeatCount(digits []int, radix, maxv, limit int) int {
	ceiling := limit + 1
	count, weight := 1, 1
	for m, d := range digits {
		if m > 0 {
			weight = satMul(weight, radix, ceiling)
		}
		count = satAdd(count, satMul(weight, d-(maxv+1), ceiling), ceiling)
	}
	return count
}

func satMul(a, b, ceiling int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a >= ceiling || b >= ceiling || a > ceiling/b {
		return ceiling
	}
	return min(a*b, ceiling)
}

func satAdd(a, b, ceiling int) int {
	return min(a+b, ceiling)
}
