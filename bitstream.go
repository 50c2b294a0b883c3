package grib2jma

import "fmt"

// symbolReader yields fixed-width symbols from the Section 7 stream.
// Bits are consumed MSB-first within each byte. Trailing bits too few to
// form a whole symbol are padding.
type symbolReader struct {
	buf   []byte
	pos   int // current bit position
	width int // bits per symbol, 1..16
}

func newSymbolReader(b []byte, width int) (*symbolReader, error) {
	if width < 1 || width > maxSymbolBits {
		return nil, fmt.Errorf("symbol width %d outside [1, %d]", width, maxSymbolBits)
	}
	return &symbolReader{buf: b, width: width}, nil
}

// more reports whether another whole symbol is available.
func (r *symbolReader) more() bool { return r.pos+r.width <= len(r.buf)*8 }

// next returns the next symbol. Callers check more first.
func (r *symbolReader) next() int {
	// Byte-aligned 8-bit symbols are the common case for this product.
	if r.width == 8 && r.pos%8 == 0 {
		v := int(r.buf[r.pos/8])
		r.pos += 8
		return v
	}
	v := 0
	for i := 0; i < r.width; i++ {
		byteIdx := (r.pos + i) / 8
		bitIdx := 7 - ((r.pos + i) % 8)
		v = v<<1 | int((r.buf[byteIdx]>>bitIdx)&1)
	}
	r.pos += r.width
	return v
}

// bytePos returns the byte index holding the next unread bit.
func (r *symbolReader) bytePos() int { return r.pos / 8 }
